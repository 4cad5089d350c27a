package result

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/simres/internal/matfile"
	"github.com/san-kum/simres/internal/units"
)

// trajFile builds a synthetic v1.1 raw matrix set: two dataset blocks,
// one negated variable, one Integer variable, one broken unit.
func trajFile() *matfile.File {
	return &matfile.File{
		Path:  "synthetic.mat",
		Class: []string{"Atrajectory", "1.1", "", "binNormal"},
		Matrices: map[string]*matfile.Matrix{
			"name": matfile.NewText("name", []string{
				"Time", "body.m", "body.v", "body.i", "body.n", "body.bad",
			}),
			"description": matfile.NewText("description", []string{
				"Time in [s]",
				"Mass [kg]",
				"Velocity [m/s]",
				"Event count [:#(type=Integer)]",
				"Velocity mirror [m/s]",
				"Broken [w4at?]",
			}),
			"dataInfo": matfile.NewNumeric("dataInfo", [][]float64{
				{0, 1, 0, -1},
				{1, 2, 0, 0},
				{2, 2, 0, -1},
				{2, 3, 0, -1},
				{2, -2, 0, -1},
				{2, 4, 0, -1},
			}),
			"data_1": matfile.NewNumeric("data_1", [][]float64{
				{0, 2.5},
				{10, 2.5},
			}),
			"data_2": matfile.NewNumeric("data_2", [][]float64{
				{0, 1.0, 3, 7},
				{5, -1.5, 4, 8},
				{10, 2.25, 5, 9},
			}),
		},
	}
}

func TestDecodeTrajectory(t *testing.T) {
	traj, err := DecodeTrajectory(trajFile(), units.Default())
	if err != nil {
		t.Fatal(err)
	}

	if traj.Len() != 6 {
		t.Fatalf("decoded %d variables, want 6", traj.Len())
	}
	if len(traj.Blocks) != 2 {
		t.Fatalf("decoded %d blocks, want 2", len(traj.Blocks))
	}

	tests := []struct {
		name    string
		unit    string
		display string
		kind    VarKind
		dataset int
		negated bool
		values  []float64
	}{
		{"Time", "s", "s", Real, 2, false, []float64{0, 5, 10}},
		{"body.m", "kg", "kg", Real, 1, false, []float64{2.5, 2.5}},
		{"body.v", "m/s", "m/s", Real, 2, false, []float64{1.0, -1.5, 2.25}},
		{"body.i", "", "", Integer, 2, false, []float64{3, 4, 5}},
		{"body.n", "m/s", "m/s", Real, 2, true, []float64{-1.0, 1.5, -2.25}},
		{"body.bad", "1", "/", Real, 2, false, []float64{7, 8, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := traj.Variable(tt.name)
			if !ok {
				t.Fatalf("variable %s missing", tt.name)
			}
			if v.Unit != tt.unit || v.DisplayUnit != tt.display {
				t.Errorf("unit = (%q, %q), want (%q, %q)", v.Unit, v.DisplayUnit, tt.unit, tt.display)
			}
			if v.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", v.Kind, tt.kind)
			}
			if v.Dataset != tt.dataset {
				t.Errorf("dataset = %d, want %d", v.Dataset, tt.dataset)
			}
			if v.Negated != tt.negated {
				t.Errorf("negated = %v, want %v", v.Negated, tt.negated)
			}
			if got := v.Values(); !reflect.DeepEqual(got, tt.values) {
				t.Errorf("values = %v, want %v", got, tt.values)
			}
		})
	}

	// One broken unit, exactly one warning, and the other variables are
	// untouched by it.
	if len(traj.Warnings) != 1 || traj.Warnings[0].Variable != "body.bad" {
		t.Errorf("warnings = %v, want one for body.bad", traj.Warnings)
	}
}

func TestNegationIsAView(t *testing.T) {
	traj, err := DecodeTrajectory(trajFile(), units.Default())
	if err != nil {
		t.Fatal(err)
	}
	pos, _ := traj.Variable("body.v")
	neg, _ := traj.Variable("body.n")

	if pos.block != neg.block {
		t.Fatal("negated variable should share its block")
	}
	if pos.Column != neg.Column {
		t.Fatal("negated variable should share its column")
	}

	want := pos.Values()
	got := neg.Values()
	for i := range want {
		if got[i] != -want[i] {
			t.Fatalf("negated values = %v, want element-wise -%v", got, want)
		}
	}

	// Values hands out fresh slices: mutating one read must not leak
	// into the shared storage.
	got[0] = 999
	if again := neg.Values(); again[0] == 999 {
		t.Error("Values returned shared storage")
	}
}

func TestDecodeTimeAlias(t *testing.T) {
	traj, err := DecodeTrajectory(trajFile(), units.Default())
	if err != nil {
		t.Fatal(err)
	}
	v, ok := traj.Variable("Time")
	if !ok {
		t.Fatal("Time variable missing")
	}
	if v.Unit != "s" || v.Column != 0 || v.Dataset != 2 {
		t.Errorf("Time = unit %q dataset %d column %d", v.Unit, v.Dataset, v.Column)
	}
	if !reflect.DeepEqual(v.Times(), v.Values()) {
		t.Error("Time values should equal its own time base")
	}
}

func TestSyntheticTime(t *testing.T) {
	f := trajFile()
	// Drop the declared Time row; the decoder must synthesize one.
	f.Matrices["name"] = matfile.NewText("name", []string{"", "body.m", "body.v", "body.i", "body.n", "body.bad"})
	traj, err := DecodeTrajectory(f, units.Default())
	if err != nil {
		t.Fatal(err)
	}
	v, ok := traj.Variable("Time")
	if !ok {
		t.Fatal("synthetic Time missing")
	}
	if v.Unit != "s" || v.Dataset != 2 || v.Column != 0 {
		t.Errorf("synthetic Time = unit %q dataset %d column %d", v.Unit, v.Dataset, v.Column)
	}
}

func TestDecodeLegacy(t *testing.T) {
	f := &matfile.File{
		Path:  "legacy.mat",
		Class: []string{"Atrajectory", "1.0"},
		Matrices: map[string]*matfile.Matrix{
			"names": matfile.NewText("names", []string{"x1", "x2"}),
			"data": matfile.NewNumeric("data", [][]float64{
				{0, 1, 4},
				{1, 2, 5},
				{2, 3, 6},
			}),
		},
	}
	traj, err := DecodeTrajectory(f, units.Default())
	if err != nil {
		t.Fatal(err)
	}
	x1, ok := traj.Variable("x1")
	if !ok {
		t.Fatal("x1 missing")
	}
	if x1.Unit != "" || x1.Kind != Real {
		t.Errorf("legacy variables carry no metadata, got unit %q", x1.Unit)
	}
	if !reflect.DeepEqual(x1.Values(), []float64{1, 2, 3}) {
		t.Errorf("x1 values = %v", x1.Values())
	}
	tm, ok := traj.Variable("Time")
	if !ok {
		t.Fatal("Time missing")
	}
	if !reflect.DeepEqual(tm.Values(), []float64{0, 1, 2}) {
		t.Errorf("time = %v", tm.Values())
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name  string
		class []string
		want  error
	}{
		{"unknown class", []string{"Asomething", "1.1"}, ErrNotResult},
		{"unsupported version", []string{"Atrajectory", "2.0"}, ErrUnsupportedVersion},
		{"empty header", nil, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &matfile.File{Class: tt.class, Matrices: map[string]*matfile.Matrix{}}
			if _, _, err := Classify(f); !errors.Is(err, tt.want) {
				t.Errorf("Classify error = %v, want %v", err, tt.want)
			}
			if _, err := DecodeTrajectory(f, units.Default()); !errors.Is(err, tt.want) {
				t.Errorf("DecodeTrajectory error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKindMismatch(t *testing.T) {
	f := trajFile()
	f.Class = []string{"AlinearSystem", "1.1"}
	_, err := DecodeTrajectory(f, units.Default())
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("want ErrKindMismatch, got %v", err)
	}
	var km *KindMismatchError
	if !errors.As(err, &km) || km.Got != KindLinearSystem {
		t.Errorf("mismatch error should name the found kind, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Run("missing dataset", func(t *testing.T) {
		f := trajFile()
		delete(f.Matrices, "data_2")
		_, err := DecodeTrajectory(f, units.Default())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("want ErrMalformed, got %v", err)
		}
	})

	t.Run("column out of bounds", func(t *testing.T) {
		f := trajFile()
		f.Matrices["dataInfo"].Values[2][1] = 9
		_, err := DecodeTrajectory(f, units.Default())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("want ErrMalformed, got %v", err)
		}
	})

	t.Run("missing name matrix", func(t *testing.T) {
		f := trajFile()
		delete(f.Matrices, "name")
		_, err := DecodeTrajectory(f, units.Default())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("want ErrMalformed, got %v", err)
		}
	})
}

func TestConstantsOnlyPartial(t *testing.T) {
	f := trajFile()
	delete(f.Matrices, "data_2")
	f.Partial = true
	traj, err := DecodeTrajectory(f, units.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := traj.Variable("body.m"); !ok {
		t.Error("dataset-1 variable missing from partial load")
	}
	if _, ok := traj.Variable("body.v"); ok {
		t.Error("dataset-2 variable should be skipped in a partial load")
	}
	if _, ok := traj.Variable("Time"); !ok {
		t.Error("Time missing from partial load")
	}
}

// loadTextTrajectory exercises the full pipeline from a text-format file
// on disk through to decoded variables.
func TestLoadTrajectoryEndToEnd(t *testing.T) {
	content := `#1
char Aclass(4,24)
Atrajectory
1.1

binTrans
char name(2,8)
Time
body.v
char description(2,24)

Velocity [m/s]
int dataInfo(2,4)
0 1 0 -1
1 2 0 -1
float data_1(2,3)
0 5 10
1 2 3
`
	path := filepath.Join(t.TempDir(), "dsres.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	traj, err := LoadTrajectory(path, false)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := traj.Variable("body.v")
	if !ok {
		t.Fatal("body.v missing")
	}
	if v.Unit != "m/s" {
		t.Errorf("unit = %q, want m/s", v.Unit)
	}
	if !reflect.DeepEqual(v.Values(), []float64{1, 2, 3}) {
		t.Errorf("values = %v", v.Values())
	}
	if !reflect.DeepEqual(v.Times(), []float64{0, 5, 10}) {
		t.Errorf("times = %v", v.Times())
	}
}

func TestLoadTrajectoryMissingFile(t *testing.T) {
	_, err := LoadTrajectory(filepath.Join(t.TempDir(), "nope.mat"), false)
	if err == nil || errors.Is(err, matfile.ErrFormat) {
		t.Errorf("want plain I/O error, got %v", err)
	}
}
