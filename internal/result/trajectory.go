package result

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/simres/internal/matfile"
	"github.com/san-kum/simres/internal/units"
)

// VarKind is the declared value type of a variable. The file stores every
// sample as a float; discrete kinds are rounded on access.
type VarKind int

const (
	Real VarKind = iota
	Integer
	Boolean
)

func (k VarKind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case Boolean:
		return "Boolean"
	default:
		return "Real"
	}
}

// Type sentinels Dymola appends to the unit of discrete variables.
const (
	integerSentinel = ":#(type=Integer)"
	booleanSentinel = ":#(type=Boolean)"
)

// Block is one shared trajectory table. Data is time-major: Data[i] holds
// sample i of every signal, and column 0 is the time base. Variables hold
// column indices into the block instead of copies of its columns.
type Block struct {
	Index int
	Data  [][]float64

	times []float64
}

func newBlock(index int, data [][]float64) (*Block, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, malformed("dataset %d is empty", index)
	}
	b := &Block{Index: index, Data: data}
	b.times = b.Column(0)
	return b, nil
}

// Width returns the number of columns, time included.
func (b *Block) Width() int { return len(b.Data[0]) }

// Len returns the number of samples.
func (b *Block) Len() int { return len(b.Data) }

// Times returns the shared time base of the block. The slice is shared;
// callers must not modify it.
func (b *Block) Times() []float64 { return b.times }

// Column copies column j out of the time-major storage.
func (b *Block) Column(j int) []float64 {
	out := make([]float64, len(b.Data))
	for i, row := range b.Data {
		out[i] = row[j]
	}
	return out
}

// Variable is one decoded result variable. It references its samples
// through the shared block; negation and discrete rounding happen in
// Values, never in the stored data.
type Variable struct {
	Name        string
	Description string
	Unit        string
	DisplayUnit string
	Kind        VarKind
	Dataset     int
	Column      int // 0-based; 0 is the time column
	Negated     bool

	block *Block
}

// Times returns the variable's time base.
func (v *Variable) Times() []float64 { return v.block.Times() }

// Len returns the sample count.
func (v *Variable) Len() int { return v.block.Len() }

// Values returns the variable's samples on a fresh slice, sign-flipped
// when the variable is stored negated and rounded for discrete kinds.
func (v *Variable) Values() []float64 {
	vals := v.block.Column(v.Column)
	if v.Negated {
		for i := range vals {
			vals[i] = -vals[i]
		}
	}
	if v.Kind != Real {
		for i := range vals {
			vals[i] = math.Round(vals[i])
		}
	}
	return vals
}

// Trajectory is the decoded variable set of one simulation result.
type Trajectory struct {
	Path     string
	Version  string
	Blocks   map[int]*Block
	Warnings []Warning

	vars  map[string]*Variable
	order []string
}

// Variable looks up a variable by full name.
func (t *Trajectory) Variable(name string) (*Variable, bool) {
	v, ok := t.vars[name]
	return v, ok
}

// Names returns all variable names in file order.
func (t *Trajectory) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of variables.
func (t *Trajectory) Len() int { return len(t.vars) }

func (t *Trajectory) add(v *Variable) {
	if _, ok := t.vars[v.Name]; !ok {
		t.order = append(t.order, v.Name)
	}
	t.vars[v.Name] = v
}

// LoadTrajectory reads a simulation result file. With constantsOnly set
// only the first dataset block is materialized; variables stored in later
// blocks are omitted from the mapping.
func LoadTrajectory(path string, constantsOnly bool) (*Trajectory, error) {
	var opts []matfile.Option
	if constantsOnly {
		opts = append(opts, matfile.WithConstantsOnly())
	}
	f, err := matfile.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return DecodeTrajectory(f, units.Default())
}

// DecodeTrajectory decodes a classified raw matrix set with an explicit
// unit table.
func DecodeTrajectory(f *matfile.File, table units.Table) (*Trajectory, error) {
	kind, version, err := Classify(f)
	if err != nil {
		return nil, err
	}
	if kind != KindTrajectory {
		return nil, &KindMismatchError{Path: f.Path, Want: KindTrajectory, Got: kind}
	}

	t := &Trajectory{
		Path:    f.Path,
		Version: version,
		Blocks:  make(map[int]*Block),
		vars:    make(map[string]*Variable),
	}
	if version == "1.0" {
		err = decodeLegacy(f, t)
	} else {
		err = decodeMultiset(f, t, table)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// decodeMultiset handles format version 1.1: variables spread over
// data_1..data_n blocks, metadata in dataInfo and description.
func decodeMultiset(f *matfile.File, t *Trajectory, table units.Table) error {
	names, err := textMatrix(f, "name")
	if err != nil {
		return err
	}
	descs, err := textMatrix(f, "description")
	if err != nil {
		return err
	}
	info, ok := f.Matrix("dataInfo")
	if !ok || info.IsText() {
		return malformed("missing dataInfo matrix")
	}
	if len(info.Values) != len(names) {
		return malformed("dataInfo has %d rows for %d variables", len(info.Values), len(names))
	}

	// Probe dataset blocks in increasing order; the first missing index
	// ends the sequence.
	last := 0
	for i := 1; ; i++ {
		m, ok := f.Matrix(fmt.Sprintf("data_%d", i))
		if !ok {
			break
		}
		b, err := newBlock(i, m.Values)
		if err != nil {
			return err
		}
		t.Blocks[i] = b
		last = i
	}
	if last == 0 {
		return malformed("no dataset blocks")
	}

	for i, name := range names {
		row := info.Values[i]
		if len(row) < 2 {
			return malformed("dataInfo row %d too short", i)
		}
		dataset := int(row[0])
		signCol := int(row[1])

		v := &Variable{Name: name, Dataset: dataset}
		if dataset < 1 {
			// Dataset 0 marks the time variable itself: it belongs to
			// every block and reads the time column of the last one.
			v.Dataset = last
			v.Column = 0
			v.Unit, v.DisplayUnit = "s", "s"
			v.block = t.Blocks[last]
			if i < len(descs) {
				v.Description, _, _ = units.SplitDescription(descs[i])
			}
			t.add(v)
			continue
		}

		block, ok := t.Blocks[dataset]
		if !ok {
			if f.Partial {
				continue // skipped by a constants-only load
			}
			return malformed("variable %s references missing dataset %d", name, dataset)
		}
		col := signCol
		if col < 0 {
			col = -col
			v.Negated = true
		}
		col-- // 1-based on disk, position 0 is the time column
		if col < 0 || col >= block.Width() {
			return malformed("variable %s: column %d outside dataset %d (width %d)",
				name, signCol, dataset, block.Width())
		}
		v.Column = col
		v.block = block

		raw := ""
		if i < len(descs) {
			raw = descs[i]
		}
		if warn := resolveMeta(v, raw, table); warn != nil {
			t.Warnings = append(t.Warnings, Warning{Variable: name, Err: warn})
		}
		t.add(v)
	}

	t.addTime(last)
	return nil
}

// decodeLegacy handles format version 1.0: a single data matrix, time in
// column 0, variable i in column i+1, no metadata.
func decodeLegacy(f *matfile.File, t *Trajectory) error {
	names, err := textMatrix(f, "names")
	if err != nil {
		return err
	}
	m, ok := f.Matrix("data")
	if !ok || m.IsText() {
		return malformed("missing data matrix")
	}
	block, err := newBlock(1, m.Values)
	if err != nil {
		return err
	}
	t.Blocks[1] = block

	for i, name := range names {
		col := i + 1
		if col >= block.Width() {
			return malformed("variable %s: column %d outside data matrix (width %d)",
				name, col, block.Width())
		}
		t.add(&Variable{Name: name, Dataset: 1, Column: col, block: block})
	}
	t.addTime(1)
	return nil
}

// addTime synthesizes the "Time" variable on the time column of the given
// block unless the file already declared one.
func (t *Trajectory) addTime(dataset int) {
	if _, ok := t.vars["Time"]; ok {
		return
	}
	t.add(&Variable{
		Name:        "Time",
		Description: "Simulation time",
		Unit:        "s",
		DisplayUnit: "s",
		Dataset:     dataset,
		Column:      0,
		block:       t.Blocks[dataset],
	})
}

// resolveMeta fills a variable's description and unit fields from the raw
// combined description string. A unit that fails to parse downgrades the
// variable to the dimensionless defaults and is reported as a warning,
// never as a load failure.
func resolveMeta(v *Variable, raw string, table units.Table) error {
	desc, unit, display := units.SplitDescription(raw)
	v.Description = desc

	switch {
	case strings.HasSuffix(unit, integerSentinel):
		v.Kind = Integer
		return nil
	case strings.HasSuffix(unit, booleanSentinel):
		v.Kind = Boolean
		return nil
	}

	if unit == "" {
		return nil
	}

	if units.IsLegacyDimension(unit) {
		// Dimension-only encoding: the text names a physical dimension,
		// not a unit, so the display unit comes from the dimension
		// defaults.
		trimmed := strings.TrimSpace(unit)
		dim, err := table.Parse(trimmed)
		if err != nil {
			v.Unit, v.DisplayUnit = "1", "/"
			return fmt.Errorf("legacy dimension %q: %w", trimmed, err)
		}
		v.Unit = trimmed
		if d, ok := table.Display(dim); ok {
			v.DisplayUnit = d
		} else {
			v.DisplayUnit = trimmed
		}
		return nil
	}

	dim, err := table.Parse(unit)
	if err != nil {
		v.Unit, v.DisplayUnit = "1", "/"
		return fmt.Errorf("unit %q: %w", unit, err)
	}
	v.Unit = unit
	v.DisplayUnit = display
	if display == unit {
		// No explicit display unit: fall back to the dimension default.
		if d, ok := table.Display(dim); ok {
			v.DisplayUnit = d
		}
	}
	return nil
}

func textMatrix(f *matfile.File, name string) ([]string, error) {
	m, ok := f.Matrix(name)
	if !ok {
		return nil, malformed("missing %s matrix", name)
	}
	if !m.IsText() {
		return nil, malformed("%s is not a character matrix", name)
	}
	return m.Text, nil
}
