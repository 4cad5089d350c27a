package result

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/simres/internal/matfile"
)

// LinearSystem is a state-space model decoded from a linearization result:
//
//	der(x) = A*x + B*u
//	     y = C*x + D*u
//
// A slice with a zero dimension is stored as nil; NX, NU and NY always
// carry the true shape.
type LinearSystem struct {
	Path string

	NX int
	NU int
	NY int

	A *mat.Dense // NX x NX
	B *mat.Dense // NX x NU
	C *mat.Dense // NY x NX
	D *mat.Dense // NY x NU

	StateNames  []string
	InputNames  []string
	OutputNames []string
}

// LoadLinearSystem reads a linearization result file.
func LoadLinearSystem(path string) (*LinearSystem, error) {
	f, err := matfile.Load(path)
	if err != nil {
		return nil, err
	}
	return DecodeLinearSystem(f)
}

// DecodeLinearSystem decodes a classified raw matrix set.
func DecodeLinearSystem(f *matfile.File) (*LinearSystem, error) {
	kind, _, err := Classify(f)
	if err != nil {
		return nil, err
	}
	if kind != KindLinearSystem {
		return nil, &KindMismatchError{Path: f.Path, Want: KindLinearSystem, Got: kind}
	}

	nx, err := scalarMatrix(f, "nx")
	if err != nil {
		return nil, err
	}
	abcd, ok := f.Matrix("ABCD")
	if !ok || abcd.IsText() {
		return nil, malformed("missing ABCD matrix")
	}
	names, err := textMatrix(f, "xuyName")
	if err != nil {
		return nil, err
	}

	rows, cols := abcd.Rows(), abcd.Cols()
	nu := cols - nx
	ny := rows - nx
	if nx < 0 || nu < 0 || ny < 0 {
		return nil, malformed("ABCD is %dx%d with nx=%d", rows, cols, nx)
	}
	if len(names) != nx+nu+ny {
		return nil, malformed("xuyName has %d entries, want %d", len(names), nx+nu+ny)
	}

	ls := &LinearSystem{Path: f.Path, NX: nx, NU: nu, NY: ny}
	ls.A = slice(abcd.Values, 0, nx, 0, nx)
	ls.B = slice(abcd.Values, 0, nx, nx, cols)
	ls.C = slice(abcd.Values, nx, rows, 0, nx)
	ls.D = slice(abcd.Values, nx, rows, nx, cols)
	ls.StateNames = names[:nx]
	ls.InputNames = names[nx : nx+nu]
	ls.OutputNames = names[nx+nu:]
	return ls, nil
}

// slice copies a rectangular region into a dense matrix, or returns nil
// when either dimension is zero. Zero-sized slices are a legal outcome of
// degenerate systems, never an error.
func slice(values [][]float64, r0, r1, c0, c1 int) *mat.Dense {
	rows, cols := r1-r0, c1-c0
	if rows <= 0 || cols <= 0 {
		return nil
	}
	data := make([]float64, 0, rows*cols)
	for r := r0; r < r1; r++ {
		data = append(data, values[r][c0:c1]...)
	}
	return mat.NewDense(rows, cols, data)
}

func scalarMatrix(f *matfile.File, name string) (int, error) {
	m, ok := f.Matrix(name)
	if !ok || m.IsText() || m.Rows() != 1 || m.Cols() != 1 {
		return 0, malformed("missing scalar matrix %s", name)
	}
	v := m.Values[0][0]
	if v != math.Trunc(v) {
		return 0, malformed("%s is not an integer: %v", name, v)
	}
	return int(v), nil
}
