package matfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Orientation describes how data matrices were laid out on disk.
type Orientation int

const (
	// Normal matrices are stored time-major (one row per sample).
	Normal Orientation = iota
	// Transposed matrices are stored variable-major and are flipped back
	// to the normal layout during load.
	Transposed
)

func (o Orientation) String() string {
	if o == Transposed {
		return "binTrans"
	}
	return "binNormal"
}

// classMatrix is the self-describing header every result file must carry.
const classMatrix = "Aclass"

// Matrix is one named matrix in logical (normalized) row order. Numeric
// matrices fill Values; character matrices fill Text with one string per
// logical row, trailing spaces and NULs stripped.
type Matrix struct {
	Name   string
	Values [][]float64
	Text   []string
}

// IsText reports whether the matrix holds character data.
func (m *Matrix) IsText() bool { return m.Text != nil }

// Rows returns the logical row count.
func (m *Matrix) Rows() int {
	if m.IsText() {
		return len(m.Text)
	}
	return len(m.Values)
}

// Cols returns the logical column count of a numeric matrix.
func (m *Matrix) Cols() int {
	if len(m.Values) == 0 {
		return 0
	}
	return len(m.Values[0])
}

// NewNumeric builds a numeric matrix, mainly for tests and synthetic data.
func NewNumeric(name string, values [][]float64) *Matrix {
	return &Matrix{Name: name, Values: values}
}

// NewText builds a character matrix from its logical rows.
func NewText(name string, rows []string) *Matrix {
	return &Matrix{Name: name, Text: rows}
}

// File is the decoded raw matrix set of one result file. It is immutable
// once returned and owned by the caller.
type File struct {
	Path        string
	Matrices    map[string]*Matrix
	Class       []string
	Orientation Orientation
	// Partial marks a file loaded with WithConstantsOnly: dataset
	// matrices past data_1 were skipped and are legitimately absent.
	Partial bool
}

// Matrix looks up a matrix by name.
func (f *File) Matrix(name string) (*Matrix, bool) {
	m, ok := f.Matrices[name]
	return m, ok
}

// Option configures a Load call.
type Option func(*options)

type options struct {
	constantsOnly   bool
	textHeaderLines int
}

// WithConstantsOnly skips the payload of every dataset matrix past data_1.
// Only the block holding parameters and constants is materialized; the
// resulting File is marked Partial.
func WithConstantsOnly() Option {
	return func(o *options) { o.constantsOnly = true }
}

// WithTextHeaderLines sets how many leading lines the text decoder skips
// before the first matrix declaration. The default is 1, matching the
// "#1" tag line Dymola writes.
func WithTextHeaderLines(n int) Option {
	return func(o *options) { o.textHeaderLines = n }
}

// rawMatrix is a matrix as read off the wire, before orientation
// normalization and character decoding.
type rawMatrix struct {
	name     string
	rows     int
	cols     int
	text     bool
	colMajor bool
	data     []float64 // numeric payload
	chars    []byte    // character payload, same element order as data
	lines    []string  // text-path character rows, already logical
}

// Load reads a result file and returns its raw matrix set.
//
// The binary MAT-4 decoding is attempted first; if the leading bytes do
// not frame a MAT-4 matrix the same reader is restarted in text mode. I/O
// failures are returned as-is; structural failures are *FormatError
// values matching ErrFormat.
func Load(path string, opts ...Option) (*File, error) {
	o := options{textHeaderLines: 1}
	for _, opt := range opts {
		opt(&o)
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	raw, binary, err := readBinary(fd, &o)
	if errors.Is(err, ErrFormat) && !binary {
		if _, serr := fd.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		raw, err = readText(fd, &o)
	}
	if err != nil {
		if errors.Is(err, ErrFormat) {
			return nil, &FormatError{Path: path, Err: err}
		}
		return nil, err
	}

	f, err := assemble(raw, !binaryIsText(raw), o.constantsOnly)
	if err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	f.Path = path
	return f, nil
}

// binaryIsText reports whether the raw set came from the text path, which
// marks its character matrices with pre-decoded lines.
func binaryIsText(raw []rawMatrix) bool {
	for _, m := range raw {
		if m.lines != nil {
			return true
		}
	}
	return false
}

// assemble decodes the class header, resolves the orientation, and
// normalizes every matrix into logical row order.
func assemble(raw []rawMatrix, binary, partial bool) (*File, error) {
	var class []string
	for i := range raw {
		if raw[i].name == classMatrix {
			class = decodeChars(&raw[i], false)
			break
		}
	}
	if class == nil {
		return nil, formatErr("missing %s classification matrix", classMatrix)
	}

	orientation := Normal
	if len(class) >= 4 && class[3] != "" {
		switch class[3] {
		case "binTrans":
			orientation = Transposed
		case "binNormal":
			orientation = Normal
		default:
			return nil, fmt.Errorf("%w: %q", ErrOrientation, class[3])
		}
	}

	f := &File{
		Matrices:    make(map[string]*Matrix, len(raw)),
		Class:       class,
		Orientation: orientation,
		Partial:     partial,
	}
	for i := range raw {
		rm := &raw[i]
		transpose := orientation == Transposed && rm.name != classMatrix
		if !binary {
			// Textual convention: only dataset matrices are written
			// transposed; everything else keeps file order.
			transpose = transpose && strings.HasPrefix(rm.name, "data_")
		}
		m := &Matrix{Name: rm.name}
		if rm.text {
			m.Text = decodeChars(rm, transpose)
		} else {
			m.Values = decodeValues(rm, transpose)
		}
		f.Matrices[rm.name] = m
	}
	return f, nil
}

// at returns element (r, c) of the stored grid in its on-disk indexing.
func (m *rawMatrix) at(r, c int) int {
	if m.colMajor {
		return c*m.rows + r
	}
	return r*m.cols + c
}

func decodeValues(m *rawMatrix, transpose bool) [][]float64 {
	rows, cols := m.rows, m.cols
	if transpose {
		rows, cols = cols, rows
	}
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		for c := 0; c < cols; c++ {
			if transpose {
				row[c] = m.data[m.at(c, r)]
			} else {
				row[c] = m.data[m.at(r, c)]
			}
		}
		out[r] = row
	}
	return out
}

// decodeChars recovers the strings of a character matrix. Binary files
// store one char code per element, a column per character position;
// transposed files are read column-wise instead. The 8-bit codes are
// Latin-1 regardless of locale.
func decodeChars(m *rawMatrix, transpose bool) []string {
	if m.lines != nil {
		return m.lines
	}
	rows, cols := m.rows, m.cols
	if transpose {
		rows, cols = cols, rows
	}
	out := make([]string, rows)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		b.Reset()
		for c := 0; c < cols; c++ {
			var code byte
			if transpose {
				code = m.chars[m.at(c, r)]
			} else {
				code = m.chars[m.at(r, c)]
			}
			b.WriteRune(rune(code)) // Latin-1 byte -> rune
		}
		out[r] = strings.TrimRight(b.String(), " \x00")
	}
	return out
}

// isDatasetPast1 matches data_<n> matrix names for n >= 2, the ones a
// constants-only load may skip.
func isDatasetPast1(name string) bool {
	rest, ok := strings.CutPrefix(name, "data_")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 2
}
