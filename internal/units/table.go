package units

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed units.yaml
var builtinTable []byte

// Table maps unit names to SI dimensions and dimensions to the default
// display unit used when a variable carries no explicit one. Tables are
// read-only after construction and safe for unsynchronized concurrent use.
type Table struct {
	units    map[string]Dimension
	displays map[string]string
}

// tableFile is the on-disk shape of a unit table.
type tableFile struct {
	Units    map[string]dimSpec `yaml:"units"`
	Displays map[string]string  `yaml:"displays"`
}

type dimSpec struct {
	Kg  int `yaml:"kg"`
	M   int `yaml:"m"`
	S   int `yaml:"s"`
	A   int `yaml:"A"`
	K   int `yaml:"K"`
	Mol int `yaml:"mol"`
	Cd  int `yaml:"cd"`
}

func (s dimSpec) dimension() Dimension {
	return Dimension{Kg: s.Kg, M: s.M, S: s.S, A: s.A, K: s.K, Mol: s.Mol, Cd: s.Cd}
}

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// Default returns the process-wide table parsed from the embedded
// units.yaml resource. It is built once and never mutated.
func Default() Table {
	defaultOnce.Do(func() {
		t, err := parseTable(builtinTable)
		if err != nil {
			// The embedded resource ships with the binary; failing to
			// parse it is a build defect, not a runtime condition.
			panic(fmt.Sprintf("units: embedded table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadTable reads a unit table from a YAML file with the same shape as the
// embedded resource.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	t, err := parseTable(data)
	if err != nil {
		return Table{}, fmt.Errorf("units: %s: %w", path, err)
	}
	return t, nil
}

// NewTable builds a table directly from maps, mainly for tests.
func NewTable(units map[string]Dimension, displays map[string]string) Table {
	return Table{units: units, displays: displays}
}

func parseTable(data []byte) (Table, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return Table{}, err
	}
	t := Table{
		units:    make(map[string]Dimension, len(tf.Units)),
		displays: make(map[string]string, len(tf.Displays)),
	}
	for name, spec := range tf.Units {
		t.units[name] = spec.dimension()
	}
	for dim, display := range tf.Displays {
		t.displays[dim] = display
	}
	return t, nil
}

// Lookup returns the dimension registered for a unit name.
func (t Table) Lookup(name string) (Dimension, bool) {
	d, ok := t.units[name]
	return d, ok
}

// Display returns the default display unit for a dimension, keyed by the
// dimension's canonical string form.
func (t Table) Display(d Dimension) (string, bool) {
	s, ok := t.displays[d.String()]
	return s, ok
}
