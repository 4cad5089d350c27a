// Package export writes decoded trajectories as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/san-kum/simres/internal/result"
)

// ErrUnknownVariable indicates a requested variable the trajectory does
// not contain.
var ErrUnknownVariable = errors.New("export: unknown variable")

// Series is one exported variable with its own time base.
type Series struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	DisplayUnit string    `json:"display_unit,omitempty"`
	Kind        string    `json:"kind"`
	Times       []float64 `json:"times"`
	Values      []float64 `json:"values"`
}

// Document is the JSON export shape.
type Document struct {
	File      string   `json:"file"`
	Kind      string   `json:"kind"`
	Version   string   `json:"version"`
	Variables []Series `json:"variables"`
}

// Select resolves variable names against a trajectory. An empty request
// selects every variable in file order, except the time base itself.
func Select(traj *result.Trajectory, names []string) ([]*result.Variable, error) {
	if len(names) == 0 {
		for _, name := range traj.Names() {
			if name == "Time" {
				continue
			}
			names = append(names, name)
		}
	}
	vars := make([]*result.Variable, 0, len(names))
	for _, name := range names {
		v, ok := traj.Variable(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// JSON writes the selected variables as an indented JSON document, each
// with its own time base.
func JSON(w io.Writer, traj *result.Trajectory, names []string) error {
	vars, err := Select(traj, names)
	if err != nil {
		return err
	}
	doc := Document{
		File:      traj.Path,
		Kind:      result.KindTrajectory.String(),
		Version:   traj.Version,
		Variables: make([]Series, len(vars)),
	}
	for i, v := range vars {
		doc.Variables[i] = Series{
			Name:        v.Name,
			Description: v.Description,
			Unit:        v.Unit,
			DisplayUnit: v.DisplayUnit,
			Kind:        v.Kind.String(),
			Times:       v.Times(),
			Values:      v.Values(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// CSV writes the selected variables as one table. Variables from blocks
// with different clocks are linearly interpolated onto the densest time
// base among the selection.
func CSV(w io.Writer, traj *result.Trajectory, names []string) error {
	vars, err := Select(traj, names)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return errors.New("export: nothing to export")
	}

	grid := vars[0].Times()
	for _, v := range vars[1:] {
		if len(v.Times()) > len(grid) {
			grid = v.Times()
		}
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(vars)+1)
	header = append(header, "time")
	for _, v := range vars {
		header = append(header, v.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	columns := make([][]float64, len(vars))
	for i, v := range vars {
		columns[i] = interpolate(v.Times(), v.Values(), grid)
	}

	row := make([]string, len(vars)+1)
	for i, tm := range grid {
		row[0] = strconv.FormatFloat(tm, 'g', -1, 64)
		for j := range columns {
			row[j+1] = strconv.FormatFloat(columns[j][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// interpolate resamples values from their own non-decreasing time base
// onto grid, clamping outside the covered range.
func interpolate(times, values, grid []float64) []float64 {
	out := make([]float64, len(grid))
	if len(times) == 0 {
		return out
	}
	for i, g := range grid {
		j := sort.SearchFloat64s(times, g)
		switch {
		case j == 0:
			out[i] = values[0]
		case j >= len(times):
			out[i] = values[len(values)-1]
		case times[j] == g:
			out[i] = values[j]
		default:
			t0, t1 := times[j-1], times[j]
			if t1 == t0 {
				out[i] = values[j]
				continue
			}
			f := (g - t0) / (t1 - t0)
			out[i] = values[j-1] + f*(values[j]-values[j-1])
		}
	}
	return out
}
