package matfile

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// declRe matches one matrix declaration, e.g. "float data_2(501,3)" or
// "char Aclass( 3 , 24 )".
var declRe = regexp.MustCompile(`^\s*(char|float|double|int)\s+(\S+)\s*\(\s*(\d+)\s*,\s*(\d+)\s*\)\s*$`)

// readText decodes the line-oriented variant of the result format: an
// optional header to skip, then repeated declaration blocks each followed
// by one line per row. Numeric lines may carry a trailing "#" comment.
func readText(r io.Reader, o *options) ([]rawMatrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for i := 0; i < o.textHeaderLines; i++ {
		if !sc.Scan() {
			return nil, formatErr("empty text file")
		}
	}

	var raw []rawMatrix
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := declRe.FindStringSubmatch(line)
		if m == nil {
			return nil, formatErr("not a matrix declaration: %q", line)
		}
		typ, name := m[1], m[2]
		rows, _ := strconv.Atoi(m[3])
		cols, _ := strconv.Atoi(m[4])

		var rm rawMatrix
		var err error
		if typ == "char" {
			rm, err = readTextChars(sc, name, rows, cols)
		} else {
			rm, err = readTextValues(sc, name, rows, cols)
		}
		if err != nil {
			return nil, err
		}
		if o.constantsOnly && isDatasetPast1(name) {
			continue
		}
		raw = append(raw, rm)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, formatErr("no matrices declared")
	}
	return raw, nil
}

func readTextChars(sc *bufio.Scanner, name string, rows, cols int) (rawMatrix, error) {
	lines := make([]string, rows)
	for i := 0; i < rows; i++ {
		if !sc.Scan() {
			return rawMatrix{}, formatErr("matrix %s: expected %d rows, got %d", name, rows, i)
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if len(line) > cols {
			line = line[:cols]
		}
		lines[i] = strings.TrimRight(line, " \x00")
	}
	return rawMatrix{name: name, rows: rows, cols: cols, text: true, lines: lines}, nil
}

func readTextValues(sc *bufio.Scanner, name string, rows, cols int) (rawMatrix, error) {
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		if !sc.Scan() {
			return rawMatrix{}, formatErr("matrix %s: expected %d rows, got %d", name, rows, i)
		}
		line := sc.Text()
		if j := strings.Index(line, "#"); j >= 0 {
			line = line[:j]
		}
		fields := strings.Fields(line)
		if len(fields) != cols {
			return rawMatrix{}, formatErr("matrix %s row %d: expected %d values, got %d",
				name, i, cols, len(fields))
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return rawMatrix{}, formatErr("matrix %s row %d: %q is not numeric", name, i, field)
			}
			data = append(data, v)
		}
	}
	return rawMatrix{name: name, rows: rows, cols: cols, data: data}, nil
}
