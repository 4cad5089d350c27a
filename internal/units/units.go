// Package units parses Modelica unit expressions and the combined
// "description [unit|displayUnit]" strings found in Dymola result files.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownUnit indicates a unit name with no entry in the table.
var ErrUnknownUnit = errors.New("units: unknown unit name")

// ErrBadExpression indicates a unit expression that does not follow the
// compact Modelica grammar (factors joined by '.' and '/').
var ErrBadExpression = errors.New("units: malformed unit expression")

// Dimension is a vector of SI base-unit exponents.
type Dimension struct {
	Kg  int
	M   int
	S   int
	A   int
	K   int
	Mol int
	Cd  int
}

// IsDimensionless reports whether every exponent is zero.
func (d Dimension) IsDimensionless() bool {
	return d == Dimension{}
}

// Mul adds the exponents of o to d.
func (d Dimension) Mul(o Dimension) Dimension {
	return Dimension{
		Kg:  d.Kg + o.Kg,
		M:   d.M + o.M,
		S:   d.S + o.S,
		A:   d.A + o.A,
		K:   d.K + o.K,
		Mol: d.Mol + o.Mol,
		Cd:  d.Cd + o.Cd,
	}
}

// Inv negates every exponent.
func (d Dimension) Inv() Dimension {
	return Dimension{-d.Kg, -d.M, -d.S, -d.A, -d.K, -d.Mol, -d.Cd}
}

// Pow multiplies every exponent by n.
func (d Dimension) Pow(n int) Dimension {
	return Dimension{d.Kg * n, d.M * n, d.S * n, d.A * n, d.K * n, d.Mol * n, d.Cd * n}
}

// String returns the canonical form used as key into the display-unit
// defaults, e.g. "kg.m2.s-2". A dimensionless value renders as "1".
func (d Dimension) String() string {
	parts := make([]string, 0, 7)
	for _, f := range []struct {
		name string
		exp  int
	}{
		{"kg", d.Kg}, {"m", d.M}, {"s", d.S}, {"A", d.A},
		{"K", d.K}, {"mol", d.Mol}, {"cd", d.Cd},
	} {
		switch {
		case f.exp == 0:
		case f.exp == 1:
			parts = append(parts, f.name)
		default:
			parts = append(parts, f.name+strconv.Itoa(f.exp))
		}
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, ".")
}

// Normalize rewrites legacy unit spellings to their canonical tokens.
// Dymola files written before the SI update spell the resistance unit "Ohm".
func Normalize(expr string) string {
	return strings.ReplaceAll(expr, "Ohm", "ohm")
}

// IsLegacyDimension reports whether a unit string uses the old
// dimension-only encoding, marked by a leading space. Such strings name a
// physical dimension rather than a resolvable unit.
func IsLegacyDimension(unit string) bool {
	return strings.HasPrefix(unit, " ")
}

// SplitDescription splits a combined Dymola description string into its
// free-text description, unit, and display unit.
//
// The grammar is "<free text> [<unit>]" where the bracket section may carry
// an explicit display unit after a '|'. With no bracket section both unit
// strings are empty; with a bracket but no '|' the display unit equals the
// unit.
func SplitDescription(raw string) (desc, unit, display string) {
	i := strings.LastIndex(raw, "[")
	if i < 0 {
		return strings.TrimSpace(raw), "", ""
	}
	desc = strings.TrimSpace(raw[:i])
	u := strings.TrimRight(raw[i+1:], " \t")
	u = strings.TrimSuffix(u, "]")
	if j := strings.Index(u, "|"); j >= 0 {
		unit, display = u[:j], u[j+1:]
	} else {
		unit, display = u, u
	}
	return desc, Normalize(unit), Normalize(display)
}

// siPrefixes are the single-letter scale prefixes tried when a unit name
// has no direct table entry, so "kW" resolves through "W".
const siPrefixes = "yzafpnumcdhkMGTPEZY"

// Parse resolves a compact unit expression to its SI dimension.
//
// Factors are joined by '.' (multiply) and '/' (divide); each factor is a
// unit name with an optional signed integer exponent ("m2", "s-1") or a
// bare integer ("1" in "1/min"). Unknown names and empty factors are
// errors; callers decide the fallback.
func (t Table) Parse(expr string) (Dimension, error) {
	expr = strings.TrimSpace(Normalize(expr))
	if expr == "" {
		return Dimension{}, fmt.Errorf("%w: empty expression", ErrBadExpression)
	}
	var dim Dimension
	div := false
	start := 0
	for i := 0; i <= len(expr); i++ {
		if i < len(expr) && expr[i] != '.' && expr[i] != '/' {
			continue
		}
		factor, err := t.parseFactor(expr[start:i])
		if err != nil {
			return Dimension{}, err
		}
		if div {
			factor = factor.Inv()
		}
		dim = dim.Mul(factor)
		if i < len(expr) {
			div = expr[i] == '/'
		}
		start = i + 1
	}
	return dim, nil
}

func (t Table) parseFactor(tok string) (Dimension, error) {
	if tok == "" {
		return Dimension{}, fmt.Errorf("%w: empty factor", ErrBadExpression)
	}
	if _, err := strconv.Atoi(tok); err == nil {
		// Plain numeric factor like the "1" in "1/s": dimensionless.
		return Dimension{}, nil
	}
	name, exp := splitExponent(tok)
	if name == "" {
		return Dimension{}, fmt.Errorf("%w: factor %q", ErrBadExpression, tok)
	}
	d, ok := t.Lookup(name)
	if !ok && len(name) > 1 && strings.ContainsRune(siPrefixes, rune(name[0])) {
		d, ok = t.Lookup(name[1:])
	}
	if !ok {
		return Dimension{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return d.Pow(exp), nil
}

// splitExponent separates a trailing signed integer exponent from a unit
// name; "s-1" yields ("s", -1) and "m" yields ("m", 1).
func splitExponent(tok string) (string, int) {
	i := len(tok)
	for i > 0 && tok[i-1] >= '0' && tok[i-1] <= '9' {
		i--
	}
	if i == len(tok) {
		return tok, 1
	}
	if i > 0 && tok[i-1] == '-' {
		i--
	}
	exp, err := strconv.Atoi(tok[i:])
	if err != nil {
		return tok, 1
	}
	return tok[:i], exp
}
