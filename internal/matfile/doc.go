// Package matfile reads the raw matrices of Dymola-format result files.
//
// Result files are MATLAB Level-4 MAT-files or an equivalent line-oriented
// text format; both carry the same logical schema:
//
//   - [Load]: decode a file into a [File], binary first with text fallback
//   - [File]: named matrices plus the Aclass header and orientation
//   - [Matrix]: one numeric or character matrix in logical row order
//
// # Orientation
//
// Files tagged "binTrans" in the fourth Aclass row store their matrices
// variable-major. Load normalizes them, so downstream code always sees the
// time-major layout:
//
//	f, err := matfile.Load("dsres.mat")
//	m, ok := f.Matrix("data_2")   // rows are time points
//
// The Aclass matrix itself is exempt: its rows are readable either way and
// are what declare the orientation in the first place.
package matfile
