package matfile

import (
	"errors"
	"fmt"
)

// ErrFormat indicates a file whose structure matches neither the MAT-4
// binary layout nor the textual matrix format.
var ErrFormat = errors.New("matfile: unrecognized matrix file format")

// ErrOrientation indicates an Aclass orientation tag that is neither
// "binNormal" nor "binTrans".
var ErrOrientation = errors.New("matfile: invalid orientation tag")

// FormatError wraps a format-level failure with the offending file path.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(reason string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(reason, args...))
}
