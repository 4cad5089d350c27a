package result

import (
	"errors"
	"fmt"
)

// Domain errors for result decoding.
var (
	// ErrNotResult indicates a file that is neither a simulation nor a
	// linearization result.
	ErrNotResult = errors.New("result: not a simulation or linearization result")

	// ErrUnsupportedVersion indicates a result format version other than
	// 1.0 or 1.1.
	ErrUnsupportedVersion = errors.New("result: unsupported result format version")

	// ErrKindMismatch indicates a well-formed file of the wrong kind for
	// the requested decoder.
	ErrKindMismatch = errors.New("result: unexpected result kind")

	// ErrMalformed indicates required matrices that are missing or have
	// inconsistent shapes.
	ErrMalformed = errors.New("result: malformed result file")
)

// KindMismatchError reports the kind actually found in the file.
type KindMismatchError struct {
	Path string
	Want Kind
	Got  Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("result: %s holds a %s, not a %s", e.Path, e.Got, e.Want)
}

func (e *KindMismatchError) Unwrap() error {
	return ErrKindMismatch
}

// Warning records a non-fatal per-variable decode problem. The variable is
// still present in the trajectory, with default metadata.
type Warning struct {
	Variable string
	Err      error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Variable, w.Err)
}

func malformed(reason string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(reason, args...))
}
