package result

import (
	"fmt"
	"strings"

	"github.com/san-kum/simres/internal/matfile"
)

// Kind is the result kind a file declares in its class header.
type Kind int

const (
	KindUnknown Kind = iota
	KindTrajectory
	KindLinearSystem
)

func (k Kind) String() string {
	switch k {
	case KindTrajectory:
		return "trajectory"
	case KindLinearSystem:
		return "linear system"
	default:
		return "unknown"
	}
}

// Class header tags.
const (
	classTrajectory   = "Atrajectory"
	classLinearSystem = "AlinearSystem"
)

// Classify reads the class header of a raw matrix set and returns the
// result kind and format version. Trajectory versions other than 1.0 and
// 1.1 are rejected here; linear systems carry no version constraint.
func Classify(f *matfile.File) (Kind, string, error) {
	if len(f.Class) < 1 {
		return KindUnknown, "", malformed("empty class header")
	}
	version := ""
	if len(f.Class) >= 2 {
		version = strings.TrimSpace(f.Class[1])
	}
	switch f.Class[0] {
	case classTrajectory:
		if version != "1.0" && version != "1.1" {
			return KindUnknown, version, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
		}
		return KindTrajectory, version, nil
	case classLinearSystem:
		return KindLinearSystem, version, nil
	default:
		return KindUnknown, version, fmt.Errorf("%w: class %q", ErrNotResult, f.Class[0])
	}
}
