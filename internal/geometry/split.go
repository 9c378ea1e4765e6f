// Package geometry enforces the multipart-splitting policy and provides the
// WKT/WKB geometry operations the in-memory backend builds on.
//
// No geometry math lives in the policy half: whether splitting happens is
// decided here, how it happens is delegated to whichever backend performs it.
package geometry

import (
	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
)

// SplitMode is the outcome of the splitting policy decision.
type SplitMode int

const (
	// SplitNone keeps multipart geometries as they are.
	SplitNone SplitMode = iota

	// SplitNative asks the backend to expand multipart geometries into one
	// single-part record per part.
	SplitNative
)

// DecideSplit applies the splitting policy: no splitting when the flag is
// off, native splitting when the backend supports it, and a fail-fast
// capability error otherwise. There is no fallback path.
func DecideSplit(split bool, process types.Process, caps types.Capabilities) (SplitMode, error) {
	if !split {
		return SplitNone, nil
	}
	if caps.SplitMultipart {
		return SplitNative, nil
	}
	return SplitNone, errors.Newf(errors.ErrCodeUnsupportedCapability,
		"process %q does not support splitting multipart geometries (use --skip-split-multis)", process).
		WithComponent("geometry").
		WithContext("process", string(process))
}
