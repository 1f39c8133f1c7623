package detector

import (
	"errors"

	"HomeGuardGolang/internal/entity"

	"golang.org/x/net/context"
)

// Mode selects the latency/accuracy trade-off of a detection pass.
type Mode string

const (
	// ModeFast is the quick-scan path: primary detector only.
	ModeFast Mode = "fast"
	// ModeThorough fans out to the secondary detector as well.
	ModeThorough Mode = "thorough"
)

// ErrUnavailable marks a detector that cannot currently serve requests.
// For the secondary detector this is recoverable and triggers degraded
// output rather than a failed call.
var ErrUnavailable = errors.New("detector unavailable")

// Detector is a single defect-detection capability behind the uniform
// output contract. Implementations must be safe for concurrent use;
// sessions share the underlying models.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (entity.DetectResult, error)
	Method() entity.DetectionMethod
}
