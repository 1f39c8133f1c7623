package entity

import "time"

type DetectionMethod string

const (
	MethodLocal DetectionMethod = "local"
	MethodCloud DetectionMethod = "cloud"
)

// BBox is a bounding box in source-frame pixel space.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BBox) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection-over-union overlap with another box.
func (b BBox) IoU(other BBox) float64 {
	x1 := max(b.X1, other.X1)
	y1 := max(b.Y1, other.Y1)
	x2 := min(b.X2, other.X2)
	y2 := min(b.Y2, other.Y2)

	inter := max(0, x2-x1) * max(0, y2-y1)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Detection is a single defect observation. Immutable once created.
type Detection struct {
	Class           string          `json:"class"`
	Confidence      float64         `json:"confidence"`
	BBox            BBox            `json:"bbox"`
	AffectedPercent float64         `json:"affected_area_percent,omitempty"`
	Method          DetectionMethod `json:"detection_method"`
	FrameIndex      int             `json:"source_frame_index"`
	Timestamp       time.Time       `json:"timestamp"`
}

// PersonRegion is a detected human bounding box. It exists only while
// privacy enforcement runs and must never be persisted alongside an
// unobscured frame.
type PersonRegion struct {
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// DetectResult is the uniform output contract of the detector adapter.
// Degraded is set when a secondary detector was unavailable and the
// result carries primary-only output.
type DetectResult struct {
	Defects       []Detection    `json:"defects"`
	Persons       []PersonRegion `json:"persons"`
	Degraded      bool           `json:"degraded"`
	InferenceTime time.Duration  `json:"-"`
}

// Frame is one unit of visual input. Data is owned exclusively by the
// pipeline stage currently processing it and must not be retained
// downstream of the privacy guard in unobscured form.
type Frame struct {
	ScanID     string
	FrameIndex int
	Data       []byte
	CapturedAt time.Time
}
