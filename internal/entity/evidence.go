package entity

import "time"

// EvidenceRecord is a persisted, privacy-cleared artifact supporting one
// or more defect findings. Never mutated after creation except for
// detection-list union on idempotent re-capture.
type EvidenceRecord struct {
	EvidenceID     string      `json:"evidence_id"`
	ScanID         string      `json:"scan_id"`
	FrameIndex     int         `json:"frame_index"`
	Detections     []Detection `json:"detections"`
	PersonsBlurred int         `json:"persons_blurred"`
	MaxConfidence  float64     `json:"max_confidence"`
	ImageKey       string      `json:"image_key"`
	ThumbnailKey   string      `json:"thumbnail_key"`
	CreatedAt      time.Time   `json:"created_at"`
}

// PrivacyAudit is one append-only record of a privacy enforcement pass.
type PrivacyAudit struct {
	ID             string    `json:"id"`
	ScanID         string    `json:"scan_id"`
	FrameIndex     int       `json:"frame_index"`
	PersonsFound   int       `json:"persons_found"`
	Action         string    `json:"action"`
	CreatedAt      time.Time `json:"created_at"`
}
