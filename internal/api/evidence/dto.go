package evidence

type DetectionItem struct {
	Class           string  `json:"class"`
	Confidence      float64 `json:"confidence"`
	BBox            []float64 `json:"bbox"`
	AffectedPercent float64 `json:"affected_percent"`
	Method          string  `json:"method"`
}

type EvidenceItemResponse struct {
	EvidenceID     string          `json:"evidence_id"`
	ScanID         string          `json:"scan_id"`
	FrameIndex     int             `json:"frame_index"`
	Detections     []DetectionItem `json:"detections"`
	PersonsBlurred int             `json:"persons_blurred"`
	MaxConfidence  float64         `json:"max_confidence"`
	ThumbnailURL   string          `json:"thumbnail_url,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type EvidenceListResponse struct {
	ScanID   string                 `json:"scan_id"`
	Count    int                    `json:"count"`
	Evidence []EvidenceItemResponse `json:"evidence"`
}

type SummaryResponse struct {
	ScanID         string         `json:"scan_id"`
	TotalEvidence  int            `json:"total_evidence"`
	ClassCounts    map[string]int `json:"class_counts"`
	PersonsBlurred int            `json:"persons_blurred"`
	AuditEntries   int            `json:"audit_entries"`
}
