package scan

// Quick-scan websocket: the client sends either a JSON text message or a
// binary raw JPEG frame. A JSON message with Command set carries control
// flow instead of a frame.
type FrameMessage struct {
	Frame            string              `json:"frame,omitempty"`
	Command          string              `json:"command,omitempty"`
	UserContext      *UserContextRequest `json:"user_context,omitempty"`
	IncludeAnnotated bool                `json:"include_annotated,omitempty"`
}

type UserContextRequest struct {
	BuildingAge string `json:"building_age,omitempty" validate:"omitempty,oneof=0-1 1-5 5-15 15+"`
	Climate     string `json:"climate,omitempty" validate:"omitempty,oneof=hot_humid cold_dry coastal temperate"`
	Occupancy   string `json:"occupancy,omitempty"`
	Room        string `json:"room,omitempty"`
}

type DefectResponse struct {
	Class           string    `json:"class"`
	Confidence      float64   `json:"confidence"`
	BBox            []float64 `json:"bbox"`
	Severity        float64   `json:"severity"`
	AffectedPercent float64   `json:"affected_percent,omitempty"`
	Method          string    `json:"method"`
	TrackState      string    `json:"track_state,omitempty"`
}

type FrameResultResponse struct {
	ScanID           string           `json:"scan_id"`
	FrameNumber      int              `json:"frame_number"`
	Defects          []DefectResponse `json:"defects"`
	PersonsDetected  int              `json:"persons_detected"`
	PersonsBlurred   int              `json:"persons_blurred"`
	RiskScore        float64          `json:"risk_score"`
	RiskLevel        string           `json:"risk_level"`
	Degraded         bool             `json:"degraded,omitempty"`
	EvidenceCaptured string           `json:"evidence_captured,omitempty"`
	AnnotatedFrame   string           `json:"annotated_frame,omitempty"`
	Error            string           `json:"error,omitempty"`
}

type QuickFinalResponse struct {
	ScanID        string  `json:"scan_id"`
	Status        string  `json:"status"`
	FramesScanned int     `json:"frames_scanned"`
	RiskScore     float64 `json:"risk_score"`
	RiskLevel     string  `json:"risk_level"`
	DefectCount   int     `json:"defect_count"`
}

type DeepScanResponse struct {
	ScanID  string `json:"scan_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type StatusResponse struct {
	ScanID   string  `json:"scan_id"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Stage    string  `json:"stage,omitempty"`
}

type TrackResponse struct {
	TrackID    int     `json:"track_id"`
	Class      string  `json:"class"`
	FramesSeen int     `json:"frames_seen"`
	GrowthRate float64 `json:"growth_rate"`
	IsGrowing  bool    `json:"is_growing"`
}

type TemporalAnalysisResponse struct {
	PersistentDefectsCount int             `json:"persistent_defects_count"`
	GrowingDefectsCount    int             `json:"growing_defects_count"`
	Tracks                 []TrackResponse `json:"tracks"`
}

type PenaltyBreakdownResponse struct {
	Defects   float64            `json:"defects"`
	AgeFactor float64            `json:"age_factor"`
	ByClass   map[string]float64 `json:"by_defect_type"`
}

type OCRExtractionResponse struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
}

type FailedItemResponse struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

type ReportResponse struct {
	ScanID                string                    `json:"scan_id"`
	Type                  string                    `json:"type"`
	Status                string                    `json:"status"`
	RiskScore             float64                   `json:"risk_score"`
	AverageScore          float64                   `json:"average_score"`
	RiskLevel             string                    `json:"risk_level"`
	Summary               string                    `json:"summary"`
	Defects               []DefectResponse          `json:"defects"`
	DefectCount           int                       `json:"defect_count"`
	PenaltyBreakdown      *PenaltyBreakdownResponse `json:"penalty_breakdown,omitempty"`
	TemporalAnalysis      *TemporalAnalysisResponse `json:"temporal_analysis,omitempty"`
	StructuralAssessment  string                    `json:"structural_assessment,omitempty"`
	MaintenancePrediction []string                  `json:"maintenance_prediction,omitempty"`
	RecommendedActions    []string                  `json:"recommended_actions"`
	OCRExtractions        []OCRExtractionResponse   `json:"ocr_extractions,omitempty"`
	FailedItems           []FailedItemResponse      `json:"failed_items,omitempty"`
	CompletedAt           string                    `json:"completed_at,omitempty"`
}

type HistoryItemResponse struct {
	ID          string  `json:"id"`
	ScanID      string  `json:"scan_id"`
	ScanType    string  `json:"scan_type"`
	Room        string  `json:"room,omitempty"`
	RiskScore   float64 `json:"risk_score"`
	RiskLevel   string  `json:"risk_level"`
	DefectCount int     `json:"defect_count"`
	CompletedAt string  `json:"completed_at"`
}

type HistoryListResponse struct {
	Count   int                   `json:"count"`
	History []HistoryItemResponse `json:"history"`
}
