package entity

import "time"

type ScanType string

const (
	ScanTypeQuick ScanType = "quick"
	ScanTypeDeep  ScanType = "deep"
)

type ScanState string

const (
	StateInitializing ScanState = "initializing"
	StateActive       ScanState = "active"
	StateFinalizing   ScanState = "finalizing"
	StateComplete     ScanState = "complete"
	StateError        ScanState = "error"
)

// Terminal reports whether no further mutation of the session is allowed.
func (s ScanState) Terminal() bool {
	return s == StateComplete || s == StateError
}

// UserContext carries optional questionnaire metadata that influences
// scoring. Zero values mean "not provided".
type UserContext struct {
	BuildingAge string `json:"building_age,omitempty"`
	Climate     string `json:"climate,omitempty"`
	Occupancy   string `json:"occupancy,omitempty"`
	Room        string `json:"room,omitempty"`
}

// ScanSession is the root aggregate of one inspection session. It owns
// every Detection and EvidenceRecord produced during its lifetime.
type ScanSession struct {
	ScanID      string      `json:"scan_id"`
	Type        ScanType    `json:"type"`
	State       ScanState   `json:"state"`
	Detections  []Detection `json:"detections"`
	EvidenceIDs []string    `json:"evidence_ids"`
	Context     *UserContext `json:"user_context,omitempty"`
	FrameCount  int         `json:"frames_processed"`
	Progress    int         `json:"progress"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`
}

// ScanHistory is the persisted record of a completed session.
type ScanHistory struct {
	ID            string    `json:"id"`
	ScanID        string    `json:"scan_id"`
	Type          ScanType  `json:"type"`
	Room          string    `json:"room,omitempty"`
	RiskScore     int       `json:"risk_score"`
	RiskLevel     string    `json:"risk_level"`
	DefectCount   int       `json:"defect_count"`
	FramesScanned int       `json:"frames_scanned"`
	CompletedAt   time.Time `json:"completed_at"`
}
