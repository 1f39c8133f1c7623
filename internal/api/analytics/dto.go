package analytics

type DefectItem struct {
	Class           string  `json:"class" validate:"required"`
	Confidence      float64 `json:"confidence" validate:"gte=0,lte=1"`
	AffectedPercent float64 `json:"affected_percent,omitempty"`
}

type AnalyzeRequest struct {
	Defects     []DefectItem `json:"defects" validate:"required,min=1,dive"`
	BuildingAge string       `json:"building_age,omitempty" validate:"omitempty,oneof=0-1 1-5 5-15 15+"`
	Climate     string       `json:"climate,omitempty" validate:"omitempty,oneof=hot_humid cold_dry coastal temperate"`
	Room        string       `json:"room,omitempty"`
}

type AnalyzeResponse struct {
	Explanation     string   `json:"explanation"`
	AnomalyDetected bool     `json:"anomaly_detected"`
	AnomalyReasons  []string `json:"anomaly_reasons,omitempty"`
	Source          string   `json:"source"`
}

type ScanSummaryResponse struct {
	ScanID         string         `json:"scan_id"`
	RiskScore      float64        `json:"risk_score"`
	RiskLevel      string         `json:"risk_level"`
	DefectCount    int            `json:"defect_count"`
	ClassCounts    map[string]int `json:"class_counts"`
	PersonsBlurred int            `json:"persons_blurred"`
	Narrative      string         `json:"narrative"`
	Source         string         `json:"source"`
}
