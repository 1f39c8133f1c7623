package entity

// PenaltyDetail explains how one detection contributed to the score.
type PenaltyDetail struct {
	DefectType      string  `json:"defect_type"`
	Confidence      float64 `json:"confidence"`
	Penalty         float64 `json:"penalty"`
	Severity        float64 `json:"severity"`
	Description     string  `json:"description"`
	ClimateAdjusted bool    `json:"climate_adjusted"`
	TrackMultiplier float64 `json:"track_multiplier,omitempty"`
}

// PenaltyBreakdown attributes the total penalty to its components.
type PenaltyBreakdown struct {
	Defects   float64            `json:"defects"`
	AgeFactor float64            `json:"age_factor"`
	ByClass   map[string]float64 `json:"by_defect_type"`
}

// TemporalSummary aggregates track classification for one session.
type TemporalSummary struct {
	TotalTracks     int         `json:"total_tracks"`
	PersistentCount int         `json:"persistent_defects_count"`
	GrowingCount    int         `json:"growing_defects_count"`
	Tracks          []TrackInfo `json:"tracks,omitempty"`
}

// TrackInfo describes one persistent track in a report.
type TrackInfo struct {
	ID         int     `json:"id"`
	Class      string  `json:"class"`
	FramesSeen int     `json:"frames_seen"`
	GrowthRate float64 `json:"growth_rate"`
	IsGrowing  bool    `json:"is_growing"`
}

// RiskReport is a recomputable view over a session's accumulated data.
// It is always a pure function of detections, temporal state and
// configuration; it holds no owned state.
type RiskReport struct {
	Score              int               `json:"score"`
	RiskLevel          string            `json:"risk_level"`
	DefectCount        int               `json:"defect_count"`
	TotalPenalty       float64           `json:"total_penalty"`
	Breakdown          []PenaltyDetail   `json:"breakdown"`
	PenaltyBreakdown   PenaltyBreakdown  `json:"penalty_breakdown"`
	Summary            string            `json:"summary"`
	RecommendedActions []string          `json:"recommended_actions"`
	ContextApplied     bool              `json:"user_context_applied"`
}

// AggregateReport combines per-frame reports into a session verdict.
// The headline score is the worst frame, not the average.
type AggregateReport struct {
	Score             int    `json:"score"`
	AverageScore      int    `json:"average_score"`
	RiskLevel         string `json:"risk_level"`
	FramesAnalyzed    int    `json:"frames_analyzed"`
	TotalDefectsFound int    `json:"total_defects_found"`
}
