package risk

import (
	"math"
	"sort"
	"strings"

	"HomeGuardGolang/internal/entity"
)

// Observation pairs a detection with its temporal classification.
type Observation struct {
	Detection entity.Detection
	Track     entity.TrackState
}

type IScorer interface {
	Score(observations []Observation, imageArea float64, uc *entity.UserContext) entity.RiskReport
	Aggregate(reports []entity.RiskReport) entity.AggregateReport
	RiskLevel(score int) string
	Severity(class string) float64
}

type scorer struct {
	cfg Config
}

// defaultWeight covers classes missing from the severity table. Unknown
// classes are scored conservatively, never skipped.
var defaultWeight = Weight{Severity: 2.0, AreaMultiplier: 1.0, Description: "Potential issue requiring assessment"}

func NewScorer(cfg Config) IScorer {
	return &scorer{cfg: cfg}
}

func (s *scorer) RiskLevel(score int) string {
	switch {
	case score > s.cfg.LowRiskAbove:
		return "Low Risk"
	case score <= s.cfg.HighRiskAtOrBelow:
		return "High Risk"
	default:
		return "Moderate Risk"
	}
}

func (s *scorer) Severity(class string) float64 {
	if w, ok := s.cfg.Weights[strings.ToLower(class)]; ok {
		return w.Severity
	}
	return defaultWeight.Severity
}

// Score converts one frame's observations plus optional user context into
// a risk report. It is a pure function of its inputs and the config.
func (s *scorer) Score(observations []Observation, imageArea float64, uc *entity.UserContext) entity.RiskReport {
	if len(observations) == 0 {
		return entity.RiskReport{
			Score:            100,
			RiskLevel:        "Low Risk",
			Breakdown:        []entity.PenaltyDetail{},
			PenaltyBreakdown: entity.PenaltyBreakdown{ByClass: map[string]float64{}},
			Summary:          "No defects detected. Property appears to be in good condition.",
			RecommendedActions: []string{
				"Continue regular maintenance",
			},
			ContextApplied: uc != nil,
		}
	}

	if imageArea <= 0 {
		imageArea = s.cfg.DefaultImageArea
	}

	climate := "temperate"
	roomMult := 1.0
	if uc != nil {
		if uc.Climate != "" {
			climate = uc.Climate
		}
		if m, ok := s.cfg.RoomImportance[uc.Room]; ok && m > 0 {
			roomMult = m
		}
	}
	climateAdjustments := s.cfg.ClimateFactors[climate]

	breakdown := make([]entity.PenaltyDetail, 0, len(observations))
	perClass := make(map[string]float64)

	for _, obs := range observations {
		det := obs.Detection
		class := strings.ToLower(det.Class)

		weight, ok := s.cfg.Weights[class]
		if !ok {
			weight = defaultWeight
		}

		climateMult := 1.0
		if m, ok := climateAdjustments[class]; ok {
			climateMult = m
		}

		areaFactor := 1.0
		if det.AffectedPercent > 0 {
			areaFactor = det.AffectedPercent / 10.0
		} else if a := det.BBox.Area(); a > 0 {
			areaFactor = a / imageArea * 10.0
		}

		trackMult := 1.0
		switch obs.Track {
		case entity.TrackGrowing:
			trackMult = s.cfg.GrowingMultiplier
		case entity.TrackPersistent:
			trackMult = s.cfg.PersistentMultiplier
		}

		confFactor := det.Confidence*s.cfg.ConfidenceWeight + (1 - s.cfg.ConfidenceWeight)
		penalty := (weight.Severity*3.0 + areaFactor*weight.AreaMultiplier) * confFactor * climateMult * roomMult * trackMult

		perClass[class] += penalty
		breakdown = append(breakdown, entity.PenaltyDetail{
			DefectType:      class,
			Confidence:      round2(det.Confidence),
			Penalty:         round2(penalty),
			Severity:        weight.Severity,
			Description:     weight.Description,
			ClimateAdjusted: climateMult != 1.0,
			TrackMultiplier: trackMult,
		})
	}

	// Cap per class so one noisy class cannot dominate the score, then
	// cap the combined defect penalty.
	defectPenalty := 0.0
	byClass := make(map[string]float64, len(perClass))
	for class, sum := range perClass {
		capped := math.Min(sum, s.cfg.ClassPenaltyCap)
		byClass[class] = round2(capped)
		defectPenalty += capped
	}
	defectPenalty = math.Min(defectPenalty, s.cfg.MaxDefectsPenalty)

	agePenalty := 0.0
	if uc != nil && uc.BuildingAge != "" {
		agePenalty = s.cfg.AgeFactors[uc.BuildingAge]
	}

	score := int(math.Round(clamp(s.cfg.BaseScore-defectPenalty-agePenalty, 0, s.cfg.BaseScore)))
	level := s.RiskLevel(score)
	summary, actions := adviceForLevel(level)

	return entity.RiskReport{
		Score:        score,
		RiskLevel:    level,
		DefectCount:  len(observations),
		TotalPenalty: round2(defectPenalty + agePenalty),
		Breakdown:    breakdown,
		PenaltyBreakdown: entity.PenaltyBreakdown{
			Defects:   round2(defectPenalty),
			AgeFactor: round2(agePenalty),
			ByClass:   byClass,
		},
		Summary:            summary,
		RecommendedActions: actions,
		ContextApplied:     uc != nil,
	}
}

// Aggregate folds per-frame reports into a session verdict. The headline
// score is the worst frame seen, deliberately conservative.
func (s *scorer) Aggregate(reports []entity.RiskReport) entity.AggregateReport {
	if len(reports) == 0 {
		return entity.AggregateReport{
			Score:        100,
			AverageScore: 100,
			RiskLevel:    "Low Risk",
		}
	}

	minScore := reports[0].Score
	sum := 0
	defects := 0
	for _, r := range reports {
		if r.Score < minScore {
			minScore = r.Score
		}
		sum += r.Score
		defects += r.DefectCount
	}

	return entity.AggregateReport{
		Score:             minScore,
		AverageScore:      int(math.Round(float64(sum) / float64(len(reports)))),
		RiskLevel:         s.RiskLevel(minScore),
		FramesAnalyzed:    len(reports),
		TotalDefectsFound: defects,
	}
}

// TopClasses lists the highest-penalty defect classes from a breakdown,
// used for maintenance prioritization.
func TopClasses(breakdown map[string]float64, n int) []string {
	type classPenalty struct {
		class   string
		penalty float64
	}
	ranked := make([]classPenalty, 0, len(breakdown))
	for class, p := range breakdown {
		ranked = append(ranked, classPenalty{class, p})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].penalty == ranked[j].penalty {
			return ranked[i].class < ranked[j].class
		}
		return ranked[i].penalty > ranked[j].penalty
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	classes := make([]string, 0, n)
	for _, cp := range ranked[:n] {
		classes = append(classes, cp.class)
	}
	return classes
}

func adviceForLevel(level string) (string, []string) {
	switch level {
	case "High Risk":
		return "Critical defects detected. Immediate professional inspection recommended.", []string{
			"Schedule professional inspection immediately",
			"Document all affected areas with photos",
			"Consider temporary mitigation measures",
		}
	case "Moderate Risk":
		return "Several defects detected. Consider addressing these issues soon.", []string{
			"Schedule professional assessment within 2 weeks",
			"Monitor affected areas for changes",
			"Obtain repair estimates",
		}
	default:
		return "Minor issues detected. Property is in acceptable condition.", []string{
			"Include in regular maintenance schedule",
			"Monitor for deterioration over time",
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
