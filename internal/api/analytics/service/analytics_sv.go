package analyticsService

import (
	"HomeGuardGolang/internal/api/analytics"
	contextPkg "HomeGuardGolang/pkg/context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	anomalySameClassCount = 5
	anomalyConfidence     = 0.95
	aiTimeout             = 20 * time.Second
)

// Analyze explains a set of defects in plain language. The AI path is
// best-effort; the deterministic fallback always produces an answer.
func (s *analyticsService) Analyze(ctx context.Context, req analytics.AnalyzeRequest) (analytics.AnalyzeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(req.Defects) == 0 {
		return analytics.AnalyzeResponse{}, analytics.ErrNoDefectsProvided
	}

	anomalous, reasons := detectAnomalies(req.Defects)

	if s.gemini != nil {
		aiCtx, cancel := context.WithTimeout(ctx, aiTimeout)
		defer cancel()

		text, err := s.gemini.GenerateText(aiCtx, buildAnalyzePrompt(req))
		if err == nil && text != "" {
			return analytics.AnalyzeResponse{
				Explanation:     strings.TrimSpace(text),
				AnomalyDetected: anomalous,
				AnomalyReasons:  reasons,
				Source:          "ai",
			}, nil
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      fmt.Sprintf("%v", err),
		}).Warn("AI explanation unavailable, using local narrative")
	}

	return analytics.AnalyzeResponse{
		Explanation:     s.localNarrative(req),
		AnomalyDetected: anomalous,
		AnomalyReasons:  reasons,
		Source:          "local",
	}, nil
}

// ScanSummary summarizes a completed scan from its history entry and
// evidence records.
func (s *analyticsService) ScanSummary(ctx context.Context, scanID string) (analytics.ScanSummaryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.scanRepository.NewClient(false)
	if err != nil {
		return analytics.ScanSummaryResponse{}, err
	}

	history, err := repo.History.GetByScanID(ctx, scanID)
	if err != nil {
		return analytics.ScanSummaryResponse{}, err
	}

	summary, err := s.evidence.Summary(ctx, scanID)
	if err != nil {
		return analytics.ScanSummaryResponse{}, err
	}

	resp := analytics.ScanSummaryResponse{
		ScanID:         scanID,
		RiskScore:      float64(history.RiskScore),
		RiskLevel:      history.RiskLevel,
		DefectCount:    history.DefectCount,
		ClassCounts:    summary.ClassCounts,
		PersonsBlurred: summary.PersonsBlurred,
		Source:         "local",
	}

	if s.gemini != nil {
		aiCtx, cancel := context.WithTimeout(ctx, aiTimeout)
		defer cancel()

		text, err := s.gemini.GenerateText(aiCtx, buildSummaryPrompt(resp))
		if err == nil && text != "" {
			resp.Narrative = strings.TrimSpace(text)
			resp.Source = "ai"
			return resp, nil
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    scanID,
		}).Warn("AI summary unavailable, using local narrative")
	}

	resp.Narrative = localSummaryNarrative(resp)
	return resp, nil
}

func detectAnomalies(defects []analytics.DefectItem) (bool, []string) {
	var reasons []string

	counts := make(map[string]int)
	for _, d := range defects {
		counts[strings.ToLower(d.Class)]++
		if d.Confidence > anomalyConfidence {
			reasons = append(reasons, fmt.Sprintf("unusually high confidence %s detection (%.2f)", d.Class, d.Confidence))
		}
	}
	for class, n := range counts {
		if n > anomalySameClassCount {
			reasons = append(reasons, fmt.Sprintf("%d separate %s detections in one submission", n, class))
		}
	}

	sort.Strings(reasons)
	return len(reasons) > 0, reasons
}

func (s *analyticsService) localNarrative(req analytics.AnalyzeRequest) string {
	type ranked struct {
		class    string
		severity float64
		count    int
	}

	byClass := make(map[string]*ranked)
	for _, d := range req.Defects {
		class := strings.ToLower(d.Class)
		if r, ok := byClass[class]; ok {
			r.count++
		} else {
			byClass[class] = &ranked{class: class, severity: s.scorer.Severity(class), count: 1}
		}
	}

	ordered := make([]*ranked, 0, len(byClass))
	for _, r := range byClass {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].severity == ordered[j].severity {
			return ordered[i].class < ordered[j].class
		}
		return ordered[i].severity > ordered[j].severity
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf("The scan found %d issue(s) across %d categories. ", len(req.Defects), len(ordered)))
	for i, r := range ordered {
		if i >= 3 {
			break
		}
		switch {
		case r.severity >= 4.0:
			b.WriteString(fmt.Sprintf("%s is a serious concern and should be assessed by a professional promptly. ", titleCase(r.class)))
		case r.severity >= 2.5:
			b.WriteString(fmt.Sprintf("%s warrants attention within the next few weeks. ", titleCase(r.class)))
		default:
			b.WriteString(fmt.Sprintf("%s appears cosmetic and can be handled during routine maintenance. ", titleCase(r.class)))
		}
	}
	if req.BuildingAge == "15+" {
		b.WriteString("Given the building's age, deterioration tends to progress faster; prioritize moisture-related findings.")
	}

	return strings.TrimSpace(b.String())
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ReplaceAll(s[1:], "_", " ")
}

func localSummaryNarrative(resp analytics.ScanSummaryResponse) string {
	classes := make([]string, 0, len(resp.ClassCounts))
	for class := range resp.ClassCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	if resp.DefectCount == 0 {
		return fmt.Sprintf("Scan %s completed with no defects found. The property scored %.0f (%s).", resp.ScanID, resp.RiskScore, resp.RiskLevel)
	}

	return fmt.Sprintf(
		"Scan %s completed with a score of %.0f (%s). %d defect(s) were recorded across: %s.",
		resp.ScanID, resp.RiskScore, resp.RiskLevel, resp.DefectCount, strings.Join(classes, ", "),
	)
}

func buildAnalyzePrompt(req analytics.AnalyzeRequest) string {
	var b strings.Builder
	b.WriteString("You are a residential building inspector. Explain the following detected defects to a homeowner in plain language, ordered by urgency, in at most 120 words.\n")
	for _, d := range req.Defects {
		b.WriteString(fmt.Sprintf("- %s (confidence %.2f", d.Class, d.Confidence))
		if d.AffectedPercent > 0 {
			b.WriteString(fmt.Sprintf(", affects %.1f%% of surface", d.AffectedPercent))
		}
		b.WriteString(")\n")
	}
	if req.BuildingAge != "" {
		b.WriteString(fmt.Sprintf("Building age: %s years.\n", req.BuildingAge))
	}
	if req.Climate != "" {
		b.WriteString(fmt.Sprintf("Climate: %s.\n", req.Climate))
	}
	if req.Room != "" {
		b.WriteString(fmt.Sprintf("Room: %s.\n", req.Room))
	}
	b.WriteString("Plain text only, no markdown.")
	return b.String()
}

func buildSummaryPrompt(resp analytics.ScanSummaryResponse) string {
	var b strings.Builder
	b.WriteString("Summarize this completed home inspection scan for the homeowner in at most 80 words of plain text.\n")
	b.WriteString(fmt.Sprintf("Score: %.0f (%s). Defects: %d.\n", resp.RiskScore, resp.RiskLevel, resp.DefectCount))
	for class, n := range resp.ClassCounts {
		b.WriteString(fmt.Sprintf("- %s: %d\n", class, n))
	}
	return b.String()
}
