package scanService

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"HomeGuardGolang/pkg/risk"
	"HomeGuardGolang/pkg/tracker"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	stageInputProcessing      = "input_processing"
	stageDefectDetection      = "defect_detection"
	stageStructuralAssessment = "structural_assessment"
	stageReportGeneration     = "report_generation"

	maxVideoFrames = 30
)

const ocrPrompt = `Extract all text from this document image.
Return the raw text content only, preserving line breaks.
If the document mentions building inspections, permits, repair records
or construction dates, include those verbatim. No commentary.`

type deepItem struct {
	name string
	kind string
	data []byte
}

// StartDeepScan validates and buffers the uploads, registers the session
// and returns immediately. Processing continues in the background.
func (s *scanService) StartDeepScan(ctx context.Context, files []*multipart.FileHeader, uc *entity.UserContext) (scan.DeepScanResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(files) == 0 {
		return scan.DeepScanResponse{}, scan.ErrNoFilesUploaded
	}

	items := make([]deepItem, 0, len(files))
	var failed []scan.FailedItemResponse

	for _, fh := range files {
		kind := classifyUpload(fh)
		if kind == "" {
			failed = append(failed, scan.FailedItemResponse{
				FileName: fh.Filename,
				Reason:   "unsupported media type",
			})
			continue
		}

		data, err := readUpload(fh)
		if err != nil {
			failed = append(failed, scan.FailedItemResponse{
				FileName: fh.Filename,
				Reason:   fmt.Sprintf("read failed: %v", err),
			})
			continue
		}

		items = append(items, deepItem{name: fh.Filename, kind: kind, data: data})
	}

	if len(items) == 0 {
		return scan.DeepScanResponse{}, scan.ErrUnsupportedMedia
	}

	scanID := uuid.NewString()
	bgCtx, cancel := context.WithCancel(contextPkg.WithRequestID(context.Background(), requestID))

	sess := &session{
		scanID:      scanID,
		scanType:    entity.ScanTypeDeep,
		state:       entity.StateInitializing,
		stage:       "queued",
		userContext: uc,
		tracker:     tracker.New(s.trackerCfg),
		failedItems: failed,
		createdAt:   time.Now(),
		cancel:      cancel,
	}
	s.putSession(sess)
	s.mirrorStatus(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
		"items":      len(items),
		"rejected":   len(failed),
	}).Info("Deep scan accepted")

	go s.runDeepScan(bgCtx, sess, items)

	return scan.DeepScanResponse{
		ScanID:  scanID,
		Status:  "queued",
		Message: "Deep scan started. Poll status for progress.",
	}, nil
}

func (s *scanService) runDeepScan(ctx context.Context, sess *session, items []deepItem) {
	requestID := contextPkg.GetRequestID(ctx)

	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scan_id":    sess.scanID,
				"panic":      fmt.Sprintf("%v", r),
			}).Error("Deep scan pipeline panicked")
			s.failDeepScan(ctx, sess, "internal processing failure")
		}
	}()

	// Stage 1: decompose videos into frames, split out documents.
	frames, documents := s.processInputs(ctx, sess, items)
	if ctx.Err() != nil {
		return
	}
	s.completeStage(ctx, sess, stageInputProcessing, 25)

	// Stage 2: run every frame through the full pipeline; OCR documents.
	processed := 0
	for _, frame := range frames {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ProcessFrame(ctx, sess.scanID, frame.data, false); err != nil {
			s.recordFailure(sess, frame.name, fmt.Sprintf("detection failed: %v", err))
			continue
		}
		processed++
	}

	for _, doc := range documents {
		if ctx.Err() != nil {
			return
		}
		s.extractDocument(ctx, sess, doc)
	}
	s.completeStage(ctx, sess, stageDefectDetection, 60)

	if processed == 0 && len(documents) == 0 {
		s.failDeepScan(ctx, sess, "no inputs could be processed")
		return
	}

	// Stage 3: aggregate and derive structural findings.
	sess.mu.Lock()
	aggregate := s.scorer.Aggregate(sess.reports)
	temporal := sess.tracker.Summary()
	sess.structural = structuralAssessment(sess.detections, temporal)
	sess.maintenance = maintenancePredictions(worstReport(sess.reports), temporal)
	sess.mu.Unlock()
	s.completeStage(ctx, sess, stageStructuralAssessment, 85)

	// Stage 4: final report.
	sess.mu.Lock()
	if sess.cancelled || sess.state.Terminal() {
		sess.mu.Unlock()
		return
	}
	report := s.buildReport(sess, aggregate, temporal)
	sess.report = &report
	sess.state = entity.StateComplete
	sess.advance(stageReportGeneration, 100)
	sess.completedAt = time.Now()

	if err := s.persistHistory(ctx, sess, aggregate); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    sess.scanID,
			"error":      err.Error(),
		}).Error("Failed to persist scan history")
	}
	s.mirrorStatus(ctx, sess)
	sess.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    sess.scanID,
		"frames":     processed,
		"documents":  len(documents),
		"score":      aggregate.Score,
	}).Info("Deep scan complete")
}

func (s *scanService) processInputs(ctx context.Context, sess *session, items []deepItem) ([]deepItem, []deepItem) {
	var frames, documents []deepItem

	for _, item := range items {
		if ctx.Err() != nil {
			return frames, documents
		}

		switch item.kind {
		case "image":
			frames = append(frames, item)
		case "document":
			documents = append(documents, item)
		case "video":
			extracted, err := s.extractor.Extract(ctx, item.data, maxVideoFrames)
			if err != nil {
				s.recordFailure(sess, item.name, fmt.Sprintf("frame extraction failed: %v", err))
				continue
			}
			for i, data := range extracted {
				frames = append(frames, deepItem{
					name: fmt.Sprintf("%s#frame%d", item.name, i),
					kind: "image",
					data: data,
				})
			}
		}
	}

	return frames, documents
}

func (s *scanService) extractDocument(ctx context.Context, sess *session, doc deepItem) {
	if s.gemini == nil {
		s.recordFailure(sess, doc.name, "document extraction unavailable")
		return
	}

	ocrCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text, err := s.gemini.AnalyzeImage(ocrCtx, base64.StdEncoding.EncodeToString(doc.data), ocrPrompt)
	if err != nil {
		s.recordFailure(sess, doc.name, fmt.Sprintf("document extraction failed: %v", err))
		return
	}

	sess.mu.Lock()
	sess.ocr = append(sess.ocr, scan.OCRExtractionResponse{FileName: doc.name, Text: text})
	sess.mu.Unlock()
}

func (s *scanService) completeStage(ctx context.Context, sess *session, stage string, progress float64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.cancelled || sess.state.Terminal() {
		return
	}
	if sess.state == entity.StateInitializing {
		sess.state = entity.StateActive
	}
	sess.advance(stage, progress)
	s.mirrorStatus(ctx, sess)
}

func (s *scanService) recordFailure(sess *session, name, reason string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.failedItems = append(sess.failedItems, scan.FailedItemResponse{FileName: name, Reason: reason})
}

func (s *scanService) failDeepScan(ctx context.Context, sess *session, reason string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Terminal() {
		return
	}
	sess.state = entity.StateError
	sess.lastError = reason
	sess.completedAt = time.Now()
	s.mirrorStatus(ctx, sess)
}

func classifyUpload(fh *multipart.FileHeader) string {
	contentType := fh.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case contentType == "application/pdf", strings.HasPrefix(contentType, "text/"):
		return "document"
	}

	switch {
	case hasSuffixAny(fh.Filename, ".jpg", ".jpeg", ".png"):
		return "image"
	case hasSuffixAny(fh.Filename, ".mp4", ".mov", ".avi"):
		return "video"
	case hasSuffixAny(fh.Filename, ".pdf", ".txt"):
		return "document"
	}

	return ""
}

func hasSuffixAny(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}

// structuralAssessment derives a deterministic verdict from the classes
// seen and their temporal behavior.
func structuralAssessment(detections []entity.Detection, temporal entity.TemporalSummary) string {
	structural := map[string]bool{"crack": true, "spalling": true, "deformation": true}

	found := false
	growingStructural := false
	for _, det := range detections {
		if structural[strings.ToLower(det.Class)] {
			found = true
		}
	}
	for _, track := range temporal.Tracks {
		if track.IsGrowing && structural[strings.ToLower(track.Class)] {
			growingStructural = true
		}
	}

	switch {
	case growingStructural:
		return "Progressing structural defects detected across frames. Movement or active deterioration is likely; a structural engineer should assess load-bearing elements."
	case found:
		return "Structural defect indicators present. No progression observed within this scan; monitor and re-scan periodically."
	case len(detections) > 0:
		return "No structural defect indicators. Observed issues appear cosmetic or moisture-related."
	default:
		return "No structural concerns identified."
	}
}

// maintenancePredictions turns the dominant penalty classes into
// forward-looking maintenance items.
func maintenancePredictions(worst *entity.RiskReport, temporal entity.TemporalSummary) []string {
	if worst == nil {
		return nil
	}

	predictions := make([]string, 0, 4)
	for _, class := range risk.TopClasses(worst.PenaltyBreakdown.ByClass, 3) {
		if p, ok := maintenanceByClass[class]; ok {
			predictions = append(predictions, p)
		} else {
			predictions = append(predictions, fmt.Sprintf("Inspect and remediate %s findings within 6 months", class))
		}
	}

	if temporal.GrowingCount > 0 {
		predictions = append(predictions, "Re-scan affected areas within 30 days to confirm growth trend")
	}

	return predictions
}

var maintenanceByClass = map[string]string{
	"mold":         "Address moisture source and schedule mold remediation within 30 days",
	"leak":         "Repair plumbing or roofing leak before next wet season",
	"water_damage": "Dry out and repair water-damaged materials; check for hidden moisture",
	"crack":        "Monitor crack width monthly; seal and schedule structural review if widening",
	"electrical":   "Have a licensed electrician inspect flagged wiring within 2 weeks",
	"corrosion":    "Treat corroded elements and apply protective coating within 3 months",
	"rust":         "Treat rusted elements and apply protective coating within 3 months",
	"damp":         "Improve ventilation and monitor humidity in affected rooms",
	"peeling":      "Repaint affected surfaces after addressing underlying moisture",
	"spalling":     "Patch spalled concrete and investigate rebar exposure within 3 months",
	"deformation":  "Structural engineer assessment of deformed members within 2 weeks",
	"stain":        "Identify staining source during next routine maintenance",
}
