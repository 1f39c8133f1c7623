package scanService

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"HomeGuardGolang/pkg/detector"
	"HomeGuardGolang/pkg/risk"
	"HomeGuardGolang/pkg/tracker"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *scanService) StartSession(ctx context.Context, scanType entity.ScanType, uc *entity.UserContext) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	scanID := uuid.NewString()
	sess := &session{
		scanID:      scanID,
		scanType:    scanType,
		state:       entity.StateInitializing,
		userContext: uc,
		tracker:     tracker.New(s.trackerCfg),
		createdAt:   time.Now(),
	}
	s.putSession(sess)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
		"type":       scanType,
	}).Info("Scan session started")

	return scanID, nil
}

// SetContext attaches questionnaire metadata mid-session. Later frames
// are scored with it; already-scored frames are not revised.
func (s *scanService) SetContext(scanID string, uc *entity.UserContext) error {
	sess, ok := s.getSession(scanID)
	if !ok {
		return scan.ErrUnknownScan
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Terminal() {
		return scan.ErrSessionTerminal
	}

	sess.userContext = uc
	return nil
}

// ProcessFrame runs one frame through the full pipeline: detect, enforce
// privacy, track, capture evidence, score. The raw frame never leaves
// this function; only the cleared copy does.
func (s *scanService) ProcessFrame(ctx context.Context, scanID string, frame []byte, includeAnnotated bool) (scan.FrameResultResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	sess, ok := s.getSession(scanID)
	if !ok {
		return scan.FrameResultResponse{}, scan.ErrUnknownScan
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Terminal() {
		return scan.FrameResultResponse{}, scan.ErrSessionTerminal
	}
	if sess.state == entity.StateInitializing {
		sess.state = entity.StateActive
	}
	if sess.cancelled {
		return scan.FrameResultResponse{}, scan.ErrSessionTerminal
	}

	frameIndex := sess.frameCount
	sess.frameCount++

	result, err := s.detector.Detect(ctx, frame, s.detectMode(sess.scanType))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    scanID,
			"error":      err.Error(),
		}).Error("Detection failed for frame")
		return scan.FrameResultResponse{}, err
	}

	entityFrame := entity.Frame{
		ScanID:     scanID,
		FrameIndex: frameIndex,
		Data:       frame,
		CapturedAt: time.Now(),
	}

	var cleared []byte
	var blurred int
	if unlocatable(result.Persons) {
		cleared, err = s.guard.EnforceUnknown(ctx, entityFrame)
		blurred = len(result.Persons)
	} else {
		cleared, blurred, err = s.guard.Enforce(ctx, entityFrame, result.Persons)
	}
	if err != nil {
		// The frame is dropped, the session stays usable.
		return scan.FrameResultResponse{}, err
	}

	states := sess.tracker.Observe(result.Defects, frameIndex)

	evidenceID := ""
	if !sess.cancelled {
		clearedFrame := entityFrame
		clearedFrame.Data = cleared
		id, captured, err := s.evidence.Capture(ctx, clearedFrame, cleared, result.Defects, blurred)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scan_id":    scanID,
				"error":      err.Error(),
			}).Warn("Evidence capture failed, frame result still returned")
		} else if captured {
			evidenceID = id
			sess.evidenceIDs = append(sess.evidenceIDs, id)
		}
	}

	observations := make([]risk.Observation, 0, len(result.Defects))
	for i, det := range result.Defects {
		obs := risk.Observation{Detection: det}
		if i < len(states) {
			obs.Track = states[i]
		}
		observations = append(observations, obs)
	}

	report := s.scorer.Score(observations, 0, sess.userContext)
	sess.detections = append(sess.detections, result.Defects...)
	sess.reports = append(sess.reports, report)

	resp := scan.FrameResultResponse{
		ScanID:          scanID,
		FrameNumber:     frameIndex,
		Defects:         s.makeDefectResponses(result.Defects, states),
		PersonsDetected: len(result.Persons),
		PersonsBlurred:  blurred,
		RiskScore:       float64(report.Score),
		RiskLevel:       report.RiskLevel,
		Degraded:        result.Degraded,
		EvidenceCaptured: evidenceID,
	}

	if includeAnnotated {
		annotated, err := annotateFrame(cleared, result.Defects)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scan_id":    scanID,
				"error":      err.Error(),
			}).Warn("Failed to annotate frame")
		} else {
			resp.AnnotatedFrame = base64.StdEncoding.EncodeToString(annotated)
		}
	}

	return resp, nil
}

// FinalizeSession aggregates the session's per-frame reports, persists
// history and marks the session complete. Safe to call once; repeated
// calls report the terminal-session conflict.
func (s *scanService) FinalizeSession(ctx context.Context, scanID string) (scan.QuickFinalResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	sess, ok := s.getSession(scanID)
	if !ok {
		return scan.QuickFinalResponse{}, scan.ErrUnknownScan
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Terminal() {
		return scan.QuickFinalResponse{}, scan.ErrSessionTerminal
	}

	sess.state = entity.StateFinalizing

	aggregate := s.scorer.Aggregate(sess.reports)
	temporal := sess.tracker.Summary()

	report := s.buildReport(sess, aggregate, temporal)
	sess.report = &report
	sess.state = entity.StateComplete
	sess.progress = 100
	sess.completedAt = time.Now()

	if err := s.persistHistory(ctx, sess, aggregate); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    scanID,
			"error":      err.Error(),
		}).Error("Failed to persist scan history")
	}

	s.mirrorStatus(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
		"frames":     sess.frameCount,
		"score":      aggregate.Score,
		"level":      aggregate.RiskLevel,
	}).Info("Scan session finalized")

	return scan.QuickFinalResponse{
		ScanID:        scanID,
		Status:        "complete",
		FramesScanned: sess.frameCount,
		RiskScore:     float64(aggregate.Score),
		RiskLevel:     aggregate.RiskLevel,
		DefectCount:   aggregate.TotalDefectsFound,
	}, nil
}

// unlocatable reports whether any detected person lacks a usable
// bounding box. The detector can assert presence without coordinates;
// such frames get a whole-frame blur instead of a regional one.
func unlocatable(persons []entity.PersonRegion) bool {
	for _, p := range persons {
		if p.BBox.X2 <= p.BBox.X1 || p.BBox.Y2 <= p.BBox.Y1 {
			return true
		}
	}
	return false
}

func (s *scanService) detectMode(scanType entity.ScanType) detector.Mode {
	if scanType == entity.ScanTypeDeep {
		return detector.ModeThorough
	}
	return detector.ModeFast
}

func (s *scanService) makeDefectResponses(detections []entity.Detection, states []entity.TrackState) []scan.DefectResponse {
	defects := make([]scan.DefectResponse, 0, len(detections))
	for i, det := range detections {
		d := scan.DefectResponse{
			Class:           det.Class,
			Confidence:      det.Confidence,
			BBox:            []float64{det.BBox.X1, det.BBox.Y1, det.BBox.X2, det.BBox.Y2},
			Severity:        s.scorer.Severity(det.Class),
			AffectedPercent: det.AffectedPercent,
			Method:          string(det.Method),
		}
		if i < len(states) {
			d.TrackState = states[i].String()
		}
		defects = append(defects, d)
	}
	return defects
}
