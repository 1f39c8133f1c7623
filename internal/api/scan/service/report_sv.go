package scanService

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const statusCacheTTL = time.Hour

func (s *scanService) Status(ctx context.Context, scanID string) (scan.StatusResponse, error) {
	if sess, ok := s.getSession(scanID); ok {
		sess.mu.Lock()
		snap := sess.snapshot()
		sess.mu.Unlock()

		return scan.StatusResponse{
			ScanID:   snap.ScanID,
			Type:     snap.Type,
			Status:   snap.Status,
			Progress: snap.Progress,
			Stage:    snap.Stage,
		}, nil
	}

	// The session table is authoritative; the cache only answers for
	// scans this process no longer holds.
	if s.cache != nil {
		if payload, err := s.cache.GetScanStatus(ctx, scanID); err == nil {
			var snap statusSnapshot
			if err := json.Unmarshal([]byte(payload), &snap); err == nil {
				return scan.StatusResponse{
					ScanID:   snap.ScanID,
					Type:     snap.Type,
					Status:   snap.Status,
					Progress: snap.Progress,
					Stage:    snap.Stage,
				}, nil
			}
		}
	}

	return scan.StatusResponse{}, scan.ErrUnknownScan
}

func (s *scanService) Report(ctx context.Context, scanID string) (scan.ReportResponse, error) {
	if sess, ok := s.getSession(scanID); ok {
		sess.mu.Lock()
		defer sess.mu.Unlock()

		switch {
		case sess.state == entity.StateComplete && sess.report != nil:
			return *sess.report, nil
		case sess.state == entity.StateError:
			return scan.ReportResponse{
				ScanID:      scanID,
				Type:        string(sess.scanType),
				Status:      "error",
				Summary:     sess.lastError,
				FailedItems: sess.failedItems,
			}, nil
		default:
			return scan.ReportResponse{}, scan.ErrScanNotComplete
		}
	}

	// Completed scans from earlier process lifetimes survive in history.
	repo, err := s.scanRepository.NewClient(false)
	if err != nil {
		return scan.ReportResponse{}, err
	}

	history, err := repo.History.GetByScanID(ctx, scanID)
	if err != nil {
		return scan.ReportResponse{}, err
	}

	return scan.ReportResponse{
		ScanID:      history.ScanID,
		Type:        string(history.Type),
		Status:      "complete",
		RiskScore:   float64(history.RiskScore),
		RiskLevel:   history.RiskLevel,
		DefectCount: history.DefectCount,
		Summary:     "Archived scan. Full frame data is no longer retained.",
		CompletedAt: history.CompletedAt.Format(time.RFC3339),
	}, nil
}

// Cancel stops a running session. The in-flight item finishes on its
// own; nothing new is admitted and no evidence is written afterwards.
func (s *scanService) Cancel(ctx context.Context, scanID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	sess, ok := s.getSession(scanID)
	if !ok {
		return scan.ErrUnknownScan
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Terminal() {
		return scan.ErrSessionTerminal
	}

	sess.cancelled = true
	if sess.cancel != nil {
		sess.cancel()
	}
	sess.state = entity.StateError
	sess.stage = "cancelled"
	sess.lastError = "scan cancelled"
	sess.completedAt = time.Now()

	s.mirrorStatus(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
	}).Info("Scan cancelled")

	return nil
}

func (s *scanService) History(ctx context.Context, limit int) (scan.HistoryListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repo, err := s.scanRepository.NewClient(false)
	if err != nil {
		return scan.HistoryListResponse{}, err
	}

	entries, err := repo.History.List(ctx, limit)
	if err != nil {
		return scan.HistoryListResponse{}, err
	}

	items := make([]scan.HistoryItemResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, scan.HistoryItemResponse{
			ID:          entry.ID,
			ScanID:      entry.ScanID,
			ScanType:    string(entry.Type),
			Room:        entry.Room,
			RiskScore:   float64(entry.RiskScore),
			RiskLevel:   entry.RiskLevel,
			DefectCount: entry.DefectCount,
			CompletedAt: entry.CompletedAt.Format(time.RFC3339),
		})
	}

	return scan.HistoryListResponse{Count: len(items), History: items}, nil
}

func (s *scanService) DeleteHistory(ctx context.Context, id string) error {
	repo, err := s.scanRepository.NewClient(false)
	if err != nil {
		return err
	}

	return repo.History.DeleteByID(ctx, id)
}

// buildReport assembles the final report from everything the session
// accumulated. Caller holds the session lock.
func (s *scanService) buildReport(sess *session, aggregate entity.AggregateReport, temporal entity.TemporalSummary) scan.ReportResponse {
	report := scan.ReportResponse{
		ScanID:       sess.scanID,
		Type:         string(sess.scanType),
		Status:       "complete",
		RiskScore:    float64(aggregate.Score),
		AverageScore: float64(aggregate.AverageScore),
		RiskLevel:    aggregate.RiskLevel,
		DefectCount:  aggregate.TotalDefectsFound,
		Defects:      s.makeDefectResponses(sess.detections, nil),
		CompletedAt:  time.Now().Format(time.RFC3339),
	}

	// The worst frame carries the headline, so its breakdown and advice
	// explain the score shown to the user.
	if worst := worstReport(sess.reports); worst != nil {
		report.Summary = worst.Summary
		report.RecommendedActions = worst.RecommendedActions
		report.PenaltyBreakdown = &scan.PenaltyBreakdownResponse{
			Defects:   worst.PenaltyBreakdown.Defects,
			AgeFactor: worst.PenaltyBreakdown.AgeFactor,
			ByClass:   worst.PenaltyBreakdown.ByClass,
		}
	}

	tracks := make([]scan.TrackResponse, 0, len(temporal.Tracks))
	for _, t := range temporal.Tracks {
		tracks = append(tracks, scan.TrackResponse{
			TrackID:    t.ID,
			Class:      t.Class,
			FramesSeen: t.FramesSeen,
			GrowthRate: t.GrowthRate,
			IsGrowing:  t.IsGrowing,
		})
	}
	report.TemporalAnalysis = &scan.TemporalAnalysisResponse{
		PersistentDefectsCount: temporal.PersistentCount,
		GrowingDefectsCount:    temporal.GrowingCount,
		Tracks:                 tracks,
	}

	report.StructuralAssessment = sess.structural
	report.MaintenancePrediction = sess.maintenance
	report.OCRExtractions = sess.ocr
	report.FailedItems = sess.failedItems

	return report
}

func worstReport(reports []entity.RiskReport) *entity.RiskReport {
	var worst *entity.RiskReport
	for i := range reports {
		if worst == nil || reports[i].Score < worst.Score {
			worst = &reports[i]
		}
	}
	return worst
}

// persistHistory writes the completed session's verdict. Caller holds
// the session lock.
func (s *scanService) persistHistory(ctx context.Context, sess *session, aggregate entity.AggregateReport) error {
	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		return err
	}

	room := ""
	if sess.userContext != nil {
		room = sess.userContext.Room
	}

	repo, err := s.scanRepository.NewClient(false)
	if err != nil {
		return err
	}

	return repo.History.CreateEntry(ctx, entity.ScanHistory{
		ID:            id,
		ScanID:        sess.scanID,
		Type:          sess.scanType,
		Room:          room,
		RiskScore:     aggregate.Score,
		RiskLevel:     aggregate.RiskLevel,
		DefectCount:   aggregate.TotalDefectsFound,
		FramesScanned: sess.frameCount,
		CompletedAt:   time.Now(),
	})
}

// mirrorStatus pushes a status snapshot to the cache so status polls
// survive this process dropping the session. Caller holds the lock.
func (s *scanService) mirrorStatus(ctx context.Context, sess *session) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(sess.snapshot())
	if err != nil {
		return
	}

	if err := s.cache.SetScanStatus(ctx, sess.scanID, string(payload), statusCacheTTL); err != nil {
		s.log.WithFields(logrus.Fields{
			"scan_id": sess.scanID,
			"error":   err.Error(),
		}).Warn("Failed to mirror scan status to cache")
	}
}
