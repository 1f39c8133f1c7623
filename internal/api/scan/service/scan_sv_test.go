package scanService

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"HomeGuardGolang/internal/api/evidence"
	evidenceService "HomeGuardGolang/internal/api/evidence/service"
	"HomeGuardGolang/internal/api/scan"
	scanRepository "HomeGuardGolang/internal/api/scan/repository"
	"HomeGuardGolang/internal/entity"
	"HomeGuardGolang/pkg/detector"
	"HomeGuardGolang/pkg/privacy"
	"HomeGuardGolang/pkg/risk"
	"HomeGuardGolang/pkg/tracker"
	"HomeGuardGolang/pkg/utils"
)

type stubAdapter struct {
	result entity.DetectResult
	err    error
}

func (a *stubAdapter) Detect(_ context.Context, _ []byte, _ detector.Mode) (entity.DetectResult, error) {
	return a.result, a.err
}

type stubGuard struct {
	err       error
	regional  int
	fullBlurs int
}

func (g *stubGuard) Enforce(_ context.Context, frame entity.Frame, persons []entity.PersonRegion) ([]byte, int, error) {
	if g.err != nil {
		return nil, 0, g.err
	}
	g.regional++
	return frame.Data, len(persons), nil
}

func (g *stubGuard) EnforceUnknown(_ context.Context, frame entity.Frame) ([]byte, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.fullBlurs++
	return frame.Data, nil
}

type stubEvidence struct {
	captures int
	audits   []entity.PrivacyAudit
}

func (e *stubEvidence) Capture(_ context.Context, frame entity.Frame, _ []byte, detections []entity.Detection, _ int) (string, bool, error) {
	if len(detections) == 0 {
		return "", false, nil
	}
	e.captures++
	return "ev-1", true, nil
}

func (e *stubEvidence) ListByScan(_ context.Context, scanID string) (evidence.EvidenceListResponse, error) {
	return evidence.EvidenceListResponse{ScanID: scanID}, nil
}

func (e *stubEvidence) GetRecord(_ context.Context, _ string) (entity.EvidenceRecord, error) {
	return entity.EvidenceRecord{}, evidence.ErrEvidenceNotFound
}

func (e *stubEvidence) GetImage(_ context.Context, _ string, _ bool) ([]byte, error) {
	return nil, evidence.ErrEvidenceNotFound
}

func (e *stubEvidence) Summary(_ context.Context, scanID string) (evidence.SummaryResponse, error) {
	return evidence.SummaryResponse{ScanID: scanID}, nil
}

func (e *stubEvidence) PurgeScan(_ context.Context, _ string) error {
	return nil
}

func (e *stubEvidence) Record(_ context.Context, audit entity.PrivacyAudit) error {
	e.audits = append(e.audits, audit)
	return nil
}

type memHistory struct {
	entries []entity.ScanHistory
}

func (m *memHistory) CreateEntry(_ context.Context, history entity.ScanHistory) error {
	m.entries = append(m.entries, history)
	return nil
}

func (m *memHistory) List(_ context.Context, limit int) ([]entity.ScanHistory, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *memHistory) GetByScanID(_ context.Context, scanID string) (entity.ScanHistory, error) {
	for _, entry := range m.entries {
		if entry.ScanID == scanID {
			return entry, nil
		}
	}
	return entity.ScanHistory{}, scan.ErrUnknownScan
}

func (m *memHistory) DeleteByID(_ context.Context, id string) error {
	for i, entry := range m.entries {
		if entry.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

type memScanRepository struct {
	history *memHistory
}

func (r memScanRepository) NewClient(_ bool) (scanRepository.Client, error) {
	return scanRepository.Client{
		History:  r.history,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type testDeps struct {
	adapter  *stubAdapter
	guard    *stubGuard
	evidence evidenceService.IEvidenceService
	history  *memHistory
}

func newTestService(deps testDeps) IScanService {
	if deps.adapter == nil {
		deps.adapter = &stubAdapter{}
	}
	if deps.guard == nil {
		deps.guard = &stubGuard{}
	}
	if deps.evidence == nil {
		deps.evidence = &stubEvidence{}
	}
	if deps.history == nil {
		deps.history = &memHistory{}
	}

	return NewScanService(
		testLogger(),
		deps.adapter,
		deps.guard,
		risk.NewScorer(risk.DefaultConfig()),
		tracker.DefaultConfig(),
		deps.evidence,
		memScanRepository{history: deps.history},
		nil,
		nil,
		nil,
		utils.New(),
	)
}

func crack(confidence float64) entity.Detection {
	return entity.Detection{
		Class:      "crack",
		Confidence: confidence,
		BBox:       entity.BBox{X1: 10, Y1: 10, X2: 60, Y2: 60},
		Method:     entity.MethodLocal,
	}
}

func TestStartSessionStatusQueued(t *testing.T) {
	svc := newTestService(testDeps{})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)
	require.NotEmpty(t, scanID)

	status, err := svc.Status(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "queued", status.Status)
	require.Equal(t, "quick", status.Type)
}

func TestStatusUnknownScan(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.Status(context.Background(), "nope")
	require.ErrorIs(t, err, scan.ErrUnknownScan)
}

func TestProcessFrameQuickFlow(t *testing.T) {
	ev := &stubEvidence{}
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{
			Defects: []entity.Detection{crack(0.85)},
			Persons: []entity.PersonRegion{{BBox: entity.BBox{X1: 0, Y1: 0, X2: 30, Y2: 30}, Confidence: 0.9}},
		}},
		evidence: ev,
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)
	require.Equal(t, 0, result.FrameNumber)
	require.Len(t, result.Defects, 1)
	require.Equal(t, "crack", result.Defects[0].Class)
	require.Equal(t, "one_off", result.Defects[0].TrackState)
	require.Equal(t, 1, result.PersonsDetected)
	require.Equal(t, 1, result.PersonsBlurred)
	require.Less(t, result.RiskScore, 100.0)
	require.Equal(t, "ev-1", result.EvidenceCaptured)
	require.Equal(t, 1, ev.captures)

	status, err := svc.Status(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "processing", status.Status)
}

func TestProcessFrameUnknownScan(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.ProcessFrame(context.Background(), "nope", []byte("frame"), false)
	require.ErrorIs(t, err, scan.ErrUnknownScan)
}

func TestProcessFramePersistentTrackLowersScore(t *testing.T) {
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{Defects: []entity.Detection{crack(0.85)}}},
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	first, err := svc.ProcessFrame(ctx, scanID, []byte("f0"), false)
	require.NoError(t, err)

	var last scan.FrameResultResponse
	for i := 1; i < 4; i++ {
		last, err = svc.ProcessFrame(ctx, scanID, []byte("f"), false)
		require.NoError(t, err)
	}

	require.Equal(t, "persistent", last.Defects[0].TrackState)
	require.Less(t, last.RiskScore, first.RiskScore)
}

func TestProcessFrameGuardFailureDropsFrameOnly(t *testing.T) {
	guard := &stubGuard{err: privacy.ErrEnforcementFailed}
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{Defects: []entity.Detection{crack(0.85)}}},
		guard:   guard,
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.ErrorIs(t, err, privacy.ErrEnforcementFailed)

	// The session survives the dropped frame.
	guard.err = nil
	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)
	require.Equal(t, 1, result.FrameNumber)
}

func TestProcessFrameUnlocatablePersonBlursWholeFrame(t *testing.T) {
	guard := &stubGuard{}
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{
			Defects: []entity.Detection{crack(0.85)},
			Persons: []entity.PersonRegion{{Confidence: 0.9}},
		}},
		guard: guard,
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)

	// Person present with no usable box: whole-frame blur, not regional.
	require.Equal(t, 1, guard.fullBlurs)
	require.Equal(t, 0, guard.regional)
	require.Equal(t, 1, result.PersonsDetected)
	require.Equal(t, 1, result.PersonsBlurred)
}

func TestProcessFrameLocatedPersonsBlurRegionally(t *testing.T) {
	guard := &stubGuard{}
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{
			Persons: []entity.PersonRegion{{BBox: entity.BBox{X1: 10, Y1: 10, X2: 40, Y2: 60}, Confidence: 0.9}},
		}},
		guard: guard,
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)
	require.Equal(t, 1, guard.regional)
	require.Equal(t, 0, guard.fullBlurs)
	require.Equal(t, 1, result.PersonsBlurred)
}

func TestProcessFrameDetectorErrorPropagates(t *testing.T) {
	svc := newTestService(testDeps{
		adapter: &stubAdapter{err: detector.ErrUnavailable},
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.ErrorIs(t, err, detector.ErrUnavailable)
}

func TestFinalizeSessionCompletesAndPersists(t *testing.T) {
	history := &memHistory{}
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{Defects: []entity.Detection{crack(0.85)}}},
		history: history,
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, &entity.UserContext{Room: "basement"})
	require.NoError(t, err)

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)

	final, err := svc.FinalizeSession(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "complete", final.Status)
	require.Equal(t, 1, final.FramesScanned)
	require.Equal(t, 1, final.DefectCount)
	require.Less(t, final.RiskScore, 100.0)

	require.Len(t, history.entries, 1)
	require.Equal(t, scanID, history.entries[0].ScanID)
	require.Equal(t, "basement", history.entries[0].Room)
	require.NotEmpty(t, history.entries[0].ID)

	status, err := svc.Status(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "complete", status.Status)
	require.Equal(t, 100.0, status.Progress)
}

func TestFinalizeTwiceConflicts(t *testing.T) {
	svc := newTestService(testDeps{})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	_, err = svc.FinalizeSession(ctx, scanID)
	require.NoError(t, err)

	_, err = svc.FinalizeSession(ctx, scanID)
	require.ErrorIs(t, err, scan.ErrSessionTerminal)
}

func TestProcessFrameAfterFinalizeRejected(t *testing.T) {
	svc := newTestService(testDeps{})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	_, err = svc.FinalizeSession(ctx, scanID)
	require.NoError(t, err)

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.ErrorIs(t, err, scan.ErrSessionTerminal)

	require.ErrorIs(t, svc.SetContext(scanID, &entity.UserContext{}), scan.ErrSessionTerminal)
}

func TestReportLifecycle(t *testing.T) {
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{Defects: []entity.Detection{crack(0.85)}}},
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	_, err = svc.Report(ctx, scanID)
	require.ErrorIs(t, err, scan.ErrScanNotComplete)

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)

	_, err = svc.FinalizeSession(ctx, scanID)
	require.NoError(t, err)

	report, err := svc.Report(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "complete", report.Status)
	require.Equal(t, 1, report.DefectCount)
	require.NotNil(t, report.PenaltyBreakdown)
	require.NotEmpty(t, report.RecommendedActions)
}

func TestReportFallsBackToHistory(t *testing.T) {
	history := &memHistory{entries: []entity.ScanHistory{{
		ID:          "01H",
		ScanID:      "old-scan",
		Type:        entity.ScanTypeQuick,
		RiskScore:   72,
		RiskLevel:   "Moderate Risk",
		DefectCount: 3,
		CompletedAt: time.Now(),
	}}}
	svc := newTestService(testDeps{history: history})

	report, err := svc.Report(context.Background(), "old-scan")
	require.NoError(t, err)
	require.Equal(t, "complete", report.Status)
	require.Equal(t, 72.0, report.RiskScore)
	require.Equal(t, 3, report.DefectCount)
}

func TestReportUnknownScan(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.Report(context.Background(), "nope")
	require.ErrorIs(t, err, scan.ErrUnknownScan)
}

func TestCancelStopsSession(t *testing.T) {
	svc := newTestService(testDeps{})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, scanID))

	_, err = svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.ErrorIs(t, err, scan.ErrSessionTerminal)

	status, err := svc.Status(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, "error", status.Status)

	require.ErrorIs(t, svc.Cancel(ctx, scanID), scan.ErrSessionTerminal)
}

func TestHistoryListAndDelete(t *testing.T) {
	history := &memHistory{entries: []entity.ScanHistory{
		{ID: "01A", ScanID: "s1", Type: entity.ScanTypeQuick, CompletedAt: time.Now()},
		{ID: "01B", ScanID: "s2", Type: entity.ScanTypeDeep, CompletedAt: time.Now()},
	}}
	svc := newTestService(testDeps{history: history})
	ctx := context.Background()

	list, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, list.Count)

	require.NoError(t, svc.DeleteHistory(ctx, "01A"))

	list, err = svc.History(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, list.Count)
}

func TestProcessFrameDegradedPassthrough(t *testing.T) {
	svc := newTestService(testDeps{
		adapter: &stubAdapter{result: entity.DetectResult{
			Defects:  []entity.Detection{crack(0.85)},
			Degraded: true,
		}},
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeDeep, nil)
	require.NoError(t, err)

	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)
	require.True(t, result.Degraded)
}

func TestFinalizeEmptySessionIsLowRisk(t *testing.T) {
	svc := newTestService(testDeps{})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	final, err := svc.FinalizeSession(ctx, scanID)
	require.NoError(t, err)
	require.Equal(t, 100.0, final.RiskScore)
	require.Equal(t, "Low Risk", final.RiskLevel)
	require.Equal(t, 0, final.DefectCount)
}

func TestAdvanceProgressMonotonic(t *testing.T) {
	sess := &session{}
	sess.advance("defect_detection", 60)
	sess.advance("input_processing", 25)

	require.Equal(t, 60.0, sess.progress)
	require.Equal(t, "input_processing", sess.stage)
}

var errBoom = errors.New("boom")

func TestProcessFrameEvidenceFailureNonFatal(t *testing.T) {
	svc := newTestService(testDeps{
		adapter:  &stubAdapter{result: entity.DetectResult{Defects: []entity.Detection{crack(0.85)}}},
		evidence: &failingEvidence{},
	})
	ctx := context.Background()

	scanID, err := svc.StartSession(ctx, entity.ScanTypeQuick, nil)
	require.NoError(t, err)

	result, err := svc.ProcessFrame(ctx, scanID, []byte("frame"), false)
	require.NoError(t, err)
	require.Empty(t, result.EvidenceCaptured)
	require.Len(t, result.Defects, 1)
}

type failingEvidence struct {
	stubEvidence
}

func (e *failingEvidence) Capture(_ context.Context, _ entity.Frame, _ []byte, _ []entity.Detection, _ int) (string, bool, error) {
	return "", false, errBoom
}
