package scanService

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	"HomeGuardGolang/pkg/tracker"
	"sync"
	"time"

	"golang.org/x/net/context"
)

// session is one in-flight scan. All mutation happens under mu; status
// reads copy a snapshot out so handlers never hold the lock across IO.
type session struct {
	mu sync.Mutex

	scanID      string
	scanType    entity.ScanType
	state       entity.ScanState
	stage       string
	progress    float64
	userContext *entity.UserContext

	tracker     tracker.ITracker
	frameCount  int
	detections  []entity.Detection
	reports     []entity.RiskReport
	evidenceIDs []string

	report      *scan.ReportResponse
	failedItems []scan.FailedItemResponse
	ocr         []scan.OCRExtractionResponse
	structural  string
	maintenance []string
	lastError   string

	createdAt   time.Time
	completedAt time.Time

	cancel    context.CancelFunc
	cancelled bool
}

type statusSnapshot struct {
	ScanID   string  `json:"scan_id"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Stage    string  `json:"stage,omitempty"`
}

func (s *session) snapshot() statusSnapshot {
	return statusSnapshot{
		ScanID:   s.scanID,
		Type:     string(s.scanType),
		Status:   statusOf(s.state),
		Progress: s.progress,
		Stage:    s.stage,
	}
}

func statusOf(state entity.ScanState) string {
	switch state {
	case entity.StateInitializing:
		return "queued"
	case entity.StateActive, entity.StateFinalizing:
		return "processing"
	case entity.StateComplete:
		return "complete"
	default:
		return "error"
	}
}

// advance moves the stage forward. Progress never decreases, whatever
// order stage completions land in.
func (s *session) advance(stage string, progress float64) {
	s.stage = stage
	if progress > s.progress {
		s.progress = progress
	}
}

func (s *scanService) getSession(scanID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[scanID]
	return sess, ok
}

func (s *scanService) putSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.scanID] = sess
}
