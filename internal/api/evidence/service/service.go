package evidenceService

import (
	"HomeGuardGolang/internal/api/evidence"
	evidenceRepository "HomeGuardGolang/internal/api/evidence/repository"
	"HomeGuardGolang/internal/entity"
	"HomeGuardGolang/pkg/s3"
	"HomeGuardGolang/pkg/utils"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Config bounds the evidence store per scan. CaptureThreshold is the
// minimum detection confidence worth keeping a frame for.
type Config struct {
	CaptureThreshold float64
	MaxPerScan       int
	ThumbWidth       int
	ThumbHeight      int
	ThumbQuality     int
}

func DefaultConfig() Config {
	return Config{
		CaptureThreshold: 0.4,
		MaxPerScan:       50,
		ThumbWidth:       160,
		ThumbHeight:      120,
		ThumbQuality:     80,
	}
}

type IEvidenceService interface {
	Capture(ctx context.Context, frame entity.Frame, clearedImage []byte, detections []entity.Detection, personsBlurred int) (string, bool, error)
	ListByScan(ctx context.Context, scanID string) (evidence.EvidenceListResponse, error)
	GetRecord(ctx context.Context, evidenceID string) (entity.EvidenceRecord, error)
	GetImage(ctx context.Context, evidenceID string, thumbnail bool) ([]byte, error)
	Summary(ctx context.Context, scanID string) (evidence.SummaryResponse, error)
	PurgeScan(ctx context.Context, scanID string) error
	Record(ctx context.Context, audit entity.PrivacyAudit) error
}

type evidenceService struct {
	log                *logrus.Logger
	cfg                Config
	evidenceRepository evidenceRepository.Repository
	s3                 s3.ItfS3
	utils              utils.IUtils

	mu        sync.Mutex
	scanLocks map[string]*sync.Mutex
}

func NewEvidenceService(log *logrus.Logger, cfg Config, er evidenceRepository.Repository, s3 s3.ItfS3, utils utils.IUtils) IEvidenceService {
	return &evidenceService{
		log:                log,
		cfg:                cfg,
		evidenceRepository: er,
		s3:                 s3,
		utils:              utils,
		scanLocks:          make(map[string]*sync.Mutex),
	}
}

func (s *evidenceService) lockScan(scanID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.scanLocks[scanID]
	if !ok {
		lock = &sync.Mutex{}
		s.scanLocks[scanID] = lock
	}
	return lock
}

func (s *evidenceService) releaseScan(scanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scanLocks, scanID)
}
