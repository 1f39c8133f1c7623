package scanService

import (
	"HomeGuardGolang/internal/api/scan"
	scanRepository "HomeGuardGolang/internal/api/scan/repository"
	evidenceService "HomeGuardGolang/internal/api/evidence/service"
	"HomeGuardGolang/internal/entity"
	"HomeGuardGolang/pkg/detector"
	"HomeGuardGolang/pkg/gemini"
	"HomeGuardGolang/pkg/privacy"
	"HomeGuardGolang/pkg/redis"
	"HomeGuardGolang/pkg/risk"
	"HomeGuardGolang/pkg/tracker"
	"HomeGuardGolang/pkg/utils"
	"HomeGuardGolang/pkg/video"
	"mime/multipart"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IScanService interface {
	StartSession(ctx context.Context, scanType entity.ScanType, uc *entity.UserContext) (string, error)
	SetContext(scanID string, uc *entity.UserContext) error
	ProcessFrame(ctx context.Context, scanID string, frame []byte, includeAnnotated bool) (scan.FrameResultResponse, error)
	FinalizeSession(ctx context.Context, scanID string) (scan.QuickFinalResponse, error)
	StartDeepScan(ctx context.Context, files []*multipart.FileHeader, uc *entity.UserContext) (scan.DeepScanResponse, error)
	Status(ctx context.Context, scanID string) (scan.StatusResponse, error)
	Report(ctx context.Context, scanID string) (scan.ReportResponse, error)
	Cancel(ctx context.Context, scanID string) error
	History(ctx context.Context, limit int) (scan.HistoryListResponse, error)
	DeleteHistory(ctx context.Context, id string) error
}

type scanService struct {
	log            *logrus.Logger
	detector       detector.IAdapter
	guard          privacy.IGuard
	scorer         risk.IScorer
	trackerCfg     tracker.Config
	evidence       evidenceService.IEvidenceService
	scanRepository scanRepository.Repository
	cache          redis.IRedis
	gemini         gemini.IGemini
	extractor      video.IExtractor
	utils          utils.IUtils

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewScanService(
	log *logrus.Logger,
	det detector.IAdapter,
	guard privacy.IGuard,
	scorer risk.IScorer,
	trackerCfg tracker.Config,
	evidence evidenceService.IEvidenceService,
	sr scanRepository.Repository,
	cache redis.IRedis,
	gemini gemini.IGemini,
	extractor video.IExtractor,
	utils utils.IUtils,
) IScanService {
	return &scanService{
		log:            log,
		detector:       det,
		guard:          guard,
		scorer:         scorer,
		trackerCfg:     trackerCfg,
		evidence:       evidence,
		scanRepository: sr,
		cache:          cache,
		gemini:         gemini,
		extractor:      extractor,
		utils:          utils,
		sessions:       make(map[string]*session),
	}
}
