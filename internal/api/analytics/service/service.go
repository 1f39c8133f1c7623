package analyticsService

import (
	"HomeGuardGolang/internal/api/analytics"
	evidenceService "HomeGuardGolang/internal/api/evidence/service"
	scanRepository "HomeGuardGolang/internal/api/scan/repository"
	"HomeGuardGolang/pkg/gemini"
	"HomeGuardGolang/pkg/risk"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IAnalyticsService interface {
	Analyze(ctx context.Context, req analytics.AnalyzeRequest) (analytics.AnalyzeResponse, error)
	ScanSummary(ctx context.Context, scanID string) (analytics.ScanSummaryResponse, error)
}

type analyticsService struct {
	log            *logrus.Logger
	gemini         gemini.IGemini
	scorer         risk.IScorer
	evidence       evidenceService.IEvidenceService
	scanRepository scanRepository.Repository
}

func NewAnalyticsService(
	log *logrus.Logger,
	gemini gemini.IGemini,
	scorer risk.IScorer,
	evidence evidenceService.IEvidenceService,
	sr scanRepository.Repository,
) IAnalyticsService {
	return &analyticsService{
		log:            log,
		gemini:         gemini,
		scorer:         scorer,
		evidence:       evidence,
		scanRepository: sr,
	}
}
