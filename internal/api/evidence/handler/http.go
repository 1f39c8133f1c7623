package evidenceHandler

import (
	evidenceService "HomeGuardGolang/internal/api/evidence/service"
	"HomeGuardGolang/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type EvidenceHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	evidenceService evidenceService.IEvidenceService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	evidenceService evidenceService.IEvidenceService,
) *EvidenceHandler {
	return &EvidenceHandler{
		log:             log,
		validator:       validate,
		middleware:      middleware,
		evidenceService: evidenceService,
	}
}

func (h *EvidenceHandler) Start(srv fiber.Router) {
	evidence := srv.Group("/evidence")

	evidence.Get("/scan/:scanId", h.ListByScan)
	evidence.Get("/scan/:scanId/summary", h.Summary)
	evidence.Get("/:evidenceId/image", h.GetImage)
}
