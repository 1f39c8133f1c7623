package scanHandler

import (
	scanService "HomeGuardGolang/internal/api/scan/service"
	"HomeGuardGolang/internal/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ScanHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	scanService scanService.IScanService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	scanService scanService.IScanService,
) *ScanHandler {
	return &ScanHandler{
		log:         log,
		validator:   validate,
		middleware:  middleware,
		scanService: scanService,
	}
}

func (h *ScanHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	scan := srv.Group("/scan")

	scan.Use("/quick/ws", wsMiddleware)
	scan.Get("/quick/ws", websocket.New(h.handleQuickScan))

	scan.Post("/deep", h.StartDeepScan)

	scan.Get("/history", h.History)
	scan.Delete("/history/:id", h.DeleteHistory)

	scan.Get("/:scanId/status", h.Status)
	scan.Get("/:scanId/report", h.Report)
	scan.Delete("/:scanId", h.Cancel)
}
