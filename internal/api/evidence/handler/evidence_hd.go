package evidenceHandler

import (
	contextPkg "HomeGuardGolang/pkg/context"
	"HomeGuardGolang/pkg/handlerUtil"
	"HomeGuardGolang/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *EvidenceHandler) ListByScan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	scanID := ctx.Params("scanId")

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
		"path":       ctx.Path(),
	}).Debug("Processing evidence list request")

	listResponse, err := h.evidenceService.ListByScan(c, scanID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_evidence")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, listResponse)
	}
}

func (h *EvidenceHandler) Summary(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	scanID := ctx.Params("scanId")

	summary, err := h.evidenceService.Summary(c, scanID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "evidence_summary")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}

func (h *EvidenceHandler) GetImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	evidenceID := ctx.Params("evidenceId")
	thumbnail := ctx.QueryBool("thumbnail", false)

	h.log.WithFields(log.Fields{
		"request_id":  requestID,
		"evidence_id": evidenceID,
		"thumbnail":   thumbnail,
	}).Debug("Processing evidence image request")

	data, err := h.evidenceService.GetImage(c, evidenceID, thumbnail)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_evidence_image")
	}

	ctx.Set(fiber.HeaderContentType, "image/jpeg")
	return ctx.Status(fiber.StatusOK).Send(data)
}
