package scanHandler

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"HomeGuardGolang/pkg/handlerUtil"
	"HomeGuardGolang/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/context"
)

var jsonUnmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal

func (h *ScanHandler) StartDeepScan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing deep scan request")

	form, err := ctx.MultipartForm()
	if err != nil {
		return errHandler.Handle(ctx, requestID, scan.ErrMalformedInput, ctx.Path(), "start_deep_scan")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return errHandler.Handle(ctx, requestID, scan.ErrNoFilesUploaded, ctx.Path(), "start_deep_scan")
	}

	userContext, err := h.parseUserContext(ctx)
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	resp, err := h.scanService.StartDeepScan(c, files, userContext)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_deep_scan")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusAccepted, resp)
}

func (h *ScanHandler) parseUserContext(ctx *fiber.Ctx) (*entity.UserContext, error) {
	req := scan.UserContextRequest{
		BuildingAge: ctx.FormValue("building_age"),
		Climate:     ctx.FormValue("climate"),
		Occupancy:   ctx.FormValue("occupancy"),
		Room:        ctx.FormValue("room"),
	}

	if req.BuildingAge == "" && req.Climate == "" && req.Occupancy == "" && req.Room == "" {
		return nil, nil
	}

	if err := h.validator.Struct(&req); err != nil {
		return nil, err
	}

	return &entity.UserContext{
		BuildingAge: req.BuildingAge,
		Climate:     req.Climate,
		Occupancy:   req.Occupancy,
		Room:        req.Room,
	}, nil
}

func (h *ScanHandler) Status(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	status, err := h.scanService.Status(c, ctx.Params("scanId"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "scan_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, status)
	}
}

func (h *ScanHandler) Report(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	report, err := h.scanService.Report(c, ctx.Params("scanId"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "scan_report")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, report)
	}
}

func (h *ScanHandler) Cancel(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	scanID := ctx.Params("scanId")

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
	}).Debug("Processing scan cancellation")

	if err := h.scanService.Cancel(c, scanID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "cancel_scan")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
		"scan_id": scanID,
		"status":  "cancelled",
	})
}

func (h *ScanHandler) History(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	history, err := h.scanService.History(c, ctx.QueryInt("limit", 50))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "scan_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, history)
	}
}

func (h *ScanHandler) DeleteHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	if err := h.scanService.DeleteHistory(c, ctx.Params("id")); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_scan_history")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
}
