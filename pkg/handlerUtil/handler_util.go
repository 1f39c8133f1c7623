package handlerUtil

import (
	"HomeGuardGolang/internal/api/evidence"
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/pkg/detector"
	"HomeGuardGolang/pkg/log"
	"HomeGuardGolang/pkg/privacy"
	"HomeGuardGolang/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(fiber.Map{"error": err.Error()})
	}

	// Scan domain errors
	if errors.Is(err, scan.ErrUnknownScan) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Scan not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Scan not found",
			"code":    "SCAN_NOT_FOUND",
		})
	}

	if errors.Is(err, scan.ErrScanNotComplete) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Scan still processing")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Scan is still processing",
			"code":    "SCAN_NOT_COMPLETE",
		})
	}

	if errors.Is(err, scan.ErrSessionTerminal) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Scan already finished")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Scan has already finished",
			"code":    "SCAN_ALREADY_FINISHED",
		})
	}

	if errors.Is(err, scan.ErrMalformedInput) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Malformed scan input")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Malformed scan input",
			"code":    "MALFORMED_INPUT",
		})
	}

	if errors.Is(err, scan.ErrUnsupportedMedia) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Unsupported media type")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unsupported media type. Only images and videos are allowed.",
			"code":    "UNSUPPORTED_MEDIA",
		})
	}

	if errors.Is(err, scan.ErrFileTooLarge) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Uploaded file too large")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "File too large. Maximum size is 50MB.",
			"code":    "FILE_TOO_LARGE",
		})
	}

	// Evidence domain errors
	if errors.Is(err, evidence.ErrEvidenceNotFound) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Warn("Evidence not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Evidence not found",
			"code":    "EVIDENCE_NOT_FOUND",
		})
	}

	// Capability errors
	if errors.Is(err, detector.ErrUnavailable) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Detector unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Detection service unavailable",
			"code":    "DETECTOR_UNAVAILABLE",
		})
	}

	if errors.Is(err, privacy.ErrEnforcementFailed) {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"path":       path,
			"operation":  operation,
		}).Error("Privacy enforcement failed, frame dropped")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Frame could not be processed",
			"code":    "FRAME_DROPPED",
		})
	}

	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}).Error("Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "An unexpected error occurred",
	})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, err error, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Validation failed: " + err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return c.Status(fiber.StatusRequestTimeout).JSON(utils.StatusMessage(fiber.StatusRequestTimeout))
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
