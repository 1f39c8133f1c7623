package scanHandler

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	quickScanReadTimeout  = 60 * time.Second
	quickScanWriteTimeout = 10 * time.Second
)

func (h *ScanHandler) handleQuickScan(c *websocket.Conn) {
	requestID, _ := c.Locals("X-Request-ID").(string)
	if requestID == "" {
		requestID = "unknown"
	}
	ctx := contextPkg.WithRequestID(context.Background(), requestID)

	scanID, err := h.scanService.StartSession(ctx, entity.ScanTypeQuick, nil)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to start quick scan session")
		_ = c.WriteJSON(map[string]string{"error": "failed to start scan"})
		return
	}

	h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
	}).Info("Quick scan client connected")
	defer h.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"scan_id":    scanID,
	}).Info("Quick scan client disconnected")

	if err := c.WriteJSON(map[string]string{"scan_id": scanID, "status": "active"}); err != nil {
		return
	}

	c.SetPingHandler(func(data string) error {
		return c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(quickScanReadTimeout)); err != nil {
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"scan_id":    scanID,
					"error":      err.Error(),
				}).Error("Quick scan websocket error")
			}
			break
		}

		var stop bool
		switch messageType {
		case websocket.BinaryMessage:
			stop = h.processAndReply(ctx, c, scanID, message, false)
		case websocket.TextMessage:
			stop = h.handleTextMessage(ctx, c, scanID, message)
		default:
			continue
		}
		if stop {
			return
		}
	}

	// Disconnect without an explicit stop still finalizes the session.
	if _, err := h.scanService.FinalizeSession(ctx, scanID); err != nil && !errors.Is(err, scan.ErrSessionTerminal) {
		h.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    scanID,
			"error":      err.Error(),
		}).Error("Failed to finalize quick scan on disconnect")
	}
}

func (h *ScanHandler) handleTextMessage(ctx context.Context, c *websocket.Conn, scanID string, message []byte) bool {
	var msg scan.FrameMessage
	if err := jsonUnmarshal(message, &msg); err != nil {
		_ = h.writeJSON(c, map[string]string{"error": "malformed message"})
		return false
	}

	if msg.UserContext != nil {
		if err := h.validator.Struct(msg.UserContext); err != nil {
			_ = h.writeJSON(c, map[string]string{"error": "invalid user context: " + err.Error()})
			return false
		}
		if err := h.scanService.SetContext(scanID, &entity.UserContext{
			BuildingAge: msg.UserContext.BuildingAge,
			Climate:     msg.UserContext.Climate,
			Occupancy:   msg.UserContext.Occupancy,
			Room:        msg.UserContext.Room,
		}); err != nil {
			_ = h.writeJSON(c, map[string]string{"error": err.Error()})
			return false
		}
	}

	if strings.EqualFold(msg.Command, "stop") {
		final, err := h.scanService.FinalizeSession(ctx, scanID)
		if err != nil {
			_ = h.writeJSON(c, map[string]string{"error": err.Error()})
			return true
		}
		_ = h.writeJSON(c, final)
		return true
	}

	if msg.Frame == "" {
		return false
	}

	frame, err := base64.StdEncoding.DecodeString(stripDataURL(msg.Frame))
	if err != nil {
		_ = h.writeJSON(c, map[string]string{"error": "invalid base64 frame"})
		return false
	}

	return h.processAndReply(ctx, c, scanID, frame, msg.IncludeAnnotated)
}

// processAndReply runs one frame and writes the result. Returns true
// when the connection should close.
func (h *ScanHandler) processAndReply(ctx context.Context, c *websocket.Conn, scanID string, frame []byte, includeAnnotated bool) bool {
	result, err := h.scanService.ProcessFrame(ctx, scanID, frame, includeAnnotated)
	if err != nil {
		if errors.Is(err, scan.ErrSessionTerminal) || errors.Is(err, scan.ErrUnknownScan) {
			_ = h.writeJSON(c, map[string]string{"error": err.Error()})
			return true
		}
		_ = h.writeJSON(c, scan.FrameResultResponse{ScanID: scanID, Error: err.Error()})
		return false
	}

	return h.writeJSON(c, result) != nil
}

func (h *ScanHandler) writeJSON(c *websocket.Conn, v interface{}) error {
	if err := c.SetWriteDeadline(time.Now().Add(quickScanWriteTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(v)
}

func stripDataURL(data string) string {
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		return data[idx+1:]
	}
	return data
}
