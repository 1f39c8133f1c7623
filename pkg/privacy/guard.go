package privacy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"HomeGuardGolang/internal/entity"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ErrEnforcementFailed marks a frame that could not be cleared. Callers
// must drop the frame; this error is never downgraded to a warning.
var ErrEnforcementFailed = errors.New("privacy enforcement failed")

// Config tunes the obscuring pass. There is intentionally no switch to
// disable enforcement.
type Config struct {
	BlurSigma     float64
	ExpandPercent float64
	JPEGQuality   int
}

func DefaultConfig() Config {
	return Config{
		BlurSigma:     30.0,
		ExpandPercent: 0.1,
		JPEGQuality:   90,
	}
}

// Auditor receives one record per enforcement pass, append-only.
type Auditor interface {
	Record(ctx context.Context, audit entity.PrivacyAudit) error
}

type IGuard interface {
	Enforce(ctx context.Context, frame entity.Frame, persons []entity.PersonRegion) ([]byte, int, error)
	EnforceUnknown(ctx context.Context, frame entity.Frame) ([]byte, error)
}

// Guard irreversibly obscures every person region in a frame before the
// frame may reach storage or any outbound path.
type Guard struct {
	cfg     Config
	auditor Auditor
	log     *logrus.Logger
}

func NewGuard(cfg Config, auditor Auditor, log *logrus.Logger) *Guard {
	return &Guard{cfg: cfg, auditor: auditor, log: log}
}

// Enforce blurs all person regions and returns the cleared frame bytes
// together with the number of persons obscured. A frame without persons
// passes through untouched.
func (g *Guard) Enforce(ctx context.Context, frame entity.Frame, persons []entity.PersonRegion) ([]byte, int, error) {
	if len(persons) == 0 {
		g.audit(ctx, frame, 0, "pass_through")
		return frame.Data, 0, nil
	}

	img, err := imaging.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		g.audit(ctx, frame, len(persons), "dropped_decode_failure")
		return nil, 0, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}

	cleared := imaging.Clone(img)
	bounds := cleared.Bounds()
	blurred := 0

	for _, person := range persons {
		region := expand(person.BBox, g.cfg.ExpandPercent).Intersect(bounds)
		if region.Empty() {
			continue
		}

		roi := imaging.Crop(cleared, region)
		roi = imaging.Blur(roi, g.cfg.BlurSigma)
		cleared = imaging.Paste(cleared, roi, region.Min)
		blurred++
	}

	out, err := encodeJPEG(cleared, g.cfg.JPEGQuality)
	if err != nil {
		g.audit(ctx, frame, len(persons), "dropped_encode_failure")
		return nil, 0, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}

	g.audit(ctx, frame, blurred, "gaussian_blur")
	return out, blurred, nil
}

// EnforceUnknown handles the "person present, location unknown" case:
// person detection itself failed, so the whole frame is blurred rather
// than risking an unobscured emission.
func (g *Guard) EnforceUnknown(ctx context.Context, frame entity.Frame) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		g.audit(ctx, frame, 0, "dropped_decode_failure")
		return nil, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}

	out, err := encodeJPEG(imaging.Blur(img, g.cfg.BlurSigma), g.cfg.JPEGQuality)
	if err != nil {
		g.audit(ctx, frame, 0, "dropped_encode_failure")
		return nil, fmt.Errorf("%w: %v", ErrEnforcementFailed, err)
	}

	g.audit(ctx, frame, 0, "full_frame_blur")
	return out, nil
}

func (g *Guard) audit(ctx context.Context, frame entity.Frame, persons int, action string) {
	record := entity.PrivacyAudit{
		ID:           uuid.NewString(),
		ScanID:       frame.ScanID,
		FrameIndex:   frame.FrameIndex,
		PersonsFound: persons,
		Action:       action,
		CreatedAt:    time.Now(),
	}

	g.log.WithFields(logrus.Fields{
		"scan_id":       record.ScanID,
		"frame_index":   record.FrameIndex,
		"persons_found": record.PersonsFound,
		"action":        record.Action,
	}).Info("Privacy enforcement")

	if g.auditor == nil {
		return
	}
	if err := g.auditor.Record(ctx, record); err != nil {
		g.log.WithFields(logrus.Fields{
			"scan_id": record.ScanID,
			"error":   err.Error(),
		}).Error("Failed to persist privacy audit record")
	}
}

func expand(box entity.BBox, percent float64) image.Rectangle {
	dx := (box.X2 - box.X1) * percent
	dy := (box.Y2 - box.Y1) * percent
	return image.Rect(
		int(box.X1-dx),
		int(box.Y1-dy),
		int(box.X2+dx),
		int(box.Y2+dy),
	)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
