package detector

import (
	"fmt"
	"time"

	"HomeGuardGolang/internal/entity"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// AdapterConfig tunes multi-source fusion.
type AdapterConfig struct {
	// SecondaryTimeout bounds every call to the cloud capability.
	SecondaryTimeout time.Duration
	// DuplicateIoU is the spatial overlap above which two same-class
	// boxes from different sources count as one detection.
	DuplicateIoU float64
}

func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		SecondaryTimeout: 15 * time.Second,
		DuplicateIoU:     0.5,
	}
}

type IAdapter interface {
	Detect(ctx context.Context, frame []byte, mode Mode) (entity.DetectResult, error)
}

// Adapter fronts the primary (local) and optional secondary (cloud)
// detectors behind one contract. Secondary failure or timeout degrades
// the result instead of failing the call.
type Adapter struct {
	primary   Detector
	secondary Detector
	cfg       AdapterConfig
	log       *logrus.Logger
}

func NewAdapter(primary, secondary Detector, cfg AdapterConfig, log *logrus.Logger) *Adapter {
	return &Adapter{
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		log:       log,
	}
}

func (a *Adapter) Detect(ctx context.Context, frame []byte, mode Mode) (entity.DetectResult, error) {
	result, err := a.primary.Detect(ctx, frame)
	if err != nil {
		return entity.DetectResult{}, fmt.Errorf("primary detector: %w", err)
	}

	if mode != ModeThorough || a.secondary == nil {
		return result, nil
	}

	secondaryCtx, cancel := context.WithTimeout(ctx, a.cfg.SecondaryTimeout)
	defer cancel()

	secondaryResult, err := a.secondary.Detect(secondaryCtx, frame)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"method": a.secondary.Method(),
		}).Warn("Secondary detector unavailable, degrading to primary-only output")
		result.Degraded = true
		return result, nil
	}

	result.Defects = MergeDetections(result.Defects, secondaryResult.Defects, a.cfg.DuplicateIoU)
	result.Persons = append(result.Persons, secondaryResult.Persons...)
	return result, nil
}

// MergeDetections joins detections from multiple sources, suppressing
// near-duplicate boxes (same class, overlap above threshold) in favor of
// the higher-confidence one. Low-confidence detections survive merging;
// weighting them is the scorer's job.
func MergeDetections(primary, secondary []entity.Detection, duplicateIoU float64) []entity.Detection {
	merged := make([]entity.Detection, len(primary))
	copy(merged, primary)

	for _, cand := range secondary {
		duplicate := false
		for i, kept := range merged {
			if kept.Class != cand.Class {
				continue
			}
			if kept.BBox.IoU(cand.BBox) >= duplicateIoU {
				duplicate = true
				if cand.Confidence > kept.Confidence {
					merged[i] = cand
				}
				break
			}
		}
		if !duplicate {
			merged = append(merged, cand)
		}
	}

	return merged
}
