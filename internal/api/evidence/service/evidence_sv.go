package evidenceService

import (
	"HomeGuardGolang/internal/api/evidence"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Capture persists a cleared frame as evidence when any detection clears
// the capture threshold and the per-scan store is not full. The returned
// bool reports whether the frame was actually captured. Re-submitting
// the same frame yields the same evidence ID and no duplicate record.
func (s *evidenceService) Capture(ctx context.Context, frame entity.Frame, clearedImage []byte, detections []entity.Detection, personsBlurred int) (string, bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	maxConfidence := 0.0
	for _, d := range detections {
		if d.Confidence > maxConfidence {
			maxConfidence = d.Confidence
		}
	}

	if len(detections) == 0 || maxConfidence < s.cfg.CaptureThreshold {
		return "", false, nil
	}

	lock := s.lockScan(frame.ScanID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return "", false, err
	}

	evidenceID := deriveEvidenceID(frame.ScanID, clearedImage)

	if existing, err := repo.Evidence.GetByID(ctx, evidenceID); err == nil {
		// Same frame resubmitted: union detections onto the existing
		// record, no new blob writes. A duplicate adds no record, so
		// the per-scan cap does not apply here.
		merged := unionDetections(existing.Detections, detections)
		if len(merged) != len(existing.Detections) || maxConfidence > existing.MaxConfidence {
			mergedMax := existing.MaxConfidence
			if maxConfidence > mergedMax {
				mergedMax = maxConfidence
			}
			if err := repo.Evidence.UpdateDetections(ctx, evidenceID, merged, mergedMax); err != nil {
				return "", false, err
			}
		}
		return evidenceID, false, nil
	}

	count, err := repo.Evidence.CountByScan(ctx, frame.ScanID)
	if err != nil {
		return "", false, err
	}
	if count >= s.cfg.MaxPerScan {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scan_id":    frame.ScanID,
			"count":      count,
		}).Warn("Evidence store full for scan, frame skipped")
		return "", false, nil
	}

	thumb, err := s.utils.MakeThumbnail(clearedImage, s.cfg.ThumbWidth, s.cfg.ThumbHeight, s.cfg.ThumbQuality)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build evidence thumbnail")
		return "", false, err
	}

	imageKey := fmt.Sprintf("evidence/%s/%s.jpg", frame.ScanID, evidenceID)
	thumbnailKey := fmt.Sprintf("evidence/%s/%s_thumb.jpg", frame.ScanID, evidenceID)

	if err := s.s3.PutObject(imageKey, clearedImage, "image/jpeg"); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to upload evidence image")
		return "", false, err
	}
	if err := s.s3.PutObject(thumbnailKey, thumb, "image/jpeg"); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to upload evidence thumbnail")
		return "", false, err
	}

	record := entity.EvidenceRecord{
		EvidenceID:     evidenceID,
		ScanID:         frame.ScanID,
		FrameIndex:     frame.FrameIndex,
		Detections:     detections,
		PersonsBlurred: personsBlurred,
		MaxConfidence:  maxConfidence,
		ImageKey:       imageKey,
		ThumbnailKey:   thumbnailKey,
		CreatedAt:      time.Now(),
	}

	if err := repo.Evidence.CreateRecord(ctx, record); err != nil {
		return "", false, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"scan_id":     frame.ScanID,
		"evidence_id": evidenceID,
		"detections":  len(detections),
	}).Info("Evidence captured")

	return evidenceID, true, nil
}

func (s *evidenceService) ListByScan(ctx context.Context, scanID string) (evidence.EvidenceListResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return evidence.EvidenceListResponse{}, err
	}

	records, err := repo.Evidence.ListByScan(ctx, scanID)
	if err != nil {
		return evidence.EvidenceListResponse{}, err
	}

	items := make([]evidence.EvidenceItemResponse, 0, len(records))
	for _, record := range records {
		item := evidence.EvidenceItemResponse{
			EvidenceID:     record.EvidenceID,
			ScanID:         record.ScanID,
			FrameIndex:     record.FrameIndex,
			Detections:     makeDetectionItems(record.Detections),
			PersonsBlurred: record.PersonsBlurred,
			MaxConfidence:  record.MaxConfidence,
			CreatedAt:      record.CreatedAt.Format(time.RFC3339),
		}

		if url, err := s.s3.PresignUrl(record.ThumbnailKey); err == nil {
			item.ThumbnailURL = url
		}

		items = append(items, item)
	}

	return evidence.EvidenceListResponse{
		ScanID:   scanID,
		Count:    len(items),
		Evidence: items,
	}, nil
}

func (s *evidenceService) GetRecord(ctx context.Context, evidenceID string) (entity.EvidenceRecord, error) {
	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		return entity.EvidenceRecord{}, err
	}

	return repo.Evidence.GetByID(ctx, evidenceID)
}

func (s *evidenceService) GetImage(ctx context.Context, evidenceID string, thumbnail bool) ([]byte, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		return nil, err
	}

	record, err := repo.Evidence.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, err
	}

	key := record.ImageKey
	if thumbnail {
		key = record.ThumbnailKey
	}

	data, err := s.s3.GetObject(key)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"evidence_id": evidenceID,
			"error":       err.Error(),
		}).Error("Failed to fetch evidence image")
		return nil, evidence.ErrBlobUnavailable
	}

	return data, nil
}

func (s *evidenceService) Summary(ctx context.Context, scanID string) (evidence.SummaryResponse, error) {
	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		return evidence.SummaryResponse{}, err
	}

	records, err := repo.Evidence.ListByScan(ctx, scanID)
	if err != nil {
		return evidence.SummaryResponse{}, err
	}

	auditCount, err := repo.Audit.CountByScan(ctx, scanID)
	if err != nil {
		return evidence.SummaryResponse{}, err
	}

	classCounts := make(map[string]int)
	personsBlurred := 0
	for _, record := range records {
		personsBlurred += record.PersonsBlurred
		for _, d := range record.Detections {
			classCounts[d.Class]++
		}
	}

	return evidence.SummaryResponse{
		ScanID:         scanID,
		TotalEvidence:  len(records),
		ClassCounts:    classCounts,
		PersonsBlurred: personsBlurred,
		AuditEntries:   auditCount,
	}, nil
}

// PurgeScan removes all stored evidence for a scan, blobs included.
func (s *evidenceService) PurgeScan(ctx context.Context, scanID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	lock := s.lockScan(scanID)
	lock.Lock()
	defer func() {
		lock.Unlock()
		s.releaseScan(scanID)
	}()

	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		return err
	}

	records, err := repo.Evidence.ListByScan(ctx, scanID)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := s.s3.DeleteObject(record.ImageKey); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"evidence_id": record.EvidenceID,
				"error":       err.Error(),
			}).Warn("Failed to delete evidence image blob")
		}
		if err := s.s3.DeleteObject(record.ThumbnailKey); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"evidence_id": record.EvidenceID,
				"error":       err.Error(),
			}).Warn("Failed to delete evidence thumbnail blob")
		}
	}

	return repo.Evidence.DeleteByScan(ctx, scanID)
}

// Record satisfies the privacy auditor contract, appending one entry per
// enforcement pass.
func (s *evidenceService) Record(ctx context.Context, audit entity.PrivacyAudit) error {
	repo, err := s.evidenceRepository.NewClient(false)
	if err != nil {
		return err
	}

	return repo.Audit.CreateEntry(ctx, audit)
}

// deriveEvidenceID hashes the scan and the cleared image bytes so the
// same frame always maps to the same identifier. Detections stay out of
// the hash; a resubmitted frame with new findings must land on the
// existing record and union into it.
func deriveEvidenceID(scanID string, clearedImage []byte) string {
	h := sha256.New()
	h.Write([]byte(scanID))
	h.Write(clearedImage)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func unionDetections(existing, incoming []entity.Detection) []entity.Detection {
	merged := make([]entity.Detection, len(existing))
	copy(merged, existing)

	for _, cand := range incoming {
		found := false
		for _, kept := range merged {
			if kept.Class == cand.Class && kept.BBox == cand.BBox {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, cand)
		}
	}

	return merged
}

func makeDetectionItems(detections []entity.Detection) []evidence.DetectionItem {
	items := make([]evidence.DetectionItem, 0, len(detections))
	for _, d := range detections {
		items = append(items, evidence.DetectionItem{
			Class:           d.Class,
			Confidence:      d.Confidence,
			BBox:            []float64{d.BBox.X1, d.BBox.Y1, d.BBox.X2, d.BBox.Y2},
			AffectedPercent: d.AffectedPercent,
			Method:          string(d.Method),
		})
	}
	return items
}
