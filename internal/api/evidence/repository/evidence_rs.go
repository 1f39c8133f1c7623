package evidenceRepository

import (
	"HomeGuardGolang/internal/api/evidence"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type EvidenceRecordDB struct {
	EvidenceID     sql.NullString  `db:"evidence_id"`
	ScanID         sql.NullString  `db:"scan_id"`
	FrameIndex     sql.NullInt64   `db:"frame_index"`
	Detections     sql.NullString  `db:"detections"`
	PersonsBlurred sql.NullInt64   `db:"persons_blurred"`
	MaxConfidence  sql.NullFloat64 `db:"max_confidence"`
	ImageKey       sql.NullString  `db:"image_key"`
	ThumbnailKey   sql.NullString  `db:"thumbnail_key"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r *evidenceRepository) CreateRecord(c context.Context, record entity.EvidenceRecord) error {
	requestID := contextPkg.GetRequestID(c)

	detections, err := json.Marshal(record.Detections)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to encode detections for evidence record")
		return err
	}

	argsKV := map[string]interface{}{
		"evidence_id":     record.EvidenceID,
		"scan_id":         record.ScanID,
		"frame_index":     record.FrameIndex,
		"detections":      string(detections),
		"persons_blurred": record.PersonsBlurred,
		"max_confidence":  record.MaxConfidence,
		"image_key":       record.ImageKey,
		"thumbnail_key":   record.ThumbnailKey,
		"created_at":      record.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateEvidenceRecord, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateRecord")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating evidence record")
		return err
	}

	return nil
}

func (r *evidenceRepository) UpdateDetections(c context.Context, evidenceID string, detections []entity.Detection, maxConfidence float64) error {
	requestID := contextPkg.GetRequestID(c)

	encoded, err := json.Marshal(detections)
	if err != nil {
		return err
	}

	query, args, err := sqlx.Named(queryUpdateEvidenceDetections, map[string]interface{}{
		"evidence_id":    evidenceID,
		"detections":     string(encoded),
		"max_confidence": maxConfidence,
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating evidence detections")
		return err
	}

	return nil
}

func (r *evidenceRepository) GetByID(c context.Context, evidenceID string) (entity.EvidenceRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetEvidenceByID, map[string]interface{}{
		"evidence_id": evidenceID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for GetByID")
		return entity.EvidenceRecord{}, err
	}
	query = r.q.Rebind(query)

	var row EvidenceRecordDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.EvidenceRecord{}, evidence.ErrEvidenceNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when getting evidence record")
		return entity.EvidenceRecord{}, err
	}

	return r.makeRecord(row)
}

func (r *evidenceRepository) ListByScan(c context.Context, scanID string) ([]entity.EvidenceRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListEvidenceByScan, map[string]interface{}{
		"scan_id": scanID,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for ListByScan")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []EvidenceRecordDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing evidence records")
		return nil, err
	}

	records := make([]entity.EvidenceRecord, 0, len(rows))
	for _, row := range rows {
		record, err := r.makeRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (r *evidenceRepository) CountByScan(c context.Context, scanID string) (int, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryCountEvidenceByScan, map[string]interface{}{
		"scan_id": scanID,
	})
	if err != nil {
		return 0, err
	}
	query = r.q.Rebind(query)

	var count int
	if err := r.q.QueryRowxContext(c, query, args...).Scan(&count); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when counting evidence records")
		return 0, err
	}

	return count, nil
}

func (r *evidenceRepository) DeleteByScan(c context.Context, scanID string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteEvidenceByScan, map[string]interface{}{
		"scan_id": scanID,
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when deleting evidence records")
		return err
	}

	return nil
}

func (r *evidenceRepository) makeRecord(row EvidenceRecordDB) (entity.EvidenceRecord, error) {
	var detections []entity.Detection
	if row.Detections.Valid && row.Detections.String != "" {
		if err := json.Unmarshal([]byte(row.Detections.String), &detections); err != nil {
			r.log.WithFields(logrus.Fields{
				"evidence_id": row.EvidenceID.String,
				"error":       err.Error(),
			}).Error("Failed to decode detections for evidence record")
			return entity.EvidenceRecord{}, err
		}
	}

	return entity.EvidenceRecord{
		EvidenceID:     row.EvidenceID.String,
		ScanID:         row.ScanID.String,
		FrameIndex:     int(row.FrameIndex.Int64),
		Detections:     detections,
		PersonsBlurred: int(row.PersonsBlurred.Int64),
		MaxConfidence:  row.MaxConfidence.Float64,
		ImageKey:       row.ImageKey.String,
		ThumbnailKey:   row.ThumbnailKey.String,
		CreatedAt:      row.CreatedAt,
	}, nil
}
