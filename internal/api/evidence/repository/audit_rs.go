package evidenceRepository

import (
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type PrivacyAuditDB struct {
	ID           string    `db:"id"`
	ScanID       string    `db:"scan_id"`
	FrameIndex   int       `db:"frame_index"`
	PersonsFound int       `db:"persons_found"`
	Action       string    `db:"action"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *auditRepository) CreateEntry(c context.Context, audit entity.PrivacyAudit) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"id":            audit.ID,
		"scan_id":       audit.ScanID,
		"frame_index":   audit.FrameIndex,
		"persons_found": audit.PersonsFound,
		"action":        audit.Action,
		"created_at":    audit.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateAuditEntry, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateEntry")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating privacy audit entry")
		return err
	}

	return nil
}

func (r *auditRepository) ListByScan(c context.Context, scanID string) ([]entity.PrivacyAudit, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListAuditByScan, map[string]interface{}{
		"scan_id": scanID,
	})
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []PrivacyAuditDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing privacy audit entries")
		return nil, err
	}

	audits := make([]entity.PrivacyAudit, 0, len(rows))
	for _, row := range rows {
		audits = append(audits, entity.PrivacyAudit{
			ID:           row.ID,
			ScanID:       row.ScanID,
			FrameIndex:   row.FrameIndex,
			PersonsFound: row.PersonsFound,
			Action:       row.Action,
			CreatedAt:    row.CreatedAt,
		})
	}

	return audits, nil
}

func (r *auditRepository) CountByScan(c context.Context, scanID string) (int, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryCountAuditByScan, map[string]interface{}{
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
		}).Error("Database error when counting privacy audit entries")
		return 0, err
	}

	return count, nil
}
