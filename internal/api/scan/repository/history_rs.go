package scanRepository

import (
	"HomeGuardGolang/internal/api/scan"
	"HomeGuardGolang/internal/entity"
	contextPkg "HomeGuardGolang/pkg/context"
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ScanHistoryDB struct {
	ID            sql.NullString  `db:"id"`
	ScanID        sql.NullString  `db:"scan_id"`
	ScanType      sql.NullString  `db:"scan_type"`
	Room          sql.NullString  `db:"room"`
	RiskScore     sql.NullFloat64 `db:"risk_score"`
	RiskLevel     sql.NullString  `db:"risk_level"`
	DefectCount   sql.NullInt64   `db:"defect_count"`
	FramesScanned sql.NullInt64   `db:"frames_scanned"`
	CompletedAt   time.Time       `db:"completed_at"`
}

func (r *historyRepository) CreateEntry(c context.Context, history entity.ScanHistory) error {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"id":             history.ID,
		"scan_id":        history.ScanID,
		"scan_type":      string(history.Type),
		"room":           history.Room,
		"risk_score":     history.RiskScore,
		"risk_level":     history.RiskLevel,
		"defect_count":   history.DefectCount,
		"frames_scanned": history.FramesScanned,
		"completed_at":   history.CompletedAt,
	}

	query, args, err := sqlx.Named(queryCreateHistoryEntry, argsKV)
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
		}).Error("Database error when creating scan history entry")
		return err
	}

	return nil
}

func (r *historyRepository) List(c context.Context, limit int) ([]entity.ScanHistory, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryListHistory, map[string]interface{}{
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []ScanHistoryDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing scan history")
		return nil, err
	}

	history := make([]entity.ScanHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, makeHistory(row))
	}

	return history, nil
}

func (r *historyRepository) GetByScanID(c context.Context, scanID string) (entity.ScanHistory, error) {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryGetHistoryByScanID, map[string]interface{}{
		"scan_id": scanID,
	})
	if err != nil {
		return entity.ScanHistory{}, err
	}
	query = r.q.Rebind(query)

	var row ScanHistoryDB
	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.ScanHistory{}, scan.ErrUnknownScan
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when getting scan history entry")
		return entity.ScanHistory{}, err
	}

	return makeHistory(row), nil
}

func (r *historyRepository) DeleteByID(c context.Context, id string) error {
	requestID := contextPkg.GetRequestID(c)

	query, args, err := sqlx.Named(queryDeleteHistoryByID, map[string]interface{}{
		"id": id,
	})
	if err != nil {
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when deleting scan history entry")
		return err
	}

	return nil
}

func makeHistory(row ScanHistoryDB) entity.ScanHistory {
	return entity.ScanHistory{
		ID:            row.ID.String,
		ScanID:        row.ScanID.String,
		Type:          entity.ScanType(row.ScanType.String),
		Room:          row.Room.String,
		RiskScore:     int(row.RiskScore.Float64),
		RiskLevel:     row.RiskLevel.String,
		DefectCount:   int(row.DefectCount.Int64),
		FramesScanned: int(row.FramesScanned.Int64),
		CompletedAt:   row.CompletedAt,
	}
}
