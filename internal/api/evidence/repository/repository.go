package evidenceRepository

import (
	"HomeGuardGolang/internal/entity"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Evidence: &evidenceRepository{q: sqlExecutor, log: r.log},
		Audit:    &auditRepository{q: sqlExecutor, log: r.log},
		Commit:   commitFunc,
		Rollback: rollbackFunc,
	}, nil
}

type Client struct {
	Evidence interface {
		CreateRecord(c context.Context, record entity.EvidenceRecord) error
		UpdateDetections(c context.Context, evidenceID string, detections []entity.Detection, maxConfidence float64) error
		GetByID(c context.Context, evidenceID string) (entity.EvidenceRecord, error)
		ListByScan(c context.Context, scanID string) ([]entity.EvidenceRecord, error)
		CountByScan(c context.Context, scanID string) (int, error)
		DeleteByScan(c context.Context, scanID string) error
	}

	Audit interface {
		CreateEntry(c context.Context, audit entity.PrivacyAudit) error
		ListByScan(c context.Context, scanID string) ([]entity.PrivacyAudit, error)
		CountByScan(c context.Context, scanID string) (int, error)
	}

	Commit   func() error
	Rollback func() error
}

type evidenceRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type auditRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
