package evidenceService

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"HomeGuardGolang/internal/api/evidence"
	evidenceRepository "HomeGuardGolang/internal/api/evidence/repository"
	"HomeGuardGolang/internal/entity"
	"HomeGuardGolang/pkg/utils"
)

type memStore struct {
	records map[string]entity.EvidenceRecord
	audits  []entity.PrivacyAudit
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]entity.EvidenceRecord)}
}

func (m *memStore) CreateRecord(_ context.Context, record entity.EvidenceRecord) error {
	if _, ok := m.records[record.EvidenceID]; ok {
		return nil
	}
	m.records[record.EvidenceID] = record
	return nil
}

func (m *memStore) UpdateDetections(_ context.Context, evidenceID string, detections []entity.Detection, maxConfidence float64) error {
	record := m.records[evidenceID]
	record.Detections = detections
	record.MaxConfidence = maxConfidence
	m.records[evidenceID] = record
	return nil
}

func (m *memStore) GetByID(_ context.Context, evidenceID string) (entity.EvidenceRecord, error) {
	record, ok := m.records[evidenceID]
	if !ok {
		return entity.EvidenceRecord{}, evidence.ErrEvidenceNotFound
	}
	return record, nil
}

func (m *memStore) ListByScan(_ context.Context, scanID string) ([]entity.EvidenceRecord, error) {
	var records []entity.EvidenceRecord
	for _, record := range m.records {
		if record.ScanID == scanID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *memStore) CountByScan(_ context.Context, scanID string) (int, error) {
	count := 0
	for _, record := range m.records {
		if record.ScanID == scanID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) DeleteByScan(_ context.Context, scanID string) error {
	for id, record := range m.records {
		if record.ScanID == scanID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *memStore) CreateEntry(_ context.Context, audit entity.PrivacyAudit) error {
	m.audits = append(m.audits, audit)
	return nil
}

type memAudit struct {
	store *memStore
}

func (m memAudit) CreateEntry(c context.Context, audit entity.PrivacyAudit) error {
	return m.store.CreateEntry(c, audit)
}

func (m memAudit) ListByScan(_ context.Context, scanID string) ([]entity.PrivacyAudit, error) {
	var audits []entity.PrivacyAudit
	for _, a := range m.store.audits {
		if a.ScanID == scanID {
			audits = append(audits, a)
		}
	}
	return audits, nil
}

func (m memAudit) CountByScan(_ context.Context, scanID string) (int, error) {
	audits, _ := m.ListByScan(nil, scanID)
	return len(audits), nil
}

type memRepository struct {
	store *memStore
}

func (r memRepository) NewClient(_ bool) (evidenceRepository.Client, error) {
	return evidenceRepository.Client{
		Evidence: r.store,
		Audit:    memAudit{store: r.store},
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type memBlobStore struct {
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (s *memBlobStore) PutObject(key string, data []byte, _ string) error {
	s.objects[key] = data
	return nil
}

func (s *memBlobStore) GetObject(key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, evidence.ErrBlobUnavailable
	}
	return data, nil
}

func (s *memBlobStore) PresignUrl(key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (s *memBlobStore) DeleteObject(key string) error {
	delete(s.objects, key)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testJPEG(t *testing.T, shade uint8) []byte {
	t.Helper()

	img := imaging.New(64, 48, color.NRGBA{shade, shade, shade, 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func newTestService(store *memStore, blobs *memBlobStore) IEvidenceService {
	return NewEvidenceService(testLogger(), DefaultConfig(), memRepository{store: store}, blobs, utils.New())
}

func frame(scanID string, index int, data []byte) entity.Frame {
	return entity.Frame{ScanID: scanID, FrameIndex: index, Data: data, CapturedAt: time.Now()}
}

func det(class string, confidence float64, x1 float64) entity.Detection {
	return entity.Detection{
		Class:      class,
		Confidence: confidence,
		BBox:       entity.BBox{X1: x1, Y1: 0, X2: x1 + 40, Y2: 40},
		Method:     entity.MethodLocal,
	}
}

func TestCaptureStoresRecordAndBlobs(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	svc := newTestService(store, blobs)
	ctx := context.Background()

	img := testJPEG(t, 120)
	id, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10)}, 2)
	require.NoError(t, err)
	require.True(t, captured)
	require.NotEmpty(t, id)

	record, ok := store.records[id]
	require.True(t, ok)
	require.Equal(t, "scan-1", record.ScanID)
	require.Equal(t, 2, record.PersonsBlurred)
	require.Equal(t, 0.8, record.MaxConfidence)

	require.Contains(t, blobs.objects, record.ImageKey)
	require.Contains(t, blobs.objects, record.ThumbnailKey)
	require.Equal(t, img, blobs.objects[record.ImageKey])
}

func TestCaptureBelowThresholdSkipped(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newMemBlobStore())

	img := testJPEG(t, 120)
	id, captured, err := svc.Capture(context.Background(), frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.3, 10)}, 0)
	require.NoError(t, err)
	require.False(t, captured)
	require.Empty(t, id)
	require.Empty(t, store.records)
}

func TestCaptureNoDetectionsSkipped(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newMemBlobStore())

	img := testJPEG(t, 120)
	_, captured, err := svc.Capture(context.Background(), frame("scan-1", 0, img), img, nil, 0)
	require.NoError(t, err)
	require.False(t, captured)
}

func TestCaptureIdempotentOnResubmit(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	svc := newTestService(store, blobs)
	ctx := context.Background()

	img := testJPEG(t, 120)
	detections := []entity.Detection{det("crack", 0.8, 10)}

	first, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, detections, 0)
	require.NoError(t, err)
	require.True(t, captured)

	blobCount := len(blobs.objects)

	second, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, detections, 0)
	require.NoError(t, err)
	require.False(t, captured)
	require.Equal(t, first, second)
	require.Len(t, store.records, 1)
	require.Len(t, blobs.objects, blobCount)
}

func TestCaptureResubmitUnionsDetections(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newMemBlobStore())
	ctx := context.Background()

	img := testJPEG(t, 120)

	id, _, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10)}, 0)
	require.NoError(t, err)

	// Same cleared frame, new finding: same record, detections unioned.
	again, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10), det("mold", 0.9, 100)}, 0)
	require.NoError(t, err)
	require.False(t, captured)
	require.Equal(t, id, again)

	record := store.records[id]
	require.Len(t, record.Detections, 2)
	require.Equal(t, 0.9, record.MaxConfidence)
}

func TestCaptureDifferentImagesDifferentIDs(t *testing.T) {
	svc := newTestService(newMemStore(), newMemBlobStore())
	ctx := context.Background()

	imgA := testJPEG(t, 120)
	imgB := testJPEG(t, 200)
	detections := []entity.Detection{det("crack", 0.8, 10)}

	a, _, err := svc.Capture(ctx, frame("scan-1", 0, imgA), imgA, detections, 0)
	require.NoError(t, err)
	b, _, err := svc.Capture(ctx, frame("scan-1", 1, imgB), imgB, detections, 0)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCaptureStoreFullSkips(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	cfg := DefaultConfig()
	cfg.MaxPerScan = 1
	svc := NewEvidenceService(testLogger(), cfg, memRepository{store: store}, blobs, utils.New())
	ctx := context.Background()

	imgA := testJPEG(t, 120)
	_, captured, err := svc.Capture(ctx, frame("scan-1", 0, imgA), imgA, []entity.Detection{det("crack", 0.8, 10)}, 0)
	require.NoError(t, err)
	require.True(t, captured)

	imgB := testJPEG(t, 200)
	_, captured, err = svc.Capture(ctx, frame("scan-1", 1, imgB), imgB, []entity.Detection{det("mold", 0.9, 10)}, 0)
	require.NoError(t, err)
	require.False(t, captured)
	require.Len(t, store.records, 1)
}

func TestCaptureStoreFullStillUnionsResubmit(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	cfg := DefaultConfig()
	cfg.MaxPerScan = 1
	svc := NewEvidenceService(testLogger(), cfg, memRepository{store: store}, blobs, utils.New())
	ctx := context.Background()

	img := testJPEG(t, 120)
	id, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10)}, 0)
	require.NoError(t, err)
	require.True(t, captured)

	blobCount := len(blobs.objects)

	// Store is full, but a resubmitted frame adds no record and must
	// still land on the existing one and union its new finding in.
	again, captured, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10), det("mold", 0.9, 100)}, 0)
	require.NoError(t, err)
	require.False(t, captured)
	require.Equal(t, id, again)
	require.Len(t, store.records, 1)
	require.Len(t, blobs.objects, blobCount)

	record := store.records[id]
	require.Len(t, record.Detections, 2)
	require.Equal(t, 0.9, record.MaxConfidence)
}

func TestGetImageMissingBlob(t *testing.T) {
	store := newMemStore()
	store.records["ev-1"] = entity.EvidenceRecord{EvidenceID: "ev-1", ScanID: "scan-1", ImageKey: "missing"}
	svc := newTestService(store, newMemBlobStore())

	_, err := svc.GetImage(context.Background(), "ev-1", false)
	require.ErrorIs(t, err, evidence.ErrBlobUnavailable)
}

func TestGetImageUnknownEvidence(t *testing.T) {
	svc := newTestService(newMemStore(), newMemBlobStore())

	_, err := svc.GetImage(context.Background(), "nope", false)
	require.ErrorIs(t, err, evidence.ErrEvidenceNotFound)
}

func TestSummaryAggregates(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	svc := newTestService(store, blobs)
	ctx := context.Background()

	imgA := testJPEG(t, 120)
	_, _, err := svc.Capture(ctx, frame("scan-1", 0, imgA), imgA, []entity.Detection{det("crack", 0.8, 10), det("crack", 0.7, 100)}, 1)
	require.NoError(t, err)

	imgB := testJPEG(t, 200)
	_, _, err = svc.Capture(ctx, frame("scan-1", 1, imgB), imgB, []entity.Detection{det("mold", 0.9, 10)}, 2)
	require.NoError(t, err)

	require.NoError(t, svc.Record(ctx, entity.PrivacyAudit{ID: "a1", ScanID: "scan-1", Action: "gaussian_blur"}))

	summary, err := svc.Summary(ctx, "scan-1")
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalEvidence)
	require.Equal(t, 2, summary.ClassCounts["crack"])
	require.Equal(t, 1, summary.ClassCounts["mold"])
	require.Equal(t, 3, summary.PersonsBlurred)
	require.Equal(t, 1, summary.AuditEntries)
}

func TestPurgeScanRemovesRecordsAndBlobs(t *testing.T) {
	store := newMemStore()
	blobs := newMemBlobStore()
	svc := newTestService(store, blobs)
	ctx := context.Background()

	img := testJPEG(t, 120)
	_, _, err := svc.Capture(ctx, frame("scan-1", 0, img), img, []entity.Detection{det("crack", 0.8, 10)}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, blobs.objects)

	require.NoError(t, svc.PurgeScan(ctx, "scan-1"))
	require.Empty(t, store.records)
	require.Empty(t, blobs.objects)
}

func TestDeriveEvidenceIDDeterministic(t *testing.T) {
	img := []byte("cleared-bytes")

	require.Equal(t, deriveEvidenceID("scan-1", img), deriveEvidenceID("scan-1", img))
	require.NotEqual(t, deriveEvidenceID("scan-1", img), deriveEvidenceID("scan-2", img))
	require.Len(t, deriveEvidenceID("scan-1", img), 32)
}

func TestUnionDetectionsDedupes(t *testing.T) {
	a := det("crack", 0.8, 10)
	b := det("mold", 0.9, 100)

	merged := unionDetections([]entity.Detection{a}, []entity.Detection{a, b})
	require.Len(t, merged, 2)

	merged = unionDetections([]entity.Detection{a, b}, []entity.Detection{a, b})
	require.Len(t, merged, 2)
}
