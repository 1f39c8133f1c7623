package privacy

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"HomeGuardGolang/internal/entity"
)

type recordingAuditor struct {
	records []entity.PrivacyAudit
}

func (a *recordingAuditor) Record(_ context.Context, audit entity.PrivacyAudit) error {
	a.records = append(a.records, audit)
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// testFrame renders a flat gray image with a sharp white square at the
// given region, so blurring is observable as the square's hard edge
// bleeding into its surroundings.
func testFrame(t *testing.T, marker image.Rectangle) entity.Frame {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			c := color.NRGBA{60, 60, 60, 255}
			if image.Pt(x, y).In(marker) {
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))

	return entity.Frame{ScanID: "scan-1", FrameIndex: 3, Data: buf.Bytes()}
}

func pixelAt(t *testing.T, data []byte, x, y int) color.NRGBA {
	t.Helper()

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return imaging.Clone(img).NRGBAAt(x, y)
}

func TestEnforceNoPersonsPassThrough(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := NewGuard(DefaultConfig(), auditor, testLogger())
	frame := testFrame(t, image.Rect(80, 80, 120, 120))

	cleared, blurred, err := guard.Enforce(context.Background(), frame, nil)
	require.NoError(t, err)
	require.Equal(t, 0, blurred)
	require.Equal(t, frame.Data, cleared)

	require.Len(t, auditor.records, 1)
	require.Equal(t, "pass_through", auditor.records[0].Action)
	require.Equal(t, "scan-1", auditor.records[0].ScanID)
}

func TestEnforceBlursPersonRegion(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := NewGuard(DefaultConfig(), auditor, testLogger())
	frame := testFrame(t, image.Rect(80, 80, 120, 120))

	persons := []entity.PersonRegion{
		{BBox: entity.BBox{X1: 70, Y1: 70, X2: 130, Y2: 130}, Confidence: 0.9},
	}

	cleared, blurred, err := guard.Enforce(context.Background(), frame, persons)
	require.NoError(t, err)
	require.Equal(t, 1, blurred)
	require.NotEqual(t, frame.Data, cleared)

	// The sharp white square center must no longer be pure white after a
	// sigma-30 blur wipes it into the gray surroundings.
	center := pixelAt(t, cleared, 100, 100)
	require.Less(t, int(center.R), 250)

	// A corner far outside the person region stays untouched gray.
	corner := pixelAt(t, cleared, 5, 5)
	require.InDelta(t, 60, int(corner.R), 20)

	require.Len(t, auditor.records, 1)
	require.Equal(t, "gaussian_blur", auditor.records[0].Action)
	require.Equal(t, 1, auditor.records[0].PersonsFound)
}

func TestEnforceRegionOutsideFrameSkipped(t *testing.T) {
	guard := NewGuard(DefaultConfig(), &recordingAuditor{}, testLogger())
	frame := testFrame(t, image.Rect(80, 80, 120, 120))

	persons := []entity.PersonRegion{
		{BBox: entity.BBox{X1: 500, Y1: 500, X2: 600, Y2: 600}, Confidence: 0.9},
	}

	cleared, blurred, err := guard.Enforce(context.Background(), frame, persons)
	require.NoError(t, err)
	require.Equal(t, 0, blurred)
	require.NotNil(t, cleared)
}

func TestEnforceDecodeFailureDropsFrame(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := NewGuard(DefaultConfig(), auditor, testLogger())

	frame := entity.Frame{ScanID: "scan-1", FrameIndex: 0, Data: []byte("not an image")}
	persons := []entity.PersonRegion{
		{BBox: entity.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}, Confidence: 0.9},
	}

	cleared, _, err := guard.Enforce(context.Background(), frame, persons)
	require.ErrorIs(t, err, ErrEnforcementFailed)
	require.Nil(t, cleared)

	require.Len(t, auditor.records, 1)
	require.Equal(t, "dropped_decode_failure", auditor.records[0].Action)
}

func TestEnforceUnknownBlursWholeFrame(t *testing.T) {
	auditor := &recordingAuditor{}
	guard := NewGuard(DefaultConfig(), auditor, testLogger())
	frame := testFrame(t, image.Rect(80, 80, 120, 120))

	cleared, err := guard.EnforceUnknown(context.Background(), frame)
	require.NoError(t, err)

	center := pixelAt(t, cleared, 100, 100)
	require.Less(t, int(center.R), 250)

	require.Len(t, auditor.records, 1)
	require.Equal(t, "full_frame_blur", auditor.records[0].Action)
}

func TestEnforceNilAuditorStillWorks(t *testing.T) {
	guard := NewGuard(DefaultConfig(), nil, testLogger())
	frame := testFrame(t, image.Rect(80, 80, 120, 120))

	_, blurred, err := guard.Enforce(context.Background(), frame, []entity.PersonRegion{
		{BBox: entity.BBox{X1: 70, Y1: 70, X2: 130, Y2: 130}, Confidence: 0.9},
	})
	require.NoError(t, err)
	require.Equal(t, 1, blurred)
}

func TestExpandGrowsBox(t *testing.T) {
	rect := expand(entity.BBox{X1: 100, Y1: 100, X2: 200, Y2: 200}, 0.1)
	require.Equal(t, image.Rect(90, 90, 210, 210), rect)
}
