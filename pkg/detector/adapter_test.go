package detector

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"HomeGuardGolang/internal/entity"
)

type stubDetector struct {
	result entity.DetectResult
	err    error
	method entity.DetectionMethod
}

func (s *stubDetector) Detect(_ context.Context, _ []byte) (entity.DetectResult, error) {
	return s.result, s.err
}

func (s *stubDetector) Method() entity.DetectionMethod {
	return s.method
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func detection(class string, confidence float64, x1, y1, x2, y2 float64) entity.Detection {
	return entity.Detection{
		Class:      class,
		Confidence: confidence,
		BBox:       entity.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func TestDetectFastModeSkipsSecondary(t *testing.T) {
	primary := &stubDetector{
		result: entity.DetectResult{Defects: []entity.Detection{detection("crack", 0.7, 0, 0, 10, 10)}},
		method: entity.MethodLocal,
	}
	secondary := &stubDetector{err: ErrUnavailable, method: entity.MethodCloud}

	adapter := NewAdapter(primary, secondary, DefaultAdapterConfig(), testLogger())

	result, err := adapter.Detect(context.Background(), []byte("frame"), ModeFast)
	require.NoError(t, err)
	require.False(t, result.Degraded)
	require.Len(t, result.Defects, 1)
}

func TestDetectSecondaryFailureDegrades(t *testing.T) {
	primary := &stubDetector{
		result: entity.DetectResult{Defects: []entity.Detection{detection("crack", 0.7, 0, 0, 10, 10)}},
		method: entity.MethodLocal,
	}
	secondary := &stubDetector{err: ErrUnavailable, method: entity.MethodCloud}

	adapter := NewAdapter(primary, secondary, DefaultAdapterConfig(), testLogger())

	result, err := adapter.Detect(context.Background(), []byte("frame"), ModeThorough)
	require.NoError(t, err)
	require.True(t, result.Degraded)
	require.Len(t, result.Defects, 1)
}

func TestDetectPrimaryFailureFails(t *testing.T) {
	primary := &stubDetector{err: ErrUnavailable, method: entity.MethodLocal}

	adapter := NewAdapter(primary, nil, DefaultAdapterConfig(), testLogger())

	_, err := adapter.Detect(context.Background(), []byte("frame"), ModeFast)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDetectThoroughMergesSources(t *testing.T) {
	primary := &stubDetector{
		result: entity.DetectResult{Defects: []entity.Detection{detection("crack", 0.7, 0, 0, 100, 100)}},
		method: entity.MethodLocal,
	}
	secondary := &stubDetector{
		result: entity.DetectResult{
			Defects: []entity.Detection{detection("mold", 0.8, 200, 200, 300, 300)},
			Persons: []entity.PersonRegion{{BBox: entity.BBox{X1: 0, Y1: 0, X2: 50, Y2: 50}, Confidence: 0.9}},
		},
		method: entity.MethodCloud,
	}

	adapter := NewAdapter(primary, secondary, DefaultAdapterConfig(), testLogger())

	result, err := adapter.Detect(context.Background(), []byte("frame"), ModeThorough)
	require.NoError(t, err)
	require.False(t, result.Degraded)
	require.Len(t, result.Defects, 2)
	require.Len(t, result.Persons, 1)
}

func TestMergeDetectionsSuppressesDuplicates(t *testing.T) {
	primary := []entity.Detection{detection("crack", 0.6, 0, 0, 100, 100)}
	secondary := []entity.Detection{detection("crack", 0.9, 5, 5, 105, 105)}

	merged := MergeDetections(primary, secondary, 0.5)
	require.Len(t, merged, 1)
	require.Equal(t, 0.9, merged[0].Confidence)
}

func TestMergeDetectionsKeepsHigherConfidenceOriginal(t *testing.T) {
	primary := []entity.Detection{detection("crack", 0.9, 0, 0, 100, 100)}
	secondary := []entity.Detection{detection("crack", 0.6, 5, 5, 105, 105)}

	merged := MergeDetections(primary, secondary, 0.5)
	require.Len(t, merged, 1)
	require.Equal(t, 0.9, merged[0].Confidence)
}

func TestMergeDetectionsSameBoxDifferentClassKept(t *testing.T) {
	primary := []entity.Detection{detection("crack", 0.6, 0, 0, 100, 100)}
	secondary := []entity.Detection{detection("mold", 0.7, 0, 0, 100, 100)}

	merged := MergeDetections(primary, secondary, 0.5)
	require.Len(t, merged, 2)
}

func TestMergeDetectionsLowConfidenceSurvives(t *testing.T) {
	secondary := []entity.Detection{detection("stain", 0.15, 0, 0, 20, 20)}

	merged := MergeDetections(nil, secondary, 0.5)
	require.Len(t, merged, 1)
	require.Equal(t, 0.15, merged[0].Confidence)
}
