package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"HomeGuardGolang/internal/entity"
)

func det(class string, x1, y1, x2, y2 float64) entity.Detection {
	return entity.Detection{
		Class:      class,
		Confidence: 0.8,
		BBox:       entity.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func TestObserveFirstSightingIsOneOff(t *testing.T) {
	tr := New(DefaultConfig())

	states := tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, 0)
	require.Len(t, states, 1)
	require.Equal(t, entity.TrackOneOff, states[0])
}

func TestObserveStableBoxBecomesPersistent(t *testing.T) {
	tr := New(DefaultConfig())

	var states []entity.TrackState
	for frame := 0; frame < 5; frame++ {
		states = tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, frame)
	}

	require.Equal(t, entity.TrackPersistent, states[0])

	summary := tr.Summary()
	require.Equal(t, 1, summary.TotalTracks)
	require.Equal(t, 1, summary.PersistentCount)
	require.Equal(t, 0, summary.GrowingCount)
	require.Equal(t, 5, summary.Tracks[0].FramesSeen)
}

func TestObserveGrowingAreaFlagsGrowth(t *testing.T) {
	tr := New(DefaultConfig())

	var states []entity.TrackState
	for frame := 0; frame < 5; frame++ {
		size := 40.0 + float64(frame)*15.0
		states = tr.Observe([]entity.Detection{det("damp", 10, 10, 10+size, 10+size)}, frame)
	}

	require.Equal(t, entity.TrackGrowing, states[0])

	summary := tr.Summary()
	require.Equal(t, 1, summary.GrowingCount)
	require.True(t, summary.Tracks[0].IsGrowing)
	require.Greater(t, summary.Tracks[0].GrowthRate, 0.0)
}

func TestObserveDifferentClassesNeverMatch(t *testing.T) {
	tr := New(DefaultConfig())

	tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, 0)
	tr.Observe([]entity.Detection{det("mold", 10, 10, 50, 50)}, 1)

	require.Equal(t, 2, tr.Summary().TotalTracks)
}

func TestObserveDistantBoxStartsNewTrack(t *testing.T) {
	tr := New(DefaultConfig())

	tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, 0)
	tr.Observe([]entity.Detection{det("crack", 300, 300, 340, 340)}, 1)

	require.Equal(t, 2, tr.Summary().TotalTracks)
}

func TestObserveStaleTrackNotRematched(t *testing.T) {
	cfg := DefaultConfig()
	tr := New(cfg)

	tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, 0)
	tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, cfg.MaxFrameGap+2)

	require.Equal(t, 2, tr.Summary().TotalTracks)
}

func TestObserveTwoDetectionsOneFrameClaimDistinctTracks(t *testing.T) {
	tr := New(DefaultConfig())

	tr.Observe([]entity.Detection{det("crack", 10, 10, 50, 50)}, 0)

	a := det("crack", 10, 10, 50, 50)
	a.Confidence = 0.9
	b := det("crack", 12, 12, 52, 52)
	b.Confidence = 0.5
	tr.Observe([]entity.Detection{a, b}, 1)

	// The stronger detection claims the existing track, the weaker one
	// spawns its own.
	require.Equal(t, 2, tr.Summary().TotalTracks)
}

func TestTrackCapEvictsStalest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTracks = 3
	tr := New(cfg)

	for i := 0; i < 5; i++ {
		x := float64(i * 200)
		tr.Observe([]entity.Detection{det("crack", x, 0, x+50, 50)}, i)
	}

	require.Equal(t, 3, tr.Summary().TotalTracks)
}

func TestGrowthRateStableAreaNearZero(t *testing.T) {
	tr := New(DefaultConfig())

	for frame := 0; frame < 6; frame++ {
		tr.Observe([]entity.Detection{det("stain", 10, 10, 50, 50)}, frame)
	}

	summary := tr.Summary()
	require.Len(t, summary.Tracks, 1)
	require.InDelta(t, 0.0, summary.Tracks[0].GrowthRate, 0.01)
}
