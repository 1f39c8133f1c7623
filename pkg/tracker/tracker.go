package tracker

import (
	"math"
	"sort"

	"HomeGuardGolang/internal/entity"
)

// Config holds the track-matching heuristics. The thresholds are tunable
// configuration, not algorithmic constants.
type Config struct {
	IoUThreshold         float64
	MaxFrameGap          int
	PersistentMinFrames  int
	GrowthNoiseThreshold float64
	MaxTracks            int
}

func DefaultConfig() Config {
	return Config{
		IoUThreshold:         0.3,
		MaxFrameGap:          5,
		PersistentMinFrames:  3,
		GrowthNoiseThreshold: 0.05,
		MaxTracks:            64,
	}
}

type sample struct {
	frame int
	area  float64
}

// Track correlates same-class detections across frame indices by spatial
// proximity within one scan session.
type Track struct {
	ID            int
	Class         string
	FirstFrame    int
	LastFrame     int
	FramesSeen    int
	MaxConfidence float64

	lastBox entity.BBox
	history []sample
}

// GrowthRate is the least-squares slope of area over frame index,
// normalized by the mean area. Positive values mean the defect footprint
// is expanding per frame.
func (t *Track) GrowthRate() float64 {
	n := len(t.history)
	if n < 2 {
		return 0
	}

	var sumX, sumY float64
	for _, s := range t.history {
		sumX += float64(s.frame)
		sumY += s.area
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	if meanY == 0 {
		return 0
	}

	var cov, varX float64
	for _, s := range t.history {
		dx := float64(s.frame) - meanX
		cov += dx * (s.area - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0
	}

	return (cov / varX) / meanY
}

func (t *Track) state(cfg Config) entity.TrackState {
	if t.FramesSeen < cfg.PersistentMinFrames {
		return entity.TrackOneOff
	}
	if t.GrowthRate() > cfg.GrowthNoiseThreshold {
		return entity.TrackGrowing
	}
	return entity.TrackPersistent
}

type ITracker interface {
	Observe(detections []entity.Detection, frameIndex int) []entity.TrackState
	Summary() entity.TemporalSummary
}

// Tracker holds the per-session track table. Not safe for concurrent use;
// the session manager already serializes frame processing per session.
type Tracker struct {
	cfg    Config
	tracks []*Track
	nextID int
}

func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, nextID: 1}
}

// Observe matches a frame's detections against active tracks and returns
// each detection's temporal classification as of this frame. Detections
// must arrive in frame order for the growth inference to hold.
func (tr *Tracker) Observe(detections []entity.Detection, frameIndex int) []entity.TrackState {
	states := make([]entity.TrackState, len(detections))
	if len(detections) == 0 {
		return states
	}

	var active []*Track
	for _, t := range tr.tracks {
		if frameIndex-t.LastFrame <= tr.cfg.MaxFrameGap {
			active = append(active, t)
		}
	}

	// Strong signals claim tracks first.
	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Confidence > detections[order[b]].Confidence
	})

	claimed := make(map[*Track]bool)
	for _, i := range order {
		det := detections[i]

		var best *Track
		bestIoU := 0.0
		for _, t := range active {
			if claimed[t] || t.Class != det.Class {
				continue
			}
			if iou := det.BBox.IoU(t.lastBox); iou > bestIoU {
				bestIoU = iou
				best = t
			}
		}

		if best != nil && bestIoU >= tr.cfg.IoUThreshold {
			best.LastFrame = frameIndex
			best.FramesSeen++
			best.MaxConfidence = math.Max(best.MaxConfidence, det.Confidence)
			best.lastBox = det.BBox
			best.history = append(best.history, sample{frame: frameIndex, area: det.BBox.Area()})
			claimed[best] = true
			states[i] = best.state(tr.cfg)
			continue
		}

		nt := tr.newTrack(det, frameIndex)
		claimed[nt] = true
		states[i] = nt.state(tr.cfg)
	}

	return states
}

func (tr *Tracker) newTrack(det entity.Detection, frameIndex int) *Track {
	if len(tr.tracks) >= tr.cfg.MaxTracks {
		tr.evictStalest()
	}

	t := &Track{
		ID:            tr.nextID,
		Class:         det.Class,
		FirstFrame:    frameIndex,
		LastFrame:     frameIndex,
		FramesSeen:    1,
		MaxConfidence: det.Confidence,
		lastBox:       det.BBox,
		history:       []sample{{frame: frameIndex, area: det.BBox.Area()}},
	}
	tr.nextID++
	tr.tracks = append(tr.tracks, t)
	return t
}

func (tr *Tracker) evictStalest() {
	stalest := 0
	for i, t := range tr.tracks {
		if t.LastFrame < tr.tracks[stalest].LastFrame {
			stalest = i
		}
	}
	tr.tracks = append(tr.tracks[:stalest], tr.tracks[stalest+1:]...)
}

// Summary reports persistence and growth across all tracks in the session.
func (tr *Tracker) Summary() entity.TemporalSummary {
	summary := entity.TemporalSummary{TotalTracks: len(tr.tracks)}

	for _, t := range tr.tracks {
		state := t.state(tr.cfg)
		if state == entity.TrackOneOff {
			continue
		}

		growing := state == entity.TrackGrowing
		summary.PersistentCount++
		if growing {
			summary.GrowingCount++
		}
		summary.Tracks = append(summary.Tracks, entity.TrackInfo{
			ID:         t.ID,
			Class:      t.Class,
			FramesSeen: t.FramesSeen,
			GrowthRate: math.Round(t.GrowthRate()*100) / 100,
			IsGrowing:  growing,
		})
	}

	return summary
}
