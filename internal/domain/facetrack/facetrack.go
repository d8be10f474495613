// Package facetrack groups per-frame face detections into temporally
// coherent tracks using bounding-box overlap.
package facetrack

import (
	"sort"

	"github.com/shortreel/shortreel/internal/types"
)

const (
	// DefaultIoUThreshold is the minimum overlap for a detection to
	// extend an existing track.
	DefaultIoUThreshold = 0.5
	// DefaultTimeThreshold is the maximum gap in seconds between a
	// track's last box and a new detection.
	DefaultTimeThreshold = 0.5
)

// Tracker associates detections to tracks greedily: the first eligible
// track wins, no global best-match search. Tracks are append-only and get
// monotonically increasing ids.
type Tracker struct {
	iouThreshold  float64
	timeThreshold float64
	tracks        []*types.FaceTrack
	nextID        int
}

func NewTracker(iouThreshold, timeThreshold float64) *Tracker {
	if iouThreshold <= 0 {
		iouThreshold = DefaultIoUThreshold
	}
	if timeThreshold <= 0 {
		timeThreshold = DefaultTimeThreshold
	}
	return &Tracker{iouThreshold: iouThreshold, timeThreshold: timeThreshold}
}

// Observe feeds one frame's detections to the tracker. Detections must
// arrive in ascending timestamp order across calls; an errored or faceless
// frame is simply not observed.
func (t *Tracker) Observe(dets []types.FaceDetection) {
	for _, d := range dets {
		t.place(d)
	}
}

func (t *Tracker) place(d types.FaceDetection) {
	for _, tr := range t.tracks {
		last := tr.Boxes[len(tr.Boxes)-1]
		if d.Timestamp-last.Timestamp > t.timeThreshold {
			continue
		}
		if IoU(last, d) < t.iouThreshold {
			continue
		}
		tr.Boxes = append(tr.Boxes, d)
		tr.EndTime = d.Timestamp
		tr.AvgConfidence = meanConfidence(tr.Boxes)
		return
	}

	t.tracks = append(t.tracks, &types.FaceTrack{
		TrackID:       t.nextID,
		Boxes:         []types.FaceDetection{d},
		StartTime:     d.Timestamp,
		EndTime:       d.Timestamp,
		AvgConfidence: d.Confidence,
	})
	t.nextID++
}

// Tracks returns the accumulated tracks in creation order. The returned
// slice is a snapshot; already-built tracks stay valid if the run is
// abandoned mid-scan.
func (t *Tracker) Tracks() []types.FaceTrack {
	out := make([]types.FaceTrack, 0, len(t.tracks))
	for _, tr := range t.tracks {
		out = append(out, *tr)
	}
	return out
}

// Group is a convenience for pre-collected detections: sorts them by
// timestamp and runs them through a fresh tracker.
func Group(dets []types.FaceDetection, iouThreshold, timeThreshold float64) []types.FaceTrack {
	sorted := make([]types.FaceDetection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	tr := NewTracker(iouThreshold, timeThreshold)
	tr.Observe(sorted)
	return tr.Tracks()
}

// IoU computes intersection-over-union of two axis-aligned boxes given in
// (x, y, width, height) form. Disjoint boxes score 0.
func IoU(a, b types.FaceDetection) float64 {
	ax2, ay2 := a.X+a.Width, a.Y+a.Height
	bx2, by2 := b.X+b.Width, b.Y+b.Height

	ix1 := maxf(a.X, b.X)
	iy1 := maxf(a.Y, b.Y)
	ix2 := minf(ax2, bx2)
	iy2 := minf(ay2, by2)

	if ix2 < ix1 || iy2 < iy1 {
		return 0
	}
	inter := (ix2 - ix1) * (iy2 - iy1)
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func meanConfidence(boxes []types.FaceDetection) float64 {
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
