// Package cropplan converts face positions into a temporally smooth
// horizontal crop trajectory for a fixed 9:16 vertical window.
package cropplan

import (
	"sort"

	"github.com/shortreel/shortreel/internal/types"
)

const (
	// TargetRatio is the width/height ratio of the vertical crop window.
	TargetRatio = 9.0 / 16.0

	// DefaultHistorySize bounds the smoothing window, roughly one second
	// at 30 fps.
	DefaultHistorySize = 30

	// DefaultMaxMovement caps the crop's horizontal speed in pixels per
	// sampled frame.
	DefaultMaxMovement = 5.0

	// frameCenterWeight biases the target toward the frame center so a
	// single frame's detections cannot yank the window around.
	frameCenterWeight = 0.8
)

// Planner holds the only mutable state in the core: the current crop
// position and a bounded history of raw targets. One planner serves one
// segment pass; instantiate a fresh one per segment.
type Planner struct {
	frameWidth  int
	frameHeight int
	cropWidth   int

	historySize int
	maxMovement float64

	history  []float64
	currentX float64
	started  bool
}

func NewPlanner(frameWidth, frameHeight int) *Planner {
	cropWidth := int(float64(frameHeight) * TargetRatio)
	if cropWidth > frameWidth {
		cropWidth = frameWidth
	}
	return &Planner{
		frameWidth:  frameWidth,
		frameHeight: frameHeight,
		cropWidth:   cropWidth,
		historySize: DefaultHistorySize,
		maxMovement: DefaultMaxMovement,
	}
}

// CropWidth is the fixed window width for this planner's frame geometry.
func (p *Planner) CropWidth() int { return p.cropWidth }

// CropHeight always equals the source frame height.
func (p *Planner) CropHeight() int { return p.frameHeight }

// Narrow reports whether the source is already at or narrower than 9:16,
// in which case every crop covers the full frame width.
func (p *Planner) Narrow() bool { return p.cropWidth >= p.frameWidth }

// Plan advances the trajectory by one frame and returns its crop offset.
// faces holds this frame's detections; an empty slice targets the frame
// center.
func (p *Planner) Plan(frameIdx int, faces []types.FaceDetection) types.CropFrame {
	if p.Narrow() {
		return types.CropFrame{FrameIdx: frameIdx, X: 0}
	}

	center := float64(p.frameWidth) / 2
	target := center
	if len(faces) > 0 {
		// Median rather than mean so one outlier face cannot drag the
		// window sideways.
		target = frameCenterWeight*center + (1-frameCenterWeight)*medianCenterX(faces)
	}

	// Raw crop-left position for this frame's target, before smoothing.
	raw := clamp(target-float64(p.cropWidth)/2, 0, float64(p.frameWidth-p.cropWidth))

	if !p.started {
		p.currentX = raw
		p.started = true
	}

	p.history = append(p.history, raw)
	if len(p.history) > p.historySize {
		p.history = p.history[1:]
	}

	smooth := weightedAverage(p.history)

	// Velocity clamp: bounded first-difference no matter how erratic the
	// raw target signal is.
	move := clamp(smooth-p.currentX, -p.maxMovement, p.maxMovement)
	p.currentX += move

	return types.CropFrame{
		FrameIdx: frameIdx,
		X:        clamp(p.currentX, 0, float64(p.frameWidth-p.cropWidth)),
	}
}

// weightedAverage gives linearly higher weight to more recent samples.
func weightedAverage(history []float64) float64 {
	n := len(history)
	var sum, totalW float64
	for i, x := range history {
		w := float64(i+1) / float64(n)
		sum += x * w
		totalW += w
	}
	return sum / totalW
}

func medianCenterX(faces []types.FaceDetection) float64 {
	centers := make([]float64, 0, len(faces))
	for _, f := range faces {
		centers = append(centers, f.CenterX())
	}
	sort.Float64s(centers)
	return centers[len(centers)/2]
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
