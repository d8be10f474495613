// Package facedetect shells out to an external face-detector command.
// The command receives one image path and prints a single JSON object on
// stdout:
//
//	{"width": 1920, "height": 1080,
//	 "faces": [{"x": 0, "y": 0, "width": 0, "height": 0, "confidence": 0.9}]}
//
// All coordinates are absolute pixels of the analyzed image. The adapter
// filters low-confidence boxes and expands the survivors by a relative
// margin so tracking sees the whole head, not just the detector's tight
// face box.
package facedetect

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/shortreel/shortreel/internal/types"
)

const (
	DefaultMinConfidence = 0.5
	DefaultMargin        = 0.2
	DefaultMaxFaces      = 5
)

type Adapter struct {
	bin           string
	minConfidence float64
	margin        float64
	maxFaces      int
}

type Config struct {
	MinConfidence float64
	Margin        float64
	MaxFaces      int
}

func New(binPath string, cfg Config) *Adapter {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.Margin < 0 {
		cfg.Margin = DefaultMargin
	}
	if cfg.MaxFaces <= 0 {
		cfg.MaxFaces = DefaultMaxFaces
	}
	return &Adapter{
		bin:           binPath,
		minConfidence: cfg.MinConfidence,
		margin:        cfg.Margin,
		maxFaces:      cfg.MaxFaces,
	}
}

type detectorOutput struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Faces  []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		Confidence float64 `json:"confidence"`
	} `json:"faces"`
}

func (a *Adapter) Detect(ctx context.Context, imagePath string) ([]types.FaceDetection, error) {
	cmd := exec.CommandContext(ctx, a.bin, "--image", imagePath, "--json")
	b, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("face detector failed on %s: %w", imagePath, err)
	}

	var out detectorOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse detector output for %s: %w", imagePath, err)
	}

	dets := make([]types.FaceDetection, 0, len(out.Faces))
	for _, f := range out.Faces {
		if f.Confidence < a.minConfidence {
			continue
		}
		if len(dets) >= a.maxFaces {
			break
		}
		dets = append(dets, a.widen(types.FaceDetection{
			X:          f.X,
			Y:          f.Y,
			Width:      f.Width,
			Height:     f.Height,
			Confidence: f.Confidence,
		}, out.Width, out.Height))
	}
	return dets, nil
}

// widen grows the box by the configured relative margin, clamped to the
// image bounds.
func (a *Adapter) widen(d types.FaceDetection, imgW, imgH float64) types.FaceDetection {
	if a.margin == 0 || imgW <= 0 || imgH <= 0 {
		return d
	}
	padX := d.Width * a.margin
	padY := d.Height * a.margin

	x := maxf(0, d.X-padX)
	y := maxf(0, d.Y-padY)
	d.Width = minf(imgW-x, d.Width+2*padX)
	d.Height = minf(imgH-y, d.Height+2*padY)
	d.X = x
	d.Y = y
	return d
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
