package facedetect

import (
	"math"
	"testing"

	"github.com/shortreel/shortreel/internal/types"
)

func TestWiden(t *testing.T) {
	t.Parallel()

	a := New("detector", Config{Margin: 0.2, MinConfidence: 0.5})

	tests := []struct {
		name string
		in   types.FaceDetection
		want types.FaceDetection
	}{
		{
			name: "interior box grows symmetrically",
			in:   types.FaceDetection{X: 100, Y: 100, Width: 50, Height: 50},
			want: types.FaceDetection{X: 90, Y: 90, Width: 70, Height: 70},
		},
		{
			name: "clamped at origin",
			in:   types.FaceDetection{X: 5, Y: 5, Width: 50, Height: 50},
			want: types.FaceDetection{X: 0, Y: 0, Width: 70, Height: 70},
		},
		{
			name: "clamped at far edge",
			in:   types.FaceDetection{X: 1880, Y: 1040, Width: 40, Height: 40},
			want: types.FaceDetection{X: 1872, Y: 1032, Width: 48, Height: 48},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := a.widen(tt.in, 1920, 1080)
			for name, pair := range map[string][2]float64{
				"x": {got.X, tt.want.X}, "y": {got.Y, tt.want.Y},
				"w": {got.Width, tt.want.Width}, "h": {got.Height, tt.want.Height},
			} {
				if math.Abs(pair[0]-pair[1]) > 1e-9 {
					t.Fatalf("%s = %v, want %v", name, pair[0], pair[1])
				}
			}
		})
	}
}

func TestWiden_ZeroMarginNoOp(t *testing.T) {
	t.Parallel()

	a := &Adapter{margin: 0}
	in := types.FaceDetection{X: 10, Y: 20, Width: 30, Height: 40}
	if got := a.widen(in, 1920, 1080); got != in {
		t.Fatalf("zero margin changed the box: %+v", got)
	}
}
