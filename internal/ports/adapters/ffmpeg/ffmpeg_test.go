package ffmpeg

import (
	"math"
	"strings"
	"testing"

	"github.com/shortreel/shortreel/internal/types"
)

func TestParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30000/1001", 29.97002997002997, false},
		{"25/1", 25, false},
		{"24", 24, false},
		{"0/0", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseRate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRate(%q): %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildCropScript(t *testing.T) {
	t.Parallel()

	plan := types.RenderPlan{
		Highlight: types.Highlight{Start: 10, End: 12},
		CropWidth: 607, CropHeight: 1080,
		Frames: []types.CropFrame{
			{FrameIdx: 0, X: 100},
			{FrameIdx: 1, X: 105.4},
			{FrameIdx: 2, X: 110},
		},
	}

	got := buildCropScript(plan, 1.5)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 command lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "0.000 crop x 100;" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "crop x 105;") {
		t.Fatalf("expected truncated x offset, got %q", lines[1])
	}
}

func TestSampledFPS(t *testing.T) {
	t.Parallel()

	// 31 frames over 10s span 30 intervals, so the cadence is 3/s, not
	// 3.1/s.
	plan := types.RenderPlan{
		Highlight: types.Highlight{Start: 0, End: 10},
		Frames:    make([]types.CropFrame, 31),
	}
	if got := sampledFPS(plan); got != 3 {
		t.Fatalf("sampledFPS = %v, want 3", got)
	}

	// Degenerate plans fall back to a sane default.
	if got := sampledFPS(types.RenderPlan{}); got != 30 {
		t.Fatalf("fallback sampledFPS = %v, want 30", got)
	}
}

func TestFrameSource_IterationAndTiming(t *testing.T) {
	t.Parallel()

	fs := &frameSource{
		paths:    []string{"a.jpg", "b.jpg", "c.jpg"},
		startSec: 100,
		everyN:   5,
		info:     VideoInfo{Width: 1920, Height: 1080, FPS: 25},
	}

	var stamps []float64
	for {
		fr, ok := fs.Next()
		if !ok {
			break
		}
		stamps = append(stamps, fr.Timestamp)
	}
	if len(stamps) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(stamps))
	}
	want := []float64{100, 100.2, 100.4}
	for i := range want {
		if math.Abs(stamps[i]-want[i]) > 1e-9 {
			t.Fatalf("frame %d timestamp = %v, want %v", i, stamps[i], want[i])
		}
	}
	if fs.FrameWidth() != 1920 || fs.FrameHeight() != 1080 {
		t.Fatalf("unexpected geometry %dx%d", fs.FrameWidth(), fs.FrameHeight())
	}
}

func TestEscapeFilterPath(t *testing.T) {
	t.Parallel()

	got := escapeFilterPath(`C:\tmp\crop.cmd`)
	if got != `C\:\\tmp\\crop.cmd` {
		t.Fatalf("unexpected escape: %q", got)
	}
}
