// Package ffmpeg adapts ffmpeg/ffprobe into the video collaborator
// ports: probing, audio extraction, sampled frame access, and final clip
// rendering with a dynamic crop.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shortreel/shortreel/internal/ports"
	"github.com/shortreel/shortreel/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

// VideoInfo is the probed geometry of the primary video stream.
type VideoInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

func (a *Adapter) Probe(ctx context.Context, inVideo string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate:format=duration",
		"-of", "json",
		inVideo,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", inVideo, err, string(b))
	}

	var raw struct {
		Streams []struct {
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			FrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(raw.Streams) == 0 {
		return VideoInfo{}, fmt.Errorf("no video stream in %s", inVideo)
	}

	s := raw.Streams[0]
	fps, err := parseRate(s.FrameRate)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse frame rate %q: %w", s.FrameRate, err)
	}
	dur, _ := strconv.ParseFloat(strings.TrimSpace(raw.Format.Duration), 64)
	return VideoInfo{Width: s.Width, Height: s.Height, FPS: fps, Duration: dur}, nil
}

// OpenFrames extracts every everyN-th frame of [startSec, endSec) into
// workDir as JPEGs and returns an iterator over them. The caller owns the
// returned source and must Close it on every exit path; Close removes the
// extracted frames.
func (a *Adapter) OpenFrames(ctx context.Context, inVideo string, startSec, endSec float64, everyN int, workDir string) (ports.FrameSource, error) {
	if everyN <= 0 {
		everyN = 1
	}

	info, err := a.Probe(ctx, inVideo)
	if err != nil {
		return nil, err
	}

	framesDir, err := os.MkdirTemp(workDir, "frames-")
	if err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	pattern := filepath.Join(framesDir, "frame_%06d.jpg")
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(startSec),
		"-to", fmtSeconds(endSec),
		"-i", inVideo,
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", everyN),
		"-vsync", "vfr",
		"-q:v", "2",
		pattern,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(framesDir)
		return nil, fmt.Errorf("ffmpeg extract frames: %w\n%s", err, string(b))
	}

	names, err := filepath.Glob(filepath.Join(framesDir, "frame_*.jpg"))
	if err != nil {
		os.RemoveAll(framesDir)
		return nil, fmt.Errorf("list frames: %w", err)
	}

	return &frameSource{
		dir:      framesDir,
		paths:    names,
		startSec: startSec,
		everyN:   everyN,
		info:     info,
	}, nil
}

type frameSource struct {
	dir      string
	paths    []string
	pos      int
	startSec float64
	everyN   int
	info     VideoInfo
}

func (f *frameSource) Next() (ports.Frame, bool) {
	if f.pos >= len(f.paths) {
		return ports.Frame{}, false
	}
	idx := f.pos
	path := f.paths[f.pos]
	f.pos++
	return ports.Frame{
		Idx:       idx,
		Timestamp: f.startSec + float64(idx*f.everyN)/f.info.FPS,
		ImagePath: path,
	}, true
}

func (f *frameSource) Err() error       { return nil }
func (f *frameSource) FPS() float64     { return f.info.FPS }
func (f *frameSource) FrameWidth() int  { return f.info.Width }
func (f *frameSource) FrameHeight() int { return f.info.Height }

func (f *frameSource) Close() error {
	return os.RemoveAll(f.dir)
}

// RenderClip cuts the highlight window and applies the planned crop. The
// per-frame x offsets drive ffmpeg's crop filter through a sendcmd
// script, so the renderer never needs tracker or planner state.
func (a *Adapter) RenderClip(ctx context.Context, inVideo string, plan types.RenderPlan, outVideo string) error {
	h := plan.Highlight

	var filter string
	var cmdFile string
	if len(plan.Frames) > 0 && plan.CropWidth > 0 {
		fps := sampledFPS(plan)
		script := buildCropScript(plan, fps)

		tmp, err := os.CreateTemp(filepath.Dir(outVideo), "croppath-*.cmd")
		if err != nil {
			return fmt.Errorf("create crop script: %w", err)
		}
		cmdFile = tmp.Name()
		defer os.Remove(cmdFile)
		if _, err := tmp.WriteString(script); err != nil {
			tmp.Close()
			return fmt.Errorf("write crop script: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return err
		}

		first := plan.Frames[0]
		filter = fmt.Sprintf("sendcmd=f=%s,crop=%d:%d:%d:0",
			escapeFilterPath(cmdFile), plan.CropWidth, plan.CropHeight, int(first.X))
	}

	args := []string{
		"-y",
		"-ss", fmtSeconds(h.Start),
		"-to", fmtSeconds(h.End),
		"-i", inVideo,
	}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outVideo,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, string(b))
	}
	return nil
}

// buildCropScript emits one sendcmd line per planned frame, timed
// relative to the cut's start.
func buildCropScript(plan types.RenderPlan, sampledFPS float64) string {
	var b strings.Builder
	for _, cf := range plan.Frames {
		t := float64(cf.FrameIdx) / sampledFPS
		fmt.Fprintf(&b, "%s crop x %d;\n", fmtSeconds(t), int(cf.X))
	}
	return b.String()
}

// sampledFPS recovers the sampled frame cadence from the plan span. N
// frames span N-1 intervals.
func sampledFPS(plan types.RenderPlan) float64 {
	dur := plan.Highlight.Duration()
	if dur <= 0 || len(plan.Frames) < 2 {
		return 30
	}
	return float64(len(plan.Frames)-1) / dur
}

func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", s)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(s, 64)
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
