package ports

import (
	"context"

	"github.com/shortreel/shortreel/internal/types"
)

// Oracle is the external scoring service: plain prompt text in, a single
// block of structured text out. Implementations are selected at
// construction time; callers never inspect the concrete type.
type Oracle interface {
	Score(ctx context.Context, prompt string) (string, error)
}

// FaceDetector finds faces in one extracted frame image. Coordinates are
// absolute pixels of the source frame.
type FaceDetector interface {
	Detect(ctx context.Context, imagePath string) ([]types.FaceDetection, error)
}

// Frame is one sampled frame handed out by a FrameSource.
type Frame struct {
	Idx       int
	Timestamp float64
	ImagePath string
}

// FrameSource is a finite, ordered iterator over sampled frames of one
// video segment. Next returns false once exhausted; Err reports a decode
// failure, if any. Close must release the underlying resources and is
// safe to call on every exit path.
type FrameSource interface {
	Next() (Frame, bool)
	Err() error
	FPS() float64
	FrameWidth() int
	FrameHeight() int
	Close() error
}

// ASR turns an extracted audio file into a transcript.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// VideoTool is the external probe/extract/render collaborator. RenderClip
// receives the complete crop plan for one highlight; it needs no internal
// state of the tracker or planner.
type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	OpenFrames(ctx context.Context, inVideo string, startSec, endSec float64, everyN int, workDir string) (FrameSource, error)
	RenderClip(ctx context.Context, inVideo string, plan types.RenderPlan, outVideo string) error
}
