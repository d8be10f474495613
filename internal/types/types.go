package types

// Transcript is the ASR collaborator's output: an ordered list of
// timestamped segments covering the audio track.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Chunk is a contiguous slice of the transcript submitted to the scoring
// oracle in one call. Chunks partition the transcript without gaps or
// overlaps.
type Chunk struct {
	Index    int
	Segments []Segment
}

// Candidate is one highlight window proposed by the oracle for a chunk.
// Candidates may still be invalid; validation promotes them to Highlight.
type Candidate struct {
	Start       float64
	End         float64
	Text        string
	Score       float64
	Reason      string
	SourceChunk int
}

func (c Candidate) Duration() float64 { return c.End - c.Start }

// Highlight is a validated, final candidate.
type Highlight struct {
	Start  float64 `json:"start_sec"`
	End    float64 `json:"end_sec"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

func (h Highlight) Duration() float64 { return h.End - h.Start }

// FaceDetection is one detected face in one sampled frame, in pixel
// coordinates of the source frame.
type FaceDetection struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	FrameIdx   int     `json:"frame_idx"`
	Timestamp  float64 `json:"timestamp"`
}

func (d FaceDetection) CenterX() float64 { return d.X + d.Width/2 }

// FaceTrack is a time-ordered run of detections believed to belong to the
// same subject. Boxes are append-only; tracks are never merged.
type FaceTrack struct {
	TrackID       int
	Boxes         []FaceDetection
	StartTime     float64
	EndTime       float64
	AvgConfidence float64
}

// CropFrame is the left edge of the fixed-size vertical crop window for
// one sampled frame. y is always 0; width and height are fixed by the
// 9:16 target ratio.
type CropFrame struct {
	FrameIdx int     `json:"frame_idx"`
	X        float64 `json:"x"`
}

// RenderPlan is the full contract handed to the external renderer for one
// clip: the highlight window plus its crop trajectory.
type RenderPlan struct {
	Highlight  Highlight
	CropWidth  int
	CropHeight int
	Frames     []CropFrame
}

// Manifest describes one finished run.
type Manifest struct {
	RunID string         `json:"run_id"`
	Input string         `json:"input"`
	Clips []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID       string  `json:"id"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
	Reason   string  `json:"reason,omitempty"`
	File     string  `json:"file"`
	CropW    int     `json:"crop_width"`
	CropH    int     `json:"crop_height"`
}
