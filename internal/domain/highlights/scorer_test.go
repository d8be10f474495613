package highlights

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/shortreel/shortreel/internal/types"
)

type fakeOracle struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeOracle) Score(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConstraints() Constraints {
	return Constraints{MinDuration: 5, MaxDuration: 60, MinScore: 0.7, PerChunk: 3, Language: "en"}
}

func testChunk() types.Chunk {
	return types.Chunk{Index: 2, Segments: []types.Segment{
		{Start: 0, End: 6, Text: "intro"},
		{Start: 6, End: 13, Text: "middle"},
		{Start: 13, End: 16, Text: "tail"},
	}}
}

func TestScoreChunk_ValidResponse(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: `{"highlights": [
		{"start": 6, "end": 13, "text": "middle", "score": 0.9, "reason": "hook"},
		{"start": 0, "end": 6, "text": "intro", "score": 0.8, "reason": "opening"}
	]}`}
	s := NewScorer(oracle, testConstraints(), quietLogger())

	got, err := s.ScoreChunk(context.Background(), testChunk())
	if err != nil {
		t.Fatalf("score chunk: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	// Output follows chunk time order regardless of oracle order.
	if got[0].Start != 0 || got[1].Start != 6 {
		t.Fatalf("candidates not in time order: %v then %v", got[0].Start, got[1].Start)
	}
	for _, c := range got {
		if c.SourceChunk != 2 {
			t.Fatalf("expected source chunk 2, got %d", c.SourceChunk)
		}
	}
}

func TestScoreChunk_FencedResponse(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{response: "```json\n" +
		`{"highlights": [{"start": 0, "end": 6, "text": "intro", "score": 0.9, "reason": "r"}]}` +
		"\n```"}
	s := NewScorer(oracle, testConstraints(), quietLogger())

	got, err := s.ScoreChunk(context.Background(), testChunk())
	if err != nil {
		t.Fatalf("score chunk: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected fenced JSON to parse, got %d candidates", len(got))
	}
}

func TestScoreChunk_MalformedDropsChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
	}{
		{"not json", "sorry, I cannot help with that"},
		{"missing highlights key", `{"clips": []}`},
		{"non-numeric timestamp", `{"highlights": [{"start": "ten", "end": 20, "text": "x", "score": 0.9, "reason": "r"}]}`},
		{"missing score", `{"highlights": [{"start": 0, "end": 6, "text": "x", "reason": "r"}]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewScorer(&fakeOracle{response: tt.response}, testConstraints(), quietLogger())
			got, err := s.ScoreChunk(context.Background(), testChunk())
			if err != nil {
				t.Fatalf("parse failures must be recoverable, got error: %v", err)
			}
			if got != nil {
				t.Fatalf("expected dropped chunk, got %d candidates", len(got))
			}
		})
	}
}

func TestScoreChunk_OracleErrorDropsChunk(t *testing.T) {
	t.Parallel()

	s := NewScorer(&fakeOracle{err: errors.New("boom")}, testConstraints(), quietLogger())
	got, err := s.ScoreChunk(context.Background(), testChunk())
	if err != nil {
		t.Fatalf("oracle errors must be recoverable, got: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestScoreChunk_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScorer(&fakeOracle{err: context.Canceled}, testConstraints(), quietLogger())
	if _, err := s.ScoreChunk(ctx, testChunk()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidate_ExtensionAndBounds(t *testing.T) {
	t.Parallel()

	segs := []types.Segment{
		{Start: 10, End: 13, Text: "first"},
		{Start: 13, End: 16, Text: "second"},
		{Start: 16, End: 90, Text: "huge"},
	}

	tests := []struct {
		name      string
		cand      types.Candidate
		wantKept  bool
		wantStart float64
		wantEnd   float64
	}{
		{
			name:     "within bounds untouched",
			cand:     types.Candidate{Start: 10, End: 16, Score: 0.9},
			wantKept: true, wantStart: 10, wantEnd: 16,
		},
		{
			name:     "short extended by next segment",
			cand:     types.Candidate{Start: 10, End: 13, Score: 0.9, Text: "first"},
			wantKept: true, wantStart: 10, wantEnd: 16,
		},
		{
			name:     "extension overshoots max",
			cand:     types.Candidate{Start: 13, End: 15, Score: 0.9},
			wantKept: false,
		},
		{
			name:     "below min score",
			cand:     types.Candidate{Start: 10, End: 16, Score: 0.5},
			wantKept: false,
		},
		{
			name:     "degenerate window",
			cand:     types.Candidate{Start: 16, End: 16, Score: 0.9},
			wantKept: false,
		},
		{
			name:     "over max duration",
			cand:     types.Candidate{Start: 10, End: 90, Score: 0.9},
			wantKept: false,
		},
	}

	s := NewScorer(&fakeOracle{}, testConstraints(), quietLogger())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, kept := s.validate(tt.cand, segs)
			if kept != tt.wantKept {
				t.Fatalf("kept = %v, want %v", kept, tt.wantKept)
			}
			if !kept {
				return
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Fatalf("got [%v, %v], want [%v, %v]", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestValidate_ExtensionAppendsText(t *testing.T) {
	t.Parallel()

	segs := []types.Segment{{Start: 13, End: 16, Text: "and the payoff"}}
	s := NewScorer(&fakeOracle{}, testConstraints(), quietLogger())

	got, kept := s.validate(types.Candidate{Start: 10, End: 13, Text: "the setup", Score: 0.9}, segs)
	if !kept {
		t.Fatalf("expected candidate kept after extension")
	}
	if got.End != 16 {
		t.Fatalf("expected extension to 16, got %v", got.End)
	}
	if got.Text != "the setup and the payoff" {
		t.Fatalf("unexpected extended text: %q", got.Text)
	}
}
