package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/shortreel/shortreel/internal/ports"
	"github.com/shortreel/shortreel/internal/types"
)

// Constraints bound what the oracle may propose and what validation keeps.
type Constraints struct {
	MinDuration float64
	MaxDuration float64
	MinScore    float64
	PerChunk    int
	Language    string
}

// Scorer turns one chunk into validated candidates via the oracle.
type Scorer struct {
	oracle ports.Oracle
	cons   Constraints
	log    logrus.FieldLogger
}

func NewScorer(oracle ports.Oracle, cons Constraints, log logrus.FieldLogger) *Scorer {
	if cons.PerChunk <= 0 {
		cons.PerChunk = 3
	}
	if cons.Language == "" {
		cons.Language = "en"
	}
	return &Scorer{oracle: oracle, cons: cons, log: log}
}

// ScoreChunk sends one chunk's text to the oracle and returns its
// validated candidates in chunk time order. A malformed oracle response
// drops the whole chunk: the error is logged and nil is returned so the
// remaining chunks keep scoring.
func (s *Scorer) ScoreChunk(ctx context.Context, chunk types.Chunk) ([]types.Candidate, error) {
	if len(chunk.Segments) == 0 {
		return nil, nil
	}

	raw, err := s.oracle.Score(ctx, BuildPrompt(chunk, s.cons))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.WithError(err).WithField("chunk", chunk.Index).Warn("oracle call failed, dropping chunk")
		return nil, nil
	}

	cands, err := parseCandidates(raw, chunk.Index)
	if err != nil {
		s.log.WithError(err).WithField("chunk", chunk.Index).Warn("unparseable oracle response, dropping chunk")
		return nil, nil
	}

	out := make([]types.Candidate, 0, len(cands))
	for _, c := range cands {
		v, ok := s.validate(c, chunk.Segments)
		if !ok {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// validate enforces the duration and score bounds. A too-short candidate
// gets one extension attempt: absorb the first segment starting at or
// after its end when that brings the duration up to the minimum.
func (s *Scorer) validate(c types.Candidate, segs []types.Segment) (types.Candidate, bool) {
	if c.End <= c.Start {
		return types.Candidate{}, false
	}

	if c.Duration() < s.cons.MinDuration {
		for _, seg := range segs {
			if seg.Start < c.End {
				continue
			}
			if seg.End-c.Start >= s.cons.MinDuration {
				c.End = seg.End
				if t := strings.TrimSpace(seg.Text); t != "" {
					c.Text = strings.TrimSpace(c.Text + " " + t)
				}
			}
			break
		}
	}

	if c.Duration() < s.cons.MinDuration || c.Duration() > s.cons.MaxDuration {
		return types.Candidate{}, false
	}
	if c.Score < s.cons.MinScore {
		return types.Candidate{}, false
	}
	return c, true
}

// rawHighlights mirrors the oracle's declared response contract.
type rawHighlights struct {
	Highlights []json.RawMessage `json:"highlights"`
}

type rawCandidate struct {
	Start  *float64 `json:"start"`
	End    *float64 `json:"end"`
	Text   string   `json:"text"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
}

// parseCandidates extracts the structured highlight list from the oracle
// response. Fence wrapping and surrounding prose are tolerated; any
// deviation inside the structure (missing key, wrong type) fails the
// whole chunk.
func parseCandidates(raw string, chunkIdx int) ([]types.Candidate, error) {
	clean, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var top rawHighlights
	dec := json.NewDecoder(strings.NewReader(clean))
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("decode highlights object: %w", err)
	}
	if top.Highlights == nil {
		return nil, errors.New(`missing "highlights" key`)
	}

	out := make([]types.Candidate, 0, len(top.Highlights))
	for i, msg := range top.Highlights {
		var rc rawCandidate
		if err := json.Unmarshal(msg, &rc); err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i, err)
		}
		if rc.Start == nil || rc.End == nil || rc.Score == nil {
			return nil, fmt.Errorf("highlight %d: missing numeric field", i)
		}
		out = append(out, types.Candidate{
			Start:       *rc.Start,
			End:         *rc.End,
			Text:        strings.TrimSpace(rc.Text),
			Score:       *rc.Score,
			Reason:      strings.TrimSpace(rc.Reason),
			SourceChunk: chunkIdx,
		})
	}
	return out, nil
}

// extractJSONObject strips markdown code fences and surrounding prose,
// returning the first top-level JSON object found.
func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty oracle response")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in oracle response: %q", truncate(t, 120))
	}
	return t[start : end+1], nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
