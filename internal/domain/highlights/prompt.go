package highlights

import (
	"fmt"
	"strings"

	"github.com/shortreel/shortreel/internal/types"
)

// BuildPrompt renders one chunk as a timestamped transcript plus the task
// constraints. The oracle must answer with a single JSON object and
// nothing else; the parser still tolerates fence wrapping.
func BuildPrompt(chunk types.Chunk, cons Constraints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a video content analysis expert. "+
		"Identify the most interesting and engaging moments in the transcript below. "+
		"The content language is %q; keep the extracted text in that language.\n\n", cons.Language)

	fmt.Fprintf(&b, "Rules:\n")
	fmt.Fprintf(&b, "- each moment must run between %.0f and %.0f seconds\n", cons.MinDuration, cons.MaxDuration)
	fmt.Fprintf(&b, "- combine consecutive segments when needed so a moment makes sense on its own\n")
	fmt.Fprintf(&b, "- return at most %d moments, each with a score from 0 to 1\n", cons.PerChunk)
	fmt.Fprintf(&b, "- only include moments scoring at least %.2f\n\n", cons.MinScore)

	b.WriteString("Transcript with timestamps:\n")
	for _, s := range chunk.Segments {
		fmt.Fprintf(&b, "[%.1f – %.1f] %s\n", s.Start, s.End, strings.TrimSpace(s.Text))
	}

	b.WriteString("\nReturn ONLY this JSON, no markdown, no extra text:\n")
	b.WriteString(`{"highlights": [{"start": number, "end": number, "text": string, "score": number, "reason": string}]}`)
	return b.String()
}
