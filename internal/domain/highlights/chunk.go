package highlights

import "github.com/shortreel/shortreel/internal/types"

// ChunkSegments partitions the transcript into contiguous chunks of at
// most maxPerChunk segments each, preserving order. The chunks cover the
// input exactly once; the last chunk may be smaller.
func ChunkSegments(segs []types.Segment, maxPerChunk int) []types.Chunk {
	if len(segs) == 0 || maxPerChunk <= 0 {
		return nil
	}

	out := make([]types.Chunk, 0, (len(segs)+maxPerChunk-1)/maxPerChunk)
	for i := 0; i < len(segs); i += maxPerChunk {
		end := i + maxPerChunk
		if end > len(segs) {
			end = len(segs)
		}
		out = append(out, types.Chunk{
			Index:    len(out),
			Segments: segs[i:end],
		})
	}
	return out
}
