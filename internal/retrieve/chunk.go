// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve indexes full paper text into a local vector store and
// assembles methodology-focused excerpts for the extraction prompts.
package retrieve

const (
	// DefaultChunkSize is the window size in characters for splitting paper
	// text before embedding.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many characters consecutive windows share,
	// so that sentences cut by a window boundary survive in the neighbor.
	DefaultChunkOverlap = 200
)

// SplitText cuts text into fixed-size overlapping windows. size and overlap
// fall back to the defaults when non-positive; overlap is capped below size
// so the scan always advances.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
