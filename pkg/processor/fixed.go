package processor

import (
	"strings"
	"unicode"
)

// Bounds applied to fixed-size chunking, in characters.
const (
	MinFixedChunkSize = 400
	MaxFixedChunkSize = 8000
	MaxFixedOverlap   = 1000

	// wordBackoffFloor is how far past the chunk start a word-boundary search may retreat to.
	wordBackoffFloor = 200
)

// FixedChunks cuts text into windows of about chunkSize characters that
// overlap by overlap characters, moving each cut back to whitespace when one
// exists more than 200 characters into the window.
func FixedChunks(text string, chunkSize, overlap int) []string {
	text = NormalizeText(text)
	if text == "" {
		return nil
	}

	chunkSize = clamp(chunkSize, MinFixedChunkSize, MaxFixedChunkSize)
	overlap = clamp(overlap, 0, min(MaxFixedOverlap, chunkSize/2))

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(len(runes), start+chunkSize)

		if end < len(runes) {
			back := end
			floor := start + wordBackoffFloor
			for back > floor && !unicode.IsSpace(runes[back-1]) {
				back--
			}
			if back > floor {
				end = back
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}
		next := max(0, end-overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
