package processor

import (
	"regexp"
	"strings"
)

// Segmenter splits text into sentences at '.', '!' or '?' followed by
// whitespace. It has no abbreviation handling: "Mr. Smith" yields two
// sentences. A Segmenter is immutable and safe for concurrent use.
type Segmenter struct {
	boundary *regexp.Regexp
}

// NewSegmenter compiles the sentence boundary pattern.
func NewSegmenter() *Segmenter {
	return &Segmenter{boundary: regexp.MustCompile(`[.!?][\s\p{Z}]+`)}
}

// NormalizeText converts CRLF line endings to LF and trims surrounding space.
func NormalizeText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
}

// Split returns the trimmed, non-empty sentences of text in order.
func (s *Segmenter) Split(text string) []string {
	text = NormalizeText(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range s.boundary.FindAllStringIndex(text, -1) {
		// keep the punctuation mark, drop the whitespace run
		sentences = appendTrimmed(sentences, text[start:loc[0]+1])
		start = loc[1]
	}
	return appendTrimmed(sentences, text[start:])
}

func appendTrimmed(dst []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		dst = append(dst, s)
	}
	return dst
}
