package ranker

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xhad/docspace/internal/models"
)

const (
	fileNameWeight   = 5
	snippetLead      = 40
	lexicalSnippetSz = 120
)

// RankLexical scores documents by 5 for a filename match plus the number of
// non-overlapping content occurrences, both case-insensitive. Documents that
// score zero are not returned.
func RankLexical(docs []models.Document, query string, limit int) []models.SearchResult {
	q := foldRunes(strings.TrimSpace(query))
	if len(q) == 0 {
		return nil
	}

	var results []models.SearchResult
	for _, d := range docs {
		content := []rune(d.Content)
		folded := foldRunes(d.Content)

		score := countOccurrences(folded, q)
		if indexRunes(foldRunes(d.FileName), q) >= 0 {
			score += fileNameWeight
		}
		if score == 0 {
			continue
		}

		results = append(results, models.SearchResult{
			DocumentID: d.ID,
			FileName:   d.FileName,
			UploadedAt: d.UploadedAt,
			Score:      float64(score),
			Snippet:    lexicalSnippet(content, indexRunes(folded, q)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UploadedAt.After(results[j].UploadedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// lexicalSnippet cuts 120 runes starting 40 before the first hit. A document
// that only matched by filename gets an empty snippet.
func lexicalSnippet(content []rune, pos int) string {
	if pos < 0 {
		return ""
	}
	start := max(0, pos-snippetLead)
	end := min(len(content), start+lexicalSnippetSz)
	return strings.ReplaceAll(string(content[start:end]), "\n", " ")
}

// foldRunes lowercases rune by rune so folded offsets line up with the source.
func foldRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if s[i+j] != sub[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func countOccurrences(s, sub []rune) int {
	n := 0
	for {
		i := indexRunes(s, sub)
		if i < 0 {
			return n
		}
		n++
		s = s[i+len(sub):]
	}
}
