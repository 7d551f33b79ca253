// Package ranker orders stored candidates against a query. Semantic ranking
// scores unit vectors by inner product; lexical ranking counts raw text hits.
package ranker

import (
	"sort"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/pkg/vecmath"
)

// Defaults used when Options leaves a field at zero.
const (
	DefaultLimit         = 10
	MaxLimit             = 50
	DefaultMinScore      = 0.25
	DefaultSnippetLength = 240
)

type Options struct {
	Limit         int
	MinScore      float64
	SnippetLength int
}

// ClampLimit returns limit bounded to [1, max]. Zero or negative limits
// become DefaultLimit, capped by max.
func ClampLimit(limit, max int) int {
	if max < 1 {
		max = MaxLimit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}

type scored struct {
	cand  *models.Candidate
	score float64
}

// Rank scores every candidate by dot product with query and keeps the best
// chunk of each document. Results below opts.MinScore are dropped; the rest
// are ordered by score, then by newer upload, and capped at opts.Limit.
func Rank(cands []models.Candidate, query []float32, opts Options) []models.SearchResult {
	if len(cands) == 0 || len(query) == 0 {
		return nil
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = DefaultSnippetLength
	}

	all := make([]scored, len(cands))
	for i := range cands {
		all[i] = scored{cand: &cands[i], score: vecmath.Dot(cands[i].Embedding, query)}
	}
	// best chunk first so the first hit per document is its winner
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	seen := make(map[string]struct{}, len(all))
	var best []scored
	for _, s := range all {
		if _, ok := seen[s.cand.DocumentID]; ok {
			continue
		}
		seen[s.cand.DocumentID] = struct{}{}
		if s.score < opts.MinScore {
			continue
		}
		best = append(best, s)
	}

	sort.SliceStable(best, func(i, j int) bool {
		if best[i].score != best[j].score {
			return best[i].score > best[j].score
		}
		return best[i].cand.UploadedAt.After(best[j].cand.UploadedAt)
	})

	if opts.Limit > 0 && len(best) > opts.Limit {
		best = best[:opts.Limit]
	}

	results := make([]models.SearchResult, 0, len(best))
	for _, s := range best {
		results = append(results, models.SearchResult{
			DocumentID: s.cand.DocumentID,
			FileName:   s.cand.FileName,
			UploadedAt: s.cand.UploadedAt,
			Score:      s.score,
			ChunkIndex: s.cand.ChunkIndex,
			Snippet:    Truncate(s.cand.Content, opts.SnippetLength),
		})
	}
	return results
}

// DocumentCandidates turns documents into one candidate each, using the
// document-level embedding. Documents without an embedding are skipped.
func DocumentCandidates(docs []models.Document) []models.Candidate {
	cands := make([]models.Candidate, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			continue
		}
		cands = append(cands, models.Candidate{
			DocumentID: d.ID,
			FileName:   d.FileName,
			UploadedAt: d.UploadedAt,
			Content:    d.Content,
			Embedding:  d.Embedding,
		})
	}
	return cands
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
