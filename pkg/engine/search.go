package engine

import (
	"context"
	"strings"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/ranker"
)

type SearchRequest struct {
	Query string
	Limit int
	// MinScore overrides the configured threshold when set.
	MinScore *float64
	Scope    models.Scope
}

// SemanticSearch embeds the query once and ranks the most recent chunks, or
// the most recent documents for models.ScopeDocuments, keeping the best hit
// per document.
func (e *Engine) SemanticSearch(ctx context.Context, req SearchRequest) ([]models.SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, types.InvalidInput("query is empty")
	}

	opts := ranker.Options{
		Limit:         e.clampLimit(req.Limit),
		MinScore:      e.options.MinScore,
		SnippetLength: e.options.SnippetLength,
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}

	qvec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	var cands []models.Candidate
	if req.Scope == models.ScopeDocuments {
		docs, err := e.store.RecentDocuments(ctx, e.options.DocumentCandidates)
		if err != nil {
			return nil, err
		}
		cands = ranker.DocumentCandidates(docs)
	} else {
		cands, err = e.store.RecentChunkCandidates(ctx, e.options.ChunkCandidates)
		if err != nil {
			return nil, err
		}
	}

	return ranker.Rank(cands, qvec, opts), nil
}

// LexicalSearch ranks the most recent documents by keyword occurrences.
func (e *Engine) LexicalSearch(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.InvalidInput("query is empty")
	}

	docs, err := e.store.RecentDocuments(ctx, e.options.LexicalCandidates)
	if err != nil {
		return nil, err
	}
	return ranker.RankLexical(docs, query, e.clampLimit(limit)), nil
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.options.DefaultLimit
	}
	return ranker.ClampLimit(limit, e.options.MaxLimit)
}
