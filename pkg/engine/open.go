package engine

import (
	"fmt"
	"log"

	"github.com/xhad/docspace/pkg/config"
	"github.com/xhad/docspace/pkg/llm"
	"github.com/xhad/docspace/pkg/processor"
	"github.com/xhad/docspace/pkg/scraper"
	"github.com/xhad/docspace/pkg/store"
)

// Open wires an Engine from configuration: the store backend, the embedding
// gateway and the chunking processor.
func Open(cfg *config.Config, logger *log.Logger) (*Engine, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %v", errs[0])
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:   cfg.Embedding.Provider,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Timeout:    cfg.Embedding.Timeout,
		BatchSize:  cfg.Embedding.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		Driver:     cfg.Database.Driver,
		ConnString: cfg.Database.URL,
		Path:       cfg.Database.Path,
		VectorDim:  cfg.Database.VectorDim,
	})
	if err != nil {
		return nil, err
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		Strategy:     cfg.Chunking.Strategy,
		Window:       cfg.Chunking.Window,
		Percentile:   cfg.Chunking.Percentile,
		MinSentences: cfg.Chunking.MinSentences,
		MaxSentences: cfg.Chunking.MaxSentences,
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	}, embedder)

	return New(st, embedder, proc, Options{
		DefaultLimit:       cfg.Search.DefaultLimit,
		MaxLimit:           cfg.Search.MaxLimit,
		MinScore:           cfg.Search.MinScore,
		ChunkCandidates:    cfg.Search.ChunkCandidates,
		DocumentCandidates: cfg.Search.DocumentCandidates,
		LexicalCandidates:  cfg.Search.LexicalCandidates,
		SnippetLength:      cfg.Search.SnippetLength,
		AllowedExtensions:  cfg.Server.AllowedExtensions,
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		Scraper: scraper.ScraperConfig{
			MaxDepth:          cfg.Scraper.MaxDepth,
			MaxPages:          cfg.Scraper.MaxPages,
			RateLimit:         cfg.Scraper.RateLimit,
			IgnorePatterns:    cfg.Scraper.IgnorePatterns,
			AllowedExtensions: cfg.Scraper.AllowedExtensions,
			Timeout:           cfg.Scraper.Timeout,
		},
	}, logger), nil
}
