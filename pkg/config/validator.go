package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	providers  = []string{"sidecar", "ollama", "openai"}
	drivers    = []string{"postgres", "sqlite", "memory"}
	strategies = []string{"semantic", "fixed"}
)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(field, format string, args ...any) {
		errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Embedding
	if !slices.Contains(providers, c.Embedding.Provider) {
		add("embedding.provider", "unknown provider %q", c.Embedding.Provider)
	}
	if c.Embedding.BaseURL != "" && !validURL(c.Embedding.BaseURL) {
		add("embedding.base_url", "invalid base URL")
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" && c.Embedding.BaseURL == "" {
		add("embedding.api_key", "api_key is required for the openai provider")
	}
	if c.Embedding.Timeout <= 0 {
		add("embedding.timeout", "timeout must be positive")
	}
	if c.Embedding.BatchSize < 1 {
		add("embedding.batch_size", "batch_size must be positive")
	}

	// Database
	if !slices.Contains(drivers, c.Database.Driver) {
		add("database.driver", "unknown driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" {
		if c.Database.URL == "" {
			add("database.url", "url is required for the postgres driver")
		} else if !validURL(c.Database.URL) {
			add("database.url", "invalid database URL")
		}
	}
	if c.Database.VectorDim < 1 {
		add("database.vector_dim", "vector_dim must be positive")
	}

	// Chunking
	if !slices.Contains(strategies, c.Chunking.Strategy) {
		add("chunking.strategy", "unknown strategy %q", c.Chunking.Strategy)
	}
	if c.Chunking.Window < 2 {
		add("chunking.window", "window must be at least 2")
	}
	if c.Chunking.Percentile <= 0 || c.Chunking.Percentile > 1 {
		add("chunking.percentile", "percentile must be in (0, 1]")
	}
	if c.Chunking.MinSentences < 1 || c.Chunking.MinSentences > c.Chunking.MaxSentences {
		add("chunking.min_sentences", "min_sentences must be between 1 and max_sentences")
	}
	if c.Chunking.ChunkSize < 1 {
		add("chunking.chunk_size", "chunk_size must be positive")
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		add("chunking.chunk_overlap", "chunk_overlap must be non-negative and less than chunk_size")
	}

	// Search
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		add("search.min_score", "min_score must be between 0 and 1")
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		add("search.default_limit", "default_limit must be between 1 and max_limit")
	}
	if c.Search.MaxLimit < 1 || c.Search.MaxLimit > 50 {
		add("search.max_limit", "max_limit must be between 1 and 50")
	}
	if c.Search.ChunkCandidates < 1 || c.Search.DocumentCandidates < 1 || c.Search.LexicalCandidates < 1 {
		add("search.candidates", "candidate caps must be positive")
	}

	// Server
	if c.Server.MaxUploadBytes < 1 {
		add("server.max_upload_bytes", "max_upload_bytes must be positive")
	}
	for _, ext := range c.Server.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			add("server.allowed_extensions", "invalid extension format: %s", ext)
		}
	}

	// Scraper
	if c.Scraper.MaxDepth < 1 {
		add("scraper.max_depth", "max_depth must be positive")
	}
	if c.Scraper.RateLimit <= 0 {
		add("scraper.rate_limit", "rate_limit must be positive")
	}
	for _, ext := range c.Scraper.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") && ext != "" && ext != "/" {
			add("scraper.allowed_extensions", "invalid extension format: %s", ext)
		}
	}

	return errors
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
