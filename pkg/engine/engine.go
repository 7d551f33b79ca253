// Package engine is the document service: it ingests text into embedded
// chunk sets and answers semantic and keyword searches over them.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/processor"
	"github.com/xhad/docspace/pkg/ranker"
	"github.com/xhad/docspace/pkg/scraper"
)

type Options struct {
	DefaultLimit       int
	MaxLimit           int
	MinScore           float64
	ChunkCandidates    int
	DocumentCandidates int
	LexicalCandidates  int
	SnippetLength      int
	AllowedExtensions  []string
	MaxUploadBytes     int64
	Scraper            scraper.ScraperConfig
}

func (o *Options) applyDefaults() {
	if o.MaxLimit <= 0 {
		o.MaxLimit = ranker.MaxLimit
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = ranker.DefaultLimit
	}
	if o.MinScore == 0 {
		o.MinScore = ranker.DefaultMinScore
	}
	if o.ChunkCandidates <= 0 {
		o.ChunkCandidates = 2000
	}
	if o.DocumentCandidates <= 0 {
		o.DocumentCandidates = 300
	}
	if o.LexicalCandidates <= 0 {
		o.LexicalCandidates = 200
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = ranker.DefaultSnippetLength
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{".txt", ".md"}
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 5 << 20
	}
}

type Engine struct {
	store     types.DocumentStore
	embedder  types.Embedder
	processor *processor.Processor
	options   Options
	logger    *log.Logger
}

func New(store types.DocumentStore, embedder types.Embedder, proc *processor.Processor, options Options, logger *log.Logger) *Engine {
	options.applyDefaults()
	if logger == nil {
		logger = log.Default()
	}
	if proc == nil {
		proc = processor.NewWithConfig(processor.ProcessorConfig{}, embedder)
	}
	return &Engine{
		store:     store,
		embedder:  embedder,
		processor: proc,
		options:   options,
		logger:    logger,
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.options }

func (e *Engine) Close() error { return e.store.Close() }

// CreateDocument chunks content and stores it as a new document together
// with its chunk set. An empty fileName becomes models.DefaultFileName.
func (e *Engine) CreateDocument(ctx context.Context, fileName, content string) (*models.Document, error) {
	content = processor.NormalizeText(content)
	if content == "" {
		return nil, types.InvalidInput("document text is empty")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = models.DefaultFileName
	}

	res, err := e.processor.Process(ctx, content)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		FileName:  fileName,
		Content:   content,
		Embedding: res.Embedding,
	}
	if err := e.store.CreateDocument(ctx, doc, res.Chunks); err != nil {
		return nil, err
	}
	doc.Chunks = res.Chunks

	e.logResult(doc.ID, res)
	return doc, nil
}

// UploadDocument reads a file body and stores it as a document. Only the
// configured extensions are accepted; HTML bodies are reduced to their text.
func (e *Engine) UploadDocument(ctx context.Context, fileName string, body io.Reader) (*models.Document, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, types.InvalidInput("file name is required")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !slices.Contains(e.options.AllowedExtensions, ext) {
		return nil, types.InvalidInput("unsupported file type %q (allowed: %s)", ext, strings.Join(e.options.AllowedExtensions, ", "))
	}

	data, err := io.ReadAll(io.LimitReader(body, e.options.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > e.options.MaxUploadBytes {
		return nil, types.InvalidInput("file exceeds %d bytes", e.options.MaxUploadBytes)
	}

	content := string(data)
	if ext == ".html" || ext == ".htm" {
		_, content, err = scraper.ExtractText(strings.NewReader(content))
		if err != nil {
			return nil, types.InvalidInput("%v", err)
		}
	}
	if strings.TrimSpace(content) == "" {
		return nil, types.InvalidInput("file is empty")
	}

	return e.CreateDocument(ctx, fileName, content)
}

// ImportURL crawls rawURL with the configured scraper and stores every page
// with text as a document named by its title. Pages that fail to ingest are
// logged and skipped; an error is returned only when nothing was stored.
func (e *Engine) ImportURL(ctx context.Context, rawURL string, onPage func(url string)) ([]*models.Document, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, types.InvalidInput("url is empty")
	}

	cfg := e.options.Scraper
	cfg.BaseURL = rawURL
	if cfg.OnProgress == nil {
		cfg.OnProgress = onPage
	}
	if cfg.Logger == nil {
		cfg.Logger = e.logger
	}
	s, err := scraper.NewWithConfig(cfg)
	if err != nil {
		return nil, types.InvalidInput("invalid url %q: %v", rawURL, err)
	}

	pages, err := s.Scrape(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", rawURL, err)
	}

	var (
		docs    []*models.Document
		lastErr error
	)
	for _, p := range pages {
		doc, err := e.CreateDocument(ctx, p.Name(), p.Content)
		if err != nil {
			e.logger.Printf("import %s: %v", p.URL, err)
			lastErr = err
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return docs, nil
}

// ChunkDocument replaces the content, document embedding and chunk set of an
// existing document with the result of chunking text. Unknown ids fail with
// types.ErrNotFound before any embedding call.
func (e *Engine) ChunkDocument(ctx context.Context, id, text string) (*processor.Result, error) {
	if _, err := e.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}

	text = processor.NormalizeText(text)
	res, err := e.processor.Process(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.store.ReplaceChunks(ctx, id, text, res.Embedding, res.Chunks); err != nil {
		return nil, err
	}

	e.logResult(id, res)
	return res, nil
}

// Rechunk runs ChunkDocument over the stored content of id.
func (e *Engine) Rechunk(ctx context.Context, id string) (*processor.Result, error) {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.ChunkDocument(ctx, id, doc.Content)
}

func (e *Engine) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return e.store.GetDocument(ctx, id)
}

func (e *Engine) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	return e.store.ListDocuments(ctx)
}

func (e *Engine) ListChunks(ctx context.Context, id string) ([]models.Chunk, error) {
	return e.store.ListChunks(ctx, id)
}

func (e *Engine) DeleteDocument(ctx context.Context, id string) error {
	return e.store.DeleteDocument(ctx, id)
}

func (e *Engine) logResult(id string, res *processor.Result) {
	e.logger.Printf("chunked document %s: sentences=%d splits=%d chunks=%d degenerate=%d fallback=%t",
		id, res.Sentences, len(res.SplitPoints), len(res.Chunks), res.Degenerate, res.Fallback)
}
