package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/engine"
	"github.com/xhad/docspace/pkg/scraper"
	"github.com/xhad/docspace/pkg/store"
)

// keywordEmbedder places text on one axis per topic word it mentions.
type keywordEmbedder struct {
	mu         sync.Mutex
	embeds     int
	batches    int
	failBatch  bool
	failSingle bool
}

var topics = []string{"cat", "rocket", "garden"}

func (k *keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(topics)+1)
	hit := false
	for i, t := range topics {
		if strings.Contains(text, t) {
			v[i] = 1
			hit = true
		}
	}
	if !hit {
		v[len(topics)] = 1
	}
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum > 1 {
		for i := range v {
			v[i] /= float32(math.Sqrt(float64(sum)))
		}
	}
	return v
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.embeds++
	if k.failSingle {
		return nil, types.NewGatewayError("embed", errors.New("connection refused"))
	}
	return k.vector(text), nil
}

func (k *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.batches++
	if k.failBatch {
		return nil, types.NewGatewayError("embed batch", errors.New("connection refused"))
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = k.vector(t)
	}
	return out, nil
}

func newEngine(t *testing.T) (*engine.Engine, *keywordEmbedder) {
	t.Helper()
	emb := &keywordEmbedder{}
	e := engine.New(store.NewMemory(), emb, nil, engine.Options{}, log.New(io.Discard, "", 0))
	t.Cleanup(func() { e.Close() })
	return e, emb
}

func topicText(topic string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Sentence %d is about the %s. ", i, topic)
	}
	return b.String()
}

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	doc, err := e.CreateDocument(ctx, "", "  "+topicText("cat", 10)+topicText("rocket", 10)+"\r\n")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultFileName, doc.FileName)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, strings.HasSuffix(doc.Content, "\n"))
	assert.Len(t, doc.Chunks, 2)
	assert.Equal(t, 1, emb.batches)
	assert.Zero(t, emb.embeds)

	chunks, err := e.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Content, "cat")
	assert.Contains(t, chunks[1].Content, "rocket")

	list, err := e.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ChunkCount)
}

func TestCreateDocument_Errors(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	_, err := e.CreateDocument(ctx, "a.txt", " \r\n ")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Zero(t, emb.batches)

	emb.failBatch = true
	_, err = e.CreateDocument(ctx, "a.txt", "The cat sat.")
	assert.ErrorIs(t, err, types.ErrGateway)

	list, err := e.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "failed ingestion must not store a document")
}

func TestUploadDocument(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	doc, err := e.UploadDocument(ctx, "notes.md", strings.NewReader("# Cats\nThe cat sleeps."))
	require.NoError(t, err)
	assert.Equal(t, "notes.md", doc.FileName)

	_, err = e.UploadDocument(ctx, "image.png", strings.NewReader("data"))
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = e.UploadDocument(ctx, "empty.txt", strings.NewReader("   "))
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	small := engine.New(store.NewMemory(), &keywordEmbedder{}, nil, engine.Options{MaxUploadBytes: 8}, log.New(io.Discard, "", 0))
	_, err = small.UploadDocument(ctx, "big.txt", strings.NewReader("more than eight bytes"))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestUploadDocument_HTML(t *testing.T) {
	ctx := context.Background()
	e := engine.New(store.NewMemory(), &keywordEmbedder{}, nil,
		engine.Options{AllowedExtensions: []string{".html"}}, log.New(io.Discard, "", 0))

	doc, err := e.UploadDocument(ctx, "page.html",
		strings.NewReader(`<html><body><main><p>The garden grows.</p></main></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "The garden grows.", doc.Content)
}

func TestChunkDocumentAndRechunk(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	doc, err := e.CreateDocument(ctx, "a.txt", "The cat sat.")
	require.NoError(t, err)

	res, err := e.ChunkDocument(ctx, doc.ID, topicText("garden", 10)+topicText("rocket", 10))
	require.NoError(t, err)
	assert.Len(t, res.Chunks, 2)

	got, err := e.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Content, "garden")
	assert.Len(t, got.Chunks, 2)

	res, err = e.Rechunk(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, res.Chunks, 2)

	batches := emb.batches
	_, err = e.ChunkDocument(ctx, "missing", "Some text.")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, batches, emb.batches, "no gateway call for unknown ids")

	_, err = e.Rechunk(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestChunkDocument_GatewayFailureKeepsOldChunks(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	doc, err := e.CreateDocument(ctx, "a.txt", "The cat sat. The cat slept.")
	require.NoError(t, err)

	emb.failBatch = true
	_, err = e.ChunkDocument(ctx, doc.ID, topicText("rocket", 30))
	require.ErrorIs(t, err, types.ErrGateway)

	chunks, err := e.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "cat")
}

func TestSemanticSearch(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	cats, err := e.CreateDocument(ctx, "cats.txt", topicText("cat", 10)+topicText("garden", 10))
	require.NoError(t, err)
	rockets, err := e.CreateDocument(ctx, "rockets.txt", topicText("rocket", 5))
	require.NoError(t, err)

	embeds := emb.embeds
	results, err := e.SemanticSearch(ctx, engine.SearchRequest{Query: "garden"})
	require.NoError(t, err)
	assert.Equal(t, embeds+1, emb.embeds, "one query embedding per search")

	require.Len(t, results, 1)
	assert.Equal(t, cats.ID, results[0].DocumentID)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.LessOrEqual(t, len([]rune(results[0].Snippet)), 240)

	results, err = e.SemanticSearch(ctx, engine.SearchRequest{Query: "rocket", Scope: models.ScopeDocuments})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, rockets.ID, results[0].DocumentID)

	zero := 0.0
	results, err = e.SemanticSearch(ctx, engine.SearchRequest{Query: "rocket", MinScore: &zero, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSemanticSearch_Errors(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	_, err := e.SemanticSearch(ctx, engine.SearchRequest{Query: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Zero(t, emb.embeds)

	emb.failSingle = true
	results, err := e.SemanticSearch(ctx, engine.SearchRequest{Query: "cat"})
	assert.ErrorIs(t, err, types.ErrGateway)
	assert.Nil(t, results)
}

func TestLexicalSearch(t *testing.T) {
	ctx := context.Background()
	e, emb := newEngine(t)

	_, err := e.CreateDocument(ctx, "cat-notes.txt", "Nothing feline here.")
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "other.txt", "The cat and another cat.")
	require.NoError(t, err)
	_, err = e.CreateDocument(ctx, "garden.txt", "Only plants.")
	require.NoError(t, err)

	embeds := emb.embeds
	results, err := e.LexicalSearch(ctx, "CAT", 0)
	require.NoError(t, err)
	assert.Equal(t, embeds, emb.embeds, "keyword search does not embed")

	require.Len(t, results, 2)
	assert.Equal(t, "cat-notes.txt", results[0].FileName)
	assert.Equal(t, 5.0, results[0].Score)
	assert.Equal(t, "other.txt", results[1].FileName)
	assert.Equal(t, 2.0, results[1].Score)

	_, err = e.LexicalSearch(ctx, "", 10)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	doc, err := e.CreateDocument(ctx, "a.txt", "The cat sat.")
	require.NoError(t, err)

	require.NoError(t, e.DeleteDocument(ctx, doc.ID))
	assert.ErrorIs(t, e.DeleteDocument(ctx, doc.ID), types.ErrNotFound)

	_, err = e.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestImportURL(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><head><title>Cat Guide</title></head><body><main>
				<p>The cat sleeps all day.</p><a href="/garden.html">Garden</a></main></body></html>`)
		case "/garden.html":
			fmt.Fprint(w, `<html><body><main><p>The garden is green.</p></main></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := engine.New(store.NewMemory(), &keywordEmbedder{}, nil, engine.Options{
		Scraper: scraper.ScraperConfig{MaxDepth: 1, RateLimit: 100},
	}, log.New(io.Discard, "", 0))

	var seen []string
	docs, err := e.ImportURL(ctx, srv.URL+"/", func(u string) { seen = append(seen, u) })
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Cat Guide", docs[0].FileName)
	assert.Equal(t, srv.URL+"/garden.html", docs[1].FileName)
	assert.Len(t, seen, 2)

	_, err = e.ImportURL(ctx, "  ", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
