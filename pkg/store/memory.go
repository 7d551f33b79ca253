package store

import (
	"context"
	"sort"
	"sync"

	"github.com/xhad/docspace/internal/models"
)

// Memory keeps everything in process. Reads return copies, so callers never
// observe a chunk set that is being replaced.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]models.Document
	chunks map[string][]models.Chunk
}

func NewMemory() *Memory {
	return &Memory{
		docs:   make(map[string]models.Document),
		chunks: make(map[string][]models.Chunk),
	}
}

func (m *Memory) CreateDocument(_ context.Context, doc *models.Document, chunks []models.Chunk) error {
	prepare(doc, chunks)

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *doc
	stored.Chunks = nil
	stored.Embedding = cloneVector(doc.Embedding)
	m.docs[doc.ID] = stored
	m.chunks[doc.ID] = cloneChunks(chunks)
	return nil
}

func (m *Memory) ReplaceChunks(_ context.Context, id, content string, embedding []float32, chunks []models.Chunk) error {
	prepareChunks(id, chunks)

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return notFound(id)
	}
	doc.Content = sanitizeUTF8(content)
	doc.Embedding = cloneVector(embedding)
	m.docs[id] = doc
	m.chunks[id] = cloneChunks(chunks)
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	doc.Embedding = cloneVector(doc.Embedding)
	doc.Chunks = cloneChunks(m.chunks[id])
	return &doc, nil
}

func (m *Memory) ListDocuments(_ context.Context) ([]models.DocumentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.DocumentSummary, 0, len(m.docs))
	for _, d := range m.sortedDocs() {
		d.Chunks = m.chunks[d.ID]
		out = append(out, d.Summary())
	}
	return out, nil
}

func (m *Memory) ListChunks(_ context.Context, id string) ([]models.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.docs[id]; !ok {
		return nil, notFound(id)
	}
	return cloneChunks(m.chunks[id]), nil
}

func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return notFound(id)
	}
	delete(m.docs, id)
	delete(m.chunks, id)
	return nil
}

func (m *Memory) RecentChunkCandidates(_ context.Context, limit int) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Candidate
	for _, d := range m.sortedDocs() {
		for _, c := range m.chunks[d.ID] {
			if len(out) >= limit {
				return out, nil
			}
			out = append(out, models.Candidate{
				DocumentID: d.ID,
				FileName:   d.FileName,
				UploadedAt: d.UploadedAt,
				ChunkIndex: c.ChunkIndex,
				Content:    c.Content,
				Embedding:  cloneVector(c.Embedding),
			})
		}
	}
	return out, nil
}

func (m *Memory) RecentDocuments(_ context.Context, limit int) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.sortedDocs()
	if len(docs) > limit {
		docs = docs[:limit]
	}
	for i := range docs {
		docs[i].Embedding = cloneVector(docs[i].Embedding)
	}
	return docs, nil
}

func (m *Memory) Close() error { return nil }

// sortedDocs returns the documents newest first. Callers hold the lock.
func (m *Memory) sortedDocs() []models.Document {
	docs := make([]models.Document, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

func cloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	return append([]float32(nil), v...)
}

func cloneChunks(chunks []models.Chunk) []models.Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]models.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = cloneVector(c.Embedding)
		out[i] = c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}
