package models

import "time"

// Scope selects what semantic search ranks.
type Scope string

const (
	ScopeChunks    Scope = "chunks"
	ScopeDocuments Scope = "documents"
)

// ParseScope maps user input to a Scope. Unknown values fall back to ScopeChunks.
func ParseScope(s string) Scope {
	if Scope(s) == ScopeDocuments {
		return ScopeDocuments
	}
	return ScopeChunks
}

// Candidate is one rankable vector together with the metadata of its owning document.
type Candidate struct {
	DocumentID string
	FileName   string
	UploadedAt time.Time
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// SearchResult is a ranked hit, one per document.
type SearchResult struct {
	DocumentID string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	Score      float64   `json:"score"`
	ChunkIndex int       `json:"chunkIndex"`
	Snippet    string    `json:"snippet"`
}
