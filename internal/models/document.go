package models

import "time"

// DefaultFileName names documents created from pasted text without a name.
const DefaultFileName = "pasted.txt"

// Document is the owner of a chunk set. Chunks reference it by DocumentID only.
type Document struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Content    string    `json:"content"`
	UploadedAt time.Time `json:"uploadedAt"`
	Embedding  []float32 `json:"-"`
	Chunks     []Chunk   `json:"chunks,omitempty"`
}

// DocumentSummary is the listing view of a document.
type DocumentSummary struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	CharCount  int       `json:"charCount"`
	ChunkCount int       `json:"chunkCount"`
}

// Summary returns the listing view of d.
func (d Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:         d.ID,
		FileName:   d.FileName,
		UploadedAt: d.UploadedAt,
		CharCount:  len([]rune(d.Content)),
		ChunkCount: len(d.Chunks),
	}
}

// Chunk is a contiguous run of sentences embedded as one unit.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}
