// Package store persists documents and their chunk sets. Three backends share
// the types.DocumentStore contract: PostgreSQL with pgvector, SQLite, and an
// in-process map used by tests and throwaway runs.
package store

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xhad/docspace/internal/models"
	"github.com/xhad/docspace/internal/types"
)

// Backend drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Driver     string
	ConnString string
	Path       string
	VectorDim  int
}

// Open returns the backend selected by config.Driver.
func Open(config Config) (types.DocumentStore, error) {
	switch config.Driver {
	case DriverPostgres:
		return NewWithConfig(VectorStoreConfig{
			ConnString: config.ConnString,
			VectorDim:  config.VectorDim,
		})
	case DriverSQLite, "":
		return NewSQLite(config.Path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", config.Driver)
	}
}

// prepare fills in ids, owner references and the upload time before a write.
func prepare(doc *models.Document, chunks []models.Chunk) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if doc.FileName == "" {
		doc.FileName = models.DefaultFileName
	}
	doc.FileName = sanitizeUTF8(doc.FileName)
	doc.Content = sanitizeUTF8(doc.Content)
	prepareChunks(doc.ID, chunks)
}

func prepareChunks(docID string, chunks []models.Chunk) {
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		chunks[i].DocumentID = docID
		chunks[i].Content = sanitizeUTF8(chunks[i].Content)
	}
}

func notFound(id string) error {
	return fmt.Errorf("document %s: %w", id, types.ErrNotFound)
}

// sanitizeUTF8 drops invalid bytes, which PostgreSQL rejects in TEXT columns.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
