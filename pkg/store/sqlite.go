package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xhad/docspace/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	file_name   TEXT NOT NULL,
	content     TEXT NOT NULL,
	uploaded_at INTEGER NOT NULL,
	embedding   BLOB
);

CREATE TABLE IF NOT EXISTS document_chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	embedding   BLOB NOT NULL,
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at);
CREATE INDEX IF NOT EXISTS idx_document_chunks_document_id ON document_chunks(document_id);
`

// SQLite stores vectors as little-endian float32 BLOBs and upload times as
// Unix nanoseconds.
type SQLite struct {
	db *sqlx.DB
}

type documentRow struct {
	ID         string `db:"id"`
	FileName   string `db:"file_name"`
	Content    string `db:"content"`
	UploadedAt int64  `db:"uploaded_at"`
	Embedding  []byte `db:"embedding"`
}

func (r documentRow) document() models.Document {
	return models.Document{
		ID:         r.ID,
		FileName:   r.FileName,
		Content:    r.Content,
		UploadedAt: time.Unix(0, r.UploadedAt).UTC(),
		Embedding:  decodeVector(r.Embedding),
	}
}

type chunkRow struct {
	ID         string `db:"id"`
	DocumentID string `db:"document_id"`
	ChunkIndex int    `db:"chunk_index"`
	Content    string `db:"content"`
	Embedding  []byte `db:"embedding"`
}

type candidateRow struct {
	chunkRow
	FileName   string `db:"file_name"`
	UploadedAt int64  `db:"uploaded_at"`
}

type summaryRow struct {
	ID         string `db:"id"`
	FileName   string `db:"file_name"`
	UploadedAt int64  `db:"uploaded_at"`
	CharCount  int    `db:"char_count"`
	ChunkCount int    `db:"chunk_count"`
}

// NewSQLite opens (creating if needed) the database file at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "docspace.db"
	}

	db, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer keeps transactions from failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	prepare(doc, chunks)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, content, uploaded_at, embedding) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.FileName, doc.Content, doc.UploadedAt.UnixNano(), encodeVector(doc.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := insertChunksSQLite(ctx, tx, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) ReplaceChunks(ctx context.Context, id, content string, embedding []float32, chunks []models.Chunk) error {
	prepareChunks(id, chunks)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET content = ?, embedding = ? WHERE id = ?`,
		sanitizeUTF8(content), encodeVector(embedding), id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := insertChunksSQLite(ctx, tx, chunks); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertChunksSQLite(ctx context.Context, tx *sqlx.Tx, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.ChunkIndex, c.Content, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
		}
	}
	return nil
}

func (s *SQLite) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, file_name, content, uploaded_at, embedding FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc := row.document()
	if doc.Chunks, err = s.chunks(ctx, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *SQLite) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	var rows []summaryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT d.id, d.file_name, d.uploaded_at,
			length(d.content) AS char_count,
			(SELECT count(*) FROM document_chunks c WHERE c.document_id = d.id) AS chunk_count
		FROM documents d
		ORDER BY d.uploaded_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	out := make([]models.DocumentSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.DocumentSummary{
			ID:         r.ID,
			FileName:   r.FileName,
			UploadedAt: time.Unix(0, r.UploadedAt).UTC(),
			CharCount:  r.CharCount,
			ChunkCount: r.ChunkCount,
		})
	}
	return out, nil
}

func (s *SQLite) ListChunks(ctx context.Context, id string) ([]models.Chunk, error) {
	var exists int
	err := s.db.GetContext(ctx, &exists, `SELECT 1 FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}
	return s.chunks(ctx, id)
}

func (s *SQLite) chunks(ctx context.Context, id string) ([]models.Chunk, error) {
	var rows []chunkRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, document_id, chunk_index, content, embedding
		FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	out := make([]models.Chunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Chunk{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
			Content:    r.Content,
			Embedding:  decodeVector(r.Embedding),
		})
	}
	return out, nil
}

func (s *SQLite) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLite) RecentChunkCandidates(ctx context.Context, limit int) ([]models.Candidate, error) {
	var rows []candidateRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding,
			d.file_name, d.uploaded_at
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY d.uploaded_at DESC, d.id, c.chunk_index
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk candidates: %w", err)
	}

	out := make([]models.Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Candidate{
			DocumentID: r.DocumentID,
			FileName:   r.FileName,
			UploadedAt: time.Unix(0, r.UploadedAt).UTC(),
			ChunkIndex: r.ChunkIndex,
			Content:    r.Content,
			Embedding:  decodeVector(r.Embedding),
		})
	}
	return out, nil
}

func (s *SQLite) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, file_name, content, uploaded_at, embedding
		FROM documents ORDER BY uploaded_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	out := make([]models.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.document())
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
