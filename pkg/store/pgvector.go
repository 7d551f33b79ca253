package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/docspace/internal/models"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	ChunksTable string
	VectorDim   int
}

// VectorStore keeps documents in PostgreSQL with pgvector columns. Ranking is
// done in process, so no vector index is created.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.ChunksTable == "" {
		config.ChunksTable = "document_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 384 // all-MiniLM-L6-v2
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			content TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim),

		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			UNIQUE (document_id, chunk_index)
		)`, vs.config.ChunksTable, vs.config.TableName, vs.config.VectorDim),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_uploaded_at_idx ON %s (uploaded_at DESC)`,
			vs.config.TableName, vs.config.TableName),
	}

	for _, stmt := range stmts {
		if _, err := vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// vectorArg maps an empty embedding to NULL.
func vectorArg(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

func (vs *VectorStore) CreateDocument(ctx context.Context, doc *models.Document, chunks []models.Chunk) error {
	prepare(doc, chunks)

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, file_name, content, uploaded_at, embedding)
		VALUES ($1, $2, $3, $4, $5)`, vs.config.TableName),
		doc.ID, doc.FileName, doc.Content, doc.UploadedAt, vectorArg(doc.Embedding))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	if err := vs.insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (vs *VectorStore) ReplaceChunks(ctx context.Context, id, content string, embedding []float32, chunks []models.Chunk) error {
	prepareChunks(id, chunks)

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET content = $2, embedding = $3 WHERE id = $1`, vs.config.TableName),
		id, sanitizeUTF8(content), vectorArg(embedding))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, vs.config.ChunksTable), id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if err := vs.insertChunks(ctx, tx, chunks); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (vs *VectorStore) insertChunks(ctx context.Context, tx pgx.Tx, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)`, vs.config.ChunksTable)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(stmt, c.ID, c.DocumentID, c.ChunkIndex, c.Content, pgvector.NewVector(c.Embedding))
	}

	results := tx.SendBatch(ctx, batch)
	for _, c := range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", c.ChunkIndex, err)
		}
	}
	return results.Close()
}

func (vs *VectorStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	docs, err := vs.queryDocuments(ctx, fmt.Sprintf(`
		SELECT id, file_name, content, uploaded_at, embedding
		FROM %s WHERE id = $1`, vs.config.TableName), id)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, notFound(id)
	}

	doc := docs[0]
	if doc.Chunks, err = vs.chunks(ctx, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (vs *VectorStore) ListDocuments(ctx context.Context) ([]models.DocumentSummary, error) {
	rows, err := vs.pool.Query(ctx, fmt.Sprintf(`
		SELECT d.id, d.file_name, d.uploaded_at, char_length(d.content),
			(SELECT count(*) FROM %s c WHERE c.document_id = d.id)
		FROM %s d
		ORDER BY d.uploaded_at DESC, d.id`, vs.config.ChunksTable, vs.config.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []models.DocumentSummary
	for rows.Next() {
		var s models.DocumentSummary
		if err := rows.Scan(&s.ID, &s.FileName, &s.UploadedAt, &s.CharCount, &s.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.UploadedAt = s.UploadedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (vs *VectorStore) ListChunks(ctx context.Context, id string) ([]models.Chunk, error) {
	var one int
	err := vs.pool.QueryRow(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1`, vs.config.TableName), id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}
	return vs.chunks(ctx, id)
}

func (vs *VectorStore) chunks(ctx context.Context, id string) ([]models.Chunk, error) {
	rows, err := vs.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, document_id, chunk_index, content, embedding
		FROM %s WHERE document_id = $1 ORDER BY chunk_index`, vs.config.ChunksTable), id)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var out []models.Chunk
	for rows.Next() {
		var (
			c   models.Chunk
			vec pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		c.Embedding = vec.Slice()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (vs *VectorStore) DeleteDocument(ctx context.Context, id string) error {
	tag, err := vs.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, vs.config.TableName), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (vs *VectorStore) RecentChunkCandidates(ctx context.Context, limit int) ([]models.Candidate, error) {
	rows, err := vs.pool.Query(ctx, fmt.Sprintf(`
		SELECT c.document_id, d.file_name, d.uploaded_at, c.chunk_index, c.content, c.embedding
		FROM %s c
		JOIN %s d ON d.id = c.document_id
		ORDER BY d.uploaded_at DESC, d.id, c.chunk_index
		LIMIT $1`, vs.config.ChunksTable, vs.config.TableName), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var (
			c   models.Candidate
			vec pgvector.Vector
		)
		if err := rows.Scan(&c.DocumentID, &c.FileName, &c.UploadedAt, &c.ChunkIndex, &c.Content, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		c.UploadedAt = c.UploadedAt.UTC()
		c.Embedding = vec.Slice()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (vs *VectorStore) RecentDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	return vs.queryDocuments(ctx, fmt.Sprintf(`
		SELECT id, file_name, content, uploaded_at, embedding
		FROM %s ORDER BY uploaded_at DESC, id LIMIT $1`, vs.config.TableName), limit)
}

func (vs *VectorStore) queryDocuments(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc models.Document
			vec *pgvector.Vector
		)
		if err := rows.Scan(&doc.ID, &doc.FileName, &doc.Content, &doc.UploadedAt, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		doc.UploadedAt = doc.UploadedAt.UTC()
		if vec != nil {
			doc.Embedding = vec.Slice()
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (vs *VectorStore) Close() error {
	if vs.pool != nil {
		vs.pool.Close()
	}
	return nil
}
