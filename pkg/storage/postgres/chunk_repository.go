package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/chatdeckco/chatdeck/pkg/documents"
)

type ChunkRepository struct {
	db *DB
}

func NewChunkRepository(db *DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceForDocument atomically swaps a document's chunks for a fresh
// embedding run. Re-embedding with another model must not leave stale
// vectors behind.
func (r *ChunkRepository) ReplaceForDocument(ctx context.Context, documentID int64, chunks []documents.Chunk) error {
	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`, documentID,
	); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	for _, chunk := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (document_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4)`,
			documentID, chunk.Index, chunk.Content, pgvector.NewVector(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Search returns the chunks closest to the query embedding by cosine
// distance, most similar first.
func (r *ChunkRepository) Search(ctx context.Context, queryEmbedding []float32, limit int) ([]*documents.ChunkMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT c.document_id, d.filename, c.chunk_index, c.content,
		        (1 - (c.embedding <=> $1)) AS similarity
		 FROM document_chunks c
		 JOIN documents d ON d.id = c.document_id
		 ORDER BY c.embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(queryEmbedding), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var result []*documents.ChunkMatch
	for rows.Next() {
		var m documents.ChunkMatch
		if err := rows.Scan(&m.DocumentID, &m.Filename, &m.ChunkIndex, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		result = append(result, &m)
	}

	return result, rows.Err()
}
