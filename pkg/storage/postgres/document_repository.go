package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chatdeckco/chatdeck/pkg/documents"
)

type DocumentRepository struct {
	db *DB
}

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Insert stores a new document record and assigns its id.
func (r *DocumentRepository) Insert(ctx context.Context, doc *documents.Document) error {
	err := r.db.Pool().QueryRow(ctx,
		`INSERT INTO documents (filename, file_size, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		doc.Filename, doc.FileSize, doc.CreatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*documents.Document, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, filename, file_size, created_at, embedded, embed_model
		 FROM documents
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var result []*documents.Document
	for rows.Next() {
		var doc documents.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileSize, &doc.CreatedAt, &doc.Embedded, &doc.EmbedModel); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		result = append(result, &doc)
	}

	return result, rows.Err()
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*documents.Document, error) {
	var doc documents.Document
	err := r.db.Pool().QueryRow(ctx,
		`SELECT id, filename, file_size, created_at, embedded, embed_model
		 FROM documents
		 WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Filename, &doc.FileSize, &doc.CreatedAt, &doc.Embedded, &doc.EmbedModel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, documents.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	return &doc, nil
}

func (r *DocumentRepository) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE filename = $1)`,
		filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query document existence: %w", err)
	}

	return exists, nil
}

// MarkEmbedded flips the embedded flag once all chunks are stored.
func (r *DocumentRepository) MarkEmbedded(ctx context.Context, id int64, embedModel string) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE documents SET embedded = TRUE, embed_model = $2 WHERE id = $1`,
		id, embedModel,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return documents.ErrNotFound
	}

	return nil
}
