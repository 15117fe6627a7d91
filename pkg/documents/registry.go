package documents

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/lib"
	"github.com/chatdeckco/chatdeck/pkg/llms"
)

// progressInterval throttles upload progress reports to ~10 per second.
const progressInterval = 100 * time.Millisecond

type docStore interface {
	Insert(ctx context.Context, doc *Document) error
	List(ctx context.Context) ([]*Document, error)
	GetByID(ctx context.Context, id int64) (*Document, error)
	MarkEmbedded(ctx context.Context, id int64, embedModel string) error
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
}

type chunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID int64, chunks []Chunk) error
	Search(ctx context.Context, queryEmbedding []float32, limit int) ([]*ChunkMatch, error)
}

// Registry owns the document upload and embedding pipeline.
type Registry struct {
	logger  *zerolog.Logger
	config  *Config
	docs    docStore
	chunks  chunkStore
	tracker *Tracker
}

func NewRegistry(logger *zerolog.Logger, config *Config, docs docStore, chunks chunkStore) *Registry {
	return &Registry{
		logger:  logger,
		config:  config,
		docs:    docs,
		chunks:  chunks,
		tracker: NewTracker(),
	}
}

// Tracker exposes the upload lifecycle state.
func (r *Registry) Tracker() *Tracker {
	return r.tracker
}

// List returns all document records, newest first.
func (r *Registry) List(ctx context.Context) ([]*Document, error) {
	return r.docs.List(ctx)
}

// Upload validates, persists to disk and records a new document.
// Validation failures happen before any disk or database write. On
// success the stored byte count is reported through the tracker with
// progress throttled to roughly ten updates per second.
func (r *Registry) Upload(ctx context.Context, filename string, size int64, contentType string, reader io.Reader) (*Document, error) {
	r.tracker.BeginValidation()

	filename = filepath.Base(filename)
	if err := ValidateUpload(filename, size, contentType); err != nil {
		r.tracker.Fail(filename, err)
		return nil, err
	}

	r.tracker.BeginUpload(size)

	if err := os.MkdirAll(r.config.UploadDir, 0o755); err != nil {
		r.tracker.Fail(filename, err)
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dst := filepath.Join(r.config.UploadDir, filename)
	file, err := os.Create(dst)
	if err != nil {
		r.tracker.Fail(filename, err)
		return nil, fmt.Errorf("create file: %w", err)
	}

	progress := lib.NewProgressReader(reader, size, progressInterval, r.tracker.Progress)
	written, err := io.Copy(file, io.LimitReader(progress, MaxUploadSize+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > MaxUploadSize {
		err = &ValidationError{Field: "file", Message: "file exceeds the upload size limit"}
	}
	if err != nil {
		os.Remove(dst)
		r.tracker.Fail(filename, err)
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc := &Document{
		Filename:  filename,
		FileSize:  written,
		CreatedAt: time.Now(),
	}
	if err := r.docs.Insert(ctx, doc); err != nil {
		os.Remove(dst)
		r.tracker.Fail(filename, err)
		return nil, fmt.Errorf("record document: %w", err)
	}

	r.tracker.Succeed(filename)

	r.logger.Info().
		Int64("id", doc.ID).
		Str("filename", filename).
		Int64("size", written).
		Msg("document uploaded")

	return doc, nil
}

// Embed chunks the stored file, embeds every chunk and stores the
// vectors. The record's embedded flag and model are updated only after
// all chunks are in place; on failure the record stays unembedded.
func (r *Registry) Embed(ctx context.Context, id int64, embedder llms.Embedder) (*Document, error) {
	doc, err := r.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(r.config.UploadDir, doc.Filename)
	text, err := extractText(path)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", doc.Filename, err)
	}

	parts := splitText(text, r.config.ChunkSize, r.config.ChunkOverlap)
	if len(parts) == 0 {
		return nil, fmt.Errorf("document %s has no extractable text", doc.Filename)
	}

	chunks := make([]Chunk, len(parts))
	pool := pond.NewPool(r.config.EmbedWorkers)

	var mu sync.Mutex
	var embedErr error

	for i, content := range parts {
		pool.Submit(func() {
			embeddings, err := embedder.EmbedTexts(ctx, []string{content})
			if err != nil {
				mu.Lock()
				if embedErr == nil {
					embedErr = fmt.Errorf("embed chunk %d: %w", i, err)
				}
				mu.Unlock()
				return
			}

			chunks[i] = Chunk{
				Index:     i,
				Content:   content,
				Embedding: embeddings[0],
			}
		})
	}

	pool.StopAndWait()

	if embedErr != nil {
		return nil, embedErr
	}

	if err := r.chunks.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	if err := r.docs.MarkEmbedded(ctx, doc.ID, embedder.Model()); err != nil {
		return nil, fmt.Errorf("mark embedded: %w", err)
	}

	doc.Embedded = true
	doc.EmbedModel = embedder.Model()

	r.logger.Info().
		Int64("id", doc.ID).
		Str("model", embedder.Model()).
		Int("chunks", len(chunks)).
		Msg("document embedded")

	return doc, nil
}

// Search embeds the query and returns the closest stored chunks.
func (r *Registry) Search(ctx context.Context, embedder llms.Embedder, query string, limit int) ([]*ChunkMatch, error) {
	embeddings, err := embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return r.chunks.Search(ctx, embeddings[0], limit)
}

// Register records a file that is already on disk (drop-folder path).
// The same validation rules apply; files already recorded are skipped.
func (r *Registry) Register(ctx context.Context, path string) (*Document, error) {
	filename := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if err := ValidateUpload(filename, info.Size(), ""); err != nil {
		return nil, err
	}

	exists, err := r.docs.ExistsByFilename(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("check existing record: %w", err)
	}
	if exists {
		return nil, nil
	}

	doc := &Document{
		Filename:  filename,
		FileSize:  info.Size(),
		CreatedAt: time.Now(),
	}
	if err := r.docs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}

	r.logger.Info().
		Int64("id", doc.ID).
		Str("filename", filename).
		Msg("dropped document registered")

	return doc, nil
}
