package documents

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Document is the persisted record of an uploaded file. Records are
// never deleted; Embedded and EmbedModel are flipped once embedding
// succeeds.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"fileSize"`
	CreatedAt  time.Time `json:"uploadTimestamp"`
	Embedded   bool      `json:"isEmbedded"`
	EmbedModel string    `json:"embedModel"`
}

// Chunk is one embedded slice of a document's text.
type Chunk struct {
	Index     int
	Content   string
	Embedding []float32
}

// ChunkMatch is a similarity-search hit.
type ChunkMatch struct {
	DocumentID int64   `json:"documentId"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunkIndex"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// ErrNotFound is returned when a document id resolves to nothing.
var ErrNotFound = errors.New("document not found")

// MaxUploadSize is the upload ceiling, checked before any side effect.
const MaxUploadSize = 30 << 20 // 30 MiB

var allowedExtensions = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
}

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
}

// ValidationError marks an upload rejection that happened before any
// disk or database side effect.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateUpload enforces the pdf/plain-text and 30 MiB rules.
// The declared content type is checked when present, the extension
// always. Violations must short-circuit before disk or DB writes.
func ValidateUpload(filename string, size int64, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported file type %q, only pdf and plain text are accepted", ext),
		}
	}

	if contentType != "" {
		base := contentType
		if i := strings.Index(base, ";"); i >= 0 {
			base = strings.TrimSpace(base[:i])
		}
		if _, ok := allowedContentTypes[base]; !ok {
			return &ValidationError{
				Field:   "file",
				Message: fmt.Sprintf("unsupported content type %q", base),
			}
		}
	}

	if size > MaxUploadSize {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file size %d exceeds the %d byte limit", size, MaxUploadSize),
		}
	}

	return nil
}
