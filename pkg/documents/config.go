package documents

type Config struct {
	UploadDir string `env:"UPLOAD_DIR,default=./uploads"`

	// WatchUploads registers files dropped into the upload directory
	// outside of the API.
	WatchUploads bool `env:"UPLOAD_WATCH,default=false"`

	EmbedWorkers int `env:"EMBED_WORKERS,default=4"`
	ChunkSize    int `env:"EMBED_CHUNK_SIZE,default=1000"`
	ChunkOverlap int `env:"EMBED_CHUNK_OVERLAP,default=200"`
}
