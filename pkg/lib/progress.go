package lib

import (
	"io"
	"time"
)

// ProgressFunc receives the number of bytes read so far and the expected total.
type ProgressFunc func(received, total int64)

// ProgressReader wraps an io.Reader and reports read progress.
// Callbacks are throttled to at most one per interval to avoid flooding
// consumers, except for the terminal report which is always delivered.
type ProgressReader struct {
	reader   io.Reader
	total    int64
	received int64
	interval time.Duration
	lastEmit time.Time
	onChange ProgressFunc
}

func NewProgressReader(r io.Reader, total int64, interval time.Duration, onChange ProgressFunc) *ProgressReader {
	return &ProgressReader{
		reader:   r,
		total:    total,
		interval: interval,
		onChange: onChange,
	}
}

func (p *ProgressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		p.received += int64(n)
		p.emit(false)
	}
	if err == io.EOF {
		p.emit(true)
	}
	return n, err
}

// Received returns the number of bytes read so far.
func (p *ProgressReader) Received() int64 {
	return p.received
}

func (p *ProgressReader) emit(final bool) {
	if p.onChange == nil {
		return
	}

	now := time.Now()
	if !final && p.received < p.total && now.Sub(p.lastEmit) < p.interval {
		return
	}

	p.lastEmit = now
	p.onChange(p.received, p.total)
}
