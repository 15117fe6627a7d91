package lib

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestProgressReader_ThrottlesAndReportsFinal(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 10_000)

	var reports [][2]int64
	reader := NewProgressReader(bytes.NewReader(payload), int64(len(payload)), time.Hour,
		func(received, total int64) {
			reports = append(reports, [2]int64{received, total})
		})

	// Tiny reads: without throttling this would emit thousands of times.
	buf := make([]byte, 100)
	if _, err := io.CopyBuffer(onlyWriter{io.Discard}, onlyReader{reader}, buf); err != nil {
		t.Fatalf("copy: %v", err)
	}

	// First read, the read reaching the total, and the EOF report.
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	final := reports[len(reports)-1]
	if final[0] != int64(len(payload)) || final[1] != int64(len(payload)) {
		t.Errorf("final report = %d/%d, want %d/%d", final[0], final[1], len(payload), len(payload))
	}
}

func TestProgressReader_EmitsEveryIntervalWhenSlow(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 300)

	var reports int
	reader := NewProgressReader(&slowReader{r: bytes.NewReader(payload), delay: 5 * time.Millisecond},
		int64(len(payload)), time.Millisecond,
		func(received, total int64) { reports++ })

	buf := make([]byte, 100)
	if _, err := io.CopyBuffer(onlyWriter{io.Discard}, onlyReader{reader}, buf); err != nil {
		t.Fatalf("copy: %v", err)
	}

	if reports < 3 {
		t.Errorf("got %d reports, want one per read when the interval has elapsed", reports)
	}
}

func TestProgressReader_NilCallback(t *testing.T) {
	payload := []byte("no callback")
	reader := NewProgressReader(bytes.NewReader(payload), int64(len(payload)), time.Millisecond, nil)

	out, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Errorf("read %q, want %q", out, payload)
	}
	if reader.Received() != int64(len(payload)) {
		t.Errorf("Received() = %d, want %d", reader.Received(), len(payload))
	}
}

// onlyReader and onlyWriter hide ReadFrom/WriteTo so io.CopyBuffer honors the
// buffer size.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }

type slowReader struct {
	r     io.Reader
	delay time.Duration
}

func (s *slowReader) Read(p []byte) (int, error) {
	time.Sleep(s.delay)
	return s.r.Read(p)
}
