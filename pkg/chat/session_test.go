package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/llms"
)

// fakeStreamer replays scripted chunks, optionally holding the stream
// open until released.
type fakeStreamer struct {
	chunks []llms.StreamChunk
	hold   chan struct{}
}

func (f *fakeStreamer) StreamChat(ctx context.Context, _ string, _ []llms.Message) (<-chan llms.StreamChunk, error) {
	out := make(chan llms.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range f.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if f.hold != nil {
			select {
			case <-f.hold:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func newTestSession() *Session {
	logger := zerolog.Nop()
	return NewSession(&logger)
}

func drain(t *testing.T, chunks <-chan llms.StreamChunk) string {
	t.Helper()
	var content string
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("stream error: %v", chunk.Err)
		}
		content += chunk.Content
	}
	return content
}

func TestSession_SendStreamsAndAccumulatesHistory(t *testing.T) {
	session := newTestSession()
	session.SetModel("llama3:8b")

	streamer := &fakeStreamer{chunks: []llms.StreamChunk{
		{Content: "Hi "},
		{Content: "there"},
		{Done: true},
	}}

	chunks, err := session.Send(context.Background(), streamer, "  hello  ")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got := drain(t, chunks); got != "Hi there" {
		t.Errorf("streamed content = %q, want %q", got, "Hi there")
	}

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	if history[0].Content != "hello" {
		t.Errorf("user message = %q, want trimmed %q", history[0].Content, "hello")
	}
	if history[1].Role != "assistant" || history[1].Content != "Hi there" {
		t.Errorf("assistant message = %+v", history[1])
	}
}

func TestSession_SendGuards(t *testing.T) {
	t.Run("empty input suppressed", func(t *testing.T) {
		session := newTestSession()
		session.SetModel("llama3:8b")

		_, err := session.Send(context.Background(), &fakeStreamer{}, "   ")
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Send() error = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("no model suppressed", func(t *testing.T) {
		session := newTestSession()

		_, err := session.Send(context.Background(), &fakeStreamer{}, "hello")
		if !errors.Is(err, ErrNoModel) {
			t.Errorf("Send() error = %v, want ErrNoModel", err)
		}
	})

	t.Run("loading suppressed", func(t *testing.T) {
		session := newTestSession()
		session.SetModel("llama3:8b")
		session.SetLoading(true)

		_, err := session.Send(context.Background(), &fakeStreamer{}, "hello")
		if !errors.Is(err, ErrLoading) {
			t.Errorf("Send() error = %v, want ErrLoading", err)
		}
	})

	t.Run("stream in flight suppressed", func(t *testing.T) {
		session := newTestSession()
		session.SetModel("llama3:8b")

		hold := make(chan struct{})
		defer close(hold)
		streamer := &fakeStreamer{
			chunks: []llms.StreamChunk{{Content: "partial"}},
			hold:   hold,
		}

		chunks, err := session.Send(context.Background(), streamer, "first")
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		<-chunks // stream is now demonstrably active

		_, err = session.Send(context.Background(), streamer, "second")
		if !errors.Is(err, ErrStreamInFlight) {
			t.Errorf("Send() error = %v, want ErrStreamInFlight", err)
		}

		session.Cancel()
	})
}

func TestSession_CancelReleasesStreamAndAllowsNextSend(t *testing.T) {
	session := newTestSession()
	session.SetModel("llama3:8b")

	hold := make(chan struct{})
	defer close(hold)
	streamer := &fakeStreamer{
		chunks: []llms.StreamChunk{{Content: "partial"}},
		hold:   hold,
	}

	chunks, err := session.Send(context.Background(), streamer, "first")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	<-chunks

	session.Cancel()

	// The channel must close without further content.
	select {
	case _, open := <-chunks:
		if open {
			t.Error("chunk delivered after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after cancellation")
	}

	// Busy state must clear promptly so the next send succeeds.
	deadline := time.Now().Add(2 * time.Second)
	for session.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("session still busy after cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}

	next := &fakeStreamer{chunks: []llms.StreamChunk{
		{Content: "fresh"},
		{Done: true},
	}}
	chunks, err = session.Send(context.Background(), next, "second")
	if err != nil {
		t.Fatalf("Send() after cancel error = %v", err)
	}
	if got := drain(t, chunks); got != "fresh" {
		t.Errorf("post-cancel content = %q, want fresh", got)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	logger := zerolog.Nop()
	manager := NewManager(&logger)

	created := manager.Create()
	if got := manager.GetOrCreate(created.ID.String()); got != created {
		t.Error("GetOrCreate did not return the existing session")
	}

	if got := manager.GetOrCreate(""); got == created {
		t.Error("GetOrCreate with empty id reused an existing session")
	}
	if got := manager.GetOrCreate("not-a-uuid"); got == created {
		t.Error("GetOrCreate with a malformed id reused an existing session")
	}
}
