package llms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatdeckco/chatdeck/pkg/settings"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	logger := zerolog.Nop()
	return NewResolver(&Config{ModelCacheTTL: time.Minute}, &logger)
}

func tagsServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b","modified_at":"2024-05-01T10:00:00Z"}]}`)
	}))
}

func TestResolver_ManualVariantSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	server := tagsServer(t, &calls)
	defer server.Close()

	resolver := testResolver(t)
	models, err := resolver.Resolve(context.Background(), "chat", settings.Settings{
		Variant: settings.VariantManual,
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(models) != 0 {
		t.Errorf("got %d models for manual variant, want 0", len(models))
	}
	if calls.Load() != 0 {
		t.Errorf("manual variant made %d network calls, want 0", calls.Load())
	}
}

func TestResolver_CachesByKey(t *testing.T) {
	var calls atomic.Int64
	server := tagsServer(t, &calls)
	defer server.Close()

	resolver := testResolver(t)
	s := settings.Settings{
		Variant: settings.VariantOllama,
		BaseURL: server.URL,
	}

	for range 3 {
		models, err := resolver.Resolve(context.Background(), "chat", s)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(models) != 1 {
			t.Fatalf("got %d models, want 1", len(models))
		}
	}

	if calls.Load() != 1 {
		t.Errorf("repeated resolves made %d fetches, want 1", calls.Load())
	}
}

func TestResolver_KeyChangeRefetches(t *testing.T) {
	var calls atomic.Int64
	server := tagsServer(t, &calls)
	defer server.Close()

	resolver := testResolver(t)
	base := settings.Settings{
		Variant: settings.VariantOllama,
		BaseURL: server.URL,
	}

	if _, err := resolver.Resolve(context.Background(), "chat", base); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// A different purpose and a different token are different keys.
	if _, err := resolver.Resolve(context.Background(), "embedding", base); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	withToken := base
	withToken.Token = "sk-other"
	if _, err := resolver.Resolve(context.Background(), "chat", withToken); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("got %d fetches, want 3 (one per key)", calls.Load())
	}
}

func TestResolver_FetchFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	resolver := testResolver(t)
	_, err := resolver.Resolve(context.Background(), "chat", settings.Settings{
		Variant: settings.VariantOllama,
		BaseURL: server.URL,
	})
	if err == nil {
		t.Fatal("Resolve() swallowed the fetch failure")
	}
}

func TestFilter(t *testing.T) {
	models := []ModelDescriptor{
		{ID: "llama3:8b"},
		{ID: "mistral:7b"},
		{ID: "gpt-4o-mini"},
	}

	if got := Filter(models, ""); len(got) != 3 {
		t.Errorf("empty query returned %d models, want all 3", len(got))
	}

	got := Filter(models, "mistral")
	if len(got) == 0 || got[0].ID != "mistral:7b" {
		t.Errorf("Filter(mistral) best match = %v, want mistral:7b", got)
	}

	if got := Filter(models, "zzzzzz"); len(got) != 0 {
		t.Errorf("unmatched query returned %d models, want 0", len(got))
	}
}
