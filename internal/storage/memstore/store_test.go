package memstore

import (
	"context"
	"strings"
	"testing"
)

// fakeEmbedder maps keyword mentions to fixed unit vectors so similarities
// are predictable.
type fakeEmbedder struct{}

func (fakeEmbedder) Dimensions() int { return 4 }

func (f fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

func (f fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vector(text), nil
}

func (fakeEmbedder) vector(text string) []float32 {
	switch {
	case strings.Contains(text, "cat"):
		return []float32{1, 0, 0, 0}
	case strings.Contains(text, "dog"):
		return []float32{0, 1, 0, 0}
	default:
		return []float32{0, 0, 1, 0}
	}
}

func newTestStore(t *testing.T, floor float32) *Store {
	t.Helper()
	store, err := New(t.TempDir(), fakeEmbedder{}, floor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func TestStore_QueryEmptyCorpus(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 0.35)

	hits, err := store.Query(context.Background(), "anything about cats", 5, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits from empty corpus, got %d", len(hits))
	}
}

func TestStore_IngestIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 0)
	ctx := context.Background()

	text := "the cat slept on the warm windowsill all afternoon."
	n1, err := store.Ingest(ctx, text, nil)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if n1 == 0 {
		t.Fatal("expected at least one chunk stored")
	}

	n2, err := store.Ingest(ctx, text, nil)
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	if n2 != n1 {
		t.Errorf("re-ingest stored %d chunks, want %d", n2, n1)
	}
	if store.Count() != n1 {
		t.Errorf("corpus grew on re-ingest: count = %d, want %d", store.Count(), n1)
	}
}

func TestStore_QuerySimilarityFloor(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 0.35)
	ctx := context.Background()

	if _, err := store.Ingest(ctx, "the cat knocked a glass off the table.", nil); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := store.Ingest(ctx, "the dog barked at the mail carrier.", nil); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	hits, err := store.Query(ctx, "what did the cat do?", 10, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected only the cat memory above the floor, got %d hits", len(hits))
	}
	if !strings.Contains(hits[0].Content, "cat") {
		t.Errorf("wrong hit: %q", hits[0].Content)
	}
	if hits[0].Similarity < 0.9 {
		t.Errorf("expected near-perfect similarity, got %f", hits[0].Similarity)
	}
}

func TestStore_QueryHonorsK(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 0)
	ctx := context.Background()

	texts := []string{
		"the cat chased a moth.",
		"the cat hid in a cardboard box.",
		"the cat stared at the ceiling.",
	}
	for _, text := range texts {
		if _, err := store.Ingest(ctx, text, nil); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	hits, err := store.Query(ctx, "cat stories", 2, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}

	// Asking for more than stored clamps instead of erroring.
	hits, err = store.Query(ctx, "cat stories", 50, nil)
	if err != nil {
		t.Fatalf("Query with oversized k failed: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected all 3 hits, got %d", len(hits))
	}
}

func TestStore_CanaryOnEmptyStore(t *testing.T) {
	t.Parallel()
	store := newTestStore(t, 0.35)

	if err := store.Canary(context.Background()); err != nil {
		t.Errorf("Canary on empty store should pass, got %v", err)
	}
}
