package memstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto"
	chromem "github.com/philippgille/chromem-go"

	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/internal/providers/rag"
	"github.com/duetml/duet/pkg/log"
)

const collectionName = "memories"

// Store is the persistent vector memory. Documents are chunked and keyed by
// content hash, so re-ingesting the same text is a harmless overwrite rather
// than a duplicate.
type Store struct {
	col      *chromem.Collection
	embedder core.Embedder
	cache    *ristretto.Cache
	chunkCfg rag.ChunkerConfig
	floor    float32
}

func New(path string, embedder core.Embedder, floor float32) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory db: %w", err)
	}

	// Embeddings are always supplied by us, chromem never calls its own
	// embedding func.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory collection: %w", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return &Store{
		col:      col,
		embedder: embedder,
		cache:    cache,
		chunkCfg: rag.DefaultChunkerConfig(),
		floor:    floor,
	}, nil
}

// Ingest chunks the text, embeds each chunk and stores it under its content
// hash. Ingestion is best effort per chunk: a failed chunk is logged and
// skipped, and the count of stored chunks is returned.
func (s *Store) Ingest(ctx context.Context, text string, metadata map[string]string) (int, error) {
	chunks := rag.ChunkText(text, s.chunkCfg)
	if len(chunks) == 0 {
		return 0, nil
	}

	logger := log.FromCtx(ctx)
	stored := 0
	var lastErr error
	for _, chunk := range chunks {
		id := contentID(chunk.Text)

		embedding, err := s.embedDocument(ctx, id, chunk.Text)
		if err != nil {
			logger.Warn().Err(err).Int("chunk", chunk.Index).Msg("failed to embed chunk, skipping")
			lastErr = err
			continue
		}

		meta := make(map[string]string, len(metadata)+1)
		for k, v := range metadata {
			meta[k] = v
		}
		meta["chunk"] = strconv.Itoa(chunk.Index)

		err = s.col.AddDocument(ctx, chromem.Document{
			ID:        id,
			Content:   chunk.Text,
			Embedding: embedding,
			Metadata:  meta,
		})
		if err != nil {
			logger.Warn().Err(err).Int("chunk", chunk.Index).Msg("failed to store chunk, skipping")
			lastErr = err
			continue
		}
		stored++
	}

	if stored == 0 && lastErr != nil {
		return 0, fmt.Errorf("no chunks stored: %w", lastErr)
	}

	logger.Debug().Int("stored", stored).Int("chunks", len(chunks)).Msg("ingested memory")
	return stored, nil
}

// Query embeds the text and returns up to k hits at or above the similarity
// floor. An empty corpus yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, text string, k int, filter map[string]string) ([]core.MemoryHit, error) {
	count := s.col.Count()
	if count == 0 || k <= 0 {
		return []core.MemoryHit{}, nil
	}
	if k > count {
		k = count
	}

	embedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, k, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("memory query failed: %w", err)
	}

	hits := make([]core.MemoryHit, 0, len(results))
	for _, res := range results {
		if res.Similarity < s.floor {
			continue
		}
		hits = append(hits, core.MemoryHit{
			ID:         res.ID,
			Content:    res.Content,
			Metadata:   res.Metadata,
			Similarity: res.Similarity,
		})
	}
	return hits, nil
}

// Count reports the number of stored chunks.
func (s *Store) Count() int {
	return s.col.Count()
}

// Canary probes the store with a zero vector so a broken memory backend
// fails loudly at startup instead of silently degrading every turn.
func (s *Store) Canary(ctx context.Context) error {
	if s.col.Count() == 0 {
		return nil
	}
	zero := make([]float32, s.embedder.Dimensions())
	if _, err := s.col.QueryEmbedding(ctx, zero, 1, nil, nil); err != nil {
		return &core.DependencyUnavailable{Dep: "memory", Err: err}
	}
	return nil
}

func (s *Store) embedDocument(ctx context.Context, id, text string) ([]float32, error) {
	if cached, ok := s.cache.Get(id); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := s.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, vec, int64(len(vec)*4))
	return vec, nil
}

// contentID derives a stable document id from whitespace-normalized chunk
// text. Identical content always maps to the same id.
func contentID(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
