package core

import "context"

// Generator is the text generation backend. One Generate call carries the
// full assembled context; the pipeline never streams.
type Generator interface {
	// Generate produces a completion for prompt under the given system
	// instruction. Network failures surface as *TransportError.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Embedder converts text into vectors for similarity search. Document and
// query embeddings use asymmetric task types.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ImageSynthesizer is the image generation backend. A safety-filtered
// request surfaces as *SafetyRejection.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt, negativePrompt string) (*Image, error)
}

// MemoryStore is chunked, deduplicated vector ingestion and similarity query.
type MemoryStore interface {
	// Ingest chunks, embeds and upserts text. Best effort per chunk; returns
	// how many chunks were stored.
	Ingest(ctx context.Context, text string, metadata map[string]string) (int, error)

	// Query returns the top-k nearest chunks. An empty corpus yields an
	// empty slice, never an error.
	Query(ctx context.Context, text string, k int, filter map[string]string) ([]MemoryHit, error)
}
