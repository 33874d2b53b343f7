package gemini

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/duetml/duet/internal/core"
)

// Embedder produces dense vectors for memory ingestion and query. Documents
// and queries use distinct task types so the backend optimizes each side of
// the retrieval pair.
type Embedder struct {
	client  *Client
	model   string
	dims    int
	timeout time.Duration
}

func NewEmbedder(c *Client) *Embedder {
	return &Embedder{
		client:  c,
		model:   c.cfg.EmbeddingModel,
		dims:    c.cfg.EmbeddingDims,
		timeout: time.Duration(c.cfg.EmbedTimeoutSec) * time.Second,
	}
}

func (e *Embedder) Dimensions() int { return e.dims }

func (e *Embedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (e *Embedder) embed(ctx context.Context, text string, task string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := e.client.genai.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, &core.TransportError{Op: "embed", Err: err}
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &core.ContractError{Reason: "embedding response carried no vector"}
	}
	return resp.Embeddings[0].Values, nil
}
