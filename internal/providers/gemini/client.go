package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
)

// Client owns the shared genai connection. Per-concern wrappers (Generator,
// Embedder, Imagen) hang off it so the process holds one backend client.
type Client struct {
	genai *genai.Client
	cfg   *config.GeminiConfig
}

func NewClient(ctx context.Context, cfg *config.GeminiConfig) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{genai: c, cfg: cfg}, nil
}

// Generator issues single completion calls against one model. Timeouts are
// applied per call, not per turn.
type Generator struct {
	client  *Client
	model   string
	timeout time.Duration
}

// NewGenerator returns a Generator bound to the pro (per-turn) model.
func NewGenerator(c *Client) *Generator {
	return &Generator{
		client:  c,
		model:   c.cfg.ModelPro,
		timeout: time.Duration(c.cfg.GenerateTimeoutSec) * time.Second,
	}
}

// NewFastGenerator returns a Generator bound to the cheap auxiliary model
// used for keyword extraction, mood inference and judgement calls.
func NewFastGenerator(c *Client) *Generator {
	return &Generator{
		client:  c,
		model:   c.cfg.ModelFast,
		timeout: time.Duration(c.cfg.GenerateTimeoutSec) * time.Second,
	}
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := g.client.genai.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", &core.TransportError{Op: "generate", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &core.ContractError{Reason: "generation returned no text"}
	}
	return text, nil
}
