package gemini

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
)

// Imagen renders a single image per request. Safety filtering surfaces as
// *core.SafetyRejection so callers can run their refinement retry instead
// of a transport retry.
type Imagen struct {
	client  *Client
	model   string
	timeout time.Duration
}

func NewImagen(c *Client, cfg *config.ImageConfig) *Imagen {
	return &Imagen{
		client:  c,
		model:   cfg.Model,
		timeout: time.Duration(cfg.SynthesizeTimeoutSec) * time.Second,
	}
}

func (im *Imagen) Synthesize(ctx context.Context, prompt, negativePrompt string) (*core.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()

	resp, err := im.client.genai.Models.GenerateImages(ctx, im.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		NegativePrompt: negativePrompt,
	})
	if err != nil {
		return nil, &core.TransportError{Op: "generate_images", Err: err}
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, &core.SafetyRejection{Reason: "all candidates filtered"}
	}

	gen := resp.GeneratedImages[0]
	if gen.RAIFilteredReason != "" {
		return nil, &core.SafetyRejection{Reason: gen.RAIFilteredReason}
	}
	if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
		return nil, &core.ContractError{Reason: "image response carried no bytes"}
	}

	return &core.Image{
		Data:     gen.Image.ImageBytes,
		MIMEType: gen.Image.MIMEType,
		Prompt:   prompt,
	}, nil
}
