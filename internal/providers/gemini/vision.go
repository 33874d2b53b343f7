package gemini

import (
	"context"
	"time"

	"google.golang.org/genai"

	"github.com/duetml/duet/internal/core"
)

// Vision describes images with the fast model. Used by style learning to
// turn a rendered image plus its prompt into a reusable style profile.
type Vision struct {
	client  *Client
	model   string
	timeout time.Duration
}

func NewVision(c *Client) *Vision {
	return &Vision{
		client:  c,
		model:   c.cfg.ModelFast,
		timeout: time.Duration(c.cfg.GenerateTimeoutSec) * time.Second,
	}
}

func (v *Vision) Describe(ctx context.Context, prompt string, img *core.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(img.Data, img.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := v.client.genai.Models.GenerateContent(ctx, v.model, contents, nil)
	if err != nil {
		return "", &core.TransportError{Op: "describe_image", Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &core.ContractError{Reason: "vision response carried no text"}
	}
	return text, nil
}
