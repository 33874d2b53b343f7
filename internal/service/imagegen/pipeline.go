package imagegen

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// Deliver pushes an unprompted image out to the conversation surface.
type Deliver func(conversationID string, img *core.Image)

// Pipeline renders images from ideas. A failed or safety-rejected attempt
// gets exactly one retry through a prompt-refinement pass; the second failure
// is terminal and user-visible.
type Pipeline struct {
	synth   core.ImageSynthesizer
	refiner core.Generator
	styles  core.StyleRepository
	deliver Deliver
	cfg     *config.ImageConfig
}

func New(synth core.ImageSynthesizer, refiner core.Generator, styles core.StyleRepository, cfg *config.ImageConfig) *Pipeline {
	return &Pipeline{
		synth:   synth,
		refiner: refiner,
		styles:  styles,
		deliver: func(string, *core.Image) {},
		cfg:     cfg,
	}
}

// SetDeliver installs the surface callback for unprompted images. Must be
// called before serving starts.
func (p *Pipeline) SetDeliver(fn Deliver) {
	if fn != nil {
		p.deliver = fn
	}
}

// Render synthesizes one image for the idea.
func (p *Pipeline) Render(ctx context.Context, idea core.ImageIdea) (*core.Image, error) {
	if !p.cfg.Enabled {
		return nil, &core.DependencyUnavailable{Dep: "imagegen", Err: fmt.Errorf("image synthesis disabled")}
	}

	logger := log.FromCtx(ctx)
	style := p.pickStyle(ctx)
	prompt := composePrompt(idea, style)

	img, err := p.synth.Synthesize(ctx, prompt, negativePrompt)
	if err == nil {
		return img, nil
	}
	logger.Warn().Err(err).Str("style", style.Name).Msg("first synthesis attempt failed, refining prompt")

	refined, refineErr := p.refinePrompt(ctx, prompt, style)
	if refineErr != nil {
		logger.Warn().Err(refineErr).Msg("prompt refinement failed, retrying with original prompt")
		refined = prompt
	}

	img, err = p.synth.Synthesize(ctx, refined, negativePrompt)
	if err != nil {
		return nil, fmt.Errorf("image synthesis failed after refinement retry: %w", err)
	}
	return img, nil
}

// Surprise renders an unprompted image and hands it to the surface. Failures
// are logged and swallowed: a missed surprise is invisible.
func (p *Pipeline) Surprise(ctx context.Context, conversationID string, idea core.ImageIdea) {
	if !p.cfg.Enabled {
		return
	}
	img, err := p.Render(ctx, idea)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("surprise image failed")
		return
	}
	p.deliver(conversationID, img)
}

// pickStyle samples uniformly from the learned palette, falling back to the
// built-in one while the palette is empty or unreadable.
func (p *Pipeline) pickStyle(ctx context.Context) core.StyleAnalysis {
	learned, err := p.styles.ListStyles(ctx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("style palette unavailable, using fallback")
	}
	if len(learned) > 0 {
		return learned[rand.Intn(len(learned))].Analysis
	}
	return fallbackPalette[rand.Intn(len(fallbackPalette))]
}

func (p *Pipeline) refinePrompt(ctx context.Context, rejected string, style core.StyleAnalysis) (string, error) {
	out, err := p.refiner.Generate(ctx, "",
		fmt.Sprintf(refinePromptTemplate, strings.Join(style.Keywords, ", "), rejected))
	if err != nil {
		return "", err
	}
	refined := strings.TrimSpace(out)
	if refined == "" {
		return "", fmt.Errorf("refinement returned empty prompt")
	}
	return refined, nil
}
