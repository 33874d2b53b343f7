package imagegen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// Describer extracts text from an image with a vision model.
type Describer interface {
	Describe(ctx context.Context, prompt string, img *core.Image) (string, error)
}

const styleAnalysisPrompt = `Describe the visual style of this image as JSON:
{"style_name": "<two or three words>", "style_keywords": ["<five to eight short
style keywords>"], "style_description": "<one sentence>"}
Focus on rendering technique, palette and lighting, not the subject. Reply with
the JSON object only.`

// Learner turns images the user liked into reusable style profiles.
type Learner struct {
	vision Describer
	styles core.StyleRepository
}

func NewLearner(vision Describer, styles core.StyleRepository) *Learner {
	return &Learner{vision: vision, styles: styles}
}

// AnalyzeStyle asks the vision model for the image's style attributes and
// appends the result to the palette.
func (l *Learner) AnalyzeStyle(ctx context.Context, img *core.Image, sourcePrompt string) (core.StyleProfile, error) {
	out, err := l.vision.Describe(ctx, styleAnalysisPrompt, img)
	if err != nil {
		return core.StyleProfile{}, fmt.Errorf("style analysis call failed: %w", err)
	}

	analysis, err := parseStyleAnalysis(out)
	if err != nil {
		return core.StyleProfile{}, err
	}

	profile, err := l.styles.AddStyle(ctx, core.StyleProfile{
		SourcePrompt: sourcePrompt,
		Analysis:     analysis,
	})
	if err != nil {
		return core.StyleProfile{}, fmt.Errorf("failed to store style profile: %w", err)
	}

	log.FromCtx(ctx).Info().Str("style", profile.Analysis.Name).Msg("style learned")
	return profile, nil
}

func parseStyleAnalysis(text string) (core.StyleAnalysis, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return core.StyleAnalysis{}, fmt.Errorf("style analysis returned no JSON")
	}

	var analysis core.StyleAnalysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &analysis); err != nil {
		return core.StyleAnalysis{}, fmt.Errorf("style analysis returned malformed JSON: %w", err)
	}
	if analysis.Name == "" || len(analysis.Keywords) == 0 {
		return core.StyleAnalysis{}, fmt.Errorf("style analysis missing name or keywords")
	}
	return analysis, nil
}
