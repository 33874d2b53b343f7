package imagegen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
)

type rejectingSynth struct {
	rejections int
	prompts    []string
}

func (f *rejectingSynth) Synthesize(_ context.Context, prompt, _ string) (*core.Image, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.prompts) <= f.rejections {
		return nil, &core.SafetyRejection{Reason: "flagged"}
	}
	return &core.Image{Data: []byte{1}, MIMEType: "image/png", Prompt: prompt}, nil
}

type fakeRefiner struct {
	out   string
	calls int
}

func (f *fakeRefiner) Generate(context.Context, string, string) (string, error) {
	f.calls++
	return f.out, nil
}

type fakeStyles struct {
	profiles []core.StyleProfile
}

func (f *fakeStyles) AddStyle(_ context.Context, p core.StyleProfile) (core.StyleProfile, error) {
	p.ID = "style-1"
	f.profiles = append(f.profiles, p)
	return p, nil
}

func (f *fakeStyles) ListStyles(context.Context) ([]core.StyleProfile, error) {
	return f.profiles, nil
}

func enabledConfig() *config.ImageConfig {
	return &config.ImageConfig{Enabled: true, Model: "test", SynthesizeTimeoutSec: 5}
}

func TestRender_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	synth := &rejectingSynth{}
	refiner := &fakeRefiner{out: "refined"}
	p := New(synth, refiner, &fakeStyles{}, enabledConfig())

	img, err := p.Render(context.Background(), core.ImageIdea{
		Personas:  []string{"aya", "rin"},
		Situation: "sharing an umbrella in the rain",
		Mood:      "cozy",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img == nil || len(img.Data) == 0 {
		t.Fatal("expected image bytes")
	}
	if refiner.calls != 0 {
		t.Error("refinement should not run on success")
	}
	if !strings.Contains(synth.prompts[0], "sharing an umbrella") {
		t.Errorf("prompt missing situation: %q", synth.prompts[0])
	}
	if !strings.Contains(synth.prompts[0], qualityKeywords) {
		t.Error("prompt missing quality keywords")
	}
}

func TestRender_OneRefinementRetryOnRejection(t *testing.T) {
	t.Parallel()
	synth := &rejectingSynth{rejections: 1}
	refiner := &fakeRefiner{out: "a wholesome rewritten prompt, soft anime style"}
	p := New(synth, refiner, &fakeStyles{}, enabledConfig())

	img, err := p.Render(context.Background(), core.ImageIdea{Situation: "picnic"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img == nil {
		t.Fatal("expected image after retry")
	}
	if refiner.calls != 1 {
		t.Errorf("refiner called %d times, want 1", refiner.calls)
	}
	if len(synth.prompts) != 2 {
		t.Fatalf("expected 2 synthesis attempts, got %d", len(synth.prompts))
	}
	if synth.prompts[1] != "a wholesome rewritten prompt, soft anime style" {
		t.Errorf("retry did not use refined prompt: %q", synth.prompts[1])
	}
}

func TestRender_SecondRejectionIsTerminal(t *testing.T) {
	t.Parallel()
	synth := &rejectingSynth{rejections: 2}
	p := New(synth, &fakeRefiner{out: "still flagged somehow"}, &fakeStyles{}, enabledConfig())

	_, err := p.Render(context.Background(), core.ImageIdea{Situation: "picnic"})
	if err == nil {
		t.Fatal("expected terminal error after second rejection")
	}
	if len(synth.prompts) != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", len(synth.prompts))
	}
}

func TestRender_DisabledIsUnavailable(t *testing.T) {
	t.Parallel()
	p := New(&rejectingSynth{}, &fakeRefiner{}, &fakeStyles{}, &config.ImageConfig{Enabled: false})

	_, err := p.Render(context.Background(), core.ImageIdea{Situation: "picnic"})
	var unavailable *core.DependencyUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DependencyUnavailable, got %v", err)
	}
}

func TestRender_LearnedStyleWinsOverFallback(t *testing.T) {
	t.Parallel()
	styles := &fakeStyles{profiles: []core.StyleProfile{{
		Analysis: core.StyleAnalysis{
			Name:     "festival watercolor",
			Keywords: []string{"watercolor", "lantern light"},
		},
	}}}
	synth := &rejectingSynth{}
	p := New(synth, &fakeRefiner{}, styles, enabledConfig())

	if _, err := p.Render(context.Background(), core.ImageIdea{Situation: "night market"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(synth.prompts[0], "lantern light") {
		t.Errorf("learned style keywords missing from prompt: %q", synth.prompts[0])
	}
}

func TestLearner_AnalyzeStyle(t *testing.T) {
	t.Parallel()
	styles := &fakeStyles{}
	vision := describerFunc(func(context.Context, string, *core.Image) (string, error) {
		return "Sure! ```json\n" + `{"style_name": "inky noir", "style_keywords": ["high contrast", "ink wash"], "style_description": "stark ink wash with deep shadows"}` + "\n```", nil
	})
	learner := NewLearner(vision, styles)

	profile, err := learner.AnalyzeStyle(context.Background(), &core.Image{Data: []byte{1}}, "two figures in the rain")
	if err != nil {
		t.Fatalf("AnalyzeStyle failed: %v", err)
	}
	if profile.Analysis.Name != "inky noir" {
		t.Errorf("style name = %q", profile.Analysis.Name)
	}
	if len(styles.profiles) != 1 || styles.profiles[0].SourcePrompt != "two figures in the rain" {
		t.Errorf("profile not stored correctly: %+v", styles.profiles)
	}
}

type describerFunc func(context.Context, string, *core.Image) (string, error)

func (f describerFunc) Describe(ctx context.Context, prompt string, img *core.Image) (string, error) {
	return f(ctx, prompt, img)
}
