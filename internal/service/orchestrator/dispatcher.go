package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
	"github.com/duetml/duet/pkg/pool"
)

// SurpriseSink receives the unprompted-image trigger when the judgement call
// decides the moment deserves one.
type SurpriseSink interface {
	Surprise(ctx context.Context, conversationID string, idea core.ImageIdea)
}

// NoticeSink receives unprompted moderator asides, like a music suggestion.
type NoticeSink interface {
	Notice(ctx context.Context, conversationID, text string)
}

// Dispatcher fans the post-turn side effects out onto the worker pool. Jobs
// are independent, fire-and-forget and individually logged; the turn never
// waits for them, so the next turn may read slightly stale state.
type Dispatcher struct {
	pool     *pool.Pool
	fast     core.Generator
	memory   core.MemoryStore
	state    core.StateRepository
	concerns core.ConcernRepository
	vocab    core.VocabularyRepository
	surprise SurpriseSink
	notices  NoticeSink
	cfg      *config.AppConfig

	mu           sync.Mutex
	lastSurprise time.Time
}

func NewDispatcher(
	p *pool.Pool,
	fast core.Generator,
	memory core.MemoryStore,
	state core.StateRepository,
	concerns core.ConcernRepository,
	vocab core.VocabularyRepository,
	surprise SurpriseSink,
	cfg *config.AppConfig,
) *Dispatcher {
	return &Dispatcher{
		pool:     p,
		fast:     fast,
		memory:   memory,
		state:    state,
		concerns: concerns,
		vocab:    vocab,
		surprise: surprise,
		cfg:      cfg,
	}
}

// SetNotices wires the transport that renders moderator asides. Without one
// the music suggestion job never runs.
func (d *Dispatcher) SetNotices(n NoticeSink) {
	d.notices = n
}

// Dispatch submits the side-effect jobs for a successfully parsed turn. The
// jobs outlive the turn, so they run on a context detached from the caller's
// cancellation but keeping its logger.
func (d *Dispatcher) Dispatch(ctx context.Context, conversationID, input, emotion string, payload *core.TurnPayload) {
	bg := context.WithoutCancel(ctx)
	reply := joinDialogue(payload.Dialogue)

	d.submit(bg, "memory_ingest", func(ctx context.Context) error {
		return d.summarizeAndIngest(ctx, input, reply)
	})
	d.submit(bg, "mood_update", func(ctx context.Context) error {
		return d.updateMood(ctx, input, reply)
	})
	d.submit(bg, "concern_detect", func(ctx context.Context) error {
		return d.detectConcern(ctx, input)
	})
	d.submit(bg, "concern_resolve", func(ctx context.Context) error {
		return d.resolveConcerns(ctx, input)
	})
	d.submit(bg, "vocab_count", func(ctx context.Context) error {
		return d.countVocabulary(ctx, payload.Dialogue)
	})
	if payload.ImageIdea == nil {
		d.submit(bg, "surprise_gate", func(ctx context.Context) error {
			return d.judgeSurprise(ctx, conversationID, input, reply)
		})
	}
	if d.notices != nil && rand.Float64() < d.cfg.BGMSuggestChance {
		d.submit(bg, "bgm_suggest", func(ctx context.Context) error {
			return d.suggestBGM(ctx, conversationID, emotion)
		})
	}
}

func (d *Dispatcher) submit(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := d.pool.Submit(ctx, name, fn); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("job", name).Msg("side effect dropped")
	}
}

func (d *Dispatcher) summarizeAndIngest(ctx context.Context, input, reply string) error {
	summary, err := d.fast.Generate(ctx, "", fmt.Sprintf(summarizePrompt, input, reply))
	if err != nil {
		return fmt.Errorf("summarize exchange: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil
	}

	n, err := d.memory.Ingest(ctx, summary, map[string]string{
		"source": "turn",
		"date":   time.Now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("ingest summary: %w", err)
	}
	log.FromCtx(ctx).Debug().Int("chunks", n).Msg("exchange remembered")
	return nil
}

func (d *Dispatcher) updateMood(ctx context.Context, input, reply string) error {
	prompt := fmt.Sprintf(moodPrompt,
		d.cfg.PersonaA, d.cfg.PersonaB, d.cfg.PersonaA, d.cfg.PersonaB, input, reply)
	out, err := d.fast.Generate(ctx, "", prompt)
	if err != nil {
		return fmt.Errorf("mood inference: %w", err)
	}

	var inferred struct {
		MoodA   string `json:"mood_a"`
		MoodB   string `json:"mood_b"`
		Summary string `json:"summary"`
	}
	if !extractJSON(out, &inferred) || inferred.Summary == "" {
		return fmt.Errorf("mood inference returned no usable JSON")
	}

	return d.state.SetState(ctx, core.ConversationState{
		MoodA:   inferred.MoodA,
		MoodB:   inferred.MoodB,
		Summary: inferred.Summary,
	})
}

func (d *Dispatcher) detectConcern(ctx context.Context, input string) error {
	out, err := d.fast.Generate(ctx, "", fmt.Sprintf(concernPrompt, input))
	if err != nil {
		return fmt.Errorf("concern detection: %w", err)
	}

	var detected struct {
		Concern *string `json:"concern"`
	}
	if !extractJSON(out, &detected) || detected.Concern == nil || *detected.Concern == "" {
		return nil
	}

	concern, err := d.concerns.LogConcern(ctx, *detected.Concern)
	if err != nil {
		return err
	}
	log.FromCtx(ctx).Info().Str("id", concern.ID).Str("text", concern.Text).Msg("concern noted")
	return nil
}

func (d *Dispatcher) resolveConcerns(ctx context.Context, input string) error {
	open, err := d.concerns.ListUnresolved(ctx)
	if err != nil || len(open) == 0 {
		return err
	}

	var list strings.Builder
	for _, c := range open {
		fmt.Fprintf(&list, "- id=%s: %s\n", c.ID, c.Text)
	}

	out, err := d.fast.Generate(ctx, "", fmt.Sprintf(concernResolvedPrompt, list.String(), input))
	if err != nil {
		return fmt.Errorf("concern resolution: %w", err)
	}

	var resolved struct {
		ResolvedID *string `json:"resolved_id"`
	}
	if !extractJSON(out, &resolved) || resolved.ResolvedID == nil || *resolved.ResolvedID == "" {
		return nil
	}

	if err := d.concerns.Resolve(ctx, *resolved.ResolvedID); err != nil {
		return fmt.Errorf("resolve concern %s: %w", *resolved.ResolvedID, err)
	}
	log.FromCtx(ctx).Info().Str("id", *resolved.ResolvedID).Msg("concern resolved")
	return nil
}

// countVocabulary bumps the weight of every tracked word that actually
// appeared in a persona's lines this turn.
func (d *Dispatcher) countVocabulary(ctx context.Context, dialogue []core.DialogueLine) error {
	spoken := map[string]string{}
	for _, line := range dialogue {
		persona := strings.ToLower(line.Speaker)
		spoken[persona] += " " + strings.ToLower(line.Line)
	}

	for _, persona := range []string{d.cfg.PersonaA, d.cfg.PersonaB} {
		text, ok := spoken[strings.ToLower(persona)]
		if !ok {
			continue
		}
		known, err := d.vocab.ListWords(ctx, persona)
		if err != nil {
			return fmt.Errorf("list vocabulary for %s: %w", persona, err)
		}
		var used []string
		for _, word := range known {
			if strings.Contains(text, word) {
				used = append(used, word)
			}
		}
		if len(used) == 0 {
			continue
		}
		if err := d.vocab.IncrementUsage(ctx, persona, used); err != nil {
			return fmt.Errorf("bump vocabulary for %s: %w", persona, err)
		}
	}
	return nil
}

// judgeSurprise runs the unprompted-image gate: at most one surprise per
// cooldown window, and only when the judgement call answers YES.
func (d *Dispatcher) judgeSurprise(ctx context.Context, conversationID, input, reply string) error {
	cooldown := time.Duration(d.cfg.SurpriseCooldownMinutes) * time.Minute

	d.mu.Lock()
	if time.Since(d.lastSurprise) < cooldown {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	out, err := d.fast.Generate(ctx, "", fmt.Sprintf(surprisePrompt, input, reply))
	if err != nil {
		return fmt.Errorf("surprise judgement: %w", err)
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(out)), "YES") {
		return nil
	}

	d.mu.Lock()
	if time.Since(d.lastSurprise) < cooldown {
		d.mu.Unlock()
		return nil
	}
	d.lastSurprise = time.Now()
	d.mu.Unlock()

	d.surprise.Surprise(ctx, conversationID, core.ImageIdea{
		Situation: input,
		Mood:      "spontaneous",
	})
	return nil
}

// suggestBGM offers a piece of music matching the turn's emotion, delivered
// as a moderator aside.
func (d *Dispatcher) suggestBGM(ctx context.Context, conversationID, emotion string) error {
	if d.notices == nil {
		return nil
	}
	if emotion == "" {
		emotion = "neutral"
	}

	out, err := d.fast.Generate(ctx, "", fmt.Sprintf(bgmPrompt, emotion))
	if err != nil {
		return fmt.Errorf("bgm suggestion: %w", err)
	}
	suggestion := strings.TrimSpace(out)
	if suggestion == "" {
		return nil
	}

	d.notices.Notice(ctx, conversationID, suggestion)
	return nil
}

// extractJSON pulls the first JSON object out of model text, tolerating a
// fenced block or loose surrounding prose.
func extractJSON(text string, v any) bool {
	candidate := ""
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		candidate = scanBalanced(text)
	}
	if candidate == "" {
		return false
	}
	return json.Unmarshal([]byte(candidate), v) == nil
}
