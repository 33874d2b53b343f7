package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// ContextBundle is everything the turn prompt is built from. Every field may
// be a zero value: context assembly degrades per source, never aborts.
type ContextBundle struct {
	Query        string
	Emotion      string
	Memories     []core.MemoryHit
	State        core.ConversationState
	VocabA       []string
	VocabB       []string
	Example      string
	OpenConcerns []core.Concern
}

type Assembler struct {
	fast     core.Generator
	memory   core.MemoryStore
	state    core.StateRepository
	vocab    core.VocabularyRepository
	examples core.ExampleRepository
	concerns core.ConcernRepository
	cfg      *config.AppConfig
}

func NewAssembler(
	fast core.Generator,
	memory core.MemoryStore,
	state core.StateRepository,
	vocab core.VocabularyRepository,
	examples core.ExampleRepository,
	concerns core.ConcernRepository,
	cfg *config.AppConfig,
) *Assembler {
	return &Assembler{
		fast:     fast,
		memory:   memory,
		state:    state,
		vocab:    vocab,
		examples: examples,
		concerns: concerns,
		cfg:      cfg,
	}
}

// Assemble gathers the retrieval bundle for one turn. The search query is
// derived first; the independent sources are then fetched in parallel, each
// one falling back to its zero value on failure.
func (a *Assembler) Assemble(ctx context.Context, input string) *ContextBundle {
	logger := log.FromCtx(ctx)

	bundle := &ContextBundle{
		Query: a.deriveQuery(ctx, input),
		State: core.DefaultState(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Emotion = a.inferEmotion(gctx, input)
		return nil
	})

	g.Go(func() error {
		hits, err := a.memory.Query(gctx, bundle.Query, a.cfg.MemoryTopK, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("memory retrieval failed, continuing without")
			return nil
		}
		bundle.Memories = hits
		return nil
	})

	g.Go(func() error {
		state, err := a.state.GetState(gctx)
		if err != nil {
			logger.Warn().Err(err).Msg("state fetch failed, using default")
			return nil
		}
		bundle.State = state
		return nil
	})

	g.Go(func() error {
		words, err := a.vocab.SampleWeighted(gctx, a.cfg.PersonaA, a.cfg.VocabSampleSize)
		if err != nil {
			logger.Warn().Err(err).Str("persona", a.cfg.PersonaA).Msg("vocab sample failed")
			return nil
		}
		bundle.VocabA = words
		return nil
	})

	g.Go(func() error {
		words, err := a.vocab.SampleWeighted(gctx, a.cfg.PersonaB, a.cfg.VocabSampleSize)
		if err != nil {
			logger.Warn().Err(err).Str("persona", a.cfg.PersonaB).Msg("vocab sample failed")
			return nil
		}
		bundle.VocabB = words
		return nil
	})

	g.Go(func() error {
		example, err := a.examples.RandomExample(gctx)
		if err != nil {
			logger.Warn().Err(err).Msg("example fetch failed")
			return nil
		}
		bundle.Example = example
		return nil
	})

	g.Go(func() error {
		open, err := a.concerns.ListUnresolved(gctx)
		if err != nil {
			logger.Warn().Err(err).Msg("concern list failed")
			return nil
		}
		bundle.OpenConcerns = open
		return nil
	})

	// Sub-sources never return errors, Wait only orders the writes.
	_ = g.Wait()

	logger.Debug().
		Int("memories", len(bundle.Memories)).
		Int("concerns", len(bundle.OpenConcerns)).
		Str("query", bundle.Query).
		Str("emotion", bundle.Emotion).
		Msg("context assembled")
	return bundle
}

const emotionNeutral = "neutral"

// inferEmotion reads the user's current feeling from their message, degrading
// to neutral on any failure.
func (a *Assembler) inferEmotion(ctx context.Context, input string) string {
	out, err := a.fast.Generate(ctx, "", fmt.Sprintf(emotionPrompt, input))
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("emotion inference failed, assuming neutral")
		return emotionNeutral
	}
	emotion := strings.TrimSpace(out)
	if emotion == "" {
		return emotionNeutral
	}
	return emotion
}

// deriveQuery asks the fast model for a keyword query, degrading to the raw
// input on any failure.
func (a *Assembler) deriveQuery(ctx context.Context, input string) string {
	out, err := a.fast.Generate(ctx, "", fmt.Sprintf(keywordPrompt, input))
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("keyword extraction failed, querying with raw input")
		return input
	}
	query := strings.TrimSpace(out)
	if query == "" {
		return input
	}
	return query
}
