package core

import "context"

// StateRepository owns the single current ConversationState record.
type StateRepository interface {
	// GetState returns the current record, or DefaultState() when none
	// exists yet.
	GetState(ctx context.Context) (ConversationState, error)

	// SetState replaces the current record. Last write wins; state is
	// advisory flavor text, not correctness-critical.
	SetState(ctx context.Context, state ConversationState) error
}

// ConcernRepository is the append-only concern log.
type ConcernRepository interface {
	LogConcern(ctx context.Context, text string) (Concern, error)

	// ListUnresolved returns open concerns ordered by creation time.
	ListUnresolved(ctx context.Context) ([]Concern, error)

	// Resolve stamps resolved_at. Resolving twice is a no-op; an unknown id
	// fails with ErrNotFound.
	Resolve(ctx context.Context, id string) error
}

// StyleRepository is the append-only learned style palette.
type StyleRepository interface {
	AddStyle(ctx context.Context, profile StyleProfile) (StyleProfile, error)
	ListStyles(ctx context.Context) ([]StyleProfile, error)
}

// VocabularyRepository tracks per-persona catchphrase usage.
type VocabularyRepository interface {
	// SampleWeighted draws n words for a persona with probability
	// proportional to usage weight. Deliberately not top-k: variety matters.
	SampleWeighted(ctx context.Context, persona string, n int) ([]string, error)

	// IncrementUsage bumps the weight of each observed word.
	IncrementUsage(ctx context.Context, persona string, words []string) error

	// ListWords returns every known word for a persona. Used to match
	// observed usage in generated lines against the tracked vocabulary.
	ListWords(ctx context.Context, persona string) ([]string, error)
}

// ExampleRepository serves canned example exchanges for few-shot flavor.
type ExampleRepository interface {
	// RandomExample returns one uniformly sampled example exchange, or ""
	// when none are stored.
	RandomExample(ctx context.Context) (string, error)
}
