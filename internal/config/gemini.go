package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/duetml/duet/pkg/log"
)

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY,required,notEmpty"`

	// Pro drives the per-turn reply; Fast covers cheap auxiliary calls
	// (keyword extraction, mood inference, judgement).
	ModelPro  string `env:"DUET_MODEL_PRO" envDefault:"gemini-2.5-pro"`
	ModelFast string `env:"DUET_MODEL_FAST" envDefault:"gemini-2.0-flash"`

	EmbeddingModel string `env:"DUET_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	EmbeddingDims  int    `env:"DUET_EMBEDDING_DIMS" envDefault:"3072"`

	// Per-call timeouts, seconds. Timeouts are per external call, never per
	// whole turn.
	GenerateTimeoutSec int `env:"DUET_GENERATE_TIMEOUT_SEC" envDefault:"120"`
	EmbedTimeoutSec    int `env:"DUET_EMBED_TIMEOUT_SEC" envDefault:"30"`

	MaxRetries      int `env:"DUET_GENERATE_MAX_RETRIES" envDefault:"2"`
	RetryBackoffSec int `env:"DUET_GENERATE_RETRY_BACKOFF_SEC" envDefault:"2"`
}

func NewGeminiConfig(ctx context.Context) *GeminiConfig {
	c := &GeminiConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Gemini config")
	}
	return c
}
