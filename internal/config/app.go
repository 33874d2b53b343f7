package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/duetml/duet/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"DUET_RUNTIME_PATH" envDefault:".duet"`

	// Persona flavor. Wording lives in runtime template files; these are
	// only the speaker labels the output contract refers to.
	PersonaA  string `env:"DUET_PERSONA_A" envDefault:"aya"`
	PersonaB  string `env:"DUET_PERSONA_B" envDefault:"rin"`
	Moderator string `env:"DUET_MODERATOR" envDefault:"iris"`

	// Retrieval tuning.
	MemoryTopK      int     `env:"DUET_MEMORY_TOP_K" envDefault:"8"`
	SimilarityFloor float64 `env:"DUET_SIMILARITY_FLOOR" envDefault:"0.35"`
	VocabSampleSize int     `env:"DUET_VOCAB_SAMPLE" envDefault:"3"`

	// Sync/async bridge. Zero workers means one per CPU.
	PoolWorkers   int `env:"DUET_POOL_WORKERS" envDefault:"0"`
	PoolQueueSize int `env:"DUET_POOL_QUEUE" envDefault:"64"`

	// Unprompted-image gate: at most one surprise image per cooldown window.
	SurpriseCooldownMinutes int `env:"DUET_SURPRISE_COOLDOWN_MIN" envDefault:"180"`

	// Chance per turn that the moderator suggests music for the current mood.
	BGMSuggestChance float64 `env:"DUET_BGM_CHANCE" envDefault:"0.15"`

	EnableCLI bool `env:"DUET_ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "duet.db")
}

func (c AppConfig) GetMemoryPath() string {
	return filepath.Join(c.RuntimePath, "memory")
}

func (c AppConfig) GetPersonaPromptPath() string {
	return filepath.Join(c.RuntimePath, "PERSONAS.md")
}
