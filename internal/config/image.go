package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/duetml/duet/pkg/log"
)

type ImageConfig struct {
	Enabled bool   `env:"DUET_IMAGE_ENABLED" envDefault:"false"`
	Model   string `env:"DUET_IMAGE_MODEL" envDefault:"imagen-4.0-generate-001"`

	SynthesizeTimeoutSec int `env:"DUET_IMAGE_TIMEOUT_SEC" envDefault:"120"`
}

func NewImageConfig(ctx context.Context) *ImageConfig {
	c := &ImageConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse image config")
	}
	return c
}
