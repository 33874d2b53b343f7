package orchestrator

import (
	"context"
	"time"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/retry"
)

// Invoker issues the single per-turn generation request. Transport failures
// get bounded fixed-backoff retries; everything else returns immediately.
// There is no semantic retry on malformed output, the parser handles that.
type Invoker struct {
	gen     core.Generator
	retrier *retry.Retrier
}

func NewInvoker(gen core.Generator, cfg *config.GeminiConfig) *Invoker {
	return &Invoker{
		gen: gen,
		retrier: retry.NewRetrier(retry.NewFixedConfig(
			cfg.MaxRetries,
			time.Duration(cfg.RetryBackoffSec)*time.Second,
		)),
	}
}

func (i *Invoker) Invoke(ctx context.Context, system, prompt string) (string, error) {
	var out string
	err := i.retrier.DoIf(ctx, func() error {
		var genErr error
		out, genErr = i.gen.Generate(ctx, system, prompt)
		return genErr
	}, core.IsRetryable)
	if err != nil {
		return "", err
	}
	return out, nil
}
