package ability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// ErrNoHistory means the memory store holds nothing to report on yet.
var ErrNoHistory = errors.New("no conversation history recorded yet")

// reportTopK bounds how many remembered summaries feed one report.
const reportTopK = 20

const reportQuery = "summary of our conversations and memorable moments"

const reportPrompt = `You are writing a warm growth report for the user, based on
the remembered conversation summaries below. Cover three angles: how the user's
thinking has shifted, how the two companions' personalities have evolved, and
how the relationship between everyone has deepened. Ground each point in a
concrete remembered moment.

Remembered summaries:
%s`

// Reporter builds a growth report out of the accumulated conversation
// memories. One retrieval, one generation call.
type Reporter struct {
	gen    core.Generator
	memory core.MemoryStore
}

func NewReporter(gen core.Generator, memory core.MemoryStore) *Reporter {
	return &Reporter{gen: gen, memory: memory}
}

func (r *Reporter) Report(ctx context.Context) (string, error) {
	hits, err := r.memory.Query(ctx, reportQuery, reportTopK, nil)
	if err != nil {
		return "", fmt.Errorf("report retrieval: %w", err)
	}
	if len(hits) == 0 {
		return "", ErrNoHistory
	}

	var list strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&list, "- %s\n", hit.Content)
	}

	out, err := r.gen.Generate(ctx, "", fmt.Sprintf(reportPrompt, list.String()))
	if err != nil {
		return "", fmt.Errorf("report generation: %w", err)
	}

	log.FromCtx(ctx).Debug().Int("summaries", len(hits)).Msg("growth report generated")
	return strings.TrimSpace(out), nil
}
