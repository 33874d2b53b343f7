package ability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/duetml/duet/internal/core"
)

type stubMemory struct {
	hits []core.MemoryHit
}

func (m *stubMemory) Ingest(context.Context, string, map[string]string) (int, error) {
	return 0, nil
}

func (m *stubMemory) Query(context.Context, string, int, map[string]string) ([]core.MemoryHit, error) {
	return m.hits, nil
}

func TestReport_GroundsOnRememberedSummaries(t *testing.T) {
	t.Parallel()

	memory := &stubMemory{hits: []core.MemoryHit{
		{Content: "talked about the rooftop garden plan"},
		{Content: "celebrated finishing the portfolio"},
	}}
	gen := &capturingGen{}

	out, err := NewReporter(gen, memory).Report(context.Background())
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("Report made %d generation calls, want 1", gen.calls)
	}
	for _, want := range []string{"rooftop garden plan", "finishing the portfolio"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing remembered summary %q", want)
		}
	}
	if out != "a tidy result" {
		t.Errorf("Report = %q, want trimmed output", out)
	}
}

func TestReport_EmptyMemory(t *testing.T) {
	t.Parallel()

	gen := &capturingGen{}
	_, err := NewReporter(gen, &stubMemory{}).Report(context.Background())
	if !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
	if gen.calls != 0 {
		t.Error("empty memory must not hit the model")
	}
}
