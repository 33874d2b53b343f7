package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/pool"
)

// genFunc adapts a function to core.Generator for per-test scripted output.
type genFunc func(prompt string) (string, error)

func (f genFunc) Generate(_ context.Context, _, prompt string) (string, error) {
	return f(prompt)
}

type recordingVocab struct {
	known       map[string][]string
	incremented map[string][]string
}

func (v *recordingVocab) SampleWeighted(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func (v *recordingVocab) ListWords(_ context.Context, persona string) ([]string, error) {
	return v.known[persona], nil
}

func (v *recordingVocab) IncrementUsage(_ context.Context, persona string, words []string) error {
	if v.incremented == nil {
		v.incremented = map[string][]string{}
	}
	v.incremented[persona] = append(v.incremented[persona], words...)
	return nil
}

type recordingConcerns struct {
	open     []core.Concern
	logged   []string
	resolved []string
}

func (c *recordingConcerns) LogConcern(_ context.Context, text string) (core.Concern, error) {
	c.logged = append(c.logged, text)
	return core.Concern{ID: "c-new", Text: text}, nil
}

func (c *recordingConcerns) ListUnresolved(context.Context) ([]core.Concern, error) {
	return c.open, nil
}

func (c *recordingConcerns) Resolve(_ context.Context, id string) error {
	c.resolved = append(c.resolved, id)
	return nil
}

type countingSink struct{ calls int }

func (s *countingSink) Surprise(context.Context, string, core.ImageIdea) { s.calls++ }

type recordingNotices struct{ texts []string }

func (n *recordingNotices) Notice(_ context.Context, _, text string) {
	n.texts = append(n.texts, text)
}

func newTestDispatcher(gen core.Generator, state core.StateRepository, concerns core.ConcernRepository, vocab core.VocabularyRepository, sink SurpriseSink) *Dispatcher {
	return NewDispatcher(pool.New(1, 8), gen, &fakeMemory{}, state, concerns, vocab, sink, testAppConfig())
}

func TestDispatcher_UpdateMood(t *testing.T) {
	t.Parallel()

	gen := genFunc(func(string) (string, error) {
		return "```json\n" + `{"mood_a": "giddy", "mood_b": "calm", "summary": "made weekend plans"}` + "\n```", nil
	})
	state := &fakeState{state: core.DefaultState()}
	d := newTestDispatcher(gen, state, &recordingConcerns{}, &recordingVocab{}, &countingSink{})

	require.NoError(t, d.updateMood(context.Background(), "let's go hiking", "aya: yes!!"))
	require.Equal(t, "giddy", state.state.MoodA)
	require.Equal(t, "calm", state.state.MoodB)
	require.Equal(t, "made weekend plans", state.state.Summary)
}

func TestDispatcher_UpdateMoodRejectsGarbage(t *testing.T) {
	t.Parallel()

	gen := genFunc(func(string) (string, error) { return "sorry, I can't do JSON today", nil })
	state := &fakeState{state: core.DefaultState()}
	d := newTestDispatcher(gen, state, &recordingConcerns{}, &recordingVocab{}, &countingSink{})

	require.Error(t, d.updateMood(context.Background(), "hi", "aya: hi"))
	require.Equal(t, core.DefaultState().Summary, state.state.Summary, "state must not change on garbage")
}

func TestDispatcher_CountVocabulary(t *testing.T) {
	t.Parallel()

	vocab := &recordingVocab{known: map[string][]string{
		"aya": {"totally!", "whoa"},
		"rin": {"hmm"},
	}}
	d := newTestDispatcher(genFunc(func(string) (string, error) { return "", nil }),
		&fakeState{}, &recordingConcerns{}, vocab, &countingSink{})

	dialogue := []core.DialogueLine{
		{Speaker: "aya", Line: "Totally! let's do it"},
		{Speaker: "rin", Line: "fine by me."},
	}
	require.NoError(t, d.countVocabulary(context.Background(), dialogue))
	require.Equal(t, []string{"totally!"}, vocab.incremented["aya"])
	require.Empty(t, vocab.incremented["rin"], "rin never said hmm")
}

func TestDispatcher_DetectConcern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		out        string
		wantLogged int
	}{
		{"concern found", `{"concern": "exam on friday"}`, 1},
		{"no concern", `{"concern": null}`, 0},
		{"garbage output", "not json", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			concerns := &recordingConcerns{}
			d := newTestDispatcher(genFunc(func(string) (string, error) { return tt.out, nil }),
				&fakeState{}, concerns, &recordingVocab{}, &countingSink{})

			err := d.detectConcern(context.Background(), "I have an exam on friday...")
			if tt.name == "garbage output" {
				require.NoError(t, err)
			}
			require.Len(t, concerns.logged, tt.wantLogged)
		})
	}
}

func TestDispatcher_ResolveConcern(t *testing.T) {
	t.Parallel()

	concerns := &recordingConcerns{open: []core.Concern{{ID: "c-9", Text: "exam on friday"}}}
	gen := genFunc(func(string) (string, error) { return `{"resolved_id": "c-9"}`, nil })
	d := newTestDispatcher(gen, &fakeState{}, concerns, &recordingVocab{}, &countingSink{})

	require.NoError(t, d.resolveConcerns(context.Background(), "the exam went great!"))
	require.Equal(t, []string{"c-9"}, concerns.resolved)
}

func TestDispatcher_SurpriseCooldown(t *testing.T) {
	t.Parallel()

	judgements := 0
	gen := genFunc(func(string) (string, error) {
		judgements++
		return "YES", nil
	})
	sink := &countingSink{}
	d := newTestDispatcher(gen, &fakeState{}, &recordingConcerns{}, &recordingVocab{}, sink)
	ctx := context.Background()

	require.NoError(t, d.judgeSurprise(ctx, "conv", "we adopted a kitten!", "aya: KITTEN"))
	require.Equal(t, 1, sink.calls)

	// Inside the cooldown window: no judgement call, no surprise.
	require.NoError(t, d.judgeSurprise(ctx, "conv", "she's so tiny", "aya: so tiny!!"))
	require.Equal(t, 1, sink.calls)
	require.Equal(t, 1, judgements, "gate must short-circuit before the model call")
}

func TestDispatcher_SuggestBGM(t *testing.T) {
	t.Parallel()

	var prompt string
	gen := genFunc(func(p string) (string, error) {
		prompt = p
		return "  How about some quiet jazz, like Waltz for Debby?  ", nil
	})
	notices := &recordingNotices{}
	d := newTestDispatcher(gen, &fakeState{}, &recordingConcerns{}, &recordingVocab{}, &countingSink{})
	d.SetNotices(notices)

	require.NoError(t, d.suggestBGM(context.Background(), "conv", "wistful"))
	require.Contains(t, prompt, "wistful")
	require.Equal(t, []string{"How about some quiet jazz, like Waltz for Debby?"}, notices.texts)
}

func TestDispatcher_SuggestBGMWithoutSink(t *testing.T) {
	t.Parallel()

	calls := 0
	gen := genFunc(func(string) (string, error) {
		calls++
		return "anything", nil
	})
	d := newTestDispatcher(gen, &fakeState{}, &recordingConcerns{}, &recordingVocab{}, &countingSink{})

	require.NoError(t, d.suggestBGM(context.Background(), "conv", "wistful"))
	require.Zero(t, calls, "no sink means no model call")
}

func TestDispatcher_SurpriseNoMeansNo(t *testing.T) {
	t.Parallel()

	sink := &countingSink{}
	d := newTestDispatcher(genFunc(func(string) (string, error) { return "NO", nil }),
		&fakeState{}, &recordingConcerns{}, &recordingVocab{}, sink)

	require.NoError(t, d.judgeSurprise(context.Background(), "conv", "I sneezed", "rin: bless you."))
	require.Zero(t, sink.calls)
}
