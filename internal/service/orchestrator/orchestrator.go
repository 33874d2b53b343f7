package orchestrator

import (
	"context"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/core"
	"github.com/duetml/duet/pkg/log"
)

// ImageRenderer is the synchronous image entry used when the user confirms a
// pending proposal.
type ImageRenderer interface {
	Render(ctx context.Context, idea core.ImageIdea) (*core.Image, error)
}

// TurnResult is what the transport renders. On PARSED_FALLBACK the raw model
// text is set instead of structured dialogue; on ABORTED the dialogue carries
// the single in-persona failure line.
type TurnResult struct {
	State    core.TurnState
	Dialogue []core.DialogueLine
	Raw      string
	Image    *core.Image
}

// Orchestrator runs the per-turn pipeline:
// RECEIVED -> CONTEXT_ASSEMBLED -> GENERATED -> PARSED{OK|FALLBACK} ->
// DISPATCHED, or ABORTED when the one generation call fails terminally.
type Orchestrator struct {
	assembler  *Assembler
	invoker    *Invoker
	dispatcher *Dispatcher
	confirm    *Confirmations
	images     ImageRenderer
	system     string
	cfg        *config.AppConfig
}

func New(
	assembler *Assembler,
	invoker *Invoker,
	dispatcher *Dispatcher,
	confirm *Confirmations,
	images ImageRenderer,
	personaPrompt string,
	cfg *config.AppConfig,
) *Orchestrator {
	return &Orchestrator{
		assembler:  assembler,
		invoker:    invoker,
		dispatcher: dispatcher,
		confirm:    confirm,
		images:     images,
		system:     personaPrompt,
		cfg:        cfg,
	}
}

// Turn processes one user utterance. The returned result is always renderable;
// the error is non-nil only when the turn aborted, and the result still
// carries the in-persona failure line for display.
func (o *Orchestrator) Turn(ctx context.Context, conversationID, input string) (*TurnResult, error) {
	logger := log.FromCtx(ctx)
	logger.Debug().Str("state", core.StateReceived.String()).Msg("turn received")

	// A pending image proposal intercepts the reply before the pipeline.
	if pending, ok := o.confirm.Peek(conversationID); ok {
		if res := o.handleConfirmation(ctx, conversationID, pending, input); res != nil {
			return res, nil
		}
	}

	bundle := o.assembler.Assemble(ctx, input)
	logger.Debug().Str("state", core.StateContextAssembled.String()).Msg("context ready")

	prompt := buildTurnPrompt(bundle, o.cfg.PersonaA, o.cfg.PersonaB, input)
	raw, err := o.invoker.Invoke(ctx, o.system, prompt)
	if err != nil {
		logger.Error().Err(err).Str("state", core.StateAborted.String()).Msg("turn aborted")
		return &TurnResult{
			State:    core.StateAborted,
			Dialogue: []core.DialogueLine{failureLine(o.cfg.Moderator)},
		}, err
	}
	logger.Debug().Str("state", core.StateGenerated.String()).Msg("reply generated")

	parsed := Parse(raw)
	if !parsed.OK() {
		// Malformed output is shown verbatim, never retried and never hidden.
		logger.Warn().Str("state", core.StateParsedFallback.String()).Msg("structured parse failed, surfacing raw text")
		return &TurnResult{
			State: core.StateParsedFallback,
			Raw:   parsed.Raw,
		}, nil
	}

	if parsed.Payload.ImageIdea != nil {
		o.confirm.Set(conversationID, *parsed.Payload.ImageIdea)
		logger.Debug().Msg("image proposal pending confirmation")
	}

	o.dispatcher.Dispatch(ctx, conversationID, input, bundle.Emotion, parsed.Payload)
	logger.Debug().Str("state", core.StateDispatched.String()).Msg("side effects dispatched")

	return &TurnResult{
		State:    core.StateDispatched,
		Dialogue: parsed.Payload.Dialogue,
	}, nil
}

// handleConfirmation resolves a pending image proposal. A nil return means
// the reply was consumed by neither branch and should flow into the normal
// pipeline (never happens today; ambiguity re-prompts instead).
func (o *Orchestrator) handleConfirmation(ctx context.Context, conversationID string, pending PendingImage, input string) *TurnResult {
	logger := log.FromCtx(ctx)

	switch Classify(input) {
	case DecisionAffirmative:
		o.confirm.Take(conversationID)
		img, err := o.images.Render(ctx, pending.Idea)
		if err != nil {
			logger.Error().Err(err).Msg("confirmed image failed")
			return &TurnResult{
				State: core.StateDispatched,
				Dialogue: []core.DialogueLine{{
					Speaker: o.cfg.Moderator,
					Line:    "ah, the picture didn't come out this time... I'll try again another moment.",
				}},
			}
		}
		return &TurnResult{
			State: core.StateDispatched,
			Dialogue: []core.DialogueLine{{
				Speaker: o.cfg.Moderator,
				Line:    "here it is! what do you think?",
			}},
			Image: img,
		}

	case DecisionNegative:
		o.confirm.Take(conversationID)
		return &TurnResult{
			State: core.StateDispatched,
			Dialogue: []core.DialogueLine{{
				Speaker: o.cfg.Moderator,
				Line:    "okay, no picture then!",
			}},
		}

	default:
		// Ambiguous: the proposal stays pending and we ask again.
		return &TurnResult{
			State: core.StateDispatched,
			Dialogue: []core.DialogueLine{{
				Speaker: o.cfg.Moderator,
				Line:    "so, should I draw it? a simple yes or no works.",
			}},
		}
	}
}
