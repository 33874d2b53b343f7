package orchestrator

import (
	"strings"
	"sync"
	"time"

	"github.com/duetml/duet/internal/core"
)

// Decision classifies a reply to a pending image proposal.
type Decision int

const (
	DecisionAmbiguous Decision = iota
	DecisionAffirmative
	DecisionNegative
)

// PendingImage is a proposed image waiting for the user's go-ahead.
type PendingImage struct {
	Idea      core.ImageIdea
	CreatedAt time.Time
}

// Confirmations holds at most one pending image proposal per conversation.
// Process-local: restart forgets pending proposals, which is acceptable.
type Confirmations struct {
	mu      sync.Mutex
	pending map[string]PendingImage
}

func NewConfirmations() *Confirmations {
	return &Confirmations{pending: make(map[string]PendingImage)}
}

// Set registers a proposal, replacing any earlier one for the conversation.
func (c *Confirmations) Set(conversationID string, idea core.ImageIdea) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[conversationID] = PendingImage{Idea: idea, CreatedAt: time.Now()}
}

// Peek reports whether a proposal is pending without consuming it.
func (c *Confirmations) Peek(conversationID string) (PendingImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[conversationID]
	return p, ok
}

// Take consumes the pending proposal.
func (c *Confirmations) Take(conversationID string) (PendingImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[conversationID]
	if ok {
		delete(c.pending, conversationID)
	}
	return p, ok
}

var (
	affirmatives = []string{"y", "yes", "yeah", "yep", "yup", "sure", "ok", "okay", "please", "do it", "go ahead", "うん", "はい", "いいよ", "お願い"}
	negatives    = []string{"n", "no", "nope", "nah", "don't", "dont", "stop", "skip", "pass", "いや", "いいえ", "いらない", "やめて"}
)

// Classify maps a reply onto affirmative, negative or ambiguous. Anything
// that is not a clear short answer stays ambiguous so the proposal survives
// and gets re-asked.
func Classify(reply string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(reply))
	normalized = strings.Trim(normalized, ".!?！？。")

	for _, word := range affirmatives {
		if normalized == word {
			return DecisionAffirmative
		}
	}
	for _, word := range negatives {
		if normalized == word {
			return DecisionNegative
		}
	}
	return DecisionAmbiguous
}
