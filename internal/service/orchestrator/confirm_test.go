package orchestrator

import (
	"testing"

	"github.com/duetml/duet/internal/core"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reply string
		want  Decision
	}{
		{"yes", DecisionAffirmative},
		{"  Yes!  ", DecisionAffirmative},
		{"y", DecisionAffirmative},
		{"sure", DecisionAffirmative},
		{"うん", DecisionAffirmative},
		{"no", DecisionNegative},
		{"Nope.", DecisionNegative},
		{"いらない", DecisionNegative},
		{"maybe later", DecisionAmbiguous},
		{"what were we talking about?", DecisionAmbiguous},
		{"yes but make it blue", DecisionAmbiguous},
		{"", DecisionAmbiguous},
	}

	for _, tt := range tests {
		if got := Classify(tt.reply); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestConfirmations_TakeConsumes(t *testing.T) {
	t.Parallel()

	c := NewConfirmations()
	idea := core.ImageIdea{Situation: "picnic", Mood: "sunny"}
	c.Set("conv-1", idea)

	if _, ok := c.Peek("conv-1"); !ok {
		t.Fatal("expected pending proposal after Set")
	}
	if _, ok := c.Peek("conv-2"); ok {
		t.Fatal("proposal leaked across conversations")
	}

	p, ok := c.Take("conv-1")
	if !ok || p.Idea.Situation != "picnic" {
		t.Fatalf("Take returned %+v, %v", p, ok)
	}
	if _, ok := c.Take("conv-1"); ok {
		t.Error("second Take should find nothing")
	}
}
