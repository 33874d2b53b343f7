package orchestrator

import (
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantOK   bool
		wantRaw  string
		speakers int
	}{
		{
			name: "strict fenced json",
			input: "here you go\n```json\n{\"dialogue\": [{\"speaker\": \"aya\", \"line\": \"hi!\"}, " +
				"{\"speaker\": \"rin\", \"line\": \"...hey.\"}]}\n```",
			wantOK:   true,
			speakers: 2,
		},
		{
			name:     "loose braces without fence",
			input:    `sure! {"dialogue": [{"speaker": "aya", "line": "morning!"}]} hope that helps`,
			wantOK:   true,
			speakers: 1,
		},
		{
			name:     "braces inside string literals",
			input:    `{"dialogue": [{"speaker": "aya", "line": "use {curly} braces :)"}]}`,
			wantOK:   true,
			speakers: 1,
		},
		{
			name:    "no json at all",
			input:   "aya says hi and rin waves",
			wantOK:  false,
			wantRaw: "aya says hi and rin waves",
		},
		{
			name:    "surrounding whitespace kept on fallback",
			input:   "  aya says hi and rin waves  \n",
			wantOK:  false,
			wantRaw: "  aya says hi and rin waves  \n",
		},
		{
			name:    "json without dialogue",
			input:   `{"image_analysis": "a cat"}`,
			wantOK:  false,
			wantRaw: `{"image_analysis": "a cat"}`,
		},
		{
			name:    "dialogue entry missing line",
			input:   `{"dialogue": [{"speaker": "aya"}]}`,
			wantOK:  false,
			wantRaw: `{"dialogue": [{"speaker": "aya"}]}`,
		},
		{
			name:    "unbalanced braces",
			input:   `{"dialogue": [{"speaker": "aya", "line": "hi"`,
			wantOK:  false,
			wantRaw: `{"dialogue": [{"speaker": "aya", "line": "hi"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tt.input)
			if got.OK() != tt.wantOK {
				t.Fatalf("OK() = %v, want %v", got.OK(), tt.wantOK)
			}
			if tt.wantOK {
				if len(got.Payload.Dialogue) != tt.speakers {
					t.Errorf("dialogue length = %d, want %d", len(got.Payload.Dialogue), tt.speakers)
				}
			} else if got.Raw != tt.wantRaw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.wantRaw)
			}
		})
	}
}

func TestParse_FencePreferredOverLooseScan(t *testing.T) {
	t.Parallel()

	// A broken object appears first; the fenced one must win.
	input := "{oops\n```json\n{\"dialogue\": [{\"speaker\": \"rin\", \"line\": \"fine.\"}]}\n```"
	got := Parse(input)
	if !got.OK() {
		t.Fatalf("expected parse to succeed, raw = %q", got.Raw)
	}
	if got.Payload.Dialogue[0].Speaker != "rin" {
		t.Errorf("speaker = %q", got.Payload.Dialogue[0].Speaker)
	}
}

func TestParse_ImageIdeaCarriedThrough(t *testing.T) {
	t.Parallel()

	input := "```json\n" + `{"dialogue": [{"speaker": "aya", "line": "let me draw that!"}],
		"image_idea": {"personas": ["aya"], "situation": "stargazing on a rooftop", "mood": "wistful"}}` + "\n```"
	got := Parse(input)
	if !got.OK() {
		t.Fatalf("expected parse to succeed, raw = %q", got.Raw)
	}
	if got.Payload.ImageIdea == nil {
		t.Fatal("expected image idea")
	}
	if got.Payload.ImageIdea.Situation != "stargazing on a rooftop" {
		t.Errorf("situation = %q", got.Payload.ImageIdea.Situation)
	}
}
