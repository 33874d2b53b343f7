package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/duetml/duet/internal/core"
)

// ParseResult is a tagged union: a structured payload when parsing succeeded,
// or the raw model text when it did not. Raw text is surfaced verbatim so a
// malformed reply is never silently dropped.
type ParseResult struct {
	Payload *core.TurnPayload
	Raw     string
}

func (r ParseResult) OK() bool { return r.Payload != nil }

var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// Parse runs the two-stage tolerant extraction: a strict fenced block first,
// then a loose balanced-brace scan over the whole text.
func Parse(text string) ParseResult {
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		if payload := decodePayload(m[1]); payload != nil {
			return ParseResult{Payload: payload}
		}
	}

	if candidate := scanBalanced(text); candidate != "" {
		if payload := decodePayload(candidate); payload != nil {
			return ParseResult{Payload: payload}
		}
	}

	// Untouched, including whitespace: presentation is the renderer's call.
	return ParseResult{Raw: text}
}

func decodePayload(s string) *core.TurnPayload {
	var payload core.TurnPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil
	}
	if len(payload.Dialogue) == 0 {
		return nil
	}
	for _, line := range payload.Dialogue {
		if line.Speaker == "" || line.Line == "" {
			return nil
		}
	}
	return &payload
}

// scanBalanced returns the first balanced top-level {...} region, tracking
// string literals so braces inside quoted text do not confuse the depth count.
func scanBalanced(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
