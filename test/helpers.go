package test

import (
	"os"
	"testing"
)

// RequireAPIKey returns the Gemini key or skips the test. Integration tests
// only run when a real backend is reachable.
func RequireAPIKey(t *testing.T) string {
	t.Helper()
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	return key
}
