package rag

import (
	"strings"
	"testing"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		cfg            ChunkerConfig
		expectedChunks []string
	}{
		{
			name:           "empty input",
			text:           "",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name:           "whitespace only",
			text:           "   \n\t   ",
			cfg:            DefaultChunkerConfig(),
			expectedChunks: nil,
		},
		{
			name: "single sentence fits",
			text: "Hello world.",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{"Hello world."},
		},
		{
			name: "two sentences fit in one chunk",
			text: "Hello world. How are you?",
			cfg: ChunkerConfig{
				MaxTokens:     10,
				OverlapTokens: 0,
			},
			expectedChunks: []string{"Hello world. How are you?"},
		},
		{
			name: "split by sentence without overlap",
			text: "First sentence. Second sentence.",
			cfg: ChunkerConfig{
				// "First sentence." is ~3 tokens: [First][ sentence][.]
				MaxTokens:     3,
				OverlapTokens: 0,
			},
			expectedChunks: []string{
				"First sentence.",
				"Second sentence.",
			},
		},
		{
			name: "split by sentence with overlap",
			text: "Sentence one. Sentence two. Sentence three.",
			cfg: ChunkerConfig{
				// Two sentences per chunk, one sentence of overlap.
				MaxTokens:     6,
				OverlapTokens: 3,
			},
			expectedChunks: []string{
				"Sentence one. Sentence two.",
				"Sentence two. Sentence three.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkText(tt.text, tt.cfg)
			if len(chunks) != len(tt.expectedChunks) {
				t.Fatalf("expected %d chunks, got %d: %+v",
					len(tt.expectedChunks), len(chunks), chunks)
			}
			for i, c := range chunks {
				if c.Text != tt.expectedChunks[i] {
					t.Errorf("chunk %d: expected %q, got %q", i, tt.expectedChunks[i], c.Text)
				}
				if c.Index != i {
					t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
				}
			}
		})
	}
}

func TestChunkText_OversizedSentence(t *testing.T) {
	// One long unbroken sentence must be force-split at the token level.
	text := strings.Repeat("word ", 50) + "end."
	chunks := ChunkText(text, ChunkerConfig{MaxTokens: 10, OverlapTokens: 0})

	if len(chunks) < 2 {
		t.Fatalf("expected forced split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.TokenSize > 10 {
			t.Errorf("chunk %d exceeds max tokens: %d", i, c.TokenSize)
		}
	}
}

func TestChunkText_CJKSentences(t *testing.T) {
	text := "今日は木工の話をした。新しい椅子の設計が決まった。"
	chunks := ChunkText(text, ChunkerConfig{MaxTokens: 500, OverlapTokens: 0})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "椅子") {
		t.Errorf("chunk lost content: %q", chunks[0].Text)
	}
}
