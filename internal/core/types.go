package core

import "time"

const (
	DuetName    = "Duet"
	DuetVersion = "0.1.0"
)

// DialogueLine is one speaker/line pair of a structured reply.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// ImageIdea is the model's proposal for a derivative image: who appears,
// what is happening, and the overall mood.
type ImageIdea struct {
	Personas  []string `json:"personas,omitempty"`
	Situation string   `json:"situation"`
	Mood      string   `json:"mood"`
}

// TurnPayload is the strict structured output the generation backend is
// instructed to produce for every turn.
type TurnPayload struct {
	Dialogue      []DialogueLine `json:"dialogue"`
	ImageAnalysis string         `json:"image_analysis,omitempty"`
	ImageIdea     *ImageIdea     `json:"image_idea,omitempty"`
}

// TurnState tracks a turn through the pipeline. Terminal states are
// StateDispatched and StateAborted.
type TurnState int

const (
	StateReceived TurnState = iota
	StateContextAssembled
	StateGenerated
	StateParsedOK
	StateParsedFallback
	StateDispatched
	StateAborted
)

func (s TurnState) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateContextAssembled:
		return "CONTEXT_ASSEMBLED"
	case StateGenerated:
		return "GENERATED"
	case StateParsedOK:
		return "PARSED_OK"
	case StateParsedFallback:
		return "PARSED_FALLBACK"
	case StateDispatched:
		return "DISPATCHED"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// ConversationState is the single current mood/summary record. There is no
// history: SetState replaces it wholesale.
type ConversationState struct {
	MoodA     string    `json:"mood_a"`
	MoodB     string    `json:"mood_b"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultState is what GetState returns before any turn has been dispatched.
// A first run is not an error.
func DefaultState() ConversationState {
	return ConversationState{
		MoodA:   "neutral",
		MoodB:   "neutral",
		Summary: "no interaction yet",
	}
}

// Concern is an open worry detected in conversation. ResolvedAt is nil while
// the concern is unresolved and records the moment a follow-up resolved it.
type Concern struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// StyleAnalysis holds the structured attributes extracted from a generated
// image the user liked.
type StyleAnalysis struct {
	Name        string   `json:"style_name"`
	Keywords    []string `json:"style_keywords"`
	Description string   `json:"style_description"`
}

// StyleProfile is one learned entry of the visual-style palette. Profiles are
// append-only and sampled uniformly at image-generation time.
type StyleProfile struct {
	ID             string        `json:"id"`
	SourcePrompt   string        `json:"source_prompt"`
	SourceImageRef string        `json:"source_image_ref"`
	Analysis       StyleAnalysis `json:"analysis"`
	CreatedAt      time.Time     `json:"created_at"`
}

// VocabularyEntry is a catchphrase with a per-persona usage weight.
type VocabularyEntry struct {
	Word    string `json:"word"`
	Persona string `json:"persona"`
	Weight  int    `json:"weight"`
}

// MemoryHit is one retrieved memory chunk with its similarity score.
type MemoryHit struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float32           `json:"similarity"`
}

// Image is a synthesized image asset.
type Image struct {
	Data     []byte
	MIMEType string
	Prompt   string
}
