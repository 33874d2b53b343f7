package orchestrator

import (
	"fmt"
	"strings"

	"github.com/duetml/duet/internal/core"
)

// Prompt templates. Persona wording lives in the runtime persona file; these
// templates only carry structure and the output contract.

const outputContract = `Respond with exactly one JSON object inside a ` + "```json" + ` fence:
{
  "dialogue": [{"speaker": "<persona name>", "line": "<what they say>"}],
  "image_analysis": "<only when the user shared an image: what you see>",
  "image_idea": {"personas": ["<who appears>"], "situation": "<what is happening>", "mood": "<overall mood>"}
}
"dialogue" is required and must carry at least one entry. Include "image_idea"
only when the moment genuinely calls for a picture. No text outside the fence.`

func buildTurnPrompt(bundle *ContextBundle, personaA, personaB, input string) string {
	var b strings.Builder

	if len(bundle.Memories) > 0 {
		b.WriteString("Relevant memories of earlier conversations:\n")
		for _, hit := range bundle.Memories {
			fmt.Fprintf(&b, "- %s\n", hit.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Current mood: %s is %s, %s is %s.\nRunning summary: %s\n\n",
		personaA, bundle.State.MoodA, personaB, bundle.State.MoodB, bundle.State.Summary)

	if bundle.Emotion != "" {
		fmt.Fprintf(&b, "The user seems to be feeling %s right now. Meet them where they are.\n\n",
			bundle.Emotion)
	}

	if len(bundle.VocabA) > 0 {
		fmt.Fprintf(&b, "Catchphrases %s tends to use: %s\n", personaA, strings.Join(bundle.VocabA, ", "))
	}
	if len(bundle.VocabB) > 0 {
		fmt.Fprintf(&b, "Catchphrases %s tends to use: %s\n", personaB, strings.Join(bundle.VocabB, ", "))
	}
	if bundle.Example != "" {
		fmt.Fprintf(&b, "\nExample of the tone to hit:\n%s\n", bundle.Example)
	}
	if len(bundle.OpenConcerns) > 0 {
		b.WriteString("\nOpen worries to gently follow up on when it fits:\n")
		for _, c := range bundle.OpenConcerns {
			fmt.Fprintf(&b, "- %s\n", c.Text)
		}
	}

	fmt.Fprintf(&b, "\nThe user says:\n%s\n\n%s", input, outputContract)
	return b.String()
}

const keywordPrompt = `Extract the key topics from the following message as a short
search query, a few words, no punctuation. Reply with the query only.

Message:
%s`

const emotionPrompt = `What is the writer of the following message feeling? Answer
with the single most fitting keyword, like joy, tiredness, creative excitement,
worry, anticipation, or neutral. Reply with the keyword only.

Message:
%s`

const bgmPrompt = `The mood of the conversation right now is "%s". Suggest one
music genre and one concrete track that fits it, in a single short sentence.`

const summarizePrompt = `Summarize the following exchange in two or three sentences,
keeping names, concrete facts and anything worth remembering later. Reply with
the summary only.

User: %s

Reply:
%s`

const moodPrompt = `Given this exchange, infer the current mood of %s and %s and a
one-sentence running summary. Respond with exactly one JSON object:
{"mood_a": "<%s's mood>", "mood_b": "<%s's mood>", "summary": "<one sentence>"}

User: %s

Reply:
%s`

const concernPrompt = `Does the user's message hint at something worth checking in on
later, like an upcoming exam, feeling unwell, or a stressful event? Respond with
exactly one JSON object: {"concern": "<short description>"} if so, or
{"concern": null} if not.

Message:
%s`

const concernResolvedPrompt = `These worries were noted earlier:
%s

Does the user's message below indicate any of them is now resolved? Respond with
exactly one JSON object: {"resolved_id": "<id>"} naming the resolved worry, or
{"resolved_id": null}.

Message:
%s`

const surprisePrompt = `Given the exchange below, would an unprompted illustration of
the moment delight the user? Be strict: most moments do not need one. Answer
with exactly YES or NO.

User: %s

Reply:
%s`

func joinDialogue(lines []core.DialogueLine) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s: %s\n", l.Speaker, l.Line)
	}
	return b.String()
}

// failureLine is the in-persona message shown when the turn aborts. The only
// user-visible failure in the pipeline.
func failureLine(moderator string) core.DialogueLine {
	return core.DialogueLine{
		Speaker: moderator,
		Line:    "sorry, my head went completely blank just now... say that again in a moment?",
	}
}
