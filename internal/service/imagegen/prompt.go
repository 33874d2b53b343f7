package imagegen

import (
	"fmt"
	"strings"

	"github.com/duetml/duet/internal/core"
)

// qualityKeywords are appended to every prompt regardless of style.
const qualityKeywords = "high detail, clean lines, expressive faces, consistent character design"

// negativePrompt is the fixed exclusion list sent with every request.
const negativePrompt = "text, watermark, logo, extra fingers, deformed hands, lowres, blurry"

// fallbackPalette covers the cold start before any style has been learned.
var fallbackPalette = []core.StyleAnalysis{
	{
		Name:        "soft anime",
		Keywords:    []string{"soft anime style", "pastel colors", "gentle lighting"},
		Description: "soft pastel anime illustration with gentle ambient lighting",
	},
	{
		Name:        "sketchbook",
		Keywords:    []string{"loose pencil sketch", "warm paper texture", "hand drawn"},
		Description: "loose warm sketchbook drawing, casual and personal",
	},
	{
		Name:        "flat illustration",
		Keywords:    []string{"flat illustration", "bold shapes", "limited palette"},
		Description: "flat modern illustration with bold shapes and a limited palette",
	},
}

// composePrompt builds the full synthesis prompt from the idea and the chosen
// style.
func composePrompt(idea core.ImageIdea, style core.StyleAnalysis) string {
	var b strings.Builder

	if len(idea.Personas) > 0 {
		fmt.Fprintf(&b, "%s, ", strings.Join(idea.Personas, " and "))
	}
	b.WriteString(idea.Situation)
	if idea.Mood != "" {
		fmt.Fprintf(&b, ", %s mood", idea.Mood)
	}
	if len(style.Keywords) > 0 {
		fmt.Fprintf(&b, ". Style: %s", strings.Join(style.Keywords, ", "))
	}
	fmt.Fprintf(&b, ". %s", qualityKeywords)
	return b.String()
}

// refinePromptTemplate asks the text model to rewrite a rejected prompt. The
// style keywords must survive the rewrite so the palette stays coherent.
const refinePromptTemplate = `The following image prompt was rejected by a safety
filter. Rewrite it to be unambiguous and wholesome while keeping the same
scene, subjects and these style keywords intact: %s

Rejected prompt:
%s

Reply with the rewritten prompt only.`
