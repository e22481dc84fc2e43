package generator

import (
	"fmt"
	"strings"
)

const (
	poemHint  = "Use appropriate poetic devices and structure."
	essayHint = "Ensure proper essay structure with introduction, body, and conclusion."
)

// RenderPrompt builds the instruction sent to the provider. It is a pure
// function of p: the same params always render the same bytes.
func RenderPrompt(p Params) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate a %s about \"%s\" with the following specifications:\n", p.Format, p.Theme)
	fmt.Fprintf(&sb, "- Format: %s\n", p.Format)
	fmt.Fprintf(&sb, "- Tone: %s\n", p.Tone)
	fmt.Fprintf(&sb, "- Style: %s\n", p.Style)
	fmt.Fprintf(&sb, "- Target word count: approximately %d words\n\n", p.WordCount)

	fmt.Fprintf(&sb, "Please create a well-structured %s that captures the essence of \"%s\" while maintaining the %s tone and %s style. ",
		p.Format, p.Theme, p.Tone, p.Style)
	sb.WriteString(structureHint(p.Format))

	return sb.String()
}

func structureHint(f Format) string {
	if f == FormatPoem {
		return poemHint
	}
	return essayHint
}
