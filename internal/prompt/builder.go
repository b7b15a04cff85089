// Package prompt builds the narration instruction strings sent to the
// synthesis provider. The provider receives one flat instruction containing
// the vocal persona, the reading speed, the structural performance cues,
// and the manuscript itself.
package prompt

import (
	"fmt"
	"strings"
)

// cue maps one structural marker to its prosody instruction. The table is
// fixed: markers always carry the same pause lengths regardless of caller.
type cue struct {
	marker      string
	meaning     string
	instruction string
}

var cueTable = []cue{
	{"#", "BOOK TITLE", "Maximum resonance, authoritative focus. 3s pause after."},
	{"##", "SUBTITLE", "Grounded, steady emphasis. 2.5s pause after."},
	{"###", "CHAPTER TITLE/SECTION", "Clear energetic shift. 2s pause after."},
	{"####", "SUB-SECTION", "Precise and narrative. 1.5s pause after."},
	{">", "REFLECTIVE PROMPT", "Slower, ethereal, questioning tone. 3s pause after."},
	{"[WISDOM CARD]", "WISDOM CARD", "Warm, revered, storytelling cadence. 2s pause after."},
	{"*, -", "BULLET POINTS", "Rhythmic list cadence. 1.2s gap between."},
}

// BuildNarration constructs the full synthesis instruction for a manuscript.
// Pure string assembly; no validation happens here.
func BuildNarration(text, styleDescription string, speed float64) string {
	var b strings.Builder
	b.WriteString("Act as a world-class professional audiobook narrator.\n")
	fmt.Fprintf(&b, "Vocal Persona: %s\n", styleDescription)
	fmt.Fprintf(&b, "Reading Speed: %.2fx.\n\n", speed)

	b.WriteString("STRUCTURAL PERFORMANCE CUES (IMPORTANT):\n")
	for _, c := range cueTable {
		fmt.Fprintf(&b, "- '%s' (%s): %s\n", c.marker, c.meaning, c.instruction)
	}

	b.WriteString("\nPERFORMANCE RULE: Use these markers to adjust your voice, but NEVER speak the symbols themselves.\n")
	b.WriteString("\nMANUSCRIPT:\n")
	b.WriteString(text)
	return b.String()
}

// BuildPreview wraps a short audition sentence in a minimal narrator
// instruction, used when auditioning a voice before a full take.
func BuildPreview(text string) string {
	return fmt.Sprintf("Act as a professional narrator. Read clearly: %q", text)
}
