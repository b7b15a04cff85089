package voice

// BookProfile bundles the narration defaults for one book project. The
// narration style feeds the prompt builder's vocal persona section.
type BookProfile struct {
	ID             string `json:"id"              yaml:"id"`
	Title          string `json:"title"           yaml:"title"`
	DefaultVoice   string `json:"default_voice"   yaml:"default_voice"`
	NarrationStyle string `json:"narration_style" yaml:"narration_style"`
}

// builtinProfiles ship with the studio and are always available, even when
// no profile directory is configured.
var builtinProfiles = []BookProfile{
	{
		ID:             "solitude",
		Title:          "Solitude In The Digital Age",
		DefaultVoice:   "zephyr",
		NarrationStyle: "Calm, professional, and reflective. Slightly slow pacing with clear enunciation.",
	},
	{
		ID:             "firelit",
		Title:          "Firelit Wisdom",
		DefaultVoice:   "charon",
		NarrationStyle: "Warm, elder-like, and ancestral. A storytelling cadence that feels like wisdom shared around a fire at night.",
	},
	{
		ID:             "generic",
		Title:          "Custom Project",
		DefaultVoice:   "kore",
		NarrationStyle: "Neutral, standard narration style suitable for any general text or script.",
	},
}

// BuiltinProfiles returns a copy of the built-in book profiles.
func BuiltinProfiles() []BookProfile {
	out := make([]BookProfile, len(builtinProfiles))
	copy(out, builtinProfiles)
	return out
}
