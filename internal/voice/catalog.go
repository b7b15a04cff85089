package voice

// Platform identifies a selectable narration engine tier. Every platform
// carries its own voice list and its own daily request budget.
type Platform string

const (
	PlatformGemini     Platform = "GEMINI_STANDARD"
	PlatformElevenLabs Platform = "ELEVEN_LABS_PREMIUM"
	PlatformNotebookLM Platform = "NOTEBOOK_LM_VAULT"
)

// Platforms returns all supported platforms in display order.
func Platforms() []Platform {
	return []Platform{PlatformGemini, PlatformElevenLabs, PlatformNotebookLM}
}

// Profile describes a selectable voice. Native is the engine-level voice
// identifier the synthesis provider actually accepts; for non-Gemini
// platforms it is the nearest native equivalent.
type Profile struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Platform Platform `json:"platform"`
	Native   string   `json:"native"`
}

// Native Gemini engine voices.
const (
	NativeCharon = "Charon"
	NativePuck   = "Puck"
	NativeKore   = "Kore"
	NativeZephyr = "Zephyr"
	NativeFenrir = "Fenrir"
)

// profiles is the full voice catalog, keyed by voice ID. The Native field
// makes voice resolution total: every declared voice maps to exactly one
// engine voice. Deep/authoritative profiles resolve to Fenrir, soft/crisp
// profiles to Kore, everything else to Zephyr.
var profiles = map[string]Profile{
	"zephyr": {ID: "zephyr", Label: "Zephyr (Calm Narrator)", Platform: PlatformGemini, Native: NativeZephyr},
	"charon": {ID: "charon", Label: "Charon (Elderly Deep)", Platform: PlatformGemini, Native: NativeCharon},
	"kore":   {ID: "kore", Label: "Kore (Professional Female)", Platform: PlatformGemini, Native: NativeKore},
	"fenrir": {ID: "fenrir", Label: "Fenrir (Rich Male)", Platform: PlatformGemini, Native: NativeFenrir},
	"puck":   {ID: "puck", Label: "Puck (Light Energetic)", Platform: PlatformGemini, Native: NativePuck},

	"adam":   {ID: "adam", Label: "Adam (Deep Narrative)", Platform: PlatformElevenLabs, Native: NativeFenrir},
	"bella":  {ID: "bella", Label: "Bella (Soft Emotional)", Platform: PlatformElevenLabs, Native: NativeKore},
	"rachel": {ID: "rachel", Label: "Rachel (Executive Crisp)", Platform: PlatformElevenLabs, Native: NativeKore},
	"josh":   {ID: "josh", Label: "Josh (Dynamic Storyteller)", Platform: PlatformElevenLabs, Native: NativeFenrir},
	"sarah":  {ID: "sarah", Label: "Sarah (Professional Warmth)", Platform: PlatformElevenLabs, Native: NativeKore},
	"antoni": {ID: "antoni", Label: "Antoni (Classic Author)", Platform: PlatformElevenLabs, Native: NativeZephyr},
	"nicole": {ID: "nicole", Label: "Nicole (Whispery Reflective)", Platform: PlatformElevenLabs, Native: NativeKore},
	"bill":   {ID: "bill", Label: "Bill (Elder Authority)", Platform: PlatformElevenLabs, Native: NativeFenrir},

	"notebook-studio":  {ID: "notebook-studio", Label: "Notebook Studio (Analytical)", Platform: PlatformNotebookLM, Native: NativeZephyr},
	"notebook-vault":   {ID: "notebook-vault", Label: "Notebook Vault (Structural)", Platform: PlatformNotebookLM, Native: NativeZephyr},
	"notebook-podcast": {ID: "notebook-podcast", Label: "Notebook Podcast (Conversational)", Platform: PlatformNotebookLM, Native: NativeZephyr},
}

// platformOrder lists voice IDs per platform in display order.
var platformOrder = map[Platform][]string{
	PlatformGemini:     {"zephyr", "charon", "kore", "fenrir", "puck"},
	PlatformElevenLabs: {"adam", "bella", "rachel", "josh", "sarah", "antoni", "nicole", "bill"},
	PlatformNotebookLM: {"notebook-studio", "notebook-vault", "notebook-podcast"},
}

// previewLines holds the short audition sentence spoken by each voice.
var previewLines = map[string]string{
	"charon":          "Greetings. I am Charon. My voice carries the weight of time.",
	"zephyr":          "Hello. I am Zephyr. I provide professional narration for your manuscript.",
	"kore":            "I am Kore. Precise and modern, ideal for structural manuscripts.",
	"fenrir":          "I am Fenrir. Deep and steady for authoritative storytelling.",
	"puck":            "Hi! I'm Puck. Light and engaging for energetic scripts.",
	"adam":            "Adam here. Rich and narrative, built for long-form reading.",
	"bella":           "Bella here. Soft and emotional for intimate passages.",
	"rachel":          "Rachel here. Professional and crisp for executive material.",
	"josh":            "Josh here. Deeply narrative with a dynamic range.",
	"notebook-studio": "Notebook Studio voice ready for summary analysis.",
}

const fallbackPreviewLine = "Vocal sample ready."

// Lookup returns the profile for a voice ID.
func Lookup(id string) (Profile, bool) {
	p, ok := profiles[id]
	return p, ok
}

// ForPlatform returns the ordered voice profiles for a platform.
func ForPlatform(pl Platform) []Profile {
	ids := platformOrder[pl]
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, profiles[id])
	}
	return out
}

// All returns every profile grouped by platform in display order.
func All() []Profile {
	var out []Profile
	for _, pl := range Platforms() {
		out = append(out, ForPlatform(pl)...)
	}
	return out
}

// PreviewLine returns the audition sentence for a voice. Unknown or
// line-less voices get a generic sample sentence.
func PreviewLine(id string) string {
	if line, ok := previewLines[id]; ok {
		return line
	}
	return fallbackPreviewLine
}

// ValidPlatform reports whether the given string names a known platform.
func ValidPlatform(s string) bool {
	switch Platform(s) {
	case PlatformGemini, PlatformElevenLabs, PlatformNotebookLM:
		return true
	}
	return false
}
