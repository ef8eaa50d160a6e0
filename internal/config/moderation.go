package config

// ModerationCategory maps a classifier label (or parent category) to a
// confidence threshold. Threshold 0 means "use the default".
type ModerationCategory struct {
	Name      string
	Parent    bool // match against the label's parent category name
	Threshold float64
}

// ModerationConfig is the immutable moderation table injected into the
// decision engine at construction.
type ModerationConfig struct {
	// Per-stage switches.
	VisualEnabled  bool
	KeywordEnabled bool
	LLMEnabled     bool

	DefaultConfidence float64
	Keywords          []string
	Categories        []ModerationCategory

	// PromptTemplate embeds the candidate text via %s and must elicit a
	// terse yes/no answer.
	PromptTemplate string
}

// Threshold resolves the confidence threshold for a label, matching by exact
// label name first, then by parent category name.
func (m ModerationConfig) Threshold(label, parent string) (float64, bool) {
	for _, c := range m.Categories {
		if !c.Parent && c.Name == label {
			return m.resolve(c.Threshold), true
		}
	}
	if parent != "" {
		for _, c := range m.Categories {
			if c.Parent && c.Name == parent {
				return m.resolve(c.Threshold), true
			}
		}
	}
	return 0, false
}

func (m ModerationConfig) resolve(t float64) float64 {
	if t > 0 {
		return t
	}
	return m.DefaultConfidence
}

// DefaultModerationConfig returns the built-in moderation table.
func DefaultModerationConfig() ModerationConfig {
	return ModerationConfig{
		VisualEnabled:     true,
		KeywordEnabled:    true,
		LLMEnabled:        true,
		DefaultConfidence: 0.80,
		Keywords: []string{
			// Seed denylist; extended per deployment.
			"escort", "onlyfans", "gore",
		},
		Categories: []ModerationCategory{
			{Name: "Explicit Nudity", Parent: true, Threshold: 0.60},
			{Name: "Violence", Parent: true},
			{Name: "Visually Disturbing", Parent: true, Threshold: 0.70},
			{Name: "Drugs", Parent: true},
			{Name: "Hate Symbols", Threshold: 0.50},
			{Name: "Weapons"},
		},
		PromptTemplate: "Answer strictly yes or no. Is the following text inappropriate, sexual, hateful or violent?\n\nText: %q\n\nAnswer:",
	}
}
