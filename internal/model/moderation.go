package model

// ModerationFinding is a single labeled score returned by a signal source.
type ModerationFinding struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Parent     string  `json:"parent,omitempty"`
}

// ModerationVerdict is the combined outcome of all enabled moderation stages
// for one piece of content. It is transient: produced fresh per invocation
// and embedded into claim/asset metadata, never persisted standalone.
type ModerationVerdict struct {
	Inappropriate bool                `json:"inappropriate"`
	Message       string              `json:"message"`
	Findings      []ModerationFinding `json:"findings,omitempty"`
	ExtractedText string              `json:"extractedText,omitempty"`
}

// LabelFinding is one label returned by the visual classifier.
type LabelFinding struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	ParentName string  `json:"parentName,omitempty"`
}

// TextFinding is one piece of text detected in visual content.
type TextFinding struct {
	Type string `json:"type"` // LINE or WORD
	Text string `json:"text"`
}
