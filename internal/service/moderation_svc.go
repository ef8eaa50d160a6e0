package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/config"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
	"github.com/NagyErvin-ZY/gee-media-service-api/pkg/textnorm"
)

// ModerationService combines the keyword filter, the visual classifier and
// the LLM text classifier into a single verdict.
//
// Trust assumption: moderation is advisory, not a security boundary. Any
// internal error degrades to an "allowed, moderation skipped" verdict so a
// broken classifier never blocks legitimate uploads.
type ModerationService struct {
	cfg    config.ModerationConfig
	visual VisualClassifier
	llm    TextCompleter
}

func NewModerationService(cfg config.ModerationConfig, visual VisualClassifier, llm TextCompleter) *ModerationService {
	return &ModerationService{cfg: cfg, visual: visual, llm: llm}
}

// ScreenImage runs the full ordered pipeline over image bytes plus any
// caller-supplied text (filename, caption). Stages short-circuit on the first
// inappropriate finding; a keyword hit is never overridden by later stages.
func (s *ModerationService) ScreenImage(ctx context.Context, image []byte, text string) model.ModerationVerdict {
	if v, flagged := s.keywordStage(text); flagged {
		return v
	}

	if s.cfg.VisualEnabled && s.visual != nil {
		if v, flagged, err := s.visualStage(ctx, image); err != nil {
			return s.skipped(err)
		} else if flagged {
			return v
		}

		// Text embedded in the image goes through the text path
		// independently of the label outcome.
		extracted, err := s.extractText(ctx, image)
		if err != nil {
			return s.skipped(err)
		}
		if extracted != "" {
			v := s.ScreenText(ctx, extracted)
			if v.Inappropriate {
				v.ExtractedText = extracted
				return v
			}
		}
	}

	if v, flagged, err := s.llmStage(ctx, text); err != nil {
		return s.skipped(err)
	} else if flagged {
		return v
	}

	return passed()
}

// ScreenText runs the text-only path: keyword filter, then LLM classifier.
func (s *ModerationService) ScreenText(ctx context.Context, text string) model.ModerationVerdict {
	if v, flagged := s.keywordStage(text); flagged {
		return v
	}
	if v, flagged, err := s.llmStage(ctx, text); err != nil {
		return s.skipped(err)
	} else if flagged {
		return v
	}
	return passed()
}

func (s *ModerationService) keywordStage(text string) (model.ModerationVerdict, bool) {
	if !s.cfg.KeywordEnabled || text == "" {
		return model.ModerationVerdict{}, false
	}

	tokens := textnorm.Tokens(text)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}

	var matched []string
	for _, kw := range s.cfg.Keywords {
		if _, ok := seen[strings.ToLower(kw)]; ok {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return model.ModerationVerdict{}, false
	}

	findings := make([]model.ModerationFinding, len(matched))
	for i, m := range matched {
		findings[i] = model.ModerationFinding{Label: m, Confidence: 1.0}
	}
	return model.ModerationVerdict{
		Inappropriate: true,
		Message:       fmt.Sprintf("text contains denylisted terms: %s", strings.Join(matched, ", ")),
		Findings:      findings,
	}, true
}

func (s *ModerationService) visualStage(ctx context.Context, image []byte) (model.ModerationVerdict, bool, error) {
	labels, err := s.visual.DetectLabels(ctx, image, s.lowestThreshold())
	if err != nil {
		return model.ModerationVerdict{}, false, fmt.Errorf("detect labels: %w", err)
	}

	var violations []model.ModerationFinding
	for _, l := range labels {
		threshold, ok := s.cfg.Threshold(l.Name, l.ParentName)
		if !ok {
			continue
		}
		if l.Confidence >= threshold {
			violations = append(violations, model.ModerationFinding{
				Label:      l.Name,
				Confidence: l.Confidence,
				Parent:     l.ParentName,
			})
		}
	}
	if len(violations) == 0 {
		return model.ModerationVerdict{}, false, nil
	}

	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = fmt.Sprintf("%s (%.0f%%)", v.Label, v.Confidence*100)
	}
	return model.ModerationVerdict{
		Inappropriate: true,
		Message:       "image flagged by visual moderation: " + strings.Join(parts, ", "),
		Findings:      violations,
	}, true, nil
}

func (s *ModerationService) extractText(ctx context.Context, image []byte) (string, error) {
	findings, err := s.visual.DetectText(ctx, image)
	if err != nil {
		return "", fmt.Errorf("detect text: %w", err)
	}
	var lines []string
	for _, f := range findings {
		if f.Type == "LINE" && strings.TrimSpace(f.Text) != "" {
			lines = append(lines, f.Text)
		}
	}
	return strings.Join(lines, " "), nil
}

func (s *ModerationService) llmStage(ctx context.Context, text string) (model.ModerationVerdict, bool, error) {
	if !s.cfg.LLMEnabled || s.llm == nil || strings.TrimSpace(text) == "" {
		return model.ModerationVerdict{}, false, nil
	}

	answer, err := s.llm.Complete(ctx, fmt.Sprintf(s.cfg.PromptTemplate, text))
	if err != nil {
		return model.ModerationVerdict{}, false, fmt.Errorf("llm classification: %w", err)
	}
	if affirmative(answer) {
		return model.ModerationVerdict{
			Inappropriate: true,
			Message:       "text flagged by language model moderation",
		}, true, nil
	}
	return model.ModerationVerdict{}, false, nil
}

// lowestThreshold is the minimum confidence worth asking the classifier for;
// labels below every configured threshold can never count as a violation.
func (s *ModerationService) lowestThreshold() float64 {
	lowest := s.cfg.DefaultConfidence
	for _, c := range s.cfg.Categories {
		if c.Threshold > 0 && c.Threshold < lowest {
			lowest = c.Threshold
		}
	}
	return lowest
}

func (s *ModerationService) skipped(err error) model.ModerationVerdict {
	log.Warn().Err(err).Msg("moderation error, allowing content")
	return model.ModerationVerdict{
		Inappropriate: false,
		Message:       "moderation skipped: " + err.Error(),
	}
}

func passed() model.ModerationVerdict {
	return model.ModerationVerdict{Message: "content passed moderation"}
}

func affirmative(answer string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes")
}
