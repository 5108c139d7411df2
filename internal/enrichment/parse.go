package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leadscore_backend/internal/scoring"
)

// ErrEmptyAnswer is returned when the model produced no usable signal.
var ErrEmptyAnswer = errors.New("enrichment: empty answer")

// ParseAnswer extracts the enrichment JSON object from a model answer.
// Code fences and surrounding prose are tolerated. Out-of-range values are
// clamped to the documented scale of each signal.
func ParseAnswer(text string) (*scoring.Enrichment, error) {
	raw := extractObject(text)
	if raw == "" {
		return nil, ErrEmptyAnswer
	}

	var out scoring.Enrichment
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("enrichment: decode answer: %w", err)
	}

	out.Company.HealthScore = clampPtr(out.Company.HealthScore, 1, 10)
	out.Intent.BuyingIntentScore = clampPtr(out.Intent.BuyingIntentScore, 1, 100)
	out.Intent.UrgencyScore = clampPtr(out.Intent.UrgencyScore, 0, 1)
	out.Authority.AuthorityLevel = clampPtr(out.Authority.AuthorityLevel, 0, 1)

	if out.Company.HealthScore == nil && out.Intent.BuyingIntentScore == nil &&
		out.Intent.UrgencyScore == nil && out.Authority.AuthorityLevel == nil {
		return nil, ErrEmptyAnswer
	}
	return &out, nil
}

func extractObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func clampPtr(v *float64, lo, hi float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	if x < lo {
		x = lo
	}
	if x > hi {
		x = hi
	}
	return &x
}
