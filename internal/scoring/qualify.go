package scoring

import (
	"fmt"
	"strings"
)

// requiredCriterionFloor is the per-criterion value below which a required
// criterion counts as not met.
const requiredCriterionFloor = 0.5

// Recommended follow-up actions per label.
const (
	ActionHot    = "Contact within 24 hours"
	ActionWarm   = "Follow up within 3 days with tailored content"
	ActionCold   = "Add to nurture sequence"
	actionReview = "Review manually: required criteria not met"
)

// CriterionScore is one row of the qualification breakdown.
type CriterionScore struct {
	Score int    `json:"score"`
	Note  string `json:"note"`
}

// ActiveModel is the published weight set the adaptive score uses.
type ActiveModel struct {
	Version int
	Weights Weights
}

// QualifyInput bundles an extracted vector with the context it came from.
type QualifyInput struct {
	Features     FeatureVector
	Explanations Explanations
	Lead         Lead
	Criteria     []Criterion
	// Model is nil until the organization has a trained model.
	Model  *ActiveModel
	Schema Schema
}

// Qualification is the scored outcome of one qualification event.
type Qualification struct {
	Score             int                       `json:"score"`
	Label             Label                     `json:"label"`
	Breakdown         map[string]CriterionScore `json:"breakdown"`
	RecommendedAction string                    `json:"recommended_action"`
	FitScore          int                       `json:"fit_score"`
	ModelScore        int                       `json:"model_score"`
	ModelVersion      int                       `json:"model_version"`
	Features          FeatureVector             `json:"features"`
}

// Qualify turns an extracted vector into a scored, labelled result.
//
// The ICP fit score is the criterion-weighted average of per-criterion
// matches. The model score applies the active model's weights, or the
// default table when none is trained yet. The headline score is the model
// score once a trained model is active and the fit score before that.
func Qualify(in QualifyInput) Qualification {
	breakdown, values := criterionBreakdown(in)
	fit := fitScore(in.Features, in.Criteria, values)

	weights := DefaultWeights(in.Schema)
	version := 0
	if in.Model != nil && len(in.Model.Weights) > 0 {
		weights = in.Model.Weights
		version = in.Model.Version
	}
	modelScore := Score(in.Features, weights)

	headline := fit
	if version > 0 {
		headline = modelScore
	}
	label := LabelFor(headline)

	return Qualification{
		Score:             headline,
		Label:             label,
		Breakdown:         breakdown,
		RecommendedAction: recommendedAction(label, in.Criteria, values),
		FitScore:          fit,
		ModelScore:        modelScore,
		ModelVersion:      version,
		Features:          in.Features,
	}
}

// criterionBreakdown scores each configured criterion. Without criteria the
// breakdown falls back to the ICP features themselves.
func criterionBreakdown(in QualifyInput) (map[string]CriterionScore, []float64) {
	breakdown := make(map[string]CriterionScore, len(in.Criteria))
	values := make([]float64, len(in.Criteria))

	if len(in.Criteria) == 0 {
		for _, f := range ICPFeatures {
			breakdown[string(f)] = CriterionScore{
				Score: toPercent(in.Features.Get(f)),
				Note:  in.Explanations[f],
			}
		}
		return breakdown, values
	}

	for i, c := range in.Criteria {
		var m match
		if f, ok := c.Type.Feature(); ok {
			m = match{in.Features.Get(f), in.Explanations[f]}
		} else {
			m = matchFreeText(in.Lead, c)
		}
		values[i] = m.value
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = string(c.Type)
		}
		breakdown[name] = CriterionScore{Score: toPercent(m.value), Note: m.note}
	}
	return breakdown, values
}

func fitScore(v FeatureVector, criteria []Criterion, values []float64) int {
	var sum, total float64
	for i, c := range criteria {
		if !usableWeight(c.Weight) {
			continue
		}
		sum += values[i] * c.Weight
		total += c.Weight
	}
	if total > 0 {
		return toPercent(sum / total)
	}

	equal := make(Weights, len(ICPFeatures))
	for _, f := range ICPFeatures {
		equal[f] = 1
	}
	return Score(v, equal)
}

func recommendedAction(label Label, criteria []Criterion, values []float64) string {
	var missed []string
	for i, c := range criteria {
		if c.IsRequired && values[i] < requiredCriterionFloor {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				name = string(c.Type)
			}
			missed = append(missed, name)
		}
	}
	if len(missed) > 0 {
		return fmt.Sprintf("%s (%s)", actionReview, strings.Join(missed, ", "))
	}

	switch label {
	case LabelHot:
		return ActionHot
	case LabelWarm:
		return ActionWarm
	default:
		return ActionCold
	}
}
