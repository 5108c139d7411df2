package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Weights maps features to their relative importance. Published model weights
// sum to 1.0; features absent from the map do not contribute to a score.
type Weights map[Feature]float64

// weightTolerance is the allowed drift from 1.0 when validating a weight set.
const weightTolerance = 0.001

// defaultExtendedWeights expresses ICP fit 35%, AI enrichment 25%,
// behavioral 30% and data quality 10%.
var defaultExtendedWeights = Weights{
	CompanySizeMatch: 0.08,
	IndustryMatch:    0.08,
	BudgetMatch:      0.07,
	TimelineMatch:    0.06,
	JobTitleMatch:    0.06,

	BuyingIntentScore:  0.08,
	AuthorityLevel:     0.07,
	CompanyHealthScore: 0.05,
	UrgencyIndicators:  0.05,

	EngagementScore:       0.07,
	BehavioralIntentScore: 0.08,
	RecencyScore:          0.05,
	FrequencyScore:        0.04,
	ChannelQualityScore:   0.06,

	DataCompleteness: 0.05,
	ContactQuality:   0.05,
}

// DefaultWeights returns the fallback weight table for a schema. The basic
// schema drops the behavioral group and renormalizes the rest, so both
// tables derive from one definition.
func DefaultWeights(schema Schema) Weights {
	w := make(Weights, len(defaultExtendedWeights))
	for _, f := range schema.Features() {
		w[f] = defaultExtendedWeights[f]
	}
	if schema.Extended {
		return w
	}
	return w.Normalize()
}

// Sum returns the total of all weights, added in canonical order.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, f := range w.Features() {
		total += w[f]
	}
	return total
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for f, v := range w {
		out[f] = v
	}
	return out
}

// Normalize returns a copy scaled to sum to 1.0. Negative or non-finite
// entries are treated as zero. A zero-sum set is returned unchanged.
func (w Weights) Normalize() Weights {
	out := make(Weights, len(w))
	total := 0.0
	for _, f := range w.Features() {
		v := w[f]
		if !usableWeight(v) {
			v = 0
		}
		out[f] = v
		total += v
	}
	if total <= 0 {
		return out
	}
	for f := range out {
		out[f] /= total
	}
	return out
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w Weights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("weights are empty")
	}
	for _, f := range w.Features() {
		v := w[f]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s is not finite", f)
		}
		if v < 0 {
			return fmt.Errorf("negative weight %s: %f", f, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", sum)
	}
	return nil
}

// Restrict returns a copy limited to the features of schema, renormalized.
// Features of the schema missing from w take their default weight first.
func (w Weights) Restrict(schema Schema) Weights {
	defaults := DefaultWeights(schema)
	out := make(Weights, len(defaults))
	for _, f := range schema.Features() {
		if v, ok := w[f]; ok && usableWeight(v) {
			out[f] = v
		} else {
			out[f] = defaults[f]
		}
	}
	return out.Normalize()
}

// Features returns the weighted features in canonical order.
func (w Weights) Features() []Feature {
	out := make([]Feature, 0, len(w))
	for _, f := range AllFeatures {
		if _, ok := w[f]; ok {
			out = append(out, f)
		}
	}
	// Unknown keys sort after the canonical schema.
	extra := make([]Feature, 0)
	for f := range w {
		if !knownFeature(f) {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// WeightsFromMap converts a persisted name->weight map, dropping unknown names.
func WeightsFromMap(raw map[string]float64) Weights {
	w := make(Weights, len(raw))
	for name, v := range raw {
		f := Feature(name)
		if knownFeature(f) {
			w[f] = v
		}
	}
	return w
}

func knownFeature(f Feature) bool {
	for _, candidate := range AllFeatures {
		if candidate == f {
			return true
		}
	}
	return false
}

func usableWeight(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
