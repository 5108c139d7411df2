package scoring

import "math"

// Label is the categorical bucket derived from a score.
type Label string

const (
	LabelHot  Label = "hot"
	LabelWarm Label = "warm"
	LabelCold Label = "cold"
)

// Fixed label thresholds.
const (
	HotThreshold  = 80
	WarmThreshold = 50
)

// NeutralScore is returned when no weight mass is available.
const NeutralScore = 50

// Score applies weights to a feature vector: the weighted average of the
// weighted features, scaled to 0-100, rounded and clamped. Unusable weights
// count as zero; a zero total yields NeutralScore. Terms are accumulated in
// canonical feature order so equal inputs always round the same way.
func Score(v FeatureVector, w Weights) int {
	var sum, total float64
	for _, f := range AllFeatures {
		weight, ok := w[f]
		if !ok || !usableWeight(weight) {
			continue
		}
		sum += v.Get(f) * weight
		total += weight
	}
	if total <= 0 {
		return NeutralScore
	}
	return toPercent(sum / total)
}

// LabelFor maps a score onto hot, warm or cold.
func LabelFor(score int) Label {
	switch {
	case score >= HotThreshold:
		return LabelHot
	case score >= WarmThreshold:
		return LabelWarm
	default:
		return LabelCold
	}
}

// toPercent converts a unit value to a rounded, clamped 0-100 integer.
func toPercent(value float64) int {
	if math.IsNaN(value) {
		return NeutralScore
	}
	score := int(math.Round(value * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
