package learning

import (
	"fmt"
	"math"

	"leadscore_backend/internal/scoring"
)

const (
	// MinExamples is the smallest labelled set a model is trained on.
	MinExamples = 50

	// ConvertThreshold is the score at or above which a lead is predicted to convert.
	ConvertThreshold = 70

	// MinAccuracy is the validation accuracy a replacement model must reach.
	MinAccuracy = 0.5

	trainingPasses   = 10
	baseLearningRate = 0.1
	stepScale        = 0.01
	minWeight        = 0.01
	maxWeight        = 0.5
	importanceOffset = 0.01
)

// Trainer fits feature weights to labelled examples. It holds no state
// beyond its configuration and is safe for concurrent use.
type Trainer struct {
	schema scoring.Schema
	split  SplitFunc
}

// NewTrainer creates a trainer for a feature schema. A nil split uses a
// time-seeded shuffle.
func NewTrainer(schema scoring.Schema, split SplitFunc) *Trainer {
	if split == nil {
		split = RandomSplit()
	}
	return &Trainer{schema: schema, split: split}
}

// Schema returns the feature schema the trainer weights.
func (t *Trainer) Schema() scoring.Schema {
	return t.schema
}

// Train splits the examples, fits weights starting from initial and
// validates them on the held-out part. It returns ErrInsufficientData
// below MinExamples.
func (t *Trainer) Train(examples []Example, initial scoring.Weights) (Draft, error) {
	if len(examples) < MinExamples {
		return Draft{}, fmt.Errorf("%w: %d examples, need %d", ErrInsufficientData, len(examples), MinExamples)
	}

	train, test := t.split(examples)
	weights := t.Fit(train, initial)

	metrics := Evaluate(test, weights)
	metrics.TrainSize = len(train)
	metrics.TestSize = len(test)
	metrics.FeatureImportance = t.FeatureImportance(examples)

	return Draft{
		Weights:        weights,
		Metrics:        metrics,
		TrainedOnCount: len(examples),
	}, nil
}

// Fit runs the decaying-rate weight adjustment. Each pass scores every
// example with the weights the pass started from, then nudges each feature
// weight by the average error times the feature value. Weights are clamped
// to [0.01, 0.5] during the passes and normalized at the end.
func (t *Trainer) Fit(examples []Example, initial scoring.Weights) scoring.Weights {
	if len(initial) == 0 {
		initial = scoring.DefaultWeights(t.schema)
	}
	weights := initial.Restrict(t.schema)
	if len(examples) == 0 {
		return weights
	}

	features := t.schema.Features()
	errs := make([]float64, len(examples))

	for pass := 0; pass < trainingPasses; pass++ {
		learningRate := baseLearningRate / float64(pass+1)

		for i, ex := range examples {
			predicted := float64(scoring.Score(ex.Features, weights))
			errs[i] = ex.Outcome.Target() - predicted
		}

		next := weights.Clone()
		for _, f := range features {
			gradient := 0.0
			for i, ex := range examples {
				gradient += errs[i] * ex.Features.Get(f)
			}
			gradient /= float64(len(examples))

			next[f] = clamp(weights[f]+learningRate*gradient*stepScale, minWeight, maxWeight)
		}
		weights = next
	}

	return weights.Normalize()
}

// FeatureImportance compares mean feature values of converted leads with
// rejected or unresponsive ones. Differences are shifted positive and
// normalized. Without both cohorts it returns the default weights.
func (t *Trainer) FeatureImportance(examples []Example) scoring.Weights {
	features := t.schema.Features()
	positive := make([]float64, len(features))
	negative := make([]float64, len(features))
	var nPos, nNeg int

	for _, ex := range examples {
		switch {
		case ex.Outcome.Positive():
			nPos++
			for i, f := range features {
				positive[i] += ex.Features.Get(f)
			}
		case ex.Outcome.Negative():
			nNeg++
			for i, f := range features {
				negative[i] += ex.Features.Get(f)
			}
		}
	}
	if nPos == 0 || nNeg == 0 {
		return scoring.DefaultWeights(t.schema)
	}

	diffs := make([]float64, len(features))
	lowest := math.Inf(1)
	for i := range features {
		diffs[i] = positive[i]/float64(nPos) - negative[i]/float64(nNeg)
		lowest = math.Min(lowest, diffs[i])
	}

	shift := math.Abs(lowest) + importanceOffset
	out := make(scoring.Weights, len(features))
	for i, f := range features {
		out[f] = diffs[i] + shift
	}
	return out.Normalize()
}

// Evaluate scores held-out examples and compares the convert prediction
// (score >= ConvertThreshold) with the recorded outcome.
func Evaluate(examples []Example, weights scoring.Weights) Metrics {
	var tp, fp, tn, fn float64
	for _, ex := range examples {
		predicted := scoring.Score(ex.Features, weights) >= ConvertThreshold
		actual := ex.Outcome.Positive()
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		default:
			tn++
		}
	}

	m := Metrics{
		Accuracy:  ratio(tp+tn, tp+tn+fp+fn),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	specificity := ratio(tn, tn+fp)
	m.AUC = (m.Recall + specificity) / 2
	return m
}

// Publishable applies the regression gate: a model below MinAccuracy is only
// published when no model is active yet. The reason is empty when the model
// may be published.
func Publishable(m Metrics, hasPrior bool) (bool, string) {
	if hasPrior && m.Accuracy < MinAccuracy {
		return false, fmt.Sprintf("validation accuracy %.3f below %.2f; keeping the active model", m.Accuracy, MinAccuracy)
	}
	return true, ""
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
