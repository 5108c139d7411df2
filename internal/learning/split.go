package learning

import (
	"math/rand/v2"
	"time"
)

// SplitFunc partitions examples into train and test sets. It must not
// modify its input.
type SplitFunc func(examples []Example) (train, test []Example)

// SeededSplit shuffles with a fixed seed and cuts 80/20, so the same input
// always yields the same split.
func SeededSplit(seed uint64) SplitFunc {
	return func(examples []Example) ([]Example, []Example) {
		return shuffleSplit(examples, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	}
}

// RandomSplit seeds each call from the clock.
func RandomSplit() SplitFunc {
	return func(examples []Example) ([]Example, []Example) {
		seed := uint64(time.Now().UnixNano())
		return SeededSplit(seed)(examples)
	}
}

func shuffleSplit(examples []Example, rng *rand.Rand) ([]Example, []Example) {
	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := len(shuffled) * 4 / 5
	return shuffled[:cut], shuffled[cut:]
}
