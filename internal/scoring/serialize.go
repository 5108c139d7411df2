package scoring

import (
	"encoding/json"
	"math"
)

// SerializeFeatures encodes a vector as a JSON object keyed by feature name.
func SerializeFeatures(v FeatureVector) ([]byte, error) {
	return json.Marshal(v)
}

// DeserializeFeatures decodes a stored vector. Missing, non-numeric or
// non-finite fields read back as NeutralValue; out-of-range values are clamped.
// Malformed input yields a neutral vector.
func DeserializeFeatures(data []byte) FeatureVector {
	v := NeutralVector()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return v
	}

	for _, f := range AllFeatures {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		var value float64
		if err := json.Unmarshal(msg, &value); err != nil {
			continue
		}
		if math.IsInf(value, 0) || math.IsNaN(value) {
			continue
		}
		v.Set(f, value)
	}
	return v
}
