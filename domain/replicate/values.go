package replicate

import (
	"encoding/json"
	"math"
)

// Values is a replicate buffer. NaN replicates are legal (e.g. assortativity
// of a graph with constant degrees) and travel as JSON null.
type Values []float64

// MarshalJSON writes NaN and infinities as null.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(v))
	for i, x := range v {
		out[i] = Nullable(x)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null back as NaN.
func (v *Values) UnmarshalJSON(data []byte) error {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Values, len(in))
	for i, x := range in {
		if x == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *x
	}
	*v = out
	return nil
}

// Nullable returns nil for values JSON cannot carry.
func Nullable(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}
