package profiling

import (
	"encoding/json"

	"randomnet/domain/replicate"
)

// MarshalJSON writes undefined statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count    int      `json:"count"`
		NaNCount int      `json:"nan_count"`
		Mean     *float64 `json:"mean"`
		StdDev   *float64 `json:"stddev"`
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		Median   *float64 `json:"median"`
		P5       *float64 `json:"p5"`
		P95      *float64 `json:"p95"`
		P99      *float64 `json:"p99"`
		Skewness *float64 `json:"skewness"`
	}{
		Count:    s.Count,
		NaNCount: s.NaNCount,
		Mean:     replicate.Nullable(s.Mean),
		StdDev:   replicate.Nullable(s.StdDev),
		Min:      replicate.Nullable(s.Min),
		Max:      replicate.Nullable(s.Max),
		Median:   replicate.Nullable(s.Median),
		P5:       replicate.Nullable(s.P5),
		P95:      replicate.Nullable(s.P95),
		P99:      replicate.Nullable(s.P99),
		Skewness: replicate.Nullable(s.Skewness),
	})
}

// MarshalJSON writes undefined scores as null.
func (s Significance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Observed *float64 `json:"observed"`
		PValue   *float64 `json:"p_value"`
		ZScore   *float64 `json:"z_score"`
		NormalP  *float64 `json:"normal_p"`
	}{
		Observed: replicate.Nullable(s.Observed),
		PValue:   replicate.Nullable(s.PValue),
		ZScore:   replicate.Nullable(s.ZScore),
		NormalP:  replicate.Nullable(s.NormalP),
	})
}
