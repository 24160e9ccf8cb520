// Package profiling summarises null distributions and scores observed
// statistics against them.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes the finite part of a null distribution. NaN replicates
// are counted but excluded from every moment and percentile.
type Summary struct {
	Count    int     `json:"count"`
	NaNCount int     `json:"nan_count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	P5       float64 `json:"p5"`
	P95      float64 `json:"p95"`
	P99      float64 `json:"p99"`
	Skewness float64 `json:"skewness"`
}

// Significance scores an observed statistic against its null distribution.
type Significance struct {
	Observed float64 `json:"observed"`
	// PValue is the empirical upper-tail probability, mean(replicate >= observed).
	PValue float64 `json:"p_value"`
	ZScore float64 `json:"z_score"`
	// NormalP is the upper-tail p of ZScore under a standard normal.
	NormalP float64 `json:"normal_p"`
}

// Summarize computes the summary of reps. A distribution with no finite
// values yields NaN for every statistic.
func Summarize(reps []float64) (Summary, error) {
	data := finite(reps)
	s := Summary{Count: len(reps), NaNCount: len(reps) - len(data)}
	if len(data) == 0 {
		nan := math.NaN()
		s.Mean, s.StdDev, s.Min, s.Max, s.Median = nan, nan, nan, nan, nan
		s.P5, s.P95, s.P99, s.Skewness = nan, nan, nan, nan
		return s, nil
	}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return s, err
	}
	if len(data) < 2 {
		s.StdDev = 0
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.P5, err = stats.PercentileNearestRank(data, 5); err != nil {
		return s, err
	}
	if s.P95, err = stats.PercentileNearestRank(data, 95); err != nil {
		return s, err
	}
	if s.P99, err = stats.PercentileNearestRank(data, 99); err != nil {
		return s, err
	}
	s.Skewness = calculateSkewness(data, s.Mean, s.StdDev)
	return s, nil
}

// PValue is the share of finite replicates at or above observed. It is NaN
// when observed is NaN or no finite replicate remains.
func PValue(reps []float64, observed float64) float64 {
	if math.IsNaN(observed) {
		return math.NaN()
	}
	n, hits := 0, 0
	for _, v := range reps {
		if math.IsNaN(v) {
			continue
		}
		n++
		if v >= observed {
			hits++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return float64(hits) / float64(n)
}

// Score builds the significance of observed from reps and their summary.
func Score(reps []float64, summary Summary, observed float64) Significance {
	sig := Significance{
		Observed: observed,
		PValue:   PValue(reps, observed),
		ZScore:   math.NaN(),
		NormalP:  math.NaN(),
	}
	if math.IsNaN(observed) || math.IsNaN(summary.StdDev) || summary.StdDev == 0 {
		return sig
	}
	sig.ZScore = (observed - summary.Mean) / summary.StdDev
	sig.NormalP = distuv.UnitNormal.Survival(sig.ZScore)
	return sig
}

func finite(reps []float64) []float64 {
	out := make([]float64, 0, len(reps))
	for _, v := range reps {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}
