// Package stats holds the descriptive statistics used by the cleaning filters
// and dataset summaries. Quantiles use linear interpolation between closest
// ranks, the same definition dataframe libraries use by default.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoValues is returned when a statistic is requested over no observations.
var ErrNoValues = errors.New("no values")

// DefaultIQRMultiplier is the conventional Tukey fence factor.
const DefaultIQRMultiplier = 1.5

// Bounds are the interquartile-range fences of a sample.
type Bounds struct {
	Q1, Q3 float64
	IQR    float64
	Lower  float64
	Upper  float64
}

// Contains reports whether x lies strictly inside the fences.
func (b Bounds) Contains(x float64) bool {
	return x > b.Lower && x < b.Upper
}

func (b Bounds) String() string {
	return fmt.Sprintf("q1=%g q3=%g iqr=%g bounds=(%g, %g)", b.Q1, b.Q3, b.IQR, b.Lower, b.Upper)
}

// IQRBounds computes q1/q3 and the fences q1-k*iqr, q3+k*iqr.
func IQRBounds(values []float64, k float64) (Bounds, error) {
	if len(values) == 0 {
		return Bounds{}, ErrNoValues
	}
	s := sortedCopy(values)
	q1 := Quantile(s, 0.25)
	q3 := Quantile(s, 0.75)
	iqr := q3 - q1
	return Bounds{Q1: q1, Q3: q3, IQR: iqr, Lower: q1 - k*iqr, Upper: q3 + k*iqr}, nil
}

// Summary mirrors a dataframe describe() row for a numeric column.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe computes count, mean, sample std, min, quartiles and max.
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrNoValues
	}
	s := sortedCopy(values)
	out := Summary{
		Count:  len(s),
		Min:    s[0],
		Max:    s[len(s)-1],
		Q1:     Quantile(s, 0.25),
		Median: Quantile(s, 0.5),
		Q3:     Quantile(s, 0.75),
	}
	// Welford
	var mean, m2 float64
	for i, x := range values {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	out.Mean = mean
	if len(values) > 1 {
		out.Std = math.Sqrt(m2 / float64(len(values)-1))
	} else {
		out.Std = math.NaN()
	}
	return out, nil
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := sortedCopy(vals)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// RobustZ counts values whose robust z-score 0.6745*(v-median)/MAD exceeds thr
// and returns the largest |z| seen. A zero MAD yields no outliers.
func RobustZ(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := MedianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// Pearson returns the correlation of paired samples. ok is false when there
// are fewer than two pairs or either side has zero variance.
func Pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0, false
	}
	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
		sumXY += x[i] * y[i]
	}
	fn := float64(n)
	denom := math.Sqrt((fn*sumXX - sumX*sumX) * (fn*sumYY - sumY*sumY))
	if denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	r = (fn*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// Quantile reads the q-th quantile from an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
