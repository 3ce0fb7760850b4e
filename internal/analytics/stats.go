package analytics

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v float64) {
	a.sum += v
	a.n++
}

func (a meanAcc) mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// meanBy groups values by key and returns the mean of each group
func meanBy[T any, K comparable](rows []T, key func(T) K, value func(T) float64) map[K]float64 {
	accs := map[K]*meanAcc{}
	for _, r := range rows {
		k := key(r)
		a, ok := accs[k]
		if !ok {
			a = &meanAcc{}
			accs[k] = a
		}
		a.add(value(r))
	}
	out := make(map[K]float64, len(accs))
	for k, a := range accs {
		out[k] = a.mean()
	}
	return out
}

// sortedKeys returns map keys in ascending order
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// percentChange is (to-from)/from*100, or nil when from is zero
func percentChange(from, to float64) *float64 {
	if from == 0 {
		return nil
	}
	v := (to - from) / from * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// quantile estimates the p-quantile of sorted data by linear interpolation
// between closest ranks, h = (n-1)p. data must be sorted and non-empty.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// pearson returns the Pearson correlation of x and y, or nil when it is
// undefined: fewer than two points or a constant column.
func pearson(x, y []float64) *float64 {
	if len(x) < 2 || len(x) != len(y) {
		return nil
	}
	if isConstant(x) || isConstant(y) {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
