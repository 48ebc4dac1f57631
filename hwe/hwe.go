// Package hwe tests genotype counts for departure from Hardy-Weinberg
// equilibrium. It backs the windowed HWE quality-control reduction.
package hwe

import (
	"math"

	"github.com/BenLubar/memoize"
)

// Counts holds the genotype counts observed at one biallelic site.
type Counts struct {
	HomRef int64 // AA
	Het    int64 // Aa
	HomAlt int64 // aa
}

// RoundCounts converts expected genotype counts (for example, summed dosage
// probabilities) to the nearest whole counts. Negative or NaN inputs become 0.
func RoundCounts(homRef, het, homAlt float64) Counts {
	round := func(x float64) int64 {
		if math.IsNaN(x) || x < 0 {
			return 0
		}
		return int64(math.Round(x))
	}
	return Counts{HomRef: round(homRef), Het: round(het), HomAlt: round(homAlt)}
}

// N is the number of genotyped samples.
func (c Counts) N() int64 {
	return c.HomRef + c.Het + c.HomAlt
}

// Monomorphic reports whether only one allele was observed, in which case
// every test returns P = 1.
func (c Counts) Monomorphic() bool {
	return 2*c.HomRef+c.Het == 0 || 2*c.HomAlt+c.Het == 0
}

var (
	memoizedExact       = memoize.Memoize(Exact).(func(Counts) float64)
	memoizedApproximate = memoize.Memoize(Approximate).(func(Counts) float64)
)

// Fast uses the 1 degree of freedom chi square approximation and only falls
// back to the exact test when the approximate P value is below cutoff.
func Fast(c Counts, cutoff float64) float64 {
	p := memoizedApproximate(c)
	if p < cutoff {
		return memoizedExact(c)
	}
	return p
}
