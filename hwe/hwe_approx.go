package hwe

import (
	"math"

	"github.com/tokenme/probab/dst"
)

// Approximate returns the chi square (1 df) P value for c. Statistics too
// large for dst to evaluate yield 0, so Fast falls through to Exact.
func Approximate(c Counts) (p float64) {
	defer func() {
		if recover() != nil {
			p = 0
		}
	}()

	p = 1.0 - dst.ChiSquareCDF(1)(chiSquare(c))
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	return math.Min(p, 1)
}

// chiSquare compares observed genotype counts with those expected from the
// observed allele frequencies.
func chiSquare(c Counts) float64 {
	// Not biallelic in this sample: report no departure rather than NaN.
	if c.Monomorphic() {
		return 0.0
	}

	AA, Aa, aa := float64(c.HomRef), float64(c.Het), float64(c.HomAlt)
	N := AA + Aa + aa

	// Frequencies come from allele counts, not sample counts.
	alleles := 2 * N
	pA := (2*AA + Aa) / alleles
	pa := (2*aa + Aa) / alleles

	eAA := pA * pA * N
	eAa := 2.0 * pA * pa * N
	eaa := pa * pa * N

	return math.Pow(eAA-AA, 2)/eAA +
		math.Pow(eAa-Aa, 2)/eAa +
		math.Pow(eaa-aa, 2)/eaa
}
