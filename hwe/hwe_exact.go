package hwe

import "math"

// Exact computes the exact Hardy-Weinberg P value for c (Wigginton, Cutler and
// Abecasis 2005): the total probability of every heterozygote count that is no
// more likely than the observed one, holding the allele counts fixed.
//
// Probabilities of neighbouring heterozygote counts are related by a simple
// ratio, so the distribution is built outward from its mode in one pass and
// normalized at the end. Safe for concurrent use.
func Exact(c Counts) float64 {
	n := c.N()
	if n == 0 {
		return 1.0
	}

	rareHom, commonHom := c.HomAlt, c.HomRef
	if rareHom > commonHom {
		rareHom, commonHom = commonHom, rareHom
	}
	rare := 2*rareHom + c.Het

	probs := make([]float64, rare+1)

	// The mode sits near the expected heterozygote count and shares the
	// parity of the rare allele count.
	mid := int64(float64(rare) * float64(2*n-rare) / float64(2*n))
	if mid%2 != rare%2 {
		mid++
	}

	probs[mid] = 1.0
	sum := 1.0

	homR, homC := (rare-mid)/2, n-mid-(rare-mid)/2
	for het := mid; het > 1; het -= 2 {
		probs[het-2] = probs[het] * float64(het) * float64(het-1) / (4.0 * float64(homR+1) * float64(homC+1))
		sum += probs[het-2]
		homR++
		homC++
	}

	homR, homC = (rare-mid)/2, n-mid-(rare-mid)/2
	for het := mid; het <= rare-2; het += 2 {
		probs[het+2] = probs[het] * 4.0 * float64(homR) * float64(homC) / (float64(het+2) * float64(het+1))
		sum += probs[het+2]
		homR--
		homC--
	}

	observed := probs[c.Het]
	p := 0.0
	for _, q := range probs {
		if q <= observed {
			p += q
		}
	}

	return math.Min(p/sum, 1)
}
