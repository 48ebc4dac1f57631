package genowindow

import (
	"context"
	"fmt"

	"github.com/carbocation/bgen"
	"github.com/carbocation/genowindow/layout"
)

// ReadBGENGenotypes summarizes the genotype probabilities of every variant in
// a local BGEN file as expected genotype counts and alt allele dosages.
func ReadBGENGenotypes(ctx context.Context, path string) (*Genotypes, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	bg, err := bgen.Open(path)
	if err != nil {
		return nil, err
	}
	defer bg.Close()

	b := newGenotypeBuilder()
	rdr := bg.NewVariantReader()
	for i := 0; ; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		variant := rdr.Read()
		if err := rdr.Error(); err != nil {
			return nil, err
		} else if variant == nil {
			break
		}

		probs := make([][]float64, 0, len(variant.SampleProbabilities))
		for _, v := range variant.SampleProbabilities {
			if v.Missing {
				probs = append(probs, nil)
				continue
			}
			probs = append(probs, v.Probabilities)
		}

		if err := b.add(layout.FixChromosome(variant.Chromosome), int64(variant.Position), tallyProbabilities(probs)); err != nil {
			return nil, fmt.Errorf("%s: %w", variant.RSID, err)
		}
	}

	return b.build()
}

// tallyProbabilities sums diploid, biallelic genotype probabilities into
// expected counts. Samples that are missing or not diploid biallelic are
// skipped.
func tallyProbabilities(probs [][]float64) tally {
	var t tally
	for _, p := range probs {
		if len(p) != 3 {
			continue
		}

		t.homRef += p[0]
		t.het += p[1]
		t.homAlt += p[2]
		// 0 for AA, 1 * prob for AB, 2 * prob for BB
		t.alt += p[1] + 2*p[2]
		t.alleles += 2
	}
	return t
}
