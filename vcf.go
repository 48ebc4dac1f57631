package genowindow

import (
	"context"
	"fmt"
	"io"

	"github.com/brentp/vcfgo"
	"github.com/carbocation/genowindow/layout"
	"github.com/carbocation/genowindow/logging"
)

// ReadVCFGenotypes summarizes the genotype calls of every variant in a VCF.
// For multiallelic sites only the first alternate allele is counted as alt;
// other alternate alleles count towards the allele number like the reference.
func ReadVCFGenotypes(ctx context.Context, r io.Reader) (*Genotypes, error) {
	log := logging.FromContext(ctx)

	// Lazy genotype parsing; samples are parsed per variant below.
	rdr, err := vcfgo.NewReader(r, true)
	if rdr == nil {
		return nil, fmt.Errorf("invalid VCF: %w", err)
	}
	if err != nil {
		log.Warnw("VCF header has invalid features, attempting to continue", "error", err)
		rdr.Clear()
	}
	if err := rdr.Error(); err != nil {
		log.Warnw("VCF header has invalid features, attempting to continue", "error", err)
		rdr.Clear()
	}

	b := newGenotypeBuilder()
	for i := 0; ; i++ {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		variant := rdr.Read()
		if variant == nil {
			break
		}

		if err := variant.Header.ParseSamples(variant); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", variant.Chromosome, variant.Pos, err)
		}

		gts := make([][]int, len(variant.Samples))
		for i, sample := range variant.Samples {
			if sample != nil {
				gts[i] = sample.GT
			}
		}

		if err := b.add(layout.FixChromosome(variant.Chromosome), int64(variant.Pos), tallyCalls(gts)); err != nil {
			return nil, err
		}
	}
	if err := rdr.Error(); err != nil {
		return nil, err
	}

	g, err := b.build()
	if err != nil {
		return nil, err
	}
	log.Debugw("Read VCF genotypes", "variants", g.Len(), "contigs", len(g.Axis.Contigs()))
	return g, nil
}

// tallyCalls counts genotypes from VCF allele indices. Samples with any
// missing allele (-1) are skipped.
func tallyCalls(gts [][]int) tally {
	var t tally
	for _, gt := range gts {
		if len(gt) == 0 {
			continue
		}

		alt, missing := 0, false
		for _, allele := range gt {
			switch allele {
			case -1:
				missing = true
			case 1:
				alt++
			}
		}
		if missing {
			continue
		}

		t.alt += float64(alt)
		t.alleles += float64(len(gt))
		if len(gt) != 2 {
			continue
		}
		switch alt {
		case 0:
			t.homRef++
		case 1:
			t.het++
		case 2:
			t.homAlt++
		}
	}
	return t
}
