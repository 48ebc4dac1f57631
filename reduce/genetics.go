package reduce

import (
	"fmt"
	"math"

	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/genowindow/hwe"
)

// AlleleFrequency pools allele counts over the window: the sum of the
// alternate allele count column divided by the sum of the allele number
// column, both taken from the first input. Variants missing either value are
// skipped. NaN when no alleles were observed.
type AlleleFrequency struct {
	AltCol    int
	AlleleCol int
}

func (AlleleFrequency) Name() string { return "allele_frequency" }

func (a AlleleFrequency) Columns(inputs []Shape) ([]string, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("allele_frequency needs an allele count input")
	}
	if w := len(inputs[0].Columns); a.AltCol < 0 || a.AltCol >= w || a.AlleleCol < 0 || a.AlleleCol >= w {
		return nil, fmt.Errorf("allele_frequency: columns %d and %d do not both exist in %s (%d columns)", a.AltCol, a.AlleleCol, inputs[0].Name, w)
	}
	return []string{"alt_count", "allele_number", "alt_frequency"}, nil
}

func (a AlleleFrequency) Reduce(blocks []chunked.Block) (Record, error) {
	alt, total := 0.0, 0.0
	if len(blocks) > 0 {
		b := blocks[0]
		for i := 0; i < b.Rows; i++ {
			x, n := b.At(i, a.AltCol), b.At(i, a.AlleleCol)
			if math.IsNaN(x) || math.IsNaN(n) {
				continue
			}
			alt += x
			total += n
		}
	}

	freq := math.NaN()
	if total > 0 {
		freq = alt / total
	}

	return Record{alt, total, freq}, nil
}

// HWE runs a per-variant Hardy-Weinberg test on genotype count columns of the
// first input and reports, per window, how many variants were tested, how many
// fell below Cutoff, and the smallest P value seen. Counts are rounded, so
// expected counts from dosages can be used directly.
type HWE struct {
	HomRefCol, HetCol, HomAltCol int
	Cutoff                       float64
}

func (HWE) Name() string { return "hwe" }

func (h HWE) Columns(inputs []Shape) ([]string, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("hwe needs a genotype count input")
	}
	w := len(inputs[0].Columns)
	for _, col := range []int{h.HomRefCol, h.HetCol, h.HomAltCol} {
		if col < 0 || col >= w {
			return nil, fmt.Errorf("hwe: column %d does not exist in %s (%d columns)", col, inputs[0].Name, w)
		}
	}
	if h.Cutoff <= 0 || h.Cutoff > 1 {
		return nil, fmt.Errorf("hwe: cutoff %g is not in (0, 1]", h.Cutoff)
	}
	return []string{"hwe_tested", "hwe_failed", "hwe_min_p"}, nil
}

func (h HWE) Reduce(blocks []chunked.Block) (Record, error) {
	tested, failed, minP := 0.0, 0.0, math.NaN()
	if len(blocks) > 0 {
		b := blocks[0]
		for i := 0; i < b.Rows; i++ {
			counts := hwe.RoundCounts(b.At(i, h.HomRefCol), b.At(i, h.HetCol), b.At(i, h.HomAltCol))
			if counts.N() == 0 {
				continue
			}

			p := hwe.Fast(counts, h.Cutoff)
			tested++
			if p < h.Cutoff {
				failed++
			}
			minP = nanPick(minP, p, math.Min)
		}
	}

	return Record{tested, failed, minP}, nil
}

func (h HWE) Partial(blocks []chunked.Block) (Record, error) { return h.Reduce(blocks) }

func (HWE) Combine(partials []Record) (Record, error) {
	out := Record{0, 0, math.NaN()}
	for _, p := range partials {
		if len(p) != 3 {
			return nil, fmt.Errorf("hwe partial has %d values, want 3", len(p))
		}
		out[0] += p[0]
		out[1] += p[1]
		out[2] = nanPick(out[2], p[2], math.Min)
	}
	return out, nil
}
