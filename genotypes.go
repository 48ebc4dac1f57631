package genowindow

import (
	"fmt"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/chunked"
)

// Columns of the per-variant genotype summary built by the VCF and BGEN
// loaders. BGEN values are expected counts computed from dosages.
const (
	ColHomRef = iota
	ColHet
	ColHomAlt
	ColAltCount
	ColAlleleNumber
)

// GenotypeColumns names the genotype summary columns, in column order.
var GenotypeColumns = []string{"hom_ref", "het", "hom_alt", "alt_count", "allele_number"}

// Genotypes is a variant axis with one genotype summary row per variant.
type Genotypes struct {
	Axis *axis.Axis
	data []float64
}

// Len is the number of variants.
func (g *Genotypes) Len() int {
	return g.Axis.Len()
}

// Row returns the summary of variant i.
func (g *Genotypes) Row(i int) []float64 {
	w := len(GenotypeColumns)
	return g.data[i*w : (i+1)*w]
}

// Array exposes the summaries as a chunked array with regular chunks of
// chunkSize variants.
func (g *Genotypes) Array(name string, chunkSize int) (*chunked.Array, error) {
	m, err := chunked.NewMemory(g.Len(), len(GenotypeColumns), g.data)
	if err != nil {
		return nil, err
	}
	a, err := chunked.New(name, m, axis.Regular(g.Len(), chunkSize))
	if err != nil {
		return nil, err
	}
	return a.WithColumns(GenotypeColumns...)
}

// tally accumulates one variant's summary.
type tally struct {
	homRef, het, homAlt, alt, alleles float64
}

func (t tally) row() []float64 {
	return []float64{t.homRef, t.het, t.homAlt, t.alt, t.alleles}
}

// genotypeBuilder grows an axis and its summary rows in step.
type genotypeBuilder struct {
	axis *axis.Builder
	data []float64
}

func newGenotypeBuilder() *genotypeBuilder {
	return &genotypeBuilder{axis: axis.NewBuilder()}
}

func (b *genotypeBuilder) add(contig string, position int64, t tally) error {
	if err := b.axis.Add(contig, position); err != nil {
		return err
	}
	b.data = append(b.data, t.row()...)
	return nil
}

func (b *genotypeBuilder) build() (*Genotypes, error) {
	ax, err := b.axis.Axis()
	if err != nil {
		return nil, err
	}
	if len(b.data) != ax.Len()*len(GenotypeColumns) {
		return nil, fmt.Errorf("genotype summary has %d values for %d variants", len(b.data), ax.Len())
	}
	return &Genotypes{Axis: ax, data: b.data}, nil
}
