package genowindow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/genowindow/axis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBIMAxis(t *testing.T) {
	bim := strings.Join([]string{
		"1\trs1\t0\t100\tA\tG",
		"1\trs2\t0\t200\tC\tT",
		"",
		"chr02\trs3\t0\t50\tG\tA",
	}, "\n")
	ax, err := ReadBIMAxis(strings.NewReader(bim))
	require.NoError(t, err)
	assert.Equal(t, 3, ax.Len())
	c, ok := ax.Contig("2")
	require.True(t, ok)
	assert.Equal(t, axis.Contig{Name: "2", Offset: 2, Length: 1}, c)

	_, err = ReadBIMAxis(strings.NewReader("1\trs1\t0\t100\tA\tG\n2\trs2\t0\t1\tA\tG\n1\trs3\t0\t300\tA\tG\n"))
	assert.True(t, errors.Is(err, axis.ErrInterleaved))

	_, err = ReadBIMAxis(strings.NewReader("1\trs1\t0\tabc\tA\tG\n"))
	assert.Error(t, err)

	_, err = ReadBIMAxis(strings.NewReader("1\trs1\t0\n"))
	assert.Error(t, err)
}

func TestTallyCalls(t *testing.T) {
	got := tallyCalls([][]int{
		{0, 0},
		{0, 1},
		{1, 1},
		{1, 0},
		{-1, 1},
		nil,
		{0, 2}, // second alt allele counts as reference
		{1},    // haploid
	})
	assert.Equal(t, tally{homRef: 2, het: 2, homAlt: 1, alt: 5, alleles: 11}, got)
}

func TestTallyProbabilities(t *testing.T) {
	got := tallyProbabilities([][]float64{
		{1, 0, 0},
		{0.25, 0.5, 0.25},
		{0, 0, 1},
		nil,
		{0.5, 0.5},
	})
	assert.Equal(t, tally{homRef: 1.25, het: 0.5, homAlt: 1.25, alt: 3, alleles: 6}, got)
}

const vcf = `##fileformat=VCFv4.2
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	s1	s2	s3
1	100	rs1	A	G	.	PASS	.	GT	0/0	0/1	1/1
1	200	rs2	C	T	.	PASS	.	GT	0|1	./.	0|0
2	50	rs3	G	A	.	PASS	.	GT	1/1	1/1	0/1
`

func TestReadVCFGenotypes(t *testing.T) {
	g, err := ReadVCFGenotypes(context.Background(), strings.NewReader(vcf))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []float64{1, 1, 1, 3, 6}, g.Row(0))
	assert.Equal(t, []float64{1, 1, 0, 1, 4}, g.Row(1))
	assert.Equal(t, []float64{0, 1, 2, 5, 6}, g.Row(2))

	a, err := g.Array("gt", 2)
	require.NoError(t, err)
	assert.Equal(t, GenotypeColumns, a.Columns())
	assert.Equal(t, axis.Chunking{2, 1}, a.Chunking())

	b, err := a.Chunk(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 5, 6}, b.Row(0))
}
