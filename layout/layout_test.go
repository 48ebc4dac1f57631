package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/ramcsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	row := []string{"1:751756:C:T", "C", "1.4113e-06", "1", "751756", "C", "T"}
	l, err := New("AVKNG2018")
	require.NoError(t, err)

	site, err := l.ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, Site{Chromosome: "1", Position: 751756}, site)
}

func TestLDPredLayout(t *testing.T) {
	row := []string{"chrom_1", "751756", "1:751756:C:T", "C", "T", "NA", "1.4113e-06"}
	l, err := New("ldpred")
	require.NoError(t, err)

	site, err := l.ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, Site{Chromosome: "1", Position: 751756}, site)
	assert.Equal(t, ramcsv.Options{Comma: ' ', Comment: '#', Columns: []int{6}, Names: []string{"score"}}, l.Options())

	_, err = l.ParseRow(row[:1])
	assert.Error(t, err)
}

func TestUnknownLayout(t *testing.T) {
	_, err := New("PLINK3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AVKNG2018, BOLT, LDPRED, REGENIE")
}

func TestFixChromosome(t *testing.T) {
	for in, want := range map[string]string{
		"01":      "1",
		"chr01":   "1",
		"CHR22":   "22",
		"chrom_3": "3",
		"chrX":    "X",
		"X":       "X",
		"chr":     "chr",
	} {
		assert.Equal(t, want, FixChromosome(in), in)
	}
}

func TestFromHeader(t *testing.T) {
	header := []string{"#CHROM", "GENPOS", "ID", "BETA", "SE"}
	l, err := FromHeader(header, ' ', "chrom", "genpos", "se", "BETA")
	require.NoError(t, err)
	assert.Equal(t, 0, l.ColChromosome)
	assert.Equal(t, 1, l.ColPosition)
	assert.Equal(t, []int{4, 3}, l.ColValues)
	assert.Equal(t, []string{"SE", "BETA"}, l.ValueNames)
	assert.Equal(t, rune(0), l.Comment)

	_, err = FromHeader(header, ' ', "chrom", "pos", "se")
	assert.Error(t, err)
	_, err = FromHeader(header, ' ', "chrom", "genpos")
	assert.Error(t, err)
}

func TestReadAxis(t *testing.T) {
	l, err := New("REGENIE")
	require.NoError(t, err)

	body := strings.Join([]string{
		"CHROM GENPOS ID ALLELE0 ALLELE1 A1FREQ INFO N TEST BETA SE CHISQ LOG10P",
		"1 100 rs1 A G 0.1 1 500 ADD 0.2 0.1 4 1.3",
		"1 100 rs2 A T 0.2 1 500 ADD 0.2 0.1 4 1.3",
		"1 250 rs3 C G 0.3 1 500 ADD 0.2 0.1 4 1.3",
		"02 5 rs4 C G 0.3 1 500 ADD 0.2 0.1 4 1.3",
	}, "\n")
	ax, err := l.ReadAxis(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 4, ax.Len())
	c, ok := ax.Contig("2")
	require.True(t, ok)
	assert.Equal(t, 3, c.Offset)

	unsorted := "CHROM GENPOS\n1 200\n1 100\n"
	_, err = l.ReadAxis(strings.NewReader(unsorted))
	assert.True(t, errors.Is(err, axis.ErrUnsorted))
}
