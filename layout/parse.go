package layout

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/genowindow/axis"
)

func defaultParseRow(l *Layout, row []string) (Site, error) {
	if l.ColChromosome >= len(row) || l.ColPosition >= len(row) {
		return Site{}, fmt.Errorf("row has %d fields, need columns %d and %d", len(row), l.ColChromosome, l.ColPosition)
	}

	pos, err := strconv.ParseInt(strings.TrimSpace(row[l.ColPosition]), 10, 64)
	if err != nil {
		return Site{}, err
	}

	return Site{Chromosome: FixChromosome(row[l.ColChromosome]), Position: pos}, nil
}

// FixChromosome strips "chrom_" and "chr" prefixes and removes preceding
// zeroes from numeric chromosome names, so that "chr01", "chrom_1" and "1"
// all name the same contig.
func FixChromosome(chromosome string) string {
	chromosome = strings.TrimSpace(chromosome)
	for _, prefix := range []string{"chrom_", "chr"} {
		if len(chromosome) > len(prefix) && strings.EqualFold(chromosome[:len(prefix)], prefix) {
			chromosome = chromosome[len(prefix):]
			break
		}
	}

	number, err := strconv.ParseInt(chromosome, 10, 64)
	if err != nil {
		return chromosome
	}
	return strconv.FormatInt(number, 10)
}

// ReadAxis streams a table in this layout and builds its variant axis. The
// rows must be grouped by chromosome and sorted by position within each.
func (l *Layout) ReadAxis(r io.Reader) (*axis.Axis, error) {
	cr := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	cr.Comma = l.Delimiter
	cr.Comment = l.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	b := axis.NewBuilder()
	header := l.Header
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		site, err := l.ParseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if err := b.Add(site.Chromosome, site.Position); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
	}

	return b.Axis()
}
