package genowindow

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/layout"
)

// Map columns in the BIM file to their positions
const (
	Chromosome int = iota
	VariantID
	Morgans
	Coordinate
	Allele1
	Allele2
)

type BIMRow struct {
	Chromosome string
	Coordinate uint32 // Labeled "position" by most applications
	VariantID  string // E.g., RSID
	Allele1    string // Can contain > 1 character
	Allele2    string // Can contain > 1 character
	// Morgans string // This is excluded intentionally
}

// BIM reads PLINK .bim rows one at a time.
type BIM struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

func NewBIM(r io.Reader) *BIM {
	return &BIM{scanner: bufio.NewScanner(r)}
}

func (b *BIM) Err() error {
	if b.err != nil {
		return b.err
	}

	return b.scanner.Err()
}

// Read returns the next row, or nil at the end of the file or on error.
func (b *BIM) Read() *BIMRow {
	for b.err == nil && b.scanner.Scan() {
		b.line++
		cols := strings.Fields(b.scanner.Text())
		if len(cols) == 0 {
			continue
		}

		if len(cols) < Allele2+1 {
			b.err = fmt.Errorf("bim line %d: %d fields, want %d", b.line, len(cols), Allele2+1)
			return nil
		}

		row := &BIMRow{
			Chromosome: cols[Chromosome],
			VariantID:  cols[VariantID],
			Allele1:    cols[Allele1],
			Allele2:    cols[Allele2],
		}

		coord64, err := strconv.ParseUint(cols[Coordinate], 10, 32)
		if err != nil {
			b.err = fmt.Errorf("bim line %d: %w", b.line, err)
			return nil
		}
		row.Coordinate = uint32(coord64)

		return row
	}

	return nil
}

// ReadBIMAxis builds the variant axis described by a .bim file.
func ReadBIMAxis(r io.Reader) (*axis.Axis, error) {
	bim := NewBIM(r)
	b := axis.NewBuilder()
	for row := bim.Read(); row != nil; row = bim.Read() {
		if err := b.Add(layout.FixChromosome(row.Chromosome), int64(row.Coordinate)); err != nil {
			return nil, fmt.Errorf("%s: %w", row.VariantID, err)
		}
	}
	if err := bim.Err(); err != nil {
		return nil, err
	}
	return b.Axis()
}
