// Package axis describes the variant axis shared by every array in a windowed
// computation: which contig each variant sits on, its coordinate, and how the
// axis is cut into storage chunks.
package axis

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnsorted is returned when coordinates decrease within a contig.
	ErrUnsorted = errors.New("coordinates are not sorted within contig")

	// ErrInterleaved is returned when a contig reappears after another contig
	// has started.
	ErrInterleaved = errors.New("contigs are interleaved on the variant axis")
)

// Contig is a named, contiguous run of variants on the axis.
type Contig struct {
	Name   string
	Offset int // Axis index of the first variant
	Length int // Number of variants
}

// Stop is the exclusive axis index at which the contig ends.
func (c Contig) Stop() int {
	return c.Offset + c.Length
}

// Axis is an immutable, ordered sequence of (contig, coordinate) records.
type Axis struct {
	contigs     []Contig
	byName      map[string]int
	coordinates []int64
}

// Len is the total number of variants across all contigs.
func (a *Axis) Len() int {
	return len(a.coordinates)
}

// Contigs returns the contigs in axis order, including declared contigs with
// zero variants.
func (a *Axis) Contigs() []Contig {
	out := make([]Contig, len(a.contigs))
	copy(out, a.contigs)
	return out
}

// Contig looks up a contig by name.
func (a *Axis) Contig(name string) (Contig, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Contig{}, false
	}
	return a.contigs[i], true
}

// Coordinate returns the coordinate of the variant at axis index i.
func (a *Axis) Coordinate(i int) int64 {
	return a.coordinates[i]
}

// Coordinates returns the coordinates of the variants on c. The returned slice
// aliases the axis and must not be modified.
func (a *Axis) Coordinates(c Contig) []int64 {
	return a.coordinates[c.Offset:c.Stop():c.Stop()]
}

// LowerBound returns the axis index of the first variant on c whose coordinate
// is >= coord, or c.Stop() if there is none.
func (a *Axis) LowerBound(c Contig, coord int64) int {
	coords := a.Coordinates(c)
	return c.Offset + sort.Search(len(coords), func(i int) bool { return coords[i] >= coord })
}

// UpperBound returns the axis index of the first variant on c whose coordinate
// is > coord, or c.Stop() if there is none.
func (a *Axis) UpperBound(c Contig, coord int64) int {
	coords := a.Coordinates(c)
	return c.Offset + sort.Search(len(coords), func(i int) bool { return coords[i] > coord })
}

// Builder accumulates variants in axis order.
type Builder struct {
	axis *Axis
	err  error
}

func NewBuilder() *Builder {
	return &Builder{
		axis: &Axis{byName: make(map[string]int)},
	}
}

// DeclareContig registers a contig so that it is known to the axis even if no
// variants are ever added to it.
func (b *Builder) DeclareContig(name string) error {
	if b.err != nil {
		return b.err
	}
	if _, exists := b.axis.byName[name]; exists {
		return nil
	}
	b.open(name)
	return nil
}

// Add appends one variant. The first error is sticky.
func (b *Builder) Add(contig string, coordinate int64) error {
	if b.err != nil {
		return b.err
	}

	a := b.axis
	idx, exists := a.byName[contig]
	if !exists {
		idx = b.open(contig)
	} else if idx != len(a.contigs)-1 {
		b.err = fmt.Errorf("%w: %s seen again at index %d", ErrInterleaved, contig, len(a.coordinates))
		return b.err
	}

	c := &a.contigs[idx]
	if c.Length > 0 && a.coordinates[len(a.coordinates)-1] > coordinate {
		b.err = fmt.Errorf("%w: %s:%d follows %s:%d", ErrUnsorted, contig, coordinate, contig, a.coordinates[len(a.coordinates)-1])
		return b.err
	}

	a.coordinates = append(a.coordinates, coordinate)
	c.Length++

	return nil
}

func (b *Builder) open(name string) int {
	a := b.axis
	a.contigs = append(a.contigs, Contig{Name: name, Offset: len(a.coordinates)})
	a.byName[name] = len(a.contigs) - 1
	return len(a.contigs) - 1
}

// Axis finalizes the builder.
func (b *Builder) Axis() (*Axis, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.axis, nil
}

// New builds an axis from parallel contig and coordinate slices.
func New(contigs []string, coordinates []int64) (*Axis, error) {
	if len(contigs) != len(coordinates) {
		return nil, fmt.Errorf("axis.New: %d contig labels but %d coordinates", len(contigs), len(coordinates))
	}

	b := NewBuilder()
	for i := range contigs {
		if err := b.Add(contigs[i], coordinates[i]); err != nil {
			return nil, err
		}
	}

	return b.Axis()
}
