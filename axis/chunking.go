package axis

import (
	"errors"
	"fmt"
)

// ErrInvalidChunking is returned when chunk sizes or cut points do not
// describe an ordered partition of the axis.
var ErrInvalidChunking = errors.New("invalid chunking")

// Chunking is a partition of the axis into contiguous blocks, stored as block
// sizes in axis order. It carries no biological meaning.
type Chunking []int

// Regular splits n variants into blocks of size, with a shorter final block
// when size does not divide n. A non-positive size yields a single block.
func Regular(n, size int) Chunking {
	if n <= 0 {
		return Chunking{}
	}
	if size <= 0 || size >= n {
		return Chunking{n}
	}

	out := make(Chunking, 0, n/size+1)
	for start := 0; start < n; start += size {
		stop := start + size
		if stop > n {
			stop = n
		}
		out = append(out, stop-start)
	}

	return out
}

// FromBoundaries converts strictly increasing, exclusive cut points (the last
// of which is the axis length) back into block sizes.
func FromBoundaries(cuts []int) (Chunking, error) {
	out := make(Chunking, len(cuts))
	prev := 0
	for i, cut := range cuts {
		if cut <= prev {
			return nil, fmt.Errorf("%w: cut point %d at position %d does not exceed %d", ErrInvalidChunking, cut, i, prev)
		}
		out[i] = cut - prev
		prev = cut
	}
	return out, nil
}

// Len is the number of variants covered by the chunking.
func (c Chunking) Len() int {
	n := 0
	for _, size := range c {
		n += size
	}
	return n
}

// Boundaries returns the exclusive end of every block, e.g. [4 3 3] yields
// [4 7 10]. The implicit leading 0 is omitted.
func (c Chunking) Boundaries() []int {
	out := make([]int, len(c))
	pos := 0
	for i, size := range c {
		pos += size
		out[i] = pos
	}
	return out
}

// Validate checks that every block is non-empty and that the blocks cover
// exactly n variants.
func (c Chunking) Validate(n int) error {
	for i, size := range c {
		if size <= 0 {
			return fmt.Errorf("%w: block %d has size %d", ErrInvalidChunking, i, size)
		}
	}
	if total := c.Len(); total != n {
		return fmt.Errorf("%w: blocks cover %d variants, axis has %d", ErrInvalidChunking, total, n)
	}
	return nil
}
