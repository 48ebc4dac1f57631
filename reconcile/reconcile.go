// Package reconcile computes the common refinement of a storage chunking and a
// window sequence: the smallest set of cut points that contains every storage
// chunk boundary and every window boundary. It works on boundary metadata only.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/window"
)

// ErrWindowOutOfRange is returned when a window does not lie within the axis.
var ErrWindowOutOfRange = errors.New("window outside of the variant axis")

// Plan is a refined chunking together with the mapping from each window to
// the refined chunks it covers.
type Plan struct {
	length   int
	original []int
	cuts     []int // exclusive ends of the refined chunks, ascending
	spans    []span
}

type span struct {
	first, last int // half-open range of refined chunk indices
}

// Refine returns the plan whose cut points are sort(unique(C ∪ W)), where C are
// the boundaries of c and W the starts and stops of windows. Refinement only
// ever adds cut points, so no refined chunk straddles an original boundary.
func Refine(c axis.Chunking, windows []window.Window) (*Plan, error) {
	n := c.Len()
	if err := c.Validate(n); err != nil {
		return nil, err
	}

	for i, w := range windows {
		if w.Start < 0 || w.Start > w.Stop || w.Stop > n {
			return nil, fmt.Errorf("%w: window %d %s on an axis of %d variants", ErrWindowOutOfRange, i, w, n)
		}
	}

	original := c.Boundaries()
	cuts := merge(original, window.Boundaries(windows))

	p := &Plan{
		length:   n,
		original: original,
		cuts:     cuts,
		spans:    make([]span, len(windows)),
	}
	for i, w := range windows {
		if w.Empty() {
			at := p.chunksBefore(w.Start)
			p.spans[i] = span{first: at, last: at}
			continue
		}
		p.spans[i] = span{first: p.chunksBefore(w.Start), last: p.chunksBefore(w.Stop)}
	}

	return p, nil
}

// merge unions two ascending sets of cut points, dropping 0 and duplicates.
func merge(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next int
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			next = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			next = b[j]
			j++
		default:
			next = a[i]
			i++
			j++
		}

		if next == 0 || (len(out) > 0 && out[len(out)-1] == next) {
			continue
		}
		out = append(out, next)
	}
	return out
}

// chunksBefore counts the refined chunks that end at or before pos.
func (p *Plan) chunksBefore(pos int) int {
	return sort.SearchInts(p.cuts, pos+1)
}

// Len is the axis length the plan was built for.
func (p *Plan) Len() int {
	return p.length
}

// CutPoints returns the refined cut points (exclusive chunk ends).
func (p *Plan) CutPoints() []int {
	out := make([]int, len(p.cuts))
	copy(out, p.cuts)
	return out
}

// OriginalCutPoints returns the cut points of the storage chunking.
func (p *Plan) OriginalCutPoints() []int {
	out := make([]int, len(p.original))
	copy(out, p.original)
	return out
}

// Chunking returns the refined chunking as block sizes.
func (p *Plan) Chunking() axis.Chunking {
	c, _ := axis.FromBoundaries(p.cuts)
	return c
}

// NumChunks is the number of refined chunks.
func (p *Plan) NumChunks() int {
	return len(p.cuts)
}

// ChunkRange returns the axis range [start, stop) of refined chunk j.
func (p *Plan) ChunkRange(j int) (start, stop int) {
	if j > 0 {
		start = p.cuts[j-1]
	}
	return start, p.cuts[j]
}

// NumWindows is the number of windows the plan was built for.
func (p *Plan) NumWindows() int {
	return len(p.spans)
}

// WindowChunks returns the half-open range of refined chunk indices that
// exactly tile window i. The range is empty for zero-length windows.
func (p *Plan) WindowChunks(i int) (first, last int) {
	s := p.spans[i]
	return s.first, s.last
}

// Empty reports whether window i has zero length. Such windows add no cut
// points and are reduced over an empty slice.
func (p *Plan) Empty(i int) bool {
	return p.spans[i].first == p.spans[i].last
}

// Spanning counts the windows that cover more than one refined chunk and so
// need their chunks stitched together or their partials combined.
func (p *Plan) Spanning() int {
	n := 0
	for _, s := range p.spans {
		if s.last-s.first > 1 {
			n++
		}
	}
	return n
}

// Added is the number of cut points the windows contributed beyond the
// storage chunking.
func (p *Plan) Added() int {
	return len(p.cuts) - len(p.original)
}

// Covered reports, for every refined chunk, whether at least one window
// includes it. Chunks that fall in the gaps between windows need not be read.
func (p *Plan) Covered() []bool {
	out := make([]bool, len(p.cuts))
	for _, s := range p.spans {
		for j := s.first; j < s.last; j++ {
			out[j] = true
		}
	}
	return out
}
