// Package window turns a window specification into the canonical, ordered
// sequence of half-open windows over the variant axis.
package window

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidWindowSpec is returned for contradictory or out-of-range
	// window parameters.
	ErrInvalidWindowSpec = errors.New("invalid window specification")

	// ErrUnknownContig is returned when a window names a contig that is not on
	// the axis. It also matches ErrInvalidWindowSpec.
	ErrUnknownContig = fmt.Errorf("%w: unknown contig", ErrInvalidWindowSpec)

	// ErrEmptyAxis is returned when size-based windowing is asked to tile an
	// axis that holds no variants at all.
	ErrEmptyAxis = errors.New("no variants to window")
)

// Window is a half-open range [Start, Stop) of axis indices on a single
// contig, labelled with the genomic interval it represents.
type Window struct {
	Contig     string
	StartCoord int64
	StopCoord  int64
	Start      int
	Stop       int
}

// Len is the number of variants in the window.
func (w Window) Len() int {
	return w.Stop - w.Start
}

// Empty reports whether the window holds no variants.
func (w Window) Empty() bool {
	return w.Stop == w.Start
}

func (w Window) String() string {
	return fmt.Sprintf("%s:%d-%d[%d:%d]", w.Contig, w.StartCoord, w.StopCoord, w.Start, w.Stop)
}

// Unit is what the window size and step count.
type Unit int

const (
	// UnitVariant windows count variants.
	UnitVariant Unit = iota
	// UnitCoordinate windows count base pairs.
	UnitCoordinate
)

func (u Unit) String() string {
	switch u {
	case UnitVariant:
		return "variant"
	case UnitCoordinate:
		return "coordinate"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit accepts "variant" or "coordinate" (alias "bp").
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "variant", "variants":
		return UnitVariant, nil
	case "coordinate", "coordinates", "bp", "position":
		return UnitCoordinate, nil
	}
	return 0, fmt.Errorf("%w: window unit %q", ErrInvalidWindowSpec, s)
}

// Start anchors the tiling of each contig.
type Start int

const (
	// StartContig anchors the first tile at the contig's first variant.
	StartContig Start = iota
	// StartGlobal anchors tiles on a grid that starts at coordinate 0 (or axis
	// index 0 for variant windows), clipped to each contig.
	StartGlobal
)

func (s Start) String() string {
	switch s {
	case StartContig:
		return "contig"
	case StartGlobal:
		return "global"
	}
	return fmt.Sprintf("Start(%d)", int(s))
}

// ParseStart accepts "contig" or "global" (alias "zero").
func ParseStart(s string) (Start, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contig", "first", "first_variant":
		return StartContig, nil
	case "global", "zero", "0":
		return StartGlobal, nil
	}
	return 0, fmt.Errorf("%w: window start position %q", ErrInvalidWindowSpec, s)
}

// Trailing decides what happens to tiles that run past the end of a contig.
type Trailing int

const (
	// TrailingKeep truncates the tile at the contig end and keeps it.
	TrailingKeep Trailing = iota
	// TrailingMerge folds the partial tail into the last complete window.
	TrailingMerge
	// TrailingDrop discards partial tiles.
	TrailingDrop
)

func (t Trailing) String() string {
	switch t {
	case TrailingKeep:
		return "keep"
	case TrailingMerge:
		return "merge"
	case TrailingDrop:
		return "drop"
	}
	return fmt.Sprintf("Trailing(%d)", int(t))
}

// Interval is an explicit, half-open coordinate range on a contig.
type Interval struct {
	Contig string `csv:"contig"`
	Start  int64  `csv:"start"`
	Stop   int64  `csv:"stop"`
}

// Spec is either a size-based tiling (Size, Step and friends) or an explicit
// interval list. The two are mutually exclusive: a non-nil Explicit, even an
// empty one, selects explicit windowing.
type Spec struct {
	Size     int64
	Step     int64
	Unit     Unit
	Start    Start
	Trailing Trailing

	// Contigs optionally restricts size-based windowing to the named contigs.
	// Windows are still emitted in axis order.
	Contigs []string

	Explicit []Interval
}

// Validate checks the parameters without looking at any axis.
func (s Spec) Validate() error {
	if s.Explicit != nil {
		if s.Size != 0 || s.Step != 0 {
			return fmt.Errorf("%w: explicit windows cannot be combined with size or step", ErrInvalidWindowSpec)
		}
		if len(s.Contigs) > 0 {
			return fmt.Errorf("%w: explicit windows cannot be combined with a contig filter", ErrInvalidWindowSpec)
		}
		for i, iv := range s.Explicit {
			if iv.Start > iv.Stop {
				return fmt.Errorf("%w: interval %d (%s:%d-%d) starts after it stops", ErrInvalidWindowSpec, i, iv.Contig, iv.Start, iv.Stop)
			}
		}
		return nil
	}

	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidWindowSpec, s.Size)
	}
	if s.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %d", ErrInvalidWindowSpec, s.Step)
	}
	if s.Unit != UnitVariant && s.Unit != UnitCoordinate {
		return fmt.Errorf("%w: unknown unit %d", ErrInvalidWindowSpec, s.Unit)
	}
	if s.Start != StartContig && s.Start != StartGlobal {
		return fmt.Errorf("%w: unknown start position %d", ErrInvalidWindowSpec, s.Start)
	}
	if s.Trailing < TrailingKeep || s.Trailing > TrailingDrop {
		return fmt.Errorf("%w: unknown trailing window policy %d", ErrInvalidWindowSpec, s.Trailing)
	}

	return nil
}

// Boundaries returns every distinct Start and Stop of the non-empty windows in
// the sequence, sorted ascending. Zero-length windows split nothing.
func Boundaries(windows []Window) []int {
	seen := make(map[int]struct{}, 2*len(windows))
	out := make([]int, 0, 2*len(windows))
	for _, w := range windows {
		if w.Empty() {
			continue
		}
		for _, b := range [2]int{w.Start, w.Stop} {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			out = append(out, b)
		}
	}
	sort.Ints(out)
	return out
}
