package window

import (
	"fmt"

	"github.com/carbocation/genowindow/axis"
)

// Resolve produces the ordered windows described by spec over ax. It only
// consults axis metadata and never touches array data.
//
// Size-based windows tile each contig independently, in axis order. Explicit
// intervals are mapped to index ranges with a lower-bound search over the
// contig's coordinates and are returned in the order given, overlaps included.
func Resolve(ax *axis.Axis, spec Spec) ([]Window, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if spec.Explicit != nil {
		return resolveExplicit(ax, spec.Explicit)
	}

	contigs, err := selectContigs(ax, spec.Contigs)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range contigs {
		total += c.Length
	}
	if total == 0 {
		return nil, ErrEmptyAxis
	}

	out := make([]Window, 0)
	for _, c := range contigs {
		// A contig without variants contributes no windows.
		if c.Length == 0 {
			continue
		}

		switch spec.Unit {
		case UnitVariant:
			out = append(out, variantWindows(ax, c, spec)...)
		case UnitCoordinate:
			out = append(out, coordinateWindows(ax, c, spec)...)
		}
	}

	return out, nil
}

func selectContigs(ax *axis.Axis, names []string) ([]axis.Contig, error) {
	if len(names) == 0 {
		return ax.Contigs(), nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := ax.Contig(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownContig, name)
		}
		wanted[name] = struct{}{}
	}

	out := make([]axis.Contig, 0, len(wanted))
	for _, c := range ax.Contigs() {
		if _, ok := wanted[c.Name]; ok {
			out = append(out, c)
		}
	}

	return out, nil
}

func variantWindows(ax *axis.Axis, c axis.Contig, spec Spec) []Window {
	lo, hi := int64(c.Offset), int64(c.Stop())
	origin := lo
	if spec.Start == StartGlobal {
		origin = 0
	}

	ts := applyTrailing(tiles(lo, hi, origin, spec.Size, spec.Step), hi, spec.Trailing)

	out := make([]Window, 0, len(ts))
	for _, t := range ts {
		start, stop := int(t.start), int(t.stop)
		out = append(out, Window{
			Contig:     c.Name,
			StartCoord: ax.Coordinate(start),
			StopCoord:  ax.Coordinate(stop-1) + 1,
			Start:      start,
			Stop:       stop,
		})
	}

	return out
}

func coordinateWindows(ax *axis.Axis, c axis.Contig, spec Spec) []Window {
	coords := ax.Coordinates(c)
	lo, hi := coords[0], coords[len(coords)-1]+1
	if spec.Start == StartGlobal && lo > 0 {
		lo = 0
	}

	ts := applyTrailing(tiles(lo, hi, lo, spec.Size, spec.Step), hi, spec.Trailing)

	out := make([]Window, 0, len(ts))
	for _, t := range ts {
		out = append(out, Window{
			Contig:     c.Name,
			StartCoord: t.start,
			StopCoord:  t.stop,
			Start:      ax.LowerBound(c, t.start),
			Stop:       ax.LowerBound(c, t.stop),
		})
	}

	return out
}

func resolveExplicit(ax *axis.Axis, intervals []Interval) ([]Window, error) {
	out := make([]Window, 0, len(intervals))
	for i, iv := range intervals {
		c, ok := ax.Contig(iv.Contig)
		if !ok {
			return nil, fmt.Errorf("%w: interval %d names %q", ErrUnknownContig, i, iv.Contig)
		}

		out = append(out, Window{
			Contig:     iv.Contig,
			StartCoord: iv.Start,
			StopCoord:  iv.Stop,
			Start:      ax.LowerBound(c, iv.Start),
			Stop:       ax.LowerBound(c, iv.Stop),
		})
	}

	return out, nil
}

type tile struct {
	start, stop int64
	partial     bool
}

// tiles returns the tiles [origin+k*step, origin+k*step+size) that intersect
// [lo, hi), clipped to it. A tile is partial when its nominal end overruns hi.
func tiles(lo, hi, origin, size, step int64) []tile {
	if hi <= lo {
		return nil
	}

	// Skip ahead to the first tile that reaches past lo.
	k := int64(0)
	if d := lo - origin - size; d >= 0 {
		k = d/step + 1
	}

	out := make([]tile, 0)
	for ; ; k++ {
		s := origin + k*step
		if s >= hi {
			break
		}
		e := s + size
		if e <= lo {
			continue
		}

		t := tile{start: s, stop: e}
		if t.start < lo {
			t.start = lo
		}
		if e > hi {
			t.stop = hi
			t.partial = true
		}
		out = append(out, t)
	}

	return out
}

func applyTrailing(ts []tile, hi int64, policy Trailing) []tile {
	if policy == TrailingKeep {
		return ts
	}

	full := make([]tile, 0, len(ts))
	sawPartial := false
	for _, t := range ts {
		if t.partial {
			sawPartial = true
			continue
		}
		full = append(full, t)
	}

	if policy == TrailingDrop || !sawPartial {
		return full
	}

	// Merge: with no complete window to absorb it, the first (truncated)
	// partial window stands alone.
	if len(full) == 0 {
		return ts[:1]
	}
	full[len(full)-1].stop = hi

	return full
}
