package window

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/carbocation/genowindow/axis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAxis(t *testing.T, contigs []string, coords []int64) *axis.Axis {
	t.Helper()
	ax, err := axis.New(contigs, coords)
	require.NoError(t, err)
	return ax
}

func singleContig(n int, spacing int64) *axis.Axis {
	b := axis.NewBuilder()
	for i := 0; i < n; i++ {
		b.Add("1", int64(i)*spacing)
	}
	ax, _ := b.Axis()
	return ax
}

func ranges(ws []Window) [][2]int {
	out := make([][2]int, len(ws))
	for i, w := range ws {
		out[i] = [2]int{w.Start, w.Stop}
	}
	return out
}

func TestVariantWindowsOfThree(t *testing.T) {
	ws, err := Resolve(singleContig(10, 1), Spec{Size: 3, Step: 3})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 9}, {9, 10}}, ranges(ws))
	assert.Equal(t, Window{Contig: "1", StartCoord: 9, StopCoord: 10, Start: 9, Stop: 10}, ws[3])
}

func TestTrailingPolicies(t *testing.T) {
	ax := singleContig(10, 1)

	ws, err := Resolve(ax, Spec{Size: 3, Step: 3, Trailing: TrailingDrop})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 9}}, ranges(ws))

	ws, err = Resolve(ax, Spec{Size: 3, Step: 3, Trailing: TrailingMerge})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 10}}, ranges(ws))

	// Nothing to merge when the tiling is exact.
	ws, err = Resolve(ax, Spec{Size: 5, Step: 5, Trailing: TrailingMerge})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 5}, {5, 10}}, ranges(ws))

	// A contig shorter than one window keeps its single truncated window.
	ws, err = Resolve(ax, Spec{Size: 50, Step: 50, Trailing: TrailingMerge})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 10}}, ranges(ws))

	ws, err = Resolve(ax, Spec{Size: 50, Step: 50, Trailing: TrailingDrop})
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestOverlappingAndGappedSteps(t *testing.T) {
	ax := singleContig(7, 1)

	ws, err := Resolve(ax, Spec{Size: 4, Step: 2})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 4}, {2, 6}, {4, 7}, {6, 7}}, ranges(ws))

	ws, err = Resolve(ax, Spec{Size: 2, Step: 3})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {3, 5}, {6, 7}}, ranges(ws))
}

func TestVariantWindowsPerContig(t *testing.T) {
	ax := mustAxis(t,
		[]string{"1", "1", "1", "1", "1", "2", "2", "2"},
		[]int64{10, 20, 30, 40, 50, 5, 6, 7},
	)

	ws, err := Resolve(ax, Spec{Size: 2, Step: 2})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}, {5, 7}, {7, 8}}, ranges(ws))
	assert.Equal(t, "2", ws[3].Contig)
	assert.Equal(t, int64(5), ws[3].StartCoord)
	assert.Equal(t, int64(7), ws[3].StopCoord)

	// On the global grid, contig 2 starts mid-tile at axis index 5.
	ws, err = Resolve(ax, Spec{Size: 2, Step: 2, Start: StartGlobal})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}, {5, 6}, {6, 8}}, ranges(ws))

	ws, err = Resolve(ax, Spec{Size: 2, Step: 2, Contigs: []string{"2"}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{5, 7}, {7, 8}}, ranges(ws))
}

func TestCoordinateWindows(t *testing.T) {
	ax := mustAxis(t,
		[]string{"1", "1", "1", "1", "2"},
		[]int64{105, 110, 180, 250, 42},
	)

	ws, err := Resolve(ax, Spec{Size: 100, Step: 100, Unit: UnitCoordinate, Start: StartGlobal})
	require.NoError(t, err)
	assert.Equal(t, []Window{
		{Contig: "1", StartCoord: 0, StopCoord: 100, Start: 0, Stop: 0},
		{Contig: "1", StartCoord: 100, StopCoord: 200, Start: 0, Stop: 3},
		{Contig: "1", StartCoord: 200, StopCoord: 251, Start: 3, Stop: 4},
		{Contig: "2", StartCoord: 0, StopCoord: 43, Start: 4, Stop: 5},
	}, ws)

	ws, err = Resolve(ax, Spec{Size: 50, Step: 50, Unit: UnitCoordinate})
	require.NoError(t, err)
	assert.Equal(t, []Window{
		{Contig: "1", StartCoord: 105, StopCoord: 155, Start: 0, Stop: 2},
		{Contig: "1", StartCoord: 155, StopCoord: 205, Start: 2, Stop: 3},
		{Contig: "1", StartCoord: 205, StopCoord: 251, Start: 3, Stop: 4},
		{Contig: "2", StartCoord: 42, StopCoord: 43, Start: 4, Stop: 5},
	}, ws)
}

func TestExplicitWindowsKeepOrderAndOverlap(t *testing.T) {
	ax := mustAxis(t,
		[]string{"1", "1", "1", "2", "2"},
		[]int64{10, 20, 30, 10, 20},
	)

	ws, err := Resolve(ax, Spec{Explicit: []Interval{
		{"2", 0, 15},
		{"1", 15, 31},
		{"1", 0, 25},
		{"1", 12, 12},
	}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{3, 4}, {1, 3}, {0, 2}, {1, 1}}, ranges(ws))
	assert.Equal(t, "2", ws[0].Contig)
	assert.True(t, ws[3].Empty())

	_, err = Resolve(ax, Spec{Explicit: []Interval{{"3", 0, 1}}})
	assert.True(t, errors.Is(err, ErrUnknownContig))
	assert.True(t, errors.Is(err, ErrInvalidWindowSpec))

	ws, err = Resolve(ax, Spec{Explicit: []Interval{}})
	require.NoError(t, err)
	assert.Empty(t, ws)
}

func TestInvalidSpecs(t *testing.T) {
	ax := singleContig(5, 1)
	for _, spec := range []Spec{
		{Size: 0, Step: 1},
		{Size: 1, Step: 0},
		{Size: -3, Step: 3},
		{Size: 3, Step: -1},
		{Size: 3, Step: 3, Unit: Unit(9)},
		{Size: 3, Step: 3, Start: Start(9)},
		{Size: 3, Step: 3, Trailing: Trailing(9)},
		{Size: 3, Explicit: []Interval{{"1", 0, 1}}},
		{Explicit: []Interval{{"1", 5, 1}}},
		{Explicit: []Interval{{"1", 0, 1}}, Contigs: []string{"1"}},
	} {
		_, err := Resolve(ax, spec)
		assert.True(t, errors.Is(err, ErrInvalidWindowSpec), "%+v: %v", spec, err)
	}

	_, err := Resolve(ax, Spec{Size: 3, Step: 3, Contigs: []string{"nope"}})
	assert.True(t, errors.Is(err, ErrUnknownContig))
}

func TestEmptyContigsAndAxis(t *testing.T) {
	b := axis.NewBuilder()
	require.NoError(t, b.DeclareContig("MT"))
	require.NoError(t, b.Add("1", 1))
	require.NoError(t, b.Add("1", 2))
	ax, err := b.Axis()
	require.NoError(t, err)

	ws, err := Resolve(ax, Spec{Size: 1, Step: 1})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, ranges(ws))

	_, err = Resolve(ax, Spec{Size: 1, Step: 1, Contigs: []string{"MT"}})
	assert.True(t, errors.Is(err, ErrEmptyAxis))

	empty, err := axis.NewBuilder().Axis()
	require.NoError(t, err)
	_, err = Resolve(empty, Spec{Size: 1, Step: 1, Unit: UnitCoordinate})
	assert.True(t, errors.Is(err, ErrEmptyAxis))
}

// With step == size and no trailing policy, each contig is covered exactly
// once.
func TestCoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	for trial := 0; trial < 200; trial++ {
		b := axis.NewBuilder()
		nContigs := 1 + rng.Intn(4)
		for c := 0; c < nContigs; c++ {
			pos := int64(rng.Intn(1000))
			for i, n := 0, rng.Intn(60); i < n; i++ {
				pos += int64(rng.Intn(30))
				require.NoError(t, b.Add(string(rune('A'+c)), pos))
			}
		}
		ax, err := b.Axis()
		require.NoError(t, err)
		if ax.Len() == 0 {
			continue
		}

		size := int64(1 + rng.Intn(40))
		unit := Unit(rng.Intn(2))
		start := Start(rng.Intn(2))
		ws, err := Resolve(ax, Spec{Size: size, Step: size, Unit: unit, Start: start})
		require.NoError(t, err)

		hits := make([]int, ax.Len())
		for _, w := range ws {
			c, ok := ax.Contig(w.Contig)
			require.True(t, ok)
			require.True(t, w.Start >= c.Offset && w.Stop <= c.Stop(), "window %s escapes contig", w)
			for i := w.Start; i < w.Stop; i++ {
				hits[i]++
			}
		}
		for i, h := range hits {
			require.Equal(t, 1, h, "trial %d: variant %d covered %d times (%s, %s)", trial, i, h, unit, start)
		}
	}
}

func TestReadIntervals(t *testing.T) {
	withHeader := "contig\tstart\tstop\n1\t0\t5\n1\t2\t7\n"
	ivs, err := ReadIntervals(strings.NewReader(withHeader), '\t')
	require.NoError(t, err)
	assert.Equal(t, []Interval{{"1", 0, 5}, {"1", 2, 7}}, ivs)

	bed := "# comment\nchr2\t100\t200\tgeneA\t0\nchr1\t5\t6\tgeneB\t0\n"
	ivs, err = ReadIntervals(strings.NewReader(bed), '\t')
	require.NoError(t, err)
	assert.Equal(t, []Interval{{"chr2", 100, 200}, {"chr1", 5, 6}}, ivs)

	ucsc := "chrom,chromStart,chromEnd\nX,1,2\n"
	ivs, err = ReadIntervals(strings.NewReader(ucsc), ',')
	require.NoError(t, err)
	assert.Equal(t, []Interval{{"X", 1, 2}}, ivs)

	ivs, err = ReadIntervals(strings.NewReader(""), '\t')
	require.NoError(t, err)
	assert.NotNil(t, ivs)
	assert.Empty(t, ivs)
}

func TestBoundariesSkipEmptyWindows(t *testing.T) {
	ws := []Window{
		{Contig: "1", Start: 0, Stop: 4},
		{Contig: "1", Start: 6, Stop: 6},
		{Contig: "1", Start: 2, Stop: 4},
	}
	assert.Equal(t, []int{0, 2, 4}, Boundaries(ws))
	assert.Empty(t, Boundaries([]Window{{Contig: "1", Start: 3, Stop: 3}}))
}
