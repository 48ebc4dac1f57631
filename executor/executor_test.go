package executor

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/genowindow/reconcile"
	"github.com/carbocation/genowindow/reduce"
	"github.com/carbocation/genowindow/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func lineAxis(t *testing.T, n int) *axis.Axis {
	t.Helper()
	b := axis.NewBuilder()
	for i := 0; i < n; i++ {
		require.NoError(t, b.Add("1", int64(i)))
	}
	ax, err := b.Axis()
	require.NoError(t, err)
	return ax
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func array(t *testing.T, name string, c axis.Chunking, columns ...[]float64) *chunked.Array {
	t.Helper()
	m, err := chunked.FromColumns(columns...)
	require.NoError(t, err)
	a, err := chunked.New(name, m, c)
	require.NoError(t, err)
	return a
}

func run(t *testing.T, windows []window.Window, c axis.Chunking, r reduce.Reduction, opts Options, arrays ...*chunked.Array) *Result {
	t.Helper()
	plan, err := reconcile.Refine(c, windows)
	require.NoError(t, err)
	res, err := Run(context.Background(), windows, plan, arrays, r, opts)
	require.NoError(t, err)
	return res
}

func flatten(records []reduce.Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

func TestSumOverFixedWindows(t *testing.T) {
	ws, err := window.Resolve(lineAxis(t, 10), window.Spec{Size: 3, Step: 3})
	require.NoError(t, err)

	c := axis.Chunking{4, 3, 3}
	res := run(t, ws, c, reduce.Sum{}, Options{}, array(t, "x", c, ones(10)))
	assert.Equal(t, []string{"x_sum"}, res.Columns)
	assert.Equal(t, []float64{3, 3, 3, 1}, flatten(res.Records))
}

func TestOverlappingExplicitWindows(t *testing.T) {
	ws, err := window.Resolve(lineAxis(t, 10), window.Spec{Explicit: []window.Interval{
		{Contig: "1", Start: 0, Stop: 5},
		{Contig: "1", Start: 2, Stop: 7},
	}})
	require.NoError(t, err)

	c := axis.Chunking{4, 3, 3}
	for _, opts := range []Options{{}, {NoCombine: true}} {
		res := run(t, ws, c, reduce.Sum{}, opts, array(t, "x", c, ones(10)))
		assert.Equal(t, []float64{5, 5}, flatten(res.Records))

		res = run(t, ws, c, reduce.Count{}, opts, array(t, "x", c, ones(10)))
		assert.Equal(t, []float64{5, 5}, flatten(res.Records))
	}
}

func TestEmptyWindowUsesReductionConvention(t *testing.T) {
	ws := []window.Window{
		{Contig: "1", StartCoord: 0, StopCoord: 3, Start: 0, Stop: 3},
		{Contig: "1", StartCoord: 3, StopCoord: 3, Start: 3, Stop: 3},
		{Contig: "1", StartCoord: 5, StopCoord: 9, Start: 5, Stop: 9},
	}
	c := axis.Regular(10, 4)
	x := func() *chunked.Array { return array(t, "x", c, ones(10)) }

	res := run(t, ws, c, reduce.Sum{}, Options{}, x())
	assert.Equal(t, []float64{3, 0, 4}, flatten(res.Records))

	res = run(t, ws, c, reduce.Count{}, Options{}, x())
	assert.Equal(t, []float64{3, 0, 4}, flatten(res.Records))

	res = run(t, ws, c, reduce.Min{}, Options{}, x())
	assert.True(t, math.IsNaN(res.Records[1][0]))
	assert.Equal(t, 1.0, res.Records[2][0])

	res = run(t, ws, c, reduce.Mean{}, Options{}, x())
	assert.True(t, math.IsNaN(res.Records[1][0]))
}

func TestFullWindowIsContiguous(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i)
	}
	ws := []window.Window{
		{Contig: "1", Start: 0, Stop: 20},
		{Contig: "1", Start: 3, Stop: 17},
		{Contig: "1", Start: 6, Stop: 7},
	}
	c := axis.Regular(20, 3)

	var calls int64
	seen := reduce.Func{Label: "seen", Outputs: []string{"first", "last", "ordered"}, Fn: func(blocks []chunked.Block) (reduce.Record, error) {
		atomic.AddInt64(&calls, 1)
		col := blocks[0].Col(0, nil)
		ordered := 1.0
		for i := 1; i < len(col); i++ {
			if col[i] != col[i-1]+1 {
				ordered = 0
			}
		}
		return reduce.Record{col[0], col[len(col)-1], ordered}, nil
	}}

	res := run(t, ws, c, seen, Options{Concurrency: 2}, array(t, "x", c, values))
	assert.Equal(t, []reduce.Record{{0, 19, 1}, {3, 16, 1}, {6, 6, 1}}, res.Records)
	assert.EqualValues(t, 3, calls)
}

func TestChunkInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 40; trial++ {
		n := 1 + rng.Intn(80)
		values := make([]float64, n)
		for i := range values {
			switch rng.Intn(10) {
			case 0:
				values[i] = math.NaN()
			default:
				values[i] = rng.NormFloat64() * 1e3
			}
		}

		var ws []window.Window
		for k := rng.Intn(12); k >= 0; k-- {
			start := rng.Intn(n + 1)
			ws = append(ws, window.Window{Contig: "1", Start: start, Stop: start + rng.Intn(n-start+1)})
		}

		for _, r := range []reduce.Reduction{reduce.Sum{}, reduce.Count{}, reduce.NonMissing{}, reduce.Min{}, reduce.Max{}, reduce.Mean{}, reduce.Variance{}, reduce.Median{}, reduce.Summary{}} {
			var want []float64
			for _, size := range []int{n, 1, 1 + rng.Intn(n)} {
				c := axis.Regular(n, size)
				got := flatten(run(t, ws, c, r, Options{Concurrency: 3}, array(t, "x", c, values)).Records)
				if want == nil {
					want = got
					continue
				}
				require.Len(t, got, len(want))
				for i := range got {
					assert.Equal(t, math.Float64bits(want[i]), math.Float64bits(got[i]), "trial %d %s value %d (chunk size %d)", trial, r.Name(), i, size)
				}
			}
		}
	}
}

func TestOrderPreservedUnderConcurrency(t *testing.T) {
	const n = 200
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}

	rng := rand.New(rand.NewSource(3))
	ws := make([]window.Window, 100)
	for i := range ws {
		start := rng.Intn(n)
		ws[i] = window.Window{Contig: "1", Start: start, Stop: start + 1}
	}

	c := axis.Regular(n, 7)
	res := run(t, ws, c, reduce.Max{}, Options{Concurrency: 8}, array(t, "x", c, values))
	for i, w := range ws {
		assert.Equal(t, float64(w.Start), res.Records[i][0])
	}
}

func TestMultipleArraysAreAligned(t *testing.T) {
	ws := []window.Window{{Contig: "1", Start: 0, Stop: 4}, {Contig: "1", Start: 4, Stop: 6}}
	c := axis.Chunking{3, 3}
	alt := array(t, "ac", c, []float64{1, 0, 2, 1, 0, 1}, []float64{4, 4, 4, 4, 2, 2})

	res := run(t, ws, c, reduce.AlleleFrequency{AltCol: 0, AlleleCol: 1}, Options{}, alt)
	assert.Equal(t, []string{"alt_count", "allele_number", "alt_frequency"}, res.Columns)
	assert.Equal(t, []reduce.Record{{4, 16, 0.25}, {1, 4, 0.25}}, res.Records)

	pair := reduce.Func{Label: "dot", Outputs: []string{"dot"}, Fn: func(blocks []chunked.Block) (reduce.Record, error) {
		if blocks[0].Rows != blocks[1].Rows {
			return nil, errors.New("unaligned")
		}
		s := 0.0
		for i := 0; i < blocks[0].Rows; i++ {
			s += blocks[0].At(i, 0) * blocks[1].At(i, 0)
		}
		return reduce.Record{s}, nil
	}}
	x := array(t, "x", c, []float64{1, 2, 3, 4, 5, 6})
	y := array(t, "y", axis.Chunking{6}, []float64{1, 1, 1, 1, 2, 2})
	res = run(t, ws, c, pair, Options{}, x, y)
	assert.Equal(t, []float64{10, 22}, flatten(res.Records))
}

func TestUnrefinedChunkingIsRejected(t *testing.T) {
	ws := []window.Window{{Contig: "1", Start: 0, Stop: 4}, {Contig: "1", Start: 4, Stop: 6}}
	c := axis.Chunking{3, 3}
	plan, err := reconcile.Refine(c, ws)
	require.NoError(t, err)

	var called bool
	f := reduce.Func{Label: "f", Outputs: []string{"v"}, Fn: func([]chunked.Block) (reduce.Record, error) {
		called = true
		return reduce.Record{0}, nil
	}}

	// Plan cuts are {3, 4, 6}; a boundary at 1 would be merged away.
	x := array(t, "x", c, ones(6))
	y := array(t, "y", axis.Chunking{1, 5}, ones(6))
	res, err := Run(context.Background(), ws, plan, []*chunked.Array{x, y}, f, Options{})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrUnrefinedChunking))
	assert.False(t, called)

	// Chunkings that the plan refines are accepted.
	z := array(t, "z", axis.Chunking{3, 1, 2}, ones(6))
	_, err = Run(context.Background(), ws, plan, []*chunked.Array{x, z}, f, Options{})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestMisalignedAxisLength(t *testing.T) {
	ws := []window.Window{{Contig: "1", Start: 0, Stop: 3}}
	plan, err := reconcile.Refine(axis.Regular(10, 5), ws)
	require.NoError(t, err)

	var called bool
	f := reduce.Func{Label: "f", Outputs: []string{"v"}, Fn: func([]chunked.Block) (reduce.Record, error) {
		called = true
		return reduce.Record{0}, nil
	}}

	_, err = Run(context.Background(), ws, plan, []*chunked.Array{array(t, "x", axis.Regular(9, 5), ones(9))}, f, Options{})
	assert.True(t, errors.Is(err, ErrMisalignedAxisLength))
	assert.False(t, called)

	_, err = Run(context.Background(), ws, plan, nil, f, Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), append(ws, ws...), plan, []*chunked.Array{array(t, "x", axis.Regular(10, 5), ones(10))}, f, Options{})
	assert.Error(t, err)
}

func TestReductionErrorCarriesWindow(t *testing.T) {
	ws := []window.Window{
		{Contig: "1", StartCoord: 0, StopCoord: 5, Start: 0, Stop: 5},
		{Contig: "2", StartCoord: 100, StopCoord: 200, Start: 5, Stop: 10},
	}
	c := axis.Regular(10, 3)
	plan, err := reconcile.Refine(c, ws)
	require.NoError(t, err)

	boom := errors.New("boom")
	f := reduce.Func{Label: "f", Outputs: []string{"v"}, Fn: func(blocks []chunked.Block) (reduce.Record, error) {
		if blocks[0].At(0, 0) == 5 {
			return nil, boom
		}
		return reduce.Record{1}, nil
	}}
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	res, err := Run(context.Background(), ws, plan, []*chunked.Array{array(t, "x", c, values)}, f, Options{})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrReductionFunction))
	assert.True(t, errors.Is(err, boom))

	var re *ReductionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, "2", re.Window.Contig)
	assert.Contains(t, err.Error(), "2:100-200")

	panicky := reduce.Func{Label: "p", Outputs: []string{"v"}, Fn: func([]chunked.Block) (reduce.Record, error) {
		panic("bad input")
	}}
	_, err = Run(context.Background(), ws, plan, []*chunked.Array{array(t, "x", c, values)}, panicky, Options{})
	assert.True(t, errors.Is(err, ErrReductionFunction))

	wide := reduce.Func{Label: "w", Outputs: []string{"v"}, Fn: func([]chunked.Block) (reduce.Record, error) {
		return reduce.Record{1, 2}, nil
	}}
	_, err = Run(context.Background(), ws, plan, []*chunked.Array{array(t, "x", c, values)}, wide, Options{})
	assert.True(t, errors.Is(err, ErrRecordShape))
}

func TestCancellation(t *testing.T) {
	ws, err := window.Resolve(lineAxis(t, 50), window.Spec{Size: 5, Step: 5})
	require.NoError(t, err)
	c := axis.Regular(50, 4)
	plan, err := reconcile.Refine(c, ws)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, r := range []reduce.Reduction{reduce.Sum{}, reduce.Count{}} {
		res, err := Run(ctx, ws, plan, []*chunked.Array{array(t, "x", c, ones(50))}, r, Options{Concurrency: 2})
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, context.Canceled), r.Name())
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	var seen int64
	f := reduce.Func{Label: "f", Outputs: []string{"v"}, Fn: func([]chunked.Block) (reduce.Record, error) {
		if atomic.AddInt64(&seen, 1) == 3 {
			cancel()
		}
		return reduce.Record{0}, nil
	}}
	res, err := Run(ctx, ws, plan, []*chunked.Array{array(t, "x", c, ones(50))}, f, Options{Concurrency: 1})
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}
