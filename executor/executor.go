// Package executor runs a reduction over every window of a reconciled plan.
//
// Inputs are rechunked to the plan's refined chunking, so every window is an
// exact run of whole chunks. Windows never depend on one another and are
// reduced in parallel; results are placed by window index, never by
// completion order, and any failure discards the whole result.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/genowindow/logging"
	"github.com/carbocation/genowindow/reconcile"
	"github.com/carbocation/genowindow/reduce"
	"github.com/carbocation/genowindow/window"
	"golang.org/x/sync/errgroup"
)

// Options tunes execution. The zero value is usable.
type Options struct {
	// Concurrency caps the number of chunk or window tasks in flight.
	// Defaults to runtime.NumCPU().
	Concurrency int

	// NoCombine forces every window to be reduced over its full slice even
	// when the reduction can combine per-chunk partials.
	NoCombine bool
}

func (o Options) limit() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.NumCPU()
}

// Result is the ordered output of Run.
type Result struct {
	Columns []string
	Records []reduce.Record
}

// Run reduces every window in windows with r. plan must have been built from
// the same windows. arrays are the variant-aligned inputs; each window's
// slice of every array is passed to r in this order. Every array's chunk
// boundaries must be cut points of plan.
func Run(ctx context.Context, windows []window.Window, plan *reconcile.Plan, arrays []*chunked.Array, r reduce.Reduction, opts Options) (*Result, error) {
	log := logging.FromContext(ctx)

	if plan.NumWindows() != len(windows) {
		return nil, fmt.Errorf("executor.Run: plan covers %d windows, got %d", plan.NumWindows(), len(windows))
	}
	if len(arrays) == 0 {
		return nil, fmt.Errorf("executor.Run: no input arrays")
	}

	cuts := plan.CutPoints()
	shapes := make([]reduce.Shape, len(arrays))
	refined := make([]*chunked.Array, len(arrays))
	for k, a := range arrays {
		if a.Len() != plan.Len() {
			return nil, fmt.Errorf("%w: %s has %d variants, axis has %d", ErrMisalignedAxisLength, a.Name(), a.Len(), plan.Len())
		}

		if b, ok := unrefined(a.Chunking(), cuts); !ok {
			return nil, fmt.Errorf("%w: %s has a chunk boundary at %d", ErrUnrefinedChunking, a.Name(), b)
		}

		ra, err := a.Rechunk(cuts)
		if err != nil {
			return nil, err
		}
		refined[k] = ra
		shapes[k] = reduce.Shape{Name: a.Name(), Columns: a.Columns()}
	}

	columns, err := r.Columns(shapes)
	if err != nil {
		return nil, fmt.Errorf("executor.Run: %s: %w", r.Name(), err)
	}

	e := &execution{
		windows: windows,
		plan:    plan,
		arrays:  refined,
		r:       r,
		width:   len(columns),
		limit:   opts.limit(),
		records: make([]reduce.Record, len(windows)),
	}

	started := time.Now()
	log.Debugw("Reducing windows",
		"reduction", r.Name(),
		"windows", len(windows),
		"storageChunks", len(plan.OriginalCutPoints()),
		"refinedChunks", plan.NumChunks(),
		"spanning", plan.Spanning(),
		"concurrency", e.limit,
	)

	if c, ok := r.(reduce.Combiner); ok && !opts.NoCombine {
		err = e.combine(ctx, c)
	} else {
		err = e.direct(ctx)
	}
	if err != nil {
		return nil, err
	}

	log.Debugw("Reduced windows", "reduction", r.Name(), "windows", len(windows), "elapsed", time.Since(started))

	return &Result{Columns: columns, Records: e.records}, nil
}

// unrefined returns the first boundary of c that is not among cuts. Inputs
// must be chunked at the plan's storage boundaries or a subset of them, so
// that no refined chunk straddles one of their own chunks.
func unrefined(c axis.Chunking, cuts []int) (int, bool) {
	for _, b := range c.Boundaries() {
		if i := sort.SearchInts(cuts, b); i == len(cuts) || cuts[i] != b {
			return b, false
		}
	}
	return 0, true
}

type execution struct {
	windows []window.Window
	plan    *reconcile.Plan
	arrays  []*chunked.Array
	r       reduce.Reduction
	width   int
	limit   int
	records []reduce.Record
}

// direct hands each window its full, contiguous slice.
func (e *execution) direct(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i := range e.windows {
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			blocks, err := e.windowBlocks(gctx, i)
			if err != nil {
				return err
			}
			rec, err := e.call(i, func() (reduce.Record, error) { return e.r.Reduce(blocks) })
			if err != nil {
				return err
			}
			e.records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// combine reduces each covered refined chunk once and then assembles every
// window from its chunks' partials in axis order. Empty windows are reduced
// directly so that they report the reduction's own empty-input result.
func (e *execution) combine(ctx context.Context, c reduce.Combiner) error {
	owner := e.chunkOwners()
	covered := make([]bool, len(owner))
	for j, w := range owner {
		covered[j] = w >= 0
	}

	partials := make([]reduce.Record, e.plan.NumChunks())
	err := chunked.MapChunks(ctx, e.arrays, covered, e.limit, func(_ context.Context, j int, blocks []chunked.Block) error {
		p, err := e.call(owner[j], func() (reduce.Record, error) { return c.Partial(blocks) })
		if err != nil {
			return err
		}
		partials[j] = p
		return nil
	})
	if err != nil {
		return err
	}

	empty := e.emptyBlocks()
	for i := range e.windows {
		if err := ctx.Err(); err != nil {
			return err
		}

		first, last := e.plan.WindowChunks(i)
		var rec reduce.Record
		if first == last {
			rec, err = e.call(i, func() (reduce.Record, error) { return c.Reduce(empty) })
		} else {
			rec, err = e.call(i, func() (reduce.Record, error) { return c.Combine(partials[first:last]) })
		}
		if err != nil {
			return err
		}
		e.records[i] = rec
	}

	return nil
}

// chunkOwners maps each refined chunk to the first window that covers it, or
// -1. Partial failures are reported against that window.
func (e *execution) chunkOwners() []int {
	owner := make([]int, e.plan.NumChunks())
	for j := range owner {
		owner[j] = -1
	}
	for i := range e.windows {
		first, last := e.plan.WindowChunks(i)
		for j := first; j < last; j++ {
			if owner[j] < 0 {
				owner[j] = i
			}
		}
	}
	return owner
}

// windowBlocks gathers window i's rows from every input. A window inside one
// refined chunk is passed through without copying.
func (e *execution) windowBlocks(ctx context.Context, i int) ([]chunked.Block, error) {
	first, last := e.plan.WindowChunks(i)
	if first == last {
		return e.emptyBlocks(), nil
	}

	out := make([]chunked.Block, len(e.arrays))
	parts := make([]chunked.Block, last-first)
	for k, a := range e.arrays {
		for j := first; j < last; j++ {
			b, err := a.Chunk(ctx, j)
			if err != nil {
				return nil, err
			}
			parts[j-first] = b
		}

		joined, err := chunked.Concat(a.Width(), parts)
		if err != nil {
			return nil, err
		}
		out[k] = joined
	}

	return out, nil
}

func (e *execution) emptyBlocks() []chunked.Block {
	out := make([]chunked.Block, len(e.arrays))
	for k, a := range e.arrays {
		out[k] = chunked.EmptyBlock(a.Width())
	}
	return out
}

// call runs fn on behalf of window i, turning errors, panics and misshapen
// records into a *ReductionError.
func (e *execution) call(i int, fn func() (reduce.Record, error)) (rec reduce.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ReductionError{Index: i, Window: e.windows[i], Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	rec, err = fn()
	if err != nil {
		return nil, &ReductionError{Index: i, Window: e.windows[i], Err: err}
	}
	if len(rec) != e.width {
		return nil, &ReductionError{Index: i, Window: e.windows[i], Err: fmt.Errorf("%w: got %d values, want %d", ErrRecordShape, len(rec), e.width)}
	}

	return rec, nil
}
