// Package chunked is the lazy, chunked array capability the windowed engine is
// built on. An Array couples a Source of rows with a chunking of its variant
// axis; rechunking only rewrites metadata, and data is read one chunk at a
// time when a computation asks for it.
package chunked

import (
	"context"
	"fmt"

	"github.com/carbocation/genowindow/axis"
	"golang.org/x/sync/errgroup"
)

// Source is backing storage addressed by variant index. ReadRows must be safe
// for concurrent use and must not retain or mutate the returned data after
// returning it.
type Source interface {
	Len() int
	Width() int
	ReadRows(ctx context.Context, start, stop int) (Block, error)
}

// ColumnNamer is implemented by sources that know their column names.
type ColumnNamer interface {
	Columns() []string
}

// Array is a named, chunked view of a Source.
type Array struct {
	name    string
	src     Source
	cuts    []int
	columns []string
}

// New wraps src with chunking c, which must cover src exactly.
func New(name string, src Source, c axis.Chunking) (*Array, error) {
	if err := c.Validate(src.Len()); err != nil {
		return nil, fmt.Errorf("chunked.New(%s): %w", name, err)
	}
	a := &Array{name: name, src: src, cuts: c.Boundaries()}
	if cn, ok := src.(ColumnNamer); ok {
		a.columns = cn.Columns()
	}
	return a, nil
}

func (a *Array) Name() string {
	return a.name
}

// WithColumns returns a view of a whose columns carry the given names.
func (a *Array) WithColumns(names ...string) (*Array, error) {
	if len(names) != a.Width() {
		return nil, fmt.Errorf("chunked.WithColumns(%s): %d names for %d columns", a.name, len(names), a.Width())
	}
	out := *a
	out.columns = append([]string(nil), names...)
	return &out, nil
}

// Columns returns the column names. Unnamed arrays use name_0, name_1, and so
// on, or just the array name when there is a single column.
func (a *Array) Columns() []string {
	if len(a.columns) == a.Width() {
		return append([]string(nil), a.columns...)
	}
	if a.Width() == 1 {
		return []string{a.name}
	}
	out := make([]string, a.Width())
	for j := range out {
		out[j] = fmt.Sprintf("%s_%d", a.name, j)
	}
	return out
}

// Len is the length of the variant axis.
func (a *Array) Len() int {
	return a.src.Len()
}

// Width is the number of values per variant.
func (a *Array) Width() int {
	return a.src.Width()
}

// Chunking returns the current chunk sizes.
func (a *Array) Chunking() axis.Chunking {
	c, _ := axis.FromBoundaries(a.cuts)
	return c
}

// NumChunks is the number of chunks.
func (a *Array) NumChunks() int {
	return len(a.cuts)
}

// ChunkRange returns the axis range [start, stop) of chunk i.
func (a *Array) ChunkRange(i int) (start, stop int) {
	if i > 0 {
		start = a.cuts[i-1]
	}
	return start, a.cuts[i]
}

// Rechunk returns a view of the same data cut at the given exclusive cut
// points. No data is read.
func (a *Array) Rechunk(cuts []int) (*Array, error) {
	c, err := axis.FromBoundaries(cuts)
	if err != nil {
		return nil, fmt.Errorf("chunked.Rechunk(%s): %w", a.name, err)
	}
	if err := c.Validate(a.Len()); err != nil {
		return nil, fmt.Errorf("chunked.Rechunk(%s): %w", a.name, err)
	}

	own := make([]int, len(cuts))
	copy(own, cuts)

	return &Array{name: a.name, src: a.src, cuts: own, columns: a.columns}, nil
}

// Chunk reads chunk i.
func (a *Array) Chunk(ctx context.Context, i int) (Block, error) {
	start, stop := a.ChunkRange(i)
	return a.read(ctx, start, stop)
}

// Compute materializes the whole array.
func (a *Array) Compute(ctx context.Context) (Block, error) {
	return a.read(ctx, 0, a.Len())
}

func (a *Array) read(ctx context.Context, start, stop int) (Block, error) {
	if err := ctx.Err(); err != nil {
		return Block{}, err
	}
	b, err := a.src.ReadRows(ctx, start, stop)
	if err != nil {
		return Block{}, fmt.Errorf("%s[%d:%d]: %w", a.name, start, stop, err)
	}
	if b.Rows != stop-start || b.Cols != a.Width() {
		return Block{}, fmt.Errorf("%s[%d:%d]: source returned %dx%d, want %dx%d", a.name, start, stop, b.Rows, b.Cols, stop-start, a.Width())
	}
	return b, nil
}

// ChunkFunc is applied to one chunk of every array passed to MapChunks. blocks
// are in the same order as the arrays.
type ChunkFunc func(ctx context.Context, i int, blocks []Block) error

// MapChunks reads chunk i of each array and calls fn for every i where want is
// nil or want[i] is true, running at most limit calls at once (no limit when
// limit <= 0). The arrays must share one chunking. The first error cancels the
// remaining work and is returned.
func MapChunks(ctx context.Context, arrays []*Array, want []bool, limit int, fn ChunkFunc) error {
	if len(arrays) == 0 {
		return nil
	}
	n := arrays[0].NumChunks()
	for _, a := range arrays[1:] {
		if !sameCuts(a.cuts, arrays[0].cuts) {
			return fmt.Errorf("chunked.MapChunks: %s and %s are chunked differently", arrays[0].name, a.name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := 0; i < n; i++ {
		if want != nil && !want[i] {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			blocks := make([]Block, len(arrays))
			for k, a := range arrays {
				b, err := a.Chunk(gctx, i)
				if err != nil {
					return err
				}
				blocks[k] = b
			}
			return fn(gctx, i, blocks)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	// Cancellation may have stopped the loop before anything failed.
	return ctx.Err()
}

func sameCuts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
