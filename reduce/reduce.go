// Package reduce defines the contract between the windowed executor and the
// per-window statistic: a pure function from the window's slice of every input
// array to a fixed-width record.
package reduce

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/carbocation/genowindow/chunked"
)

// Record is one window's result. Every record produced by a Reduction for a
// given set of inputs has the same length.
type Record []float64

// Shape describes one input array.
type Shape struct {
	Name    string
	Columns []string
}

// Reduction maps the rows of a single window to a record. blocks holds one
// Block per input array, all with the same number of rows, in input order.
// The rows are exactly the window's variants, contiguous and in axis order;
// for zero-length windows every block has zero rows.
//
// Implementations must be pure: they may be called concurrently and in any
// order, and must not modify blocks.
type Reduction interface {
	Name() string

	// Columns names the record's values for the given inputs and rejects
	// inputs the reduction cannot handle.
	Columns(inputs []Shape) ([]string, error)

	Reduce(blocks []chunked.Block) (Record, error)
}

// Combiner is implemented by reductions whose result can be assembled from
// per-chunk partial records. Combine must be exact, so that the result does
// not depend on where chunk boundaries fall: counts, minima and maxima
// qualify, floating point sums do not. Combine receives partials in axis
// order.
type Combiner interface {
	Reduction
	Partial(blocks []chunked.Block) (Record, error)
	Combine(partials []Record) (Record, error)
}

// Func adapts a plain function into a Reduction with fixed column names.
type Func struct {
	Label   string
	Outputs []string
	Fn      func(blocks []chunked.Block) (Record, error)
}

func (f Func) Name() string {
	return f.Label
}

func (f Func) Columns([]Shape) ([]string, error) {
	out := make([]string, len(f.Outputs))
	copy(out, f.Outputs)
	return out, nil
}

func (f Func) Reduce(blocks []chunked.Block) (Record, error) {
	return f.Fn(blocks)
}

// perColumn names one output per input column, e.g. "alt_count_sum".
func perColumn(inputs []Shape, suffix string) []string {
	out := make([]string, 0)
	for _, in := range inputs {
		for _, col := range in.Columns {
			out = append(out, col+"_"+suffix)
		}
	}
	return out
}

// eachColumn calls fn with every column of every block, in input order.
func eachColumn(blocks []chunked.Block, fn func(col []float64)) {
	var buf []float64
	for _, b := range blocks {
		for j := 0; j < b.Cols; j++ {
			buf = b.Col(j, buf)
			fn(buf)
		}
	}
}

// present drops NaN values, reusing dst.
func present(col, dst []float64) []float64 {
	dst = dst[:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func rows(blocks []chunked.Block) int {
	if len(blocks) == 0 {
		return 0
	}
	return blocks[0].Rows
}

var registry = map[string]func() Reduction{
	"sum":        func() Reduction { return Sum{} },
	"count":      func() Reduction { return Count{} },
	"nonmissing": func() Reduction { return NonMissing{} },
	"min":        func() Reduction { return Min{} },
	"max":        func() Reduction { return Max{} },
	"mean":       func() Reduction { return Mean{} },
	"variance":   func() Reduction { return Variance{} },
	"median":     func() Reduction { return Median{} },
	"summary":    func() Reduction { return Summary{} },
}

// Lookup returns the parameterless built-in reduction called name.
func Lookup(name string) (Reduction, error) {
	ctor, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown reduction %q, expected one of %s", name, Names())
	}
	return ctor(), nil
}

// Names lists the parameterless built-in reductions.
func Names() string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
