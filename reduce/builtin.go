package reduce

import (
	"fmt"
	"math"

	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sum adds each column over the window in axis order. NaN propagates, and an
// empty window sums to 0.
type Sum struct{}

func (Sum) Name() string { return "sum" }

func (Sum) Columns(inputs []Shape) ([]string, error) { return perColumn(inputs, "sum"), nil }

func (Sum) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	eachColumn(blocks, func(col []float64) {
		out = append(out, floats.Sum(col))
	})
	return out, nil
}

// Count is the number of variants in the window.
type Count struct{}

func (Count) Name() string { return "count" }

func (Count) Columns([]Shape) ([]string, error) { return []string{"count"}, nil }

func (Count) Reduce(blocks []chunked.Block) (Record, error) {
	return Record{float64(rows(blocks))}, nil
}

func (c Count) Partial(blocks []chunked.Block) (Record, error) { return c.Reduce(blocks) }

func (Count) Combine(partials []Record) (Record, error) { return addPartials(partials, 1) }

// NonMissing counts the non-NaN values of each column.
type NonMissing struct{}

func (NonMissing) Name() string { return "nonmissing" }

func (NonMissing) Columns(inputs []Shape) ([]string, error) {
	return perColumn(inputs, "nonmissing"), nil
}

func (NonMissing) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	eachColumn(blocks, func(col []float64) {
		n := 0
		for _, v := range col {
			if !math.IsNaN(v) {
				n++
			}
		}
		out = append(out, float64(n))
	})
	return out, nil
}

func (n NonMissing) Partial(blocks []chunked.Block) (Record, error) { return n.Reduce(blocks) }

func (NonMissing) Combine(partials []Record) (Record, error) { return addPartials(partials, -1) }

// addPartials adds integer-valued partial records element-wise. width < 0
// takes the width from the first partial.
func addPartials(partials []Record, width int) (Record, error) {
	if width < 0 {
		if len(partials) == 0 {
			return nil, fmt.Errorf("cannot infer width from zero partials")
		}
		width = len(partials[0])
	}

	out := make(Record, width)
	for _, p := range partials {
		if len(p) != width {
			return nil, fmt.Errorf("partial has %d values, want %d", len(p), width)
		}
		for j, v := range p {
			out[j] += v
		}
	}
	return out, nil
}

// Min is the smallest non-NaN value of each column, or NaN if there is none.
type Min struct{}

func (Min) Name() string { return "min" }

func (Min) Columns(inputs []Shape) ([]string, error) { return perColumn(inputs, "min"), nil }

func (Min) Reduce(blocks []chunked.Block) (Record, error) { return extremes(blocks, math.Min), nil }

func (m Min) Partial(blocks []chunked.Block) (Record, error) { return m.Reduce(blocks) }

func (Min) Combine(partials []Record) (Record, error) { return combineExtremes(partials, math.Min) }

// Max is the largest non-NaN value of each column, or NaN if there is none.
type Max struct{}

func (Max) Name() string { return "max" }

func (Max) Columns(inputs []Shape) ([]string, error) { return perColumn(inputs, "max"), nil }

func (Max) Reduce(blocks []chunked.Block) (Record, error) { return extremes(blocks, math.Max), nil }

func (m Max) Partial(blocks []chunked.Block) (Record, error) { return m.Reduce(blocks) }

func (Max) Combine(partials []Record) (Record, error) { return combineExtremes(partials, math.Max) }

func extremes(blocks []chunked.Block, pick func(a, b float64) float64) Record {
	out := make(Record, 0)
	eachColumn(blocks, func(col []float64) {
		best := math.NaN()
		for _, v := range col {
			best = nanPick(best, v, pick)
		}
		out = append(out, best)
	})
	return out
}

func combineExtremes(partials []Record, pick func(a, b float64) float64) (Record, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("cannot combine zero partials")
	}
	out := make(Record, len(partials[0]))
	copy(out, partials[0])
	for _, p := range partials[1:] {
		if len(p) != len(out) {
			return nil, fmt.Errorf("partial has %d values, want %d", len(p), len(out))
		}
		for j, v := range p {
			out[j] = nanPick(out[j], v, pick)
		}
	}
	return out, nil
}

// nanPick treats NaN as absent rather than contagious.
func nanPick(a, b float64, pick func(a, b float64) float64) float64 {
	switch {
	case math.IsNaN(a):
		return b
	case math.IsNaN(b):
		return a
	}
	return pick(a, b)
}

// Mean is the mean of the non-NaN values of each column.
type Mean struct{}

func (Mean) Name() string { return "mean" }

func (Mean) Columns(inputs []Shape) ([]string, error) { return perColumn(inputs, "mean"), nil }

func (Mean) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	var vals []float64
	eachColumn(blocks, func(col []float64) {
		vals = present(col, vals)
		if len(vals) == 0 {
			out = append(out, math.NaN())
			return
		}
		out = append(out, stat.Mean(vals, nil))
	})
	return out, nil
}

// Variance is the unbiased sample variance of the non-NaN values of each
// column; NaN with fewer than two values.
type Variance struct{}

func (Variance) Name() string { return "variance" }

func (Variance) Columns(inputs []Shape) ([]string, error) {
	return perColumn(inputs, "variance"), nil
}

func (Variance) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	var vals []float64
	eachColumn(blocks, func(col []float64) {
		vals = present(col, vals)
		if len(vals) < 2 {
			out = append(out, math.NaN())
			return
		}
		out = append(out, stat.Variance(vals, nil))
	})
	return out, nil
}

// Median is the median of the non-NaN values of each column.
type Median struct{}

func (Median) Name() string { return "median" }

func (Median) Columns(inputs []Shape) ([]string, error) { return perColumn(inputs, "median"), nil }

func (Median) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	var vals []float64
	var err error
	eachColumn(blocks, func(col []float64) {
		vals = present(col, vals)
		if len(vals) == 0 {
			out = append(out, math.NaN())
			return
		}
		// stats.Median sorts a copy, so vals can be reused.
		m, merr := stats.Median(stats.Float64Data(vals))
		if merr != nil && err == nil {
			err = merr
		}
		out = append(out, m)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Summary streams each column through a running-variance accumulator and
// reports the count, mean and standard deviation of its non-NaN values.
type Summary struct{}

func (Summary) Name() string { return "summary" }

func (Summary) Columns(inputs []Shape) ([]string, error) {
	out := make([]string, 0)
	for _, in := range inputs {
		for _, col := range in.Columns {
			out = append(out, col+"_n", col+"_mean", col+"_sd")
		}
	}
	return out, nil
}

func (Summary) Reduce(blocks []chunked.Block) (Record, error) {
	out := make(Record, 0)
	eachColumn(blocks, func(col []float64) {
		rs := runningvariance.NewRunningStat()
		n := 0
		for _, v := range col {
			if math.IsNaN(v) {
				continue
			}
			rs.Push(v)
			n++
		}

		mean, sd := math.NaN(), math.NaN()
		if n > 0 {
			mean = rs.Mean()
		}
		if n > 1 {
			sd = rs.StandardDeviation()
		}
		out = append(out, float64(n), mean, sd)
	})
	return out, nil
}
