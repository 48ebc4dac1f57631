package chunked

import "fmt"

// Block is a dense, row-major slice of an array: Rows variants by Cols values.
// Blocks handed to reductions are read-only views; a Block may alias the
// storage it was read from.
type Block struct {
	Rows int
	Cols int
	Data []float64
}

// NewBlock wraps row-major data.
func NewBlock(rows, cols int, data []float64) (Block, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return Block{}, fmt.Errorf("chunked.NewBlock: %d values cannot fill %d rows by %d columns", len(data), rows, cols)
	}
	return Block{Rows: rows, Cols: cols, Data: data}, nil
}

// EmptyBlock is a zero-row block of the given width.
func EmptyBlock(cols int) Block {
	return Block{Rows: 0, Cols: cols, Data: []float64{}}
}

// At returns the value at row i, column j.
func (b Block) At(i, j int) float64 {
	return b.Data[i*b.Cols+j]
}

// Row returns row i without copying.
func (b Block) Row(i int) []float64 {
	return b.Data[i*b.Cols : (i+1)*b.Cols : (i+1)*b.Cols]
}

// Col copies column j, in row order, into dst (which is grown as needed) and
// returns it.
func (b Block) Col(j int, dst []float64) []float64 {
	dst = dst[:0]
	for i := 0; i < b.Rows; i++ {
		dst = append(dst, b.Data[i*b.Cols+j])
	}
	return dst
}

// Slice returns rows [start, stop) without copying.
func (b Block) Slice(start, stop int) Block {
	return Block{
		Rows: stop - start,
		Cols: b.Cols,
		Data: b.Data[start*b.Cols : stop*b.Cols : stop*b.Cols],
	}
}

// Concat stacks blocks of equal width in order. A single block is returned as
// is; several are copied into fresh storage.
func Concat(cols int, blocks []Block) (Block, error) {
	switch len(blocks) {
	case 0:
		return EmptyBlock(cols), nil
	case 1:
		if blocks[0].Cols != cols {
			return Block{}, fmt.Errorf("chunked.Concat: block has %d columns, want %d", blocks[0].Cols, cols)
		}
		return blocks[0], nil
	}

	rows := 0
	for i, b := range blocks {
		if b.Cols != cols {
			return Block{}, fmt.Errorf("chunked.Concat: block %d has %d columns, want %d", i, b.Cols, cols)
		}
		rows += b.Rows
	}

	data := make([]float64, 0, rows*cols)
	for _, b := range blocks {
		data = append(data, b.Data[:b.Rows*b.Cols]...)
	}

	return Block{Rows: rows, Cols: cols, Data: data}, nil
}
