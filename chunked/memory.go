package chunked

import (
	"context"
	"fmt"
)

// Memory is an in-memory Source. Reads return views into its storage.
type Memory struct {
	block Block
}

// NewMemory wraps row-major data of the given shape.
func NewMemory(rows, cols int, data []float64) (*Memory, error) {
	b, err := NewBlock(rows, cols, data)
	if err != nil {
		return nil, err
	}
	return &Memory{block: b}, nil
}

// FromColumns builds a Memory source from equal-length columns.
func FromColumns(columns ...[]float64) (*Memory, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("chunked.FromColumns: no columns")
	}

	rows := len(columns[0])
	for j, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("chunked.FromColumns: column %d has %d rows, column 0 has %d", j, len(col), rows)
		}
	}

	cols := len(columns)
	data := make([]float64, rows*cols)
	for j, col := range columns {
		for i, v := range col {
			data[i*cols+j] = v
		}
	}

	return &Memory{block: Block{Rows: rows, Cols: cols, Data: data}}, nil
}

func (m *Memory) Len() int {
	return m.block.Rows
}

func (m *Memory) Width() int {
	return m.block.Cols
}

func (m *Memory) ReadRows(_ context.Context, start, stop int) (Block, error) {
	if start < 0 || start > stop || stop > m.block.Rows {
		return Block{}, fmt.Errorf("rows [%d:%d] out of range for %d rows", start, stop, m.block.Rows)
	}
	return m.block.Slice(start, stop), nil
}
