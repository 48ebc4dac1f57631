// Package ramcsv provides random access to the lines of a delimited text file
// through an io.ReaderAt. The file is scanned once to record where each line
// starts; afterwards any run of lines can be fetched with a single ReadAt, so
// a RAMCSV serves as an out-of-core chunk source for per-variant tables.
package ramcsv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/pfx"
)

type locator struct {
	Offset int64
	Length int
}

// Options describe the file and which columns become values.
type Options struct {
	Comma   rune
	Comment rune

	// Header means the first non-comment line names the columns.
	Header bool

	// Columns are the 0-based indices of the numeric value columns, in
	// output order.
	Columns []int

	// Names overrides the column names taken from the header.
	Names []string
}

// RAMCSV is a random-access view of a delimited file. It implements
// chunked.Source and chunked.ColumnNamer; reads are safe for concurrent use.
type RAMCSV struct {
	r     io.ReaderAt
	m     []locator // maps data line numbers to Offset and Length
	opts  Options
	names []string
}

var (
	_ chunked.Source      = (*RAMCSV)(nil)
	_ chunked.ColumnNamer = (*RAMCSV)(nil)
)

// New scans the first size bytes of r once to index its lines. Blank lines and
// lines starting with opts.Comment are not indexed.
func New(r io.ReaderAt, size int64, opts Options) (*RAMCSV, error) {
	if opts.Comma == 0 {
		opts.Comma = '\t'
	}
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("ramcsv.New: no value columns selected")
	}

	ram := &RAMCSV{
		r:    r,
		m:    make([]locator, 0),
		opts: opts,
	}

	var offset int64
	scanner := bufio.NewScanner(io.NewSectionReader(r, 0, size))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	scanner.Split(scanLinesNondestructive)
	var b []byte
	headerSeen := false
	for scanner.Scan() {
		b = scanner.Bytes()
		loc := locator{Offset: offset, Length: len(b)}
		offset += int64(len(b))

		trimmed := bytes.TrimSpace(b)
		if len(trimmed) == 0 || (opts.Comment != 0 && bytes.HasPrefix(trimmed, []byte(string(opts.Comment)))) {
			continue
		}

		if opts.Header && !headerSeen {
			headerSeen = true
			fields, err := ram.parse(b)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("header: %w", err))
			}
			if err := ram.nameColumns(fields); err != nil {
				return nil, err
			}
			continue
		}

		ram.m = append(ram.m, loc)
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	if ram.names == nil {
		if err := ram.nameColumns(nil); err != nil {
			return nil, err
		}
	}

	return ram, nil
}

func (ram *RAMCSV) nameColumns(header []string) error {
	if len(ram.opts.Names) > 0 {
		if len(ram.opts.Names) != len(ram.opts.Columns) {
			return fmt.Errorf("ramcsv: %d names for %d columns", len(ram.opts.Names), len(ram.opts.Columns))
		}
		ram.names = append([]string(nil), ram.opts.Names...)
		return nil
	}

	ram.names = make([]string, len(ram.opts.Columns))
	for j, col := range ram.opts.Columns {
		if header == nil {
			ram.names[j] = fmt.Sprintf("column_%d", col+1)
			continue
		}
		if col < 0 || col >= len(header) {
			return fmt.Errorf("ramcsv: column %d is not in the %d column header", col, len(header))
		}
		ram.names[j] = header[col]
	}
	return nil
}

// Len is the number of data lines.
func (ram *RAMCSV) Len() int {
	return len(ram.m)
}

// Width is the number of value columns.
func (ram *RAMCSV) Width() int {
	return len(ram.opts.Columns)
}

// Columns names the value columns.
func (ram *RAMCSV) Columns() []string {
	return append([]string(nil), ram.names...)
}

// Read returns the fields of data line `line`.
func (ram *RAMCSV) Read(line int) ([]string, error) {
	if line < 0 || len(ram.m)-1 < line {
		return nil, fmt.Errorf("Line %d is greater than the length of the file (%d)", line, len(ram.m))
	}

	val := make([]byte, ram.m[line].Length)
	if _, err := ram.r.ReadAt(val, ram.m[line].Offset); err != nil && err != io.EOF {
		return nil, err
	}

	return ram.parse(val)
}

// ReadRows fetches data lines [start, stop) with one ReadAt and parses the
// value columns. Empty, NA, NaN and "." values become NaN.
func (ram *RAMCSV) ReadRows(ctx context.Context, start, stop int) (chunked.Block, error) {
	if start < 0 || start > stop || stop > len(ram.m) {
		return chunked.Block{}, fmt.Errorf("rows [%d:%d] out of range for %d rows", start, stop, len(ram.m))
	}
	width := ram.Width()
	if start == stop {
		return chunked.EmptyBlock(width), nil
	}

	first, last := ram.m[start], ram.m[stop-1]
	span := make([]byte, last.Offset+int64(last.Length)-first.Offset)
	if _, err := ram.r.ReadAt(span, first.Offset); err != nil && err != io.EOF {
		return chunked.Block{}, err
	}

	data := make([]float64, 0, (stop-start)*width)
	for i := start; i < stop; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return chunked.Block{}, err
			}
		}

		loc := ram.m[i]
		from := loc.Offset - first.Offset
		fields, err := ram.parse(span[from : from+int64(loc.Length)])
		if err != nil {
			return chunked.Block{}, fmt.Errorf("line %d: %w", i, err)
		}

		for _, col := range ram.opts.Columns {
			if col >= len(fields) {
				return chunked.Block{}, fmt.Errorf("line %d has %d fields, column %d requested", i, len(fields), col)
			}
			v, err := ParseValue(fields[col])
			if err != nil {
				return chunked.Block{}, fmt.Errorf("line %d column %d: %w", i, col, err)
			}
			data = append(data, v)
		}
	}

	return chunked.NewBlock(stop-start, width, data)
}

func (ram *RAMCSV) parse(line []byte) ([]string, error) {
	csvr := csv.NewReader(bytes.NewReader(line))
	csvr.Comma = ram.opts.Comma
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	csvr.TrimLeadingSpace = ram.opts.Comma != ' '

	return csvr.Read()
}

// ParseValue parses a numeric field, mapping the usual missing value markers
// to NaN.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "NAN", ".", "-NAN":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// scanLinesNondestructive does not destroy the \n or the possible \r\n from a
// line. Otherwise it is like bufio.ScanLines.
func scanLinesNondestructive(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		// We have a full newline-terminated line.
		return i + 1, data[0 : i+1], nil
	}
	// If we're at EOF, we have a final, non-terminated line. Return it.
	if atEOF {
		return len(data), data, nil
	}
	// Request more data.
	return 0, nil, nil
}
