// Package assemble joins per-window records back to their window labels.
package assemble

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/genowindow/reduce"
	"github.com/carbocation/genowindow/window"
	"gopkg.in/guregu/null.v3"
)

// ErrLengthMismatch is returned when there is not exactly one record per
// window.
var ErrLengthMismatch = errors.New("record count does not match window count")

// Missing is how NaN statistics are written in text output.
const Missing = "NA"

// Table is a windowed statistic: one labelled record per window, in window
// order.
type Table struct {
	columns []string
	windows []window.Window
	records []reduce.Record
}

// Assemble pairs records[i] with windows[i]. Every record must have one value
// per column.
func Assemble(windows []window.Window, records []reduce.Record, columns []string) (*Table, error) {
	if len(windows) != len(records) {
		return nil, fmt.Errorf("%w: %d windows, %d records", ErrLengthMismatch, len(windows), len(records))
	}
	for i, r := range records {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("assemble: record %d (%s) has %d values for %d columns", i, windows[i], len(r), len(columns))
		}
	}

	return &Table{
		columns: append([]string(nil), columns...),
		windows: windows,
		records: records,
	}, nil
}

// Len is the number of windows.
func (t *Table) Len() int {
	return len(t.windows)
}

// Columns are the statistic names, without the label columns.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Window returns the label of row i.
func (t *Table) Window(i int) window.Window {
	return t.windows[i]
}

// Record returns the statistics of row i.
func (t *Table) Record(i int) reduce.Record {
	return t.records[i]
}

// Row is one labelled record. Values that are NaN are invalid.
type Row struct {
	Contig     string
	Start      int64
	Stop       int64
	StartIndex int
	StopIndex  int
	Values     []null.Float
}

// Rows returns the table as labelled rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.windows))
	for i, w := range t.windows {
		values := make([]null.Float, len(t.columns))
		for j, v := range t.records[i] {
			values[j] = null.NewFloat(v, !math.IsNaN(v))
		}
		out[i] = Row{
			Contig:     w.Contig,
			Start:      w.StartCoord,
			Stop:       w.StopCoord,
			StartIndex: w.Start,
			StopIndex:  w.Stop,
			Values:     values,
		}
	}
	return out
}

// WriteTSV writes a header line and one line per window. When indices is set,
// the variant axis range of each window follows its coordinates.
func (t *Table) WriteTSV(w io.Writer, indices bool) error {
	bw := bufio.NewWriter(w)

	header := []string{"contig", "start", "stop"}
	if indices {
		header = append(header, "start_index", "stop_index")
	}
	header = append(header, t.columns...)
	if _, err := fmt.Fprintln(bw, strings.Join(header, "\t")); err != nil {
		return err
	}

	fields := make([]string, 0, len(header))
	for i, win := range t.windows {
		fields = fields[:0]
		fields = append(fields, win.Contig, strconv.FormatInt(win.StartCoord, 10), strconv.FormatInt(win.StopCoord, 10))
		if indices {
			fields = append(fields, strconv.Itoa(win.Start), strconv.Itoa(win.Stop))
		}
		for _, v := range t.records[i] {
			fields = append(fields, FormatValue(v))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// FormatValue prints v in the shortest exact form, or Missing for NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return Missing
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
