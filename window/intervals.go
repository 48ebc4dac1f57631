package window

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// ReadIntervals parses an explicit window list: one interval per line with
// contig, start and stop columns, half-open, in the order they should be
// reported. A header naming those columns is optional; without one the first
// three columns are used, so BED files work as-is. Lines starting with '#' are
// ignored.
func ReadIntervals(r io.Reader, comma rune) ([]Interval, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if err == io.EOF {
		return []Interval{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("ReadIntervals: %w", err)
	}

	src := &headerReader{r: cr}
	if looksLikeHeader(first) {
		for i := range first {
			first[i] = normalizeColumn(first[i])
		}
		src.header = first
	} else {
		src.header = syntheticHeader(len(first))
		src.pending = first
	}

	out := make([]Interval, 0)
	if err := gocsv.UnmarshalCSV(src, &out); err != nil {
		return nil, fmt.Errorf("ReadIntervals: %w", err)
	}

	return out, nil
}

func looksLikeHeader(row []string) bool {
	if len(row) < 3 {
		return true
	}
	_, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
	return err != nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	switch name {
	case "chrom", "chr", "chromosome", "seqname":
		return "contig"
	case "chromstart", "begin", "from":
		return "start"
	case "chromend", "end", "to":
		return "stop"
	}
	return name
}

func syntheticHeader(n int) []string {
	out := []string{"contig", "start", "stop"}
	for i := len(out); i < n; i++ {
		out = append(out, fmt.Sprintf("column_%d", i+1))
	}
	return out
}

// headerReader replays a header (and possibly one already-consumed record)
// ahead of the rest of a csv.Reader.
type headerReader struct {
	r       *csv.Reader
	header  []string
	pending []string
	sent    bool
}

func (h *headerReader) Read() ([]string, error) {
	if !h.sent {
		h.sent = true
		return h.header, nil
	}
	if h.pending != nil {
		row := h.pending
		h.pending = nil
		return row, nil
	}
	return h.r.Read()
}

func (h *headerReader) ReadAll() ([][]string, error) {
	out := make([][]string, 0)
	for {
		row, err := h.Read()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}
