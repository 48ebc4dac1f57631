package genowindow

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// PeekDelimiter is DetermineDelimiter over whatever br has buffered, leaving
// br unread.
func PeekDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if len(head) == 0 {
		return ','
	}
	return DetermineDelimiter(bytes.NewReader(head))
}
