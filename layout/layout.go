// Package layout describes where the chromosome, position and value columns
// live in the per-variant tables produced by common genetics tools.
package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/genowindow/ramcsv"
)

// Site is the genomic location of one table row.
type Site struct {
	Chromosome string
	Position   int64
}

// RowParser extracts the site of a row.
type RowParser func(layout *Layout, row []string) (Site, error)

type Layout struct {
	Delimiter     rune
	Comment       rune
	Header        bool
	ColChromosome int
	ColPosition   int
	ColValues     []int
	ValueNames    []string
	Parser        RowParser
}

var Layouts = map[string]Layout{
	"AVKNG2018": {
		Delimiter:     '\t',
		Comment:       '#',
		ColChromosome: 3,
		ColPosition:   4,
		ColValues:     []int{2},
		ValueNames:    []string{"score"},
		Parser:        defaultParseRow,
	},
	"LDPRED": {
		Delimiter:     ' ',
		Comment:       '#',
		ColChromosome: 0,
		ColPosition:   1,
		ColValues:     []int{6},
		ValueNames:    []string{"score"},
		Parser:        defaultParseRow,
	},
	"REGENIE": {
		Delimiter:     ' ',
		Comment:       '#',
		Header:        true,
		ColChromosome: 0,
		ColPosition:   1,
		ColValues:     []int{5, 9, 10, 12},
		ValueNames:    []string{"a1freq", "beta", "se", "log10p"},
		Parser:        defaultParseRow,
	},
	"BOLT": {
		Delimiter:     '\t',
		Header:        true,
		ColChromosome: 1,
		ColPosition:   2,
		ColValues:     []int{6, 8, 9, 10},
		ValueNames:    []string{"a1freq", "beta", "se", "p"},
		Parser:        defaultParseRow,
	},
}

// LayoutNames lists the known layouts, sorted.
func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// New returns a copy of the named layout.
func New(name string) (Layout, error) {
	l, exists := Layouts[strings.ToUpper(name)]
	if !exists {
		return Layout{}, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", name, LayoutNames())
	}
	l.ColValues = append([]int(nil), l.ColValues...)
	l.ValueNames = append([]string(nil), l.ValueNames...)
	return l, nil
}

// FromHeader builds a layout for a headed table by looking up column names.
// Matching is case-insensitive and ignores a leading '#', as in "#CHROM".
// The header line is not treated as a comment.
func FromHeader(header []string, delimiter rune, chromosome, position string, values ...string) (Layout, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[headerKey(h)] = i
	}
	find := func(name string) (int, error) {
		i, ok := index[headerKey(name)]
		if !ok {
			return 0, fmt.Errorf("column %q is not in the header (%s)", name, strings.Join(header, ", "))
		}
		return i, nil
	}

	l := Layout{Delimiter: delimiter, Header: true, Parser: defaultParseRow}
	var err error
	if l.ColChromosome, err = find(chromosome); err != nil {
		return l, err
	}
	if l.ColPosition, err = find(position); err != nil {
		return l, err
	}
	if len(values) == 0 {
		return l, fmt.Errorf("no value columns requested")
	}
	for _, v := range values {
		col, err := find(v)
		if err != nil {
			return l, err
		}
		l.ColValues = append(l.ColValues, col)
		l.ValueNames = append(l.ValueNames, strings.TrimPrefix(strings.TrimSpace(header[col]), "#"))
	}

	return l, nil
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}

// ParseRow returns the site of row.
func (l *Layout) ParseRow(row []string) (Site, error) {
	parse := l.Parser
	if parse == nil {
		parse = defaultParseRow
	}
	return parse(l, row)
}

// Options returns the ramcsv options that read this layout's value columns.
func (l *Layout) Options() ramcsv.Options {
	return ramcsv.Options{
		Comma:   l.Delimiter,
		Comment: l.Comment,
		Header:  l.Header,
		Columns: l.ColValues,
		Names:   l.ValueNames,
	}
}
