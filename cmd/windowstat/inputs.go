package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/genowindow"
	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/genowindow/config"
	"github.com/carbocation/genowindow/layout"
	"github.com/carbocation/genowindow/logging"
	"github.com/carbocation/genowindow/ramcsv"
	"github.com/carbocation/genowindow/window"
	"github.com/carbocation/pfx"
)

type inputs struct {
	vcf, bgen, table string

	layout            string
	chrom, pos, values string
}

func (in inputs) validate() error {
	n := 0
	for _, p := range []string{in.vcf, in.bgen, in.table} {
		if p != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("pass exactly one of -vcf, -bgen or -table")
	}
	if strings.HasPrefix(in.bgen, "gs://") {
		return fmt.Errorf("-bgen must be a local file")
	}
	if in.table != "" {
		byName := in.chrom != "" || in.pos != "" || in.values != ""
		if in.layout != "" && byName {
			return fmt.Errorf("-layout cannot be combined with -chrom, -pos or -values")
		}
		if in.layout == "" && (in.chrom == "" || in.pos == "" || in.values == "") {
			return fmt.Errorf("-table needs either -layout or all of -chrom, -pos and -values")
		}
	}
	return nil
}

func (in inputs) usesGoogleStorage() bool {
	return strings.HasPrefix(in.vcf, "gs://") || strings.HasPrefix(in.table, "gs://")
}

// loaded is a variant axis with one aligned chunked array.
type loaded struct {
	axis      *axis.Axis
	array     *chunked.Array
	genotypes bool
	closer    io.Closer
}

func (l *loaded) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (in inputs) load(ctx context.Context, client *storage.Client, chunkSize int) (*loaded, error) {
	log := logging.FromContext(ctx)

	switch {
	case in.vcf != "":
		log.Infow("Reading VCF", "path", in.vcf)
		rc, err := genowindow.Open(ctx, in.vcf, client)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		g, err := genowindow.ReadVCFGenotypes(ctx, rc)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", in.vcf, err))
		}
		return fromGenotypes(g, chunkSize)

	case in.bgen != "":
		log.Infow("Reading BGEN", "path", in.bgen)
		g, err := genowindow.ReadBGENGenotypes(ctx, in.bgen)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", in.bgen, err))
		}
		return fromGenotypes(g, chunkSize)
	}

	return in.loadTable(ctx, client, chunkSize)
}

func fromGenotypes(g *genowindow.Genotypes, chunkSize int) (*loaded, error) {
	a, err := g.Array("genotypes", chunkSize)
	if err != nil {
		return nil, err
	}
	return &loaded{axis: g.Axis, array: a, genotypes: true}, nil
}

// loadTable indexes the table for random access. Its values stay on disk (or
// in the bucket) and are read one chunk at a time.
func (in inputs) loadTable(ctx context.Context, client *storage.Client, chunkSize int) (*loaded, error) {
	ra, size, err := genowindow.OpenReaderAt(ctx, in.table, client)
	if err != nil {
		return nil, err
	}
	out := &loaded{closer: ra}

	fail := func(err error) (*loaded, error) {
		ra.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", in.table, err))
	}

	head := make([]byte, 6)
	n, _ := ra.ReadAt(head, 0)
	if dt := genowindow.DetectDataType(head[:n]); dt != genowindow.DataTypeNoCompression {
		return fail(fmt.Errorf("tables must be uncompressed to be read at random"))
	}

	l, err := in.tableLayout(io.NewSectionReader(ra, 0, size))
	if err != nil {
		return fail(err)
	}

	if out.axis, err = l.ReadAxis(io.NewSectionReader(ra, 0, size)); err != nil {
		return fail(err)
	}

	ram, err := ramcsv.New(ra, size, l.Options())
	if err != nil {
		return fail(err)
	}
	if ram.Len() != out.axis.Len() {
		return fail(fmt.Errorf("indexed %d value rows but %d variants", ram.Len(), out.axis.Len()))
	}

	if out.array, err = chunked.New("table", ram, axis.Regular(ram.Len(), chunkSize)); err != nil {
		return fail(err)
	}

	logging.FromContext(ctx).Infow("Indexed table", "path", in.table, "variants", ram.Len(), "columns", ram.Columns())
	return out, nil
}

func (in inputs) tableLayout(r io.Reader) (layout.Layout, error) {
	if in.layout != "" {
		return layout.New(in.layout)
	}

	br := bufio.NewReader(r)
	delim := genowindow.PeekDelimiter(br)
	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		return layout.Layout{}, fmt.Errorf("reading header: %w", err)
	}

	return layout.FromHeader(header, delim, in.chrom, in.pos, strings.Split(in.values, ",")...)
}

// readIntervals loads the explicit windows file, if one is configured.
func readIntervals(ctx context.Context, cfg config.Config, client *storage.Client) ([]window.Interval, error) {
	if !cfg.Explicit() {
		return nil, nil
	}

	rc, err := genowindow.Open(ctx, cfg.ExplicitWindows, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	intervals, err := window.ReadIntervals(br, genowindow.PeekDelimiter(br))
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", cfg.ExplicitWindows, err))
	}

	// Axes carry normalized contig names.
	for i := range intervals {
		intervals[i].Contig = layout.FixChromosome(intervals[i].Contig)
	}

	logging.FromContext(ctx).Infow("Read explicit windows", "path", cfg.ExplicitWindows, "intervals", len(intervals))
	return intervals, nil
}
