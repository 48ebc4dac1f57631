// windowplan resolves windows over a variant axis and prints how they line up
// with the storage chunking, without reading any per-variant values.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/genowindow"
	"github.com/carbocation/genowindow/axis"
	"github.com/carbocation/genowindow/compileinfo"
	"github.com/carbocation/genowindow/config"
	"github.com/carbocation/genowindow/layout"
	"github.com/carbocation/genowindow/logging"
	"github.com/carbocation/genowindow/reconcile"
	"github.com/carbocation/genowindow/window"
	"github.com/carbocation/pfx"
	"go.uber.org/multierr"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	log := logging.NewLogger()
	defer log.Sync()

	log.Infow("Starting windowplan", compileinfo.Get().Fields()...)

	cfg := config.Default()
	var configPath, bimPath, vcfPath, tablePath, layoutName string
	var cuts bool
	config.RegisterFlags(flag.CommandLine, &cfg)
	flag.StringVar(&configPath, "config", "", "Optional TOML file with window options. Flags take precedence.")
	flag.StringVar(&bimPath, "bim", "", "PLINK .bim file describing the variant axis.")
	flag.StringVar(&vcfPath, "vcf", "", "VCF describing the variant axis.")
	flag.StringVar(&tablePath, "table", "", "Per-variant table describing the variant axis. Requires -layout.")
	flag.StringVar(&layoutName, "layout", "", fmt.Sprintf("Layout of -table. One of: %s", layout.LayoutNames()))
	flag.BoolVar(&cuts, "cuts", false, "Print the refined chunk cut points instead of the windows.")
	flag.Parse()

	if configPath != "" {
		var err error
		if cfg, err = config.Overlay(flag.CommandLine, configPath); err != nil {
			log.Fatalw("Could not read configuration", "error", err)
		}
	}

	n := 0
	for _, p := range []string{bimPath, vcfPath, tablePath} {
		if p != "" {
			n++
		}
	}
	if n != 1 || (tablePath != "" && layoutName == "") {
		flag.PrintDefaults()
		log.Fatalw("Pass exactly one of -bim, -vcf or -table (with -layout)")
	}

	ctx := logging.WithLogger(context.Background(), log)

	ax, err := readAxis(ctx, bimPath, vcfPath, tablePath, layoutName)
	if err != nil {
		log.Fatalw("Could not read the variant axis", "error", err)
	}

	plan, windows, err := buildPlan(ctx, ax, cfg)
	if err != nil {
		log.Fatalw("Could not plan windows", "error", err)
	}

	log.Infow("Planned windows",
		"variants", ax.Len(),
		"contigs", len(ax.Contigs()),
		"windows", len(windows),
		"storageChunks", len(plan.OriginalCutPoints()),
		"refinedChunks", plan.NumChunks(),
		"addedCuts", plan.Added(),
		"spanning", plan.Spanning(),
	)

	if cuts {
		err = printCuts(STDOUT, plan)
	} else {
		err = printWindows(STDOUT, windows, plan)
	}
	if err != nil {
		log.Fatalw("Could not write output", "error", err)
	}
}

func readAxis(ctx context.Context, bimPath, vcfPath, tablePath, layoutName string) (ax *axis.Axis, err error) {
	path := bimPath + vcfPath + tablePath

	var client *storage.Client
	if strings.HasPrefix(path, "gs://") {
		if client, err = storage.NewClient(ctx); err != nil {
			return nil, pfx.Err(err)
		}
		defer func() { err = multierr.Append(err, client.Close()) }()
	}

	rc, err := genowindow.Open(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, rc.Close()) }()

	switch {
	case bimPath != "":
		return genowindow.ReadBIMAxis(rc)
	case vcfPath != "":
		g, err := genowindow.ReadVCFGenotypes(ctx, rc)
		if err != nil {
			return nil, err
		}
		return g.Axis, nil
	}

	l, err := layout.New(layoutName)
	if err != nil {
		return nil, err
	}
	return l.ReadAxis(rc)
}

// buildPlan resolves the windows and reconciles them with a regular storage
// chunking of cfg.ChunkSize variants.
func buildPlan(ctx context.Context, ax *axis.Axis, cfg config.Config) (*reconcile.Plan, []window.Window, error) {
	var intervals []window.Interval
	if cfg.Explicit() {
		rc, err := genowindow.Open(ctx, cfg.ExplicitWindows, nil)
		if err != nil {
			return nil, nil, err
		}
		defer rc.Close()

		br := bufio.NewReader(rc)
		if intervals, err = window.ReadIntervals(br, genowindow.PeekDelimiter(br)); err != nil {
			return nil, nil, err
		}
		for i := range intervals {
			intervals[i].Contig = layout.FixChromosome(intervals[i].Contig)
		}
	}

	for i, c := range cfg.Contigs {
		cfg.Contigs[i] = layout.FixChromosome(c)
	}

	spec, err := cfg.Spec(intervals)
	if err != nil {
		return nil, nil, err
	}

	windows, err := window.Resolve(ax, spec)
	if err != nil {
		return nil, nil, err
	}

	plan, err := reconcile.Refine(axis.Regular(ax.Len(), cfg.ChunkSize), windows)
	if err != nil {
		return nil, nil, err
	}

	return plan, windows, nil
}

func printWindows(w io.Writer, windows []window.Window, plan *reconcile.Plan) error {
	if _, err := fmt.Fprintf(w, "contig\tstart\tstop\tstart_index\tstop_index\tvariants\tfirst_chunk\tlast_chunk\n"); err != nil {
		return err
	}
	for i, win := range windows {
		first, last := plan.WindowChunks(i)
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n", win.Contig, win.StartCoord, win.StopCoord, win.Start, win.Stop, win.Len(), first, last); err != nil {
			return err
		}
	}
	return nil
}

func printCuts(w io.Writer, plan *reconcile.Plan) error {
	if _, err := fmt.Fprintf(w, "chunk\tstart_index\tstop_index\tvariants\n"); err != nil {
		return err
	}
	for j := 0; j < plan.NumChunks(); j++ {
		start, stop := plan.ChunkRange(j)
		if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", j, start, stop, stop-start); err != nil {
			return err
		}
	}
	return nil
}
