// windowstat computes a per-window statistic over a per-variant input (a VCF,
// a BGEN, or a table of per-variant values) and writes one row per window as
// TSV or into a BigQuery table.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/genowindow/assemble"
	"github.com/carbocation/genowindow/chunked"
	"github.com/carbocation/genowindow/compileinfo"
	"github.com/carbocation/genowindow/config"
	"github.com/carbocation/genowindow/executor"
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

type options struct {
	configPath string
	in         inputs

	output  string
	indices bool

	bqProject, bqDataset, bqTable string
	bqCreate                      bool
}

func main() {
	defer STDOUT.Flush()

	log := logging.NewLogger()
	defer log.Sync()

	log.Infow("Starting windowstat", compileinfo.Get().Fields()...)

	cfg := config.Default()
	var opts options
	config.RegisterFlags(flag.CommandLine, &cfg)
	flag.StringVar(&opts.configPath, "config", "", "Optional TOML file with window options. Flags take precedence.")
	flag.StringVar(&opts.in.vcf, "vcf", "", "VCF (optionally compressed, local or gs://) whose genotypes are summarized per variant.")
	flag.StringVar(&opts.in.bgen, "bgen", "", "Local BGEN file whose genotype probabilities are summarized per variant.")
	flag.StringVar(&opts.in.table, "table", "", "Uncompressed per-variant table (local or gs://).")
	flag.StringVar(&opts.in.layout, "layout", "", fmt.Sprintf("Layout of -table. One of: %s. Alternatively use -chrom, -pos and -values.", layoutNames()))
	flag.StringVar(&opts.in.chrom, "chrom", "", "Name of the chromosome column of a headed -table.")
	flag.StringVar(&opts.in.pos, "pos", "", "Name of the position column of a headed -table.")
	flag.StringVar(&opts.in.values, "values", "", "Comma-separated value columns of a headed -table.")
	flag.StringVar(&opts.output, "output", "", "Write TSV here instead of standard output.")
	flag.BoolVar(&opts.indices, "indices", false, "Include each window's variant index range in the TSV.")
	flag.StringVar(&opts.bqProject, "bq_project", "", "If set with -bq_dataset and -bq_table, load the results into BigQuery instead of writing TSV.")
	flag.StringVar(&opts.bqDataset, "bq_dataset", "", "BigQuery dataset.")
	flag.StringVar(&opts.bqTable, "bq_table", "", "BigQuery table.")
	flag.BoolVar(&opts.bqCreate, "bq_create", false, "Create the BigQuery table before loading.")
	flag.Parse()

	if opts.configPath != "" {
		var err error
		if cfg, err = config.Overlay(flag.CommandLine, opts.configPath); err != nil {
			log.Fatalw("Could not read configuration", "error", err)
		}
	}

	if err := opts.in.validate(); err != nil {
		flag.PrintDefaults()
		log.Fatalw("Invalid input", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, log)

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatalw("windowstat failed", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, opts options) (err error) {
	log := logging.FromContext(ctx)

	var client *storage.Client
	if opts.in.usesGoogleStorage() || strings.HasPrefix(cfg.ExplicitWindows, "gs://") {
		if client, err = storage.NewClient(ctx); err != nil {
			return pfx.Err(err)
		}
		defer func() { err = multierr.Append(err, client.Close()) }()
	}

	for i, c := range cfg.Contigs {
		cfg.Contigs[i] = layout.FixChromosome(c)
	}

	intervals, err := readIntervals(ctx, cfg, client)
	if err != nil {
		return err
	}
	spec, err := cfg.Spec(intervals)
	if err != nil {
		return err
	}

	data, err := opts.in.load(ctx, client, cfg.ChunkSize)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, data.Close()) }()

	r, err := reductionFor(cfg, data.genotypes)
	if err != nil {
		return err
	}

	windows, err := window.Resolve(data.axis, spec)
	if err != nil {
		return err
	}

	plan, err := reconcile.Refine(data.array.Chunking(), windows)
	if err != nil {
		return err
	}
	log.Infow("Resolved windows",
		"variants", data.axis.Len(),
		"windows", len(windows),
		"storageChunks", data.array.NumChunks(),
		"refinedChunks", plan.NumChunks(),
		"addedCuts", plan.Added(),
	)

	res, err := executor.Run(ctx, windows, plan, []*chunked.Array{data.array}, r, executor.Options{Concurrency: cfg.Concurrency})
	if err != nil {
		return err
	}

	table, err := assemble.Assemble(windows, res.Records, res.Columns)
	if err != nil {
		return err
	}

	if opts.bqProject != "" {
		return upload(ctx, opts, table)
	}
	return writeTSV(opts, table)
}

func writeTSV(opts options, table *assemble.Table) (err error) {
	if opts.output == "" {
		return table.WriteTSV(STDOUT, opts.indices)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return pfx.Err(err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return table.WriteTSV(f, opts.indices)
}

func upload(ctx context.Context, opts options, table *assemble.Table) (err error) {
	if opts.bqDataset == "" || opts.bqTable == "" {
		return fmt.Errorf("-bq_project requires -bq_dataset and -bq_table")
	}

	bq, err := bigquery.NewClient(ctx, opts.bqProject)
	if err != nil {
		return pfx.Err(fmt.Errorf("connecting to BigQuery: %w", err))
	}
	defer func() { err = multierr.Append(err, bq.Close()) }()

	if err := assemble.UploadBigQuery(ctx, bq, opts.bqDataset, opts.bqTable, table, opts.bqCreate); err != nil {
		return err
	}

	logging.FromContext(ctx).Infow("Loaded windows into BigQuery", "project", opts.bqProject, "dataset", opts.bqDataset, "table", opts.bqTable, "rows", table.Len())
	return nil
}
