package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/SteelMorgan/buildstats-diff/internal/buildstats"
	"github.com/SteelMorgan/buildstats-diff/internal/cache"
	"github.com/SteelMorgan/buildstats-diff/internal/clickhouse"
	"github.com/SteelMorgan/buildstats-diff/internal/config"
	"github.com/SteelMorgan/buildstats-diff/internal/diff"
	"github.com/SteelMorgan/buildstats-diff/internal/domain"
	"github.com/SteelMorgan/buildstats-diff/internal/observability"
	"github.com/SteelMorgan/buildstats-diff/internal/report"
	"github.com/SteelMorgan/buildstats-diff/internal/retry"
	"github.com/SteelMorgan/buildstats-diff/internal/service"
	"github.com/SteelMorgan/buildstats-diff/internal/writer"
)

const version = "0.1.0"

// stringList collects a repeatable flag
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// options holds parsed command line flags
type options struct {
	diffAttr   string
	minVal     float64
	minAbsDiff float64
	sortBy     string
	multi      bool
	verDiff    bool
	onlyTasks  stringList
	format     string
	color      string
	debug      bool
	dumpJSON   string
	export     bool
	cachePath  string
	left       string
	right      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		printError(stderr, err)
		return 1
	}

	level := cfg.LogLevel
	if opts.debug {
		level = "debug"
	}
	observability.InitLogger(level, cfg.LogFile)

	shutdown, err := observability.InitTracer(observability.TracerConfig{
		ServiceName:    "buildstats-diff",
		ServiceVersion: version,
		Endpoint:       cfg.TracingEndpoint,
		Protocol:       cfg.TracingProtocol,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer shutdown(context.Background())
	}

	if err := compare(context.Background(), cfg, opts, stdout); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("buildstats-diff", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: buildstats-diff [options] <buildstats1> <buildstats2>")
		fmt.Fprintln(stderr, "Compare buildstats of two builds. A source is a JSON file, a buildstats")
		fmt.Fprintln(stderr, "directory or (with --multi) a directory of such sources to average.")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	metrics := make([]string, 0, len(domain.Metrics))
	for _, m := range domain.Metrics {
		metrics = append(metrics, string(m))
	}

	fs.StringVar(&opts.diffAttr, "diff-attr", string(domain.MetricCPUTime),
		"Buildstat attribute to compare: "+strings.Join(metrics, ", "))
	fs.Float64Var(&opts.minVal, "min-val", -1,
		"Filter out tasks less than this (default depends on --diff-attr)")
	fs.Float64Var(&opts.minAbsDiff, "min-absdiff", -1,
		"Filter out tasks whose difference is less than this (default depends on --diff-attr)")
	fs.StringVar(&opts.sortBy, "sort-by", diff.DefaultSortBy,
		"Comma-separated sort fields, '-' prefix for descending: "+strings.Join(diff.SortFields, ", "))
	fs.BoolVar(&opts.multi, "multi", false, "Read and average buildstats of several builds per source")
	fs.BoolVar(&opts.verDiff, "ver-diff", false, "Show package version differences and exit (disables --multi)")
	fs.Var(&opts.onlyTasks, "only-task", "Only compare this task, can be repeated")
	fs.StringVar(&opts.format, "format", cfg.OutputFormat, "Output format: text, json, yaml")
	fs.StringVar(&opts.color, "color", cfg.Color, "Colorize text output: auto, always, never")
	fs.BoolVar(&opts.debug, "debug", false, "Verbose logging")
	fs.StringVar(&opts.dumpJSON, "dump-json", "", "Write the normalized first buildstats as JSON to this file")
	fs.BoolVar(&opts.export, "export", cfg.ClickHouseEnabled, "Export the comparison to ClickHouse")
	fs.StringVar(&opts.cachePath, "cache", cfg.CachePath, "Parse cache database (bbolt), empty to disable")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected 2 buildstats paths, got %d", domain.ErrArgument, fs.NArg())
	}
	opts.left, opts.right = fs.Arg(0), fs.Arg(1)

	switch opts.format {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return nil, fmt.Errorf("%w: invalid --format %q", domain.ErrArgument, opts.format)
	}
	switch opts.color {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("%w: invalid --color %q", domain.ErrArgument, opts.color)
	}

	if opts.verDiff {
		opts.multi = false
	}
	return opts, nil
}

// compareOptions resolves metric, thresholds and sort order
func compareOptions(cfg *config.Config, opts *options) (service.CompareOptions, error) {
	co := service.CompareOptions{
		VersionsOnly: opts.verDiff,
		Multi:        opts.multi,
		OnlyTasks:    opts.onlyTasks,
	}
	if opts.verDiff {
		return co, nil
	}

	metric, err := domain.ParseMetric(opts.diffAttr)
	if err != nil {
		return co, err
	}
	thresholds, err := config.LoadThresholds(cfg.ThresholdsPath)
	if err != nil {
		return co, err
	}
	sortKeys, err := diff.ParseSortKeys(opts.sortBy)
	if err != nil {
		return co, err
	}

	th := thresholds.For(metric)
	co.Metric = metric
	co.MinVal = th.MinVal
	co.MinAbsDiff = th.MinAbsDiff
	if opts.minVal >= 0 {
		co.MinVal = opts.minVal
	}
	if opts.minAbsDiff >= 0 {
		co.MinAbsDiff = opts.minAbsDiff
	}
	co.SortBy = sortKeys
	return co, nil
}

func compare(ctx context.Context, cfg *config.Config, opts *options, stdout io.Writer) error {
	co, err := compareOptions(cfg, opts)
	if err != nil {
		return err
	}

	var svcOpts []service.Option
	if opts.cachePath != "" {
		store, err := cache.NewBoltDBStore(opts.cachePath)
		if err != nil {
			log.Warn().Err(err).Str("path", opts.cachePath).Msg("Parse cache disabled")
		} else {
			defer store.Close()
			svcOpts = append(svcOpts, service.WithCache(store))
		}
	}

	var client *clickhouse.Client
	if opts.export {
		client, err = clickhouse.NewClientWithOptions(ctx, clickhouse.Options{
			Host:     cfg.ClickHouseHost,
			Port:     cfg.ClickHousePort,
			Database: cfg.ClickHouseDB,
			Username: "default",
			Retry:    retry.DefaultConfig(),
		})
		if err != nil {
			return err
		}
		defer client.Close()

		w := writer.NewClickHouseWriter(client, client.Database())
		if err := w.EnsureSchema(ctx); err != nil {
			return err
		}
		svcOpts = append(svcOpts, service.WithWriter(w))
	}

	svc := service.NewCompareService(svcOpts...)
	log.Debug().Str("options", co.String()).Msg("Comparing buildstats")

	r, err := svc.Compare(ctx, opts.left, opts.right, co)
	if err != nil {
		return err
	}

	if opts.dumpJSON != "" {
		bs, _, err := svc.Read(ctx, opts.left, co.Multi)
		if err != nil {
			return err
		}
		if err := buildstats.WriteJSONFile(opts.dumpJSON, bs); err != nil {
			return err
		}
		log.Info().Str("path", opts.dumpJSON).Msg("Buildstats written as JSON")
	}

	if opts.format == report.FormatText {
		err = report.NewPrinter(stdout, useColor(opts.color)).Print(r)
	} else {
		err = report.Encode(stdout, r, opts.format)
	}
	if err != nil {
		return err
	}

	return svc.Export(ctx, r)
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return !color.NoColor
}

func printError(w io.Writer, err error) {
	color.New(color.FgHiRed).Fprintln(w, "ERROR:", err)
}
