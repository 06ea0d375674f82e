package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/cartola-ingest/internal/app"
	"github.com/riskibarqy/cartola-ingest/internal/config"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/observability"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"github.com/riskibarqy/cartola-ingest/internal/usecase"
	"go.opentelemetry.io/otel/codes"
)

type cliFlags struct {
	DryRun        bool
	IncludeScores bool
	RoundID       *int
	BatchSize     int `validate:"gte=1"`
	Timeout       int `validate:"gte=1"`
	ExportCSV     string
	MetricsFile   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printError(stderr, err)
		return 1
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		printError(stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		printError(stderr, err)
		return 1
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	shutdown, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("shutdown tracing", "error", err)
		}
	}()

	ctx, span := observability.StartRun(ctx, cfg, flags.DryRun)
	defer span.End()

	svc, closeGateway, err := app.NewIngestService(ctx, cfg, app.Options{
		DryRun:    flags.DryRun,
		Timeout:   config.RequestTimeout(flags.Timeout),
		ExportCSV: flags.ExportCSV,
		Out:       stdout,
	}, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		printError(stderr, err)
		return 1
	}
	defer func() {
		if err := closeGateway(); err != nil {
			logger.Warn("close gateway", "error", err)
		}
	}()

	started := time.Now()
	summary, err := svc.Run(ctx, usecase.IngestOptions{
		DryRun:        flags.DryRun,
		IncludeScores: flags.IncludeScores,
		RoundID:       flags.RoundID,
		BatchSize:     flags.BatchSize,
	})
	flushMetrics(flags, summary, time.Since(started), err, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "ingest failed", "error", err)
		printError(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "\n%s\n", summary.Outcome())
	return 0
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	out := cliFlags{}
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Ingest Cartola API data into Supabase.")
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}

	fs.BoolVar(&out.DryRun, "dry-run", false, "Do not write to the backend; only print what would be sent.")
	fs.BoolVar(&out.IncludeScores, "include-scores", false, "Also ingest athlete scores into athlete_scores.")
	fs.Func("round-id", "Override round id used for market and scores.", func(raw string) error {
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return crerr.Newf("invalid round id %q", raw)
		}
		out.RoundID = &value
		return nil
	})
	fs.IntVar(&out.BatchSize, "batch-size", usecase.DefaultBatchSize, "Batch size for upsert operations.")
	fs.IntVar(&out.Timeout, "timeout", 30, "HTTP timeout in seconds.")
	fs.StringVar(&out.ExportCSV, "export-csv", "", "Also write the market athletes to this ';'-separated CSV file.")
	fs.StringVar(&out.MetricsFile, "metrics-file", "", "Write run metrics to this node_exporter textfile.")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if fs.NArg() > 0 {
		return cliFlags{}, crerr.Wrapf(marketdata.ErrInvalidInput, "unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if err := validator.New().Struct(out); err != nil {
		return cliFlags{}, crerr.Wrapf(marketdata.ErrInvalidInput, "flags: %v", err)
	}
	return out, nil
}

func flushMetrics(flags cliFlags, summary usecase.Summary, elapsed time.Duration, runErr error, logger *logging.Logger) {
	if flags.MetricsFile == "" {
		return
	}
	metrics := observability.NewRunMetrics()
	metrics.Observe(summary.RowCounts(), flags.DryRun, elapsed, time.Now(), runErr)
	if err := metrics.WriteTextfile(flags.MetricsFile); err != nil {
		logger.Warn("write run metrics", "path", flags.MetricsFile, "error", err)
	}
}

// printError mirrors the two message prefixes users see: feed or network failures are
// reported as HTTP errors, everything else as a plain error.
func printError(w io.Writer, err error) {
	var transportErr *marketdata.TransportError
	if errors.As(err, &transportErr) {
		fmt.Fprintf(w, "HTTP error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
