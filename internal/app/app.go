package app

import (
	"context"
	"io"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/external/cartola"
	"github.com/riskibarqy/cartola-ingest/internal/config"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/export"
	"github.com/riskibarqy/cartola-ingest/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/cartola-ingest/internal/infrastructure/supabase"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"github.com/riskibarqy/cartola-ingest/internal/usecase"
)

type Options struct {
	DryRun    bool
	Timeout   time.Duration
	ExportCSV string
	Out       io.Writer
}

// NewIngestService builds the feed client, the selected gateway and the optional CSV
// exporter. The returned closer releases the gateway's resources and is never nil.
func NewIngestService(ctx context.Context, cfg config.Config, opts Options, logger *logging.Logger) (*usecase.IngestService, func() error, error) {
	noop := func() error { return nil }

	client := cartola.NewClient(cartola.ClientConfig{
		MarketURL: cfg.MarketURL,
		StatusURL: cfg.StatusURL,
		ScoresURL: cfg.ScoresURL,
		UserAgent: cfg.UserAgent,
		Timeout:   opts.Timeout,
		Logger:    logger,
	})

	var (
		gateway marketdata.Gateway
		closer  = noop
	)
	if !opts.DryRun {
		if err := cfg.RequireWriteTarget(); err != nil {
			return nil, noop, err
		}
		var err error
		gateway, closer, err = newGateway(ctx, cfg, opts.Timeout, logger)
		if err != nil {
			return nil, noop, err
		}
	}

	var exporter usecase.MarketExporter
	if opts.ExportCSV != "" {
		exporter = export.NewAthletesCSV(opts.ExportCSV, logger)
	}

	return usecase.NewIngestService(client, gateway, exporter, opts.Out, logger), closer, nil
}

func newGateway(ctx context.Context, cfg config.Config, timeout time.Duration, logger *logging.Logger) (marketdata.Gateway, func() error, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.DBURL, timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("writing through postgres")
		return postgres.NewGateway(db, timeout, logger), db.Close, nil
	case config.BackendREST, "":
		gateway, err := supabase.NewGateway(supabase.GatewayConfig{
			BaseURL:    cfg.BackendURL,
			ServiceKey: cfg.ServiceKey,
			Timeout:    timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("writing through supabase rest", "url", cfg.BackendURL)
		return gateway, func() error { return nil }, nil
	default:
		return nil, nil, crerr.Wrapf(marketdata.ErrConfiguration, "unsupported backend %q", cfg.Backend)
	}
}
