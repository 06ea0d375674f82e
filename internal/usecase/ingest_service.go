package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultBatchSize = 500

type IngestOptions struct {
	DryRun        bool
	IncludeScores bool
	RoundID       *int
	BatchSize     int `validate:"gte=1"`
}

// MarketExporter receives the raw market payload once per run, before any write.
type MarketExporter interface {
	ExportMarket(ctx context.Context, market marketdata.Payload) error
}

// Summary holds the row counts of one run.
type Summary struct {
	Clubs     int
	Positions int
	Athletes  int
	RoundID   *int
	Market    int
	Scores    int
	DryRun    bool
}

func (s Summary) Mode() string {
	if s.DryRun {
		return "dry-run"
	}
	return "write"
}

// RowCounts keys the built row counts by destination table.
func (s Summary) RowCounts() map[string]int {
	rounds := 0
	if s.RoundID != nil {
		rounds = 1
	}
	return map[string]int{
		marketdata.TableClubs:         s.Clubs,
		marketdata.TablePositions:     s.Positions,
		marketdata.TableAthletes:      s.Athletes,
		marketdata.TableRounds:        rounds,
		marketdata.TableMarket:        s.Market,
		marketdata.TableAthleteScores: s.Scores,
	}
}

// Outcome is the closing line printed after a successful run.
func (s Summary) Outcome() string {
	if s.DryRun {
		return "Dry-run enabled. No data was written."
	}
	return "Ingest completed successfully."
}

// Render writes the fixed-width summary block.
func (s Summary) Render(w io.Writer) error {
	roundID := "n/a"
	if s.RoundID != nil {
		roundID = fmt.Sprintf("%d", *s.RoundID)
	}

	var b strings.Builder
	b.WriteString("\nIngest summary\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "clubs:      %d\n", s.Clubs)
	fmt.Fprintf(&b, "positions:  %d\n", s.Positions)
	fmt.Fprintf(&b, "athletes:   %d\n", s.Athletes)
	fmt.Fprintf(&b, "round_id:   %s\n", roundID)
	fmt.Fprintf(&b, "market:     %d\n", s.Market)
	fmt.Fprintf(&b, "scores:     %d\n", s.Scores)
	fmt.Fprintf(&b, "mode:       %s\n", s.Mode())

	_, err := io.WriteString(w, b.String())
	return err
}

type IngestService struct {
	feeds     marketdata.FeedSource
	gateway   marketdata.Gateway
	exporter  MarketExporter
	out       io.Writer
	logger    *logging.Logger
	validator *validator.Validate
}

// NewIngestService wires a run. gateway may be nil for dry-run only usage and exporter
// may be nil when no export is requested. out receives the summary block.
func NewIngestService(
	feeds marketdata.FeedSource,
	gateway marketdata.Gateway,
	exporter MarketExporter,
	out io.Writer,
	logger *logging.Logger,
) *IngestService {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestService{
		feeds:     feeds,
		gateway:   gateway,
		exporter:  exporter,
		out:       out,
		logger:    logger,
		validator: validator.New(),
	}
}

// Run fetches the feeds, maps them and, outside dry-run, replaces the backend rows.
// Writes are not transactional: a failure leaves earlier writes in place.
func (s *IngestService) Run(ctx context.Context, opts IngestOptions) (Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.Run",
		attribute.Bool("ingest.dry_run", opts.DryRun),
		attribute.Bool("ingest.include_scores", opts.IncludeScores),
	)
	defer span.End()

	if err := s.validator.StructCtx(ctx, opts); err != nil {
		return Summary{}, crerr.Wrapf(ErrInvalidInput, "ingest options: %v", err)
	}
	if s.feeds == nil {
		return Summary{}, crerr.Wrap(ErrConfiguration, "feed source is required")
	}
	if !opts.DryRun && s.gateway == nil {
		return Summary{}, crerr.Wrap(ErrConfiguration, "write mode requires a backend gateway")
	}

	snapshot, market, err := s.collect(ctx, opts)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Clubs:     len(snapshot.Clubs),
		Positions: len(snapshot.Positions),
		Athletes:  len(snapshot.Athletes),
		RoundID:   snapshot.RoundID,
		Market:    len(snapshot.Market),
		Scores:    len(snapshot.Scores),
		DryRun:    opts.DryRun,
	}
	if err := summary.Render(s.out); err != nil {
		return summary, crerr.Wrap(err, "render summary")
	}

	if s.exporter != nil {
		if err := s.exporter.ExportMarket(ctx, market); err != nil {
			return summary, crerr.Wrap(err, "export market")
		}
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry-run finished, skipping writes", "athletes", summary.Athletes, "market", summary.Market)
		return summary, nil
	}

	if err := s.write(ctx, snapshot, opts.BatchSize); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *IngestService) collect(ctx context.Context, opts IngestOptions) (Snapshot, marketdata.Payload, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.collect")
	defer span.End()

	market, err := s.feeds.FetchMarket(ctx)
	if err != nil {
		return Snapshot{}, nil, crerr.Wrap(err, "fetch market")
	}
	status, err := s.feeds.FetchStatus(ctx)
	if err != nil {
		return Snapshot{}, nil, crerr.Wrap(err, "fetch status")
	}

	snapshot := BuildSnapshot(market, status, opts.RoundID)
	if snapshot.RoundID == nil {
		s.logger.WarnContext(ctx, "round id could not be resolved, skipping round scoped rows")
	}
	if opts.IncludeScores && snapshot.RoundID != nil {
		scores := s.feeds.FetchScores(ctx, snapshot.RoundID)
		snapshot.Scores = BuildScoreRows(scores, *snapshot.RoundID)
	}

	s.logger.DebugContext(ctx, "snapshot built",
		"clubs", len(snapshot.Clubs),
		"positions", len(snapshot.Positions),
		"athletes", len(snapshot.Athletes),
		"market", len(snapshot.Market),
		"scores", len(snapshot.Scores),
	)
	return snapshot, market, nil
}

func (s *IngestService) write(ctx context.Context, snapshot Snapshot, batchSize int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestService.write")
	defer span.End()

	if err := s.upsert(ctx, marketdata.TableClubs, marketdata.Rows(snapshot.Clubs), marketdata.ConflictByID, batchSize); err != nil {
		return err
	}
	if err := s.upsert(ctx, marketdata.TablePositions, marketdata.Rows(snapshot.Positions), marketdata.ConflictByID, batchSize); err != nil {
		return err
	}
	if err := s.upsert(ctx, marketdata.TableAthletes, marketdata.Rows(snapshot.Athletes), marketdata.ConflictByID, batchSize); err != nil {
		return err
	}

	if snapshot.RoundID != nil && snapshot.Round != nil {
		roundID := *snapshot.RoundID
		byRound := []marketdata.Filter{marketdata.Eq("round_id", roundID)}

		if err := s.gateway.Patch(ctx, marketdata.TableRounds, []marketdata.Filter{marketdata.Neq("id", roundID)}, map[string]any{"is_open": false}); err != nil {
			return crerr.Wrapf(err, "close rounds other than %d", roundID)
		}
		if err := s.upsert(ctx, marketdata.TableRounds, []any{*snapshot.Round}, marketdata.ConflictByID, 1); err != nil {
			return err
		}
		if err := s.gateway.Delete(ctx, marketdata.TableMarket, byRound); err != nil {
			return crerr.Wrapf(err, "clear market for round %d", roundID)
		}
		if err := s.upsert(ctx, marketdata.TableMarket, marketdata.Rows(snapshot.Market), marketdata.ConflictByRoundAthlete, batchSize); err != nil {
			return err
		}

		if len(snapshot.Scores) > 0 {
			if err := s.gateway.Delete(ctx, marketdata.TableAthleteScores, byRound); err != nil {
				return crerr.Wrapf(err, "clear athlete scores for round %d", roundID)
			}
			if err := s.upsert(ctx, marketdata.TableAthleteScores, marketdata.Rows(snapshot.Scores), marketdata.ConflictByRoundAthlete, batchSize); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *IngestService) upsert(ctx context.Context, table string, rows []any, onConflict []string, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.gateway.Upsert(ctx, table, rows, onConflict, batchSize); err != nil {
		return crerr.Wrapf(err, "upsert %s", table)
	}
	s.logger.InfoContext(ctx, "rows upserted", "table", table, "rows", len(rows))
	return nil
}
