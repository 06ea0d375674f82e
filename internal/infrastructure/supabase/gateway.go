package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/coerce"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	restPrefix       = "/rest/v1/"
	preferUpsert     = "resolution=merge-duplicates,return=minimal"
	preferMinimal    = "return=minimal"
	maxErrorBodySize = 64 << 10
)

type GatewayConfig struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Gateway writes rows through the PostgREST surface of a Supabase project. Every call
// is its own request; nothing spans more than one call.
type Gateway struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" || !strings.Contains(baseURL, "://") {
		return nil, crerr.Wrapf(marketdata.ErrConfiguration, "supabase url %q is not a valid base url", cfg.BaseURL)
	}
	serviceKey := strings.TrimSpace(cfg.ServiceKey)
	if serviceKey == "" {
		return nil, crerr.Wrap(marketdata.ErrConfiguration, "supabase service key is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		httpClient = &copied
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	return &Gateway{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Upsert posts rows in consecutive batches of at most batchSize, merging on the
// conflict columns.
func (g *Gateway) Upsert(ctx context.Context, table string, rows []any, onConflict []string, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "batch size must be positive, got %d", batchSize)
	}

	query := url.Values{}
	if len(onConflict) > 0 {
		query.Set("on_conflict", strings.Join(onConflict, ","))
	}

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := g.send(ctx, http.MethodPost, table, query, preferUpsert, rows[start:end]); err != nil {
			return err
		}
		g.logger.DebugContext(ctx, "supabase batch upserted", "table", table, "from", start, "rows", end-start)
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, table string, filters []marketdata.Filter) error {
	if len(filters) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "delete from %s requires at least one filter", table)
	}
	query, err := filterQuery(filters)
	if err != nil {
		return err
	}
	return g.send(ctx, http.MethodDelete, table, query, preferMinimal, nil)
}

func (g *Gateway) Patch(ctx context.Context, table string, filters []marketdata.Filter, values map[string]any) error {
	if len(values) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "patch %s requires values", table)
	}
	query, err := filterQuery(filters)
	if err != nil {
		return err
	}
	return g.send(ctx, http.MethodPatch, table, query, preferMinimal, values)
}

func (g *Gateway) send(ctx context.Context, method, table string, query url.Values, prefer string, body any) error {
	endpoint := g.baseURL + restPrefix + url.PathEscape(table)
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var reader io.Reader
	if body != nil {
		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(body); err != nil {
			return crerr.Wrapf(err, "encode %s body for %s", method, table)
		}
		reader = bytes.NewReader(buf.B)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return crerr.Wrapf(err, "build %s request for %s", method, table)
	}
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &marketdata.TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &marketdata.BackendWriteError{
			Table:      table,
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// filterQuery renders filters in PostgREST form, e.g. round_id=eq.7.
func filterQuery(filters []marketdata.Filter) (url.Values, error) {
	query := url.Values{}
	for _, filter := range filters {
		column := strings.TrimSpace(filter.Column)
		if column == "" {
			return nil, crerr.Wrap(marketdata.ErrInvalidInput, "filter column is required")
		}
		switch filter.Op {
		case marketdata.OpEq, marketdata.OpNeq, marketdata.OpGt, marketdata.OpGte, marketdata.OpLt, marketdata.OpLte:
		default:
			return nil, crerr.Wrapf(marketdata.ErrInvalidInput, "unsupported filter operator %q", filter.Op)
		}
		query.Add(column, string(filter.Op)+"."+filterValue(filter.Value))
	}
	return query, nil
}

func filterValue(value any) string {
	if value == nil {
		return "null"
	}
	if text := coerce.String(value); text != "" {
		return text
	}
	return fmt.Sprint(value)
}
