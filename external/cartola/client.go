package cartola

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultMarketURL = "https://api.cartola.globo.com/atletas/mercado"
	defaultStatusURL = "https://api.cartola.globo.com/mercado/status"
	defaultScoresURL = "https://api.cartola.globo.com/atletas/pontuados"
	defaultUserAgent = "cartola-ingest/1.0"
	maxPayloadBytes  = 16 << 20
)

type ClientConfig struct {
	HTTPClient *http.Client
	MarketURL  string
	StatusURL  string
	ScoresURL  string
	UserAgent  string
	Timeout    time.Duration
	Logger     *logging.Logger
}

// Client reads the public Cartola feeds. Each call is a single blocking GET.
type Client struct {
	httpClient *http.Client
	marketURL  string
	statusURL  string
	scoresURL  string
	userAgent  string
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
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

	return &Client{
		httpClient: httpClient,
		marketURL:  firstNonEmpty(cfg.MarketURL, defaultMarketURL),
		statusURL:  firstNonEmpty(cfg.StatusURL, defaultStatusURL),
		scoresURL:  strings.TrimRight(firstNonEmpty(cfg.ScoresURL, defaultScoresURL), "/"),
		userAgent:  firstNonEmpty(cfg.UserAgent, defaultUserAgent),
		logger:     logger,
	}
}

func (c *Client) FetchMarket(ctx context.Context) (marketdata.Payload, error) {
	return c.FetchJSON(ctx, c.marketURL)
}

func (c *Client) FetchStatus(ctx context.Context) (marketdata.Payload, error) {
	return c.FetchJSON(ctx, c.statusURL)
}

// FetchScores never fails: a failed round-scoped request falls back once to the
// unscoped feed, and a failed unscoped request yields an empty payload.
func (c *Client) FetchScores(ctx context.Context, roundID *int) marketdata.Payload {
	if roundID != nil {
		scopedURL := c.scoresURL + "/" + strconv.Itoa(*roundID)
		payload, err := c.FetchJSON(ctx, scopedURL)
		if err == nil {
			return payload
		}
		c.logger.WarnContext(ctx, "round scores feed failed, falling back to current round feed",
			"round_id", *roundID,
			"url", scopedURL,
			"error", err,
		)
	}

	payload, err := c.FetchJSON(ctx, c.scoresURL)
	if err != nil {
		c.logger.WarnContext(ctx, "scores feed unavailable, continuing without scores", "url", c.scoresURL, "error", err)
		return marketdata.Payload{}
	}
	return payload
}

// FetchJSON issues a GET and requires the body to be a JSON object.
func (c *Client) FetchJSON(ctx context.Context, url string) (marketdata.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, crerr.Wrapf(err, "build request %s", url)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	startedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &marketdata.TransportError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &marketdata.TransportError{URL: url, Err: crerr.Wrap(err, "read response body")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &marketdata.TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        crerr.Newf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw)),
		}
	}

	var decoded any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return nil, crerr.Wrapf(marketdata.ErrMalformedPayload, "decode %s: %v", url, err)
	}
	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, crerr.Wrapf(marketdata.ErrMalformedPayload, "unexpected JSON payload from %s: got %T", url, decoded)
	}

	c.logger.DebugContext(ctx, "feed fetched", "url", url, "bytes", len(raw), "elapsed", time.Since(startedAt))
	return payload, nil
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
