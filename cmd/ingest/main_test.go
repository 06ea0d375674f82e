package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	got, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if got.DryRun || got.IncludeScores || got.RoundID != nil || got.BatchSize != 500 || got.Timeout != 30 {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestParseFlags_AllOptions(t *testing.T) {
	t.Parallel()

	got, err := parseFlags([]string{"--dry-run", "--include-scores", "--round-id", "12", "--batch-size", "50", "--timeout", "5", "--export-csv", "out/a.csv"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if !got.DryRun || !got.IncludeScores || got.RoundID == nil || *got.RoundID != 12 {
		t.Fatalf("unexpected flags: %+v", got)
	}
	if got.BatchSize != 50 || got.Timeout != 5 || got.ExportCSV != "out/a.csv" {
		t.Fatalf("unexpected flags: %+v", got)
	}

	zero, err := parseFlags([]string{"--round-id", "0"}, &bytes.Buffer{})
	if err != nil || zero.RoundID == nil || *zero.RoundID != 0 {
		t.Fatalf("round id 0 must be accepted: %+v err=%v", zero, err)
	}
}

func TestParseFlags_Rejects(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"--batch-size", "0"},
		{"--timeout", "0"},
		{"--round-id", "abc"},
		{"extra"},
	}
	for _, args := range cases {
		if _, err := parseFlags(args, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestPrintError_Prefixes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printError(&buf, crerr.Wrap(&marketdata.TransportError{URL: "https://x.test", StatusCode: 502}, "fetch market"))
	if !strings.HasPrefix(buf.String(), "HTTP error: fetch market: GET https://x.test: status=502") {
		t.Fatalf("unexpected transport message: %q", buf.String())
	}

	buf.Reset()
	printError(&buf, errors.New("boom"))
	if buf.String() != "Error: boom\n" {
		t.Fatalf("unexpected message: %q", buf.String())
	}
}

func TestRun_DryRunEndToEnd(t *testing.T) {
	market := `{"clubes": {"1": {"id": 1, "nome": "Flamengo", "abreviacao": "FLA"}},
		"posicoes": {"1": {"id": 1, "nome": "Goleiro"}},
		"atletas": [{"atleta_id": 100, "apelido": "Diego", "clube_id": 1, "posicao_id": 1, "status_id": 7, "preco_num": "12.3", "variacao_num": "0.5"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mercado":
			_, _ = w.Write([]byte(market))
		case "/status":
			_, _ = w.Write([]byte(`{"status_mercado": 1, "rodada_atual": 5}`))
		case "/pontuados/5":
			_, _ = w.Write([]byte(`{"atletas": {"100": {"pontuacao": 6}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	t.Setenv("CARTOLA_MARKET_URL", server.URL+"/mercado")
	t.Setenv("CARTOLA_STATUS_URL", server.URL+"/status")
	t.Setenv("CARTOLA_SCORES_URL", server.URL+"/pontuados")
	t.Setenv("INGEST_BACKEND", "rest")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_LOG_LEVEL", "error")

	metricsPath := filepath.Join(t.TempDir(), "ingest.prom")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--dry-run", "--include-scores", "--metrics-file", metricsPath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("unexpected exit code %d, stderr=%s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"clubs:      1", "round_id:   5", "market:     1", "scores:     1", "mode:       dry-run", "Dry-run enabled. No data was written."} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary is missing %q:\n%s", want, out)
		}
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), `cartola_ingest_rows{table="market"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", metrics)
	}
}

func TestRun_WriteWithoutConfigurationFails(t *testing.T) {
	t.Setenv("INGEST_BACKEND", "rest")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("EXPO_PUBLIC_SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("SUPABASE_SERVICE_KEY", "")
	t.Setenv("UPTRACE_ENABLED", "false")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") || !strings.Contains(stderr.String(), "SUPABASE_URL") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("nothing must be printed before configuration is valid: %q", stdout.String())
	}
}
