package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
)

const sampleMarket = `{
	"clubes": {"262": {"nome": "Flamengo", "abreviacao": "FLA"}},
	"posicoes": {"1": {"nome": "Goleiro"}},
	"status": {"7": {"nome": "Provável"}},
	"atletas": [
		{"atleta_id": 100, "nome": "Diego Alves", "apelido": "Diego", "slug": "diego", "clube_id": 262, "posicao_id": 1, "status_id": 7,
		 "preco_num": 12.3, "variacao_num": -0.5, "media_num": 4.25, "jogos_num": 3, "pontos_num": 5.1},
		{"atleta_id": 101, "apelido": "Sem; Clube", "clube_id": 0}
	]
}`

func decode(t *testing.T, raw string) marketdata.Payload {
	t.Helper()
	var out map[string]any
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestWriteAthletes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	count, err := WriteAthletes(&buf, decode(t, sampleMarket))
	if err != nil {
		t.Fatalf("write athletes: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected count: %d", count)
	}

	text := buf.String()
	if !strings.HasPrefix(text, utf8BOM) {
		t.Fatalf("csv must start with a BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, utf8BOM), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("unexpected line count: %d (%q)", len(lines), text)
	}
	if lines[0] != strings.Join(athleteColumns, ";") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	want := "100;Diego Alves;Diego;diego;262;Flamengo;FLA;1;Goleiro;7;Provável;12.3;-0.5;4.25;3;5.1"
	if lines[1] != want {
		t.Fatalf("unexpected row:\nwant: %s\ngot:  %s", want, lines[1])
	}
	if lines[2] != `101;;"Sem; Clube";;0;;;;;;;;;;;` {
		t.Fatalf("unexpected sparse row: %s", lines[2])
	}
}

func TestAthletesCSV_ExportMarketCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "jogadores.csv")
	exporter := NewAthletesCSV(path, logging.NewNop())
	if err := exporter.ExportMarket(context.Background(), decode(t, sampleMarket)); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.Contains(raw, []byte("Flamengo")) {
		t.Fatalf("export is missing rows: %s", raw)
	}
}
