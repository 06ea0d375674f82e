// Package export writes market snapshots to files for offline analysis.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/coerce"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
)

const utf8BOM = "\ufeff"

var athleteColumns = []string{
	"atleta_id", "nome", "apelido", "slug",
	"clube_id", "clube_nome", "clube_abreviacao",
	"posicao_id", "posicao_nome",
	"status_id", "status_nome",
	"preco_num", "variacao_num", "media_num", "jogos_num", "pontos_num",
}

// AthletesCSV writes one ';'-separated row per athlete of the market feed, joined with
// the club, position and status names carried by the same payload. The file starts
// with a UTF-8 BOM so spreadsheet tools detect the encoding.
type AthletesCSV struct {
	path   string
	logger *logging.Logger
}

func NewAthletesCSV(path string, logger *logging.Logger) *AthletesCSV {
	if logger == nil {
		logger = logging.Default()
	}
	return &AthletesCSV{path: strings.TrimSpace(path), logger: logger}
}

func (e *AthletesCSV) ExportMarket(ctx context.Context, market marketdata.Payload) error {
	if e.path == "" {
		return crerr.Wrap(marketdata.ErrInvalidInput, "export path is required")
	}
	if dir := filepath.Dir(e.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return crerr.Wrapf(err, "create export dir %s", dir)
		}
	}

	file, err := os.Create(e.path)
	if err != nil {
		return crerr.Wrapf(err, "create export file %s", e.path)
	}

	count, writeErr := WriteAthletes(file, market)
	closeErr := file.Close()
	if writeErr != nil {
		return crerr.Wrapf(writeErr, "write %s", e.path)
	}
	if closeErr != nil {
		return crerr.Wrapf(closeErr, "close %s", e.path)
	}

	e.logger.InfoContext(ctx, "athletes csv written", "path", e.path, "athletes", count)
	return nil
}

// WriteAthletes renders the CSV and returns the number of athlete rows written.
func WriteAthletes(w io.Writer, market marketdata.Payload) (int, error) {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := writer.Write(athleteColumns); err != nil {
		return 0, err
	}

	clubs := mapping(market["clubes"])
	positions := mapping(market["posicoes"])
	statuses := mapping(market["status"])

	athletes, _ := market["atletas"].([]any)
	count := 0
	for _, raw := range athletes {
		athlete, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		club := related(clubs, athlete["clube_id"])
		position := related(positions, athlete["posicao_id"])
		status := related(statuses, athlete["status_id"])

		record := []string{
			coerce.String(athlete["atleta_id"]),
			coerce.String(athlete["nome"]),
			coerce.String(athlete["apelido"]),
			coerce.String(athlete["slug"]),
			coerce.String(athlete["clube_id"]),
			coerce.String(club["nome"]),
			coerce.String(club["abreviacao"]),
			coerce.String(athlete["posicao_id"]),
			coerce.String(position["nome"]),
			coerce.String(athlete["status_id"]),
			coerce.String(status["nome"]),
			coerce.String(athlete["preco_num"]),
			coerce.String(athlete["variacao_num"]),
			coerce.String(athlete["media_num"]),
			coerce.String(athlete["jogos_num"]),
			coerce.String(athlete["pontos_num"]),
		}
		if err := writer.Write(record); err != nil {
			return count, err
		}
		count++
	}

	writer.Flush()
	return count, writer.Error()
}

func mapping(raw any) map[string]any {
	out, _ := raw.(map[string]any)
	return out
}

// related resolves a reference id against a mapping keyed by the id's text form.
// Falsy ids resolve to nothing.
func related(items map[string]any, id any) map[string]any {
	if !coerce.Truthy(id) || items == nil {
		return nil
	}
	out, _ := items[coerce.String(id)].(map[string]any)
	return out
}
