package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	"github.com/riskibarqy/cartola-ingest/internal/platform/logging"
	qb "github.com/riskibarqy/cartola-ingest/internal/platform/querybuilder"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const defaultStatementTimeout = 30 * time.Second

// Gateway writes rows with plain SQL. Each statement runs in its own implicit
// transaction, matching the per-request semantics of the REST backend.
type Gateway struct {
	db      execer
	timeout time.Duration
	logger  *logging.Logger
}

// NewGateway accepts a *sqlx.DB or anything else that can execute statements. Every
// statement is bounded by timeout; a non-positive value falls back to 30s.
func NewGateway(db execer, timeout time.Duration, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultStatementTimeout
	}
	return &Gateway{db: db, timeout: timeout, logger: logger}
}

func (g *Gateway) Upsert(ctx context.Context, table string, rows []any, onConflict []string, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "batch size must be positive, got %d", batchSize)
	}
	if len(onConflict) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "upsert %s requires conflict columns", table)
	}

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		query, args, err := qb.UpsertModels(table, onConflict, rows[start:end])
		if err != nil {
			return crerr.Wrapf(err, "build upsert %s query", table)
		}
		if err := g.exec(ctx, "INSERT", table, query, args); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, table string, filters []marketdata.Filter) error {
	conditions, err := toConditions(filters)
	if err != nil {
		return err
	}
	query, args, err := qb.DeleteFrom(table).Where(conditions...).ToSQL()
	if err != nil {
		return crerr.Wrap(marketdata.ErrInvalidInput, err.Error())
	}
	return g.exec(ctx, "DELETE", table, query, args)
}

// Patch sets columns in name order so the generated statement is stable.
func (g *Gateway) Patch(ctx context.Context, table string, filters []marketdata.Filter, values map[string]any) error {
	if len(values) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "patch %s requires values", table)
	}
	conditions, err := toConditions(filters)
	if err != nil {
		return err
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	builder := qb.Update(table)
	for _, col := range columns {
		builder.Set(col, values[col])
	}
	query, args, err := builder.Where(conditions...).ToSQL()
	if err != nil {
		return crerr.Wrapf(err, "build patch %s query", table)
	}
	return g.exec(ctx, "UPDATE", table, query, args)
}

func (g *Gateway) exec(ctx context.Context, method, table, query string, args []any) error {
	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.db.ExecContext(execCtx, query, args...)
	if err != nil {
		return backendError(method, table, err)
	}

	affected, _ := result.RowsAffected()
	g.logger.DebugContext(ctx, "postgres statement executed",
		"table", table,
		"method", method,
		"rows_affected", affected,
		"query", formatQueryForTrace(query),
	)
	return nil
}

func toConditions(filters []marketdata.Filter) ([]qb.Condition, error) {
	out := make([]qb.Condition, 0, len(filters))
	for _, filter := range filters {
		cond, err := qb.Compare(filter.Column, string(filter.Op), filter.Value)
		if err != nil {
			return nil, crerr.Wrap(marketdata.ErrInvalidInput, err.Error())
		}
		out = append(out, cond)
	}
	return out, nil
}

func backendError(method, table string, err error) error {
	var pqErr *pq.Error
	if crerr.As(err, &pqErr) {
		body := fmt.Sprintf("%s: %s", pqErr.Code, pqErr.Message)
		if pqErr.Detail != "" {
			body += " (" + pqErr.Detail + ")"
		}
		return &marketdata.BackendWriteError{Table: table, Method: method, Body: body}
	}
	return &marketdata.BackendWriteError{Table: table, Method: method, Body: err.Error()}
}
