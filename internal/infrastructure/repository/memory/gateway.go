// Package memory is an in-process test fake of marketdata.Gateway. It is not wired into
// any backend selection and exists so orchestration tests can assert on final table state.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"
	qb "github.com/riskibarqy/cartola-ingest/internal/platform/querybuilder"
)

// Operation is one recorded backend call. Upserts record one operation per batch.
type Operation struct {
	Method string
	Table  string
	Rows   int
}

type table struct {
	rows []map[string]any
}

// Gateway keeps tables in memory with the same upsert, delete and patch semantics as
// the real backends. Rows are stored as column maps with pointer fields dereferenced.
type Gateway struct {
	mu     sync.RWMutex
	tables map[string]*table
	ops    []Operation
}

func NewGateway() *Gateway {
	return &Gateway{tables: make(map[string]*table)}
}

func (g *Gateway) Upsert(_ context.Context, tableName string, rows []any, onConflict []string, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "batch size must be positive, got %d", batchSize)
	}
	if len(onConflict) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "upsert %s requires conflict columns", tableName)
	}

	records := make([]map[string]any, 0, len(rows))
	for idx, row := range rows {
		record, err := toRecord(row)
		if err != nil {
			return crerr.Wrapf(err, "upsert %s row %d", tableName, idx)
		}
		for _, col := range onConflict {
			if _, ok := record[col]; !ok {
				return crerr.Wrapf(marketdata.ErrInvalidInput, "upsert %s row %d is missing conflict column %s", tableName, idx, col)
			}
		}
		records = append(records, record)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableName)
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		for _, record := range records[start:end] {
			t.merge(record, onConflict)
		}
		g.ops = append(g.ops, Operation{Method: "POST", Table: tableName, Rows: end - start})
	}
	return nil
}

func (g *Gateway) Delete(_ context.Context, tableName string, filters []marketdata.Filter) error {
	if len(filters) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "delete from %s requires at least one filter", tableName)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableName)
	kept := t.rows[:0]
	removed := 0
	for _, record := range t.rows {
		if matchesAll(record, filters) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	t.rows = kept
	g.ops = append(g.ops, Operation{Method: "DELETE", Table: tableName, Rows: removed})
	return nil
}

func (g *Gateway) Patch(_ context.Context, tableName string, filters []marketdata.Filter, values map[string]any) error {
	if len(values) == 0 {
		return crerr.Wrapf(marketdata.ErrInvalidInput, "patch %s requires values", tableName)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.table(tableName)
	patched := 0
	for _, record := range t.rows {
		if !matchesAll(record, filters) {
			continue
		}
		for col, value := range values {
			record[col] = value
		}
		patched++
	}
	g.ops = append(g.ops, Operation{Method: "PATCH", Table: tableName, Rows: patched})
	return nil
}

// Rows returns a copy of the table in insertion order.
func (g *Gateway) Rows(tableName string) []map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.tables[tableName]
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(t.rows))
	for _, record := range t.rows {
		clone := make(map[string]any, len(record))
		for col, value := range record {
			clone[col] = value
		}
		out = append(out, clone)
	}
	return out
}

func (g *Gateway) Operations() []Operation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Operation, len(g.ops))
	copy(out, g.ops)
	return out
}

// Tables lists the tables that received at least one write, sorted by name.
func (g *Gateway) Tables() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.tables))
	for name := range g.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (g *Gateway) table(name string) *table {
	t, ok := g.tables[name]
	if !ok {
		t = &table{}
		g.tables[name] = t
	}
	return t
}

func (t *table) merge(record map[string]any, onConflict []string) {
	key := conflictKey(record, onConflict)
	for _, existing := range t.rows {
		if conflictKey(existing, onConflict) != key {
			continue
		}
		for col, value := range record {
			existing[col] = value
		}
		return
	}
	t.rows = append(t.rows, record)
}

func conflictKey(record map[string]any, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%v", normalize(record[col])))
	}
	return strings.Join(parts, "\x1f")
}

func toRecord(row any) (map[string]any, error) {
	if record, ok := row.(map[string]any); ok {
		out := make(map[string]any, len(record))
		for col, value := range record {
			out[col] = deref(value)
		}
		return out, nil
	}

	cols, vals, err := qb.ColumnsAndValues(row)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(cols))
	for idx, col := range cols {
		out[col] = deref(vals[idx])
	}
	return out, nil
}

func deref(value any) any {
	rv := reflect.ValueOf(value)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func matchesAll(record map[string]any, filters []marketdata.Filter) bool {
	for _, filter := range filters {
		if !matches(record[filter.Column], filter.Op, filter.Value) {
			return false
		}
	}
	return true
}

func matches(actual any, op marketdata.Operator, expected any) bool {
	left, right := normalize(actual), normalize(deref(expected))
	switch op {
	case marketdata.OpEq:
		return left == right
	case marketdata.OpNeq:
		return left != right
	}

	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return false
	}
	switch op {
	case marketdata.OpGt:
		return l > r
	case marketdata.OpGte:
		return l >= r
	case marketdata.OpLt:
		return l < r
	case marketdata.OpLte:
		return l <= r
	default:
		return false
	}
}

// normalize folds every numeric kind into float64 so 5 and 5.0 compare equal.
func normalize(value any) any {
	switch typed := value.(type) {
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return value
	}
}
