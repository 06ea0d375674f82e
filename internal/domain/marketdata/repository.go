package marketdata

import "context"

// Operator is a filter comparison understood by every gateway.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Filter scopes a delete or patch to rows where Column <Op> Value.
type Filter struct {
	Column string
	Op     Operator
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

// Gateway describes the insert-or-update backend. Every call is committed on its own.
type Gateway interface {
	Upsert(ctx context.Context, table string, rows []any, onConflict []string, batchSize int) error
	Delete(ctx context.Context, table string, filters []Filter) error
	Patch(ctx context.Context, table string, filters []Filter, values map[string]any) error
}

// FeedSource reads the upstream market feeds. FetchScores never fails: an unreachable
// scores feed yields an empty payload.
type FeedSource interface {
	FetchMarket(ctx context.Context) (Payload, error)
	FetchStatus(ctx context.Context) (Payload, error)
	FetchScores(ctx context.Context, roundID *int) Payload
}
