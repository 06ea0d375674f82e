package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// ColumnsAndValues reads the db-tagged exported fields of a struct in declaration order.
func ColumnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

// UpsertModels builds one multi-row upsert for models that share a struct type.
func UpsertModels(table string, conflict []string, models []any) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("upsert models are required")
	}

	builder := InsertInto(table)
	var columns []string
	for idx, model := range models {
		cols, vals, err := ColumnsAndValues(model)
		if err != nil {
			return "", nil, fmt.Errorf("row %d: %w", idx, err)
		}
		if idx == 0 {
			columns = cols
			builder.Columns(cols...)
		} else if strings.Join(cols, ",") != strings.Join(columns, ",") {
			return "", nil, fmt.Errorf("row %d columns %v differ from %v", idx, cols, columns)
		}
		builder.Values(vals...)
	}

	return builder.Suffix(OnConflictDoUpdate(conflict, columns)).ToSQL()
}
