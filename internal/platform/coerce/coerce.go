// Package coerce converts loosely typed JSON values into the optional scalars stored in rows.
// None of the helpers panic or return errors: a value that cannot be converted yields nil.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const priceDecimals = 2

// OptionalInt truncates numbers toward zero and parses base-10 integer strings.
// Fractional strings such as "12.5" are rejected.
func OptionalInt(value any) *int {
	switch typed := value.(type) {
	case nil:
		return nil
	case int:
		return &typed
	case int64:
		return intFromInt64(typed)
	case int32:
		v := int(typed)
		return &v
	case float64:
		return intFromFloat(typed)
	case float32:
		return intFromFloat(float64(typed))
	case bool:
		v := 0
		if typed {
			v = 1
		}
		return &v
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return nil
		}
		return intFromInt64(parsed)
	default:
		return nil
	}
}

// OptionalFloat converts numbers and numeric strings, rounded half away from zero
// to two decimals. Non-finite values yield nil.
func OptionalFloat(value any) *float64 {
	var d decimal.Decimal
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil
		}
		d = decimal.NewFromFloat(typed)
	case float32:
		f := float64(typed)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		d = decimal.NewFromFloat32(typed)
	case int:
		d = decimal.NewFromInt(int64(typed))
	case int64:
		d = decimal.NewFromInt(typed)
	case int32:
		d = decimal.NewFromInt32(typed)
	case bool:
		if typed {
			d = decimal.NewFromInt(1)
		} else {
			d = decimal.Zero
		}
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(typed))
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}

	out := d.Round(priceDecimals).InexactFloat64()
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil
	}
	return &out
}

// OptionalString returns scalars in their textual form and nil for absent or composite values.
func OptionalString(value any) *string {
	switch value.(type) {
	case nil, map[string]any, []any:
		return nil
	}
	out := String(value)
	return &out
}

// String formats a scalar JSON value. Integral floats are written without a fraction.
func String(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		if typed == math.Trunc(typed) && math.Abs(typed) < 1e15 {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

// Truthy reports whether a decoded JSON value is non-empty: false, zero, "", empty
// objects and empty lists are falsy.
func Truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case float64:
		return typed != 0
	case float32:
		return typed != 0
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case string:
		return typed != ""
	case map[string]any:
		return len(typed) > 0
	case []any:
		return len(typed) > 0
	default:
		return true
	}
}

// Or returns the first truthy value, or the last value when none is truthy.
func Or(values ...any) any {
	if len(values) == 0 {
		return nil
	}
	for _, value := range values {
		if Truthy(value) {
			return value
		}
	}
	return values[len(values)-1]
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
}

const isoOutputLayout = "2006-01-02T15:04:05.999999-07:00"

// OptionalISODateTime normalizes a feed timestamp to ISO-8601. Values without a zone are
// taken as UTC. Unix epoch seconds and objects carrying a "timestamp" field are accepted.
func OptionalISODateTime(value any) *string {
	if !Truthy(value) {
		return nil
	}

	var parsed time.Time
	switch typed := value.(type) {
	case map[string]any:
		return OptionalISODateTime(typed["timestamp"])
	case string:
		t, ok := parseTimestampText(typed)
		if !ok {
			return nil
		}
		parsed = t
	default:
		seconds := OptionalInt(value)
		if seconds == nil {
			return nil
		}
		parsed = time.Unix(int64(*seconds), 0).UTC()
	}

	out := parsed.Format(isoOutputLayout)
	return &out
}

func parseTimestampText(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func intFromFloat(value float64) *int {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	truncated := math.Trunc(value)
	if truncated >= math.MaxInt64 || truncated < math.MinInt64 {
		return nil
	}
	return intFromInt64(int64(truncated))
}

func intFromInt64(value int64) *int {
	if int64(int(value)) != value {
		return nil
	}
	v := int(value)
	return &v
}
