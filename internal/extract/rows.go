package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/finstack-labs/finsight/pkg/core"
)

// scanAll drains rows into column-name-keyed maps. Extraction queries
// use SELECT * so upstream schema additions don't break the pipeline;
// the coercion helpers below pick out the columns we care about.
func scanAll(rows *core.Rows) ([]map[string]any, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// asFloat coerces a column value to float64, returning 0 for anything
// unparsable (mirroring numeric coercion with a zero fill).
func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asInt coerces a column value to int, returning 0 when unparsable.
func asInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int:
		return t
	case float64:
		return int(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// asString coerces a column value to its string form.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// dateFormats are tried in order when a timestamp arrives as text.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// asTime coerces a column value to a time, returning the zero time for
// anything unparsable.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range dateFormats {
			if ts, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return ts
			}
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}
