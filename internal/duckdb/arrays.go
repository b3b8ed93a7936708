package duckdb

import (
	"fmt"
	"strconv"
	"strings"
)

// Int64ArrayToString converts []int64 to DuckDB's array literal format.
// Example: [1, 2, 3] -> "[1, 2, 3]". Used to inline stack-frame-id arrays
// into INSERT statements, since the go-duckdb driver does not accept
// []int64 as a bound parameter for an INTEGER[] column.
func Int64ArrayToString(vals []int64) string {
	if len(vals) == 0 {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	sb.WriteString("]")
	return sb.String()
}

// ParseInt64Array parses a DuckDB array literal ("[1, 2, 3]") back into
// []int64. This is a fallback path for drivers/versions that return the
// array column as a string rather than []interface{}.
func ParseInt64Array(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	vals := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing int64 array element %q: %w", p, err)
		}
		vals[i] = v
	}
	return vals, nil
}
