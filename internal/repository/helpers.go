package repository

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/yourorg/rentalhub/internal/store"
)

// Conversion helpers from generic store rows to typed fields. The accessor
// returns driver values: int64 for bigints, bool, time.Time, float64 for
// double precision, and strings for text/numeric/jsonb columns.

func rowInt64(r store.Row, key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func rowOptInt64(r store.Row, key string) *int64 {
	if r[key] == nil {
		return nil
	}
	n := rowInt64(r, key)
	return &n
}

func rowString(r store.Row, key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

func rowBool(r store.Row, key string) bool {
	b, _ := r[key].(bool)
	return b
}

func rowTime(r store.Row, key string) time.Time {
	t, _ := r[key].(time.Time)
	return t
}

func rowFloat(r store.Row, key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		// numeric columns arrive as their text representation
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

func rowOptFloat(r store.Row, key string) *float64 {
	if r[key] == nil {
		return nil
	}
	f := rowFloat(r, key)
	return &f
}

func rowStringSlice(r store.Row, key string) []string {
	s, ok := r[key].(string)
	if !ok || s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	return out
}
