// Package coerce converts the loosely typed values found in historical
// JSONL exports into canonical Go types. Conversions are lenient where the
// destination has a safe default and strict only for required timestamps.
package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMissingTimestamp is returned when a required timestamp is absent.
var ErrMissingTimestamp = errors.New("missing required timestamp")

// FirstOf returns the value of the first alias present in row, in the
// order given. Historical exports renamed fields over time; the first
// matching alias wins even when several are present.
func FirstOf(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := row[key]; ok {
			return v
		}
	}
	return nil
}

// String converts a value to a trimmed string. Absent or blank values are
// reported as absent.
func String(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	var text string
	switch t := v.(type) {
	case string:
		text = t
	case json.Number:
		text = t.String()
	case float64:
		text = formatFloat(t)
	default:
		text = fmt.Sprintf("%v", t)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// StringPtr converts a value to an optional string, without trimming
// meaningful content. Absent or blank values yield nil.
func StringPtr(v any) *string {
	s, ok := String(v)
	if !ok {
		return nil
	}
	return &s
}

// Int converts a value to an int. Absent, empty, or non-numeric input
// yields def; Int never fails.
func Int(v any, def int) int {
	switch t := v.(type) {
	case nil:
		return def
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return int(f)
		}
		return def
	case string:
		text := strings.TrimSpace(t)
		if text == "" {
			return def
		}
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return int(n)
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return int(f)
		}
		return def
	default:
		return def
	}
}

// Bool converts a value to a bool. Recognizes native booleans, non-zero
// numbers, and the usual textual spellings; anything else yields def.
func Bool(v any, def bool) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f != 0
		}
		return def
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		default:
			return def
		}
	default:
		return def
	}
}

// Timestamp parses a timestamp value into UTC. It accepts time.Time
// values and ISO-8601 text with a trailing "Z", an explicit offset, or no
// zone at all (assumed UTC). When required is set, absence is an error;
// otherwise absence yields nil.
func Timestamp(v any, required bool) (*time.Time, error) {
	if v == nil {
		if required {
			return nil, ErrMissingTimestamp
		}
		return nil, nil
	}
	if t, ok := v.(time.Time); ok {
		utc := t.UTC()
		return &utc, nil
	}

	text, ok := String(v)
	if !ok {
		if required {
			return nil, ErrMissingTimestamp
		}
		return nil, nil
	}

	t, err := parseISO(text)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}

// Accepted timestamp layouts, tried in order. Zoned layouts first, then
// zone-naive ones interpreted as UTC. SQLite stores "2006-01-02 15:04:05".
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999-07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

func parseISO(text string) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", text)
}

// Vector normalizes an embedding vector value. Nil yields an empty
// sequence, JSON-encoded text is decoded, and an already structured slice
// passes through.
func Vector(v any) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return []float64{}, nil
	case []float64:
		return t, nil
	case []any:
		out := make([]float64, 0, len(t))
		for _, item := range t {
			f, err := toFloat(item)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case []byte:
		return decodeVector(string(t))
	case string:
		return decodeVector(t)
	default:
		return nil, fmt.Errorf("cannot coerce %T into a vector", v)
	}
}

func decodeVector(text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []float64{}, nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	if out == nil {
		out = []float64{}
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("non-numeric vector element %T", v)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
