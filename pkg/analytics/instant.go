package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Dater is any value exposing a lazy time accessor, e.g. exported document
// timestamps
type Dater interface {
	ToDate() time.Time
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ToInstant normalises every timestamp representation the stores and legacy
// exports produce:
//
//   - time.Time and *time.Time
//   - ISO-8601 strings, with or without zone (zoneless strings are local time)
//   - values with a ToDate() time.Time method
//   - {"seconds", "nanoseconds"} or {"_seconds", "_nanoseconds"} maps
//   - numbers, read as Unix milliseconds
func ToInstant(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("timestamp is empty")
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("timestamp is empty")
		}
		return *t, nil
	case Dater:
		return t.ToDate(), nil
	case string:
		return parseString(t)
	case map[string]interface{}:
		return fromSecondsMap(t)
	case json.Number:
		ms, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", t)
		}
		return fromMillis(ms), nil
	case float64:
		return fromMillis(t), nil
	case int64:
		return time.UnixMilli(t), nil
	case int:
		return time.UnixMilli(int64(t)), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

// MustInstant is ToInstant returning the zero time on failure
func MustInstant(v interface{}) time.Time {
	t, err := ToInstant(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func fromSecondsMap(m map[string]interface{}) (time.Time, error) {
	secs, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp map has no seconds field")
	}
	nanos, _ := number(m, "nanoseconds", "_nanoseconds")
	return time.Unix(int64(secs), int64(nanos)), nil
}

func number(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func fromMillis(ms float64) time.Time {
	whole := math.Floor(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration((ms - whole) * float64(time.Millisecond)))
}
