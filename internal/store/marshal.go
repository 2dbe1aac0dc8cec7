package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column serialization: decimals as their exact text form, id sets as
// comma-joined integers, dates as ISO-8601 days with "" for unset, and
// analytic distributions as JSON objects keyed by account id.

func marshalDecimal(d decimal.Decimal) string { return d.String() }

func unmarshalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal column %q: %w", s, err)
	}
	return d, nil
}

func marshalIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func unmarshalIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id column %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func marshalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func unmarshalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date column %q: %w", s, err)
	}
	return t, nil
}

func marshalAnalytic(dist map[int64]decimal.Decimal) (string, error) {
	if len(dist) == 0 {
		return "", nil
	}
	text := make(map[string]string, len(dist))
	for k, v := range dist {
		text[strconv.FormatInt(k, 10)] = v.String()
	}
	raw, err := json.Marshal(text)
	if err != nil {
		return "", fmt.Errorf("analytic distribution: %w", err)
	}
	return string(raw), nil
}

func unmarshalAnalytic(s string) (map[int64]decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	var text map[string]string
	if err := json.Unmarshal([]byte(s), &text); err != nil {
		return nil, fmt.Errorf("analytic distribution %q: %w", s, err)
	}
	out := make(map[int64]decimal.Decimal, len(text))
	for k, v := range text {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("analytic account id %q: %w", k, err)
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("analytic share %q: %w", v, err)
		}
		out[id] = d
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
