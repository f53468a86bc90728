package argo

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

// strategy is one self-contained attempt to read records of type T out of
// one specific upstream shape. Strategies run in a fixed order; the first
// non-empty result wins and the rest are skipped, so two strategies that
// reach the same data through different paths can never duplicate records.
type strategy[T any] struct {
	name string
	run  func(ctx context.Context) ([]T, error)
}

// runStrategies walks the list until a strategy yields records. Timeouts,
// malformed JSON and missing keys eliminate a single strategy; they are
// logged at debug and never abort the extraction. The sole error that
// escapes is ErrSessionExpired, because the caller must re-authenticate
// rather than mistake an empty list for "no data".
func runStrategies[T any](ctx context.Context, c *Client, domain string, strategies []strategy[T]) ([]T, error) {
	for _, st := range strategies {
		recs, err := st.run(ctx)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionIncomplete) {
				return nil, err
			}
			c.logger.Debug("strategy failed",
				zap.String("domain", domain),
				zap.String("strategy", st.name),
				zap.Error(err),
			)
			continue
		}
		if len(recs) == 0 {
			continue
		}
		c.logger.Debug("strategy hit",
			zap.String("domain", domain),
			zap.String("strategy", st.name),
			zap.Int("records", len(recs)),
		)
		if c.observe != nil {
			c.observe(domain, st.name)
		}
		return recs, nil
	}
	return []T{}, nil
}

// dataNode locates the record container inside a dashboard payload: the
// nested data.dati[0] object when present, otherwise a dati object at the
// payload root. Returns nil when neither exists.
func dataNode(payload map[string]any) map[string]any {
	if data, ok := payload["data"].(map[string]any); ok {
		if dati, ok := data["dati"].([]any); ok && len(dati) > 0 {
			if node, ok := dati[0].(map[string]any); ok {
				return node
			}
		}
	}
	if node, ok := payload["dati"].(map[string]any); ok {
		return node
	}
	return nil
}

// firstList returns the first non-empty []any found under the given keys.
func firstList(m map[string]any, keys ...string) []any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if list, ok := m[k].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

// firstString returns the first key whose value renders to a non-empty
// string. Numeric values are rendered without a trailing ".0" because the
// portal serves ids both as numbers and as strings depending on the school.
func firstString(m map[string]any, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// listOrWrapped accepts both shapes the direct REST endpoints answer with: a
// bare JSON list, or an object wrapping the list under one of the known
// keys. Anything else counts as "nothing found".
func listOrWrapped(raw json.RawMessage, wrapperKeys ...string) []any {
	var bare []any
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}
	var wrapped map[string]any
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil
	}
	return firstList(wrapped, wrapperKeys...)
}

// mapEach converts each map-shaped element of list with fn, skipping
// elements of any other shape.
func mapEach[T any](list []any, fn func(map[string]any) (T, bool)) []T {
	out := make([]T, 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if rec, ok := fn(m); ok {
			out = append(out, rec)
		}
	}
	return out
}
