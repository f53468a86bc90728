package argo

import (
	"encoding/json"
	"testing"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "8", "8"},
		{"whole float", float64(8), "8"},
		{"fractional float", 7.5, "7.5"},
		{"int", 42, "42"},
		{"json number", json.Number("123"), "123"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"unsupported", []any{"x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asString(tt.in); got != tt.want {
				t.Errorf("asString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstString(t *testing.T) {
	m := map[string]any{"a": "", "b": float64(12), "c": "later"}
	if got := firstString(m, "a", "b", "c"); got != "12" {
		t.Errorf("firstString = %q, want 12", got)
	}
	if got := firstString(m, "missing"); got != "" {
		t.Errorf("firstString on missing key = %q, want empty", got)
	}
	if got := firstString(nil, "a"); got != "" {
		t.Errorf("firstString on nil map = %q, want empty", got)
	}
}

func TestDataNode(t *testing.T) {
	nested := map[string]any{
		"data": map[string]any{"dati": []any{map[string]any{"k": "nested"}}},
		"dati": map[string]any{"k": "root"},
	}
	if node := dataNode(nested); node == nil || node["k"] != "nested" {
		t.Errorf("nested data.dati[0] not preferred: %v", node)
	}

	rootOnly := map[string]any{"dati": map[string]any{"k": "root"}}
	if node := dataNode(rootOnly); node == nil || node["k"] != "root" {
		t.Errorf("root dati not found: %v", node)
	}

	if node := dataNode(map[string]any{"other": 1}); node != nil {
		t.Errorf("expected nil node, got %v", node)
	}
}

func TestListOrWrapped(t *testing.T) {
	bare := json.RawMessage(`[{"a":1},{"a":2}]`)
	if got := listOrWrapped(bare, "voti"); len(got) != 2 {
		t.Errorf("bare list: got %d elements, want 2", len(got))
	}

	wrapped := json.RawMessage(`{"dati":[{"a":1}]}`)
	if got := listOrWrapped(wrapped, "voti", "dati"); len(got) != 1 {
		t.Errorf("wrapped list: got %d elements, want 1", len(got))
	}

	if got := listOrWrapped(json.RawMessage(`"scalar"`), "voti"); got != nil {
		t.Errorf("scalar: got %v, want nil", got)
	}
	if got := listOrWrapped(json.RawMessage(`{"other":[1]}`), "voti"); got != nil {
		t.Errorf("unknown wrapper: got %v, want nil", got)
	}
}
