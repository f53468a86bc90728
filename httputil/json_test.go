package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"k": "v"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["k"] != "v" {
		t.Errorf("body = %q, err %v", w.Body.String(), err)
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, http.StatusBadRequest, "invalid_request", "oops")

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Error != "invalid_request" || resp.Message != "oops" {
		t.Errorf("response = %+v", resp)
	}
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x"}`, ""},
		{"empty body", ``, "request body is empty"},
		{"malformed", `{"name":`, "malformed JSON"},
		{"unknown field", `{"nope":1}`, `unknown field "nope"`},
		{"wrong type", `{"name":7}`, `invalid value for field "name"`},
		{"trailing value", `{"name":"x"}{"name":"y"}`, "multiple JSON values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := BindJSON(req, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("BindJSON: %v", err)
				}
				if p.Name != "x" {
					t.Errorf("decoded = %+v", p)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
