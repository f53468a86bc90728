package argo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newRESTClient starts a fake REST backend and returns a client pointed at it
// plus a complete resumed session.
func newRESTClient(t *testing.T, handler http.Handler) (*Client, Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(WithEndpoints(Endpoints{RESTBase: srv.URL + "/"}))
	s := Resume("SG26696", TokenPair{AccessToken: "access-1", AuthToken: "auth-1"})
	return c, s
}

func writeJSONBody(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding fake response: %v", err)
	}
}

// dashboardPayload wraps a record node the way the live endpoint does.
func dashboardPayload(node map[string]any) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"dati": []any{node},
		},
	}
}
