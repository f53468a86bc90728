package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func hitFrom(t *testing.T, h http.Handler, addr string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestPerIPRateLimit(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// 1/min refill with burst 2: the third request inside a minute must be
	// rejected.
	h := PerIPRateLimit(1, 2, nil)(inner)

	if code := hitFrom(t, h, "10.0.0.1:1111"); code != http.StatusOK {
		t.Errorf("first request: status = %d", code)
	}
	if code := hitFrom(t, h, "10.0.0.1:1111"); code != http.StatusOK {
		t.Errorf("second request: status = %d", code)
	}
	if code := hitFrom(t, h, "10.0.0.1:1111"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", code)
	}

	// Other clients have their own bucket.
	if code := hitFrom(t, h, "10.0.0.2:1111"); code != http.StatusOK {
		t.Errorf("other client: status = %d", code)
	}
}

func TestPerIPRateLimitDisabled(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := PerIPRateLimit(0, 0, nil)(inner)

	for i := 0; i < 10; i++ {
		if code := hitFrom(t, h, "10.0.0.1:1111"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
}
