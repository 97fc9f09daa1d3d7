package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestCorrelationIDMiddlewareGenerates(t *testing.T) {
	var captured string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Context().Value("correlation_id"); v != nil {
			captured = v.(string)
		}
	})
	handler := CorrelationIDMiddleware(zap.NewNop())(next)

	req := httptest.NewRequest("GET", "/api/weather", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == "" {
		t.Fatal("correlation ID not set in context")
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != captured {
		t.Errorf("response header %q does not match context value %q", got, captured)
	}
}

func TestCorrelationIDMiddlewarePropagates(t *testing.T) {
	var captured string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context().Value("correlation_id").(string)
	})
	handler := CorrelationIDMiddleware(zap.NewNop())(next)

	req := httptest.NewRequest("GET", "/api/weather", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured != "client-supplied-id" {
		t.Errorf("correlation ID = %q, want client-supplied-id", captured)
	}
}

func TestRateLimitMiddlewareDenies(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(limiter)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/weather", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/weather", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", rec.Code)
	}
	assertErrorCode(t, rec, "RATE_LIMITED")
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(nil)(next)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/weather", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestTimeoutMiddlewareSetsDeadline(t *testing.T) {
	var hadDeadline bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
	})
	handler := TimeoutMiddleware(50 * time.Millisecond)(next)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/weather", nil))
	if !hadDeadline {
		t.Error("request context has no deadline")
	}
}

func TestGetRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/api/locations/Chicago", "/api/locations/{key}"},
		{"/api/weather", "/api/weather"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.path, nil)
		if got := getRoute(r); got != tt.want {
			t.Errorf("getRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStatusCodeString(t *testing.T) {
	if got := statusCodeString(http.StatusNotFound); got != "4xx" {
		t.Errorf("statusCodeString(404) = %q, want 4xx", got)
	}
	if got := statusCodeString(http.StatusOK); got != "2xx" {
		t.Errorf("statusCodeString(200) = %q, want 2xx", got)
	}
}
