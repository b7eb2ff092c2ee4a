package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type mapStore struct {
	data map[string]string
}

func (m *mapStore) Get(_ context.Context, key string) (string, error) { return m.data[key], nil }

func (m *mapStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func TestIdempotencyMiddlewareReplaysResponse(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	calls := 0
	h := IdempotencyMiddleware(store, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/holds", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "same-key")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Body.String() != `{"id":"abc"}` {
			t.Fatalf("attempt %d body = %q", i, rec.Body.String())
		}
	}

	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
}

func TestIdempotencyMiddlewareSkipsFailures(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	h := IdempotencyMiddleware(store, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/holds", nil)
	req.Header.Set("Idempotency-Key", "k")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(store.data) != 0 {
		t.Fatalf("failed response should not be cached: %v", store.data)
	}
}

func TestHealthReportsFailingCheck(t *testing.T) {
	h := Health(map[string]HealthCheck{
		"database": func(context.Context) error { return errors.New("down") },
	})(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"database":"down"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestRequestIDPropagatesHeader(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req-1" {
		t.Fatalf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
}
