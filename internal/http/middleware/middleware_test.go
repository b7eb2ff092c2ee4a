package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/diagnosis/villa-bookings/internal/http/middleware"
	"github.com/diagnosis/villa-bookings/pkg/auth"
	"github.com/diagnosis/villa-bookings/pkg/cache"
)

const secret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireJWT(t *testing.T) {
	adminTok, _ := auth.NewAccessToken("admin-1", "admin@villa.local", auth.RoleAdmin, secret, time.Hour)
	guestTok, _ := auth.NewAccessToken("guest-1", "guest@villa.local", auth.RoleGuest, secret, time.Hour)
	otherTok, _ := auth.NewAccessToken("admin-1", "admin@villa.local", auth.RoleAdmin, "other", time.Hour)

	var seen *auth.Claims
	h := middleware.RequireJWT(secret, auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.Claims(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + otherTok, http.StatusUnauthorized},
		{"wrong role", "Bearer " + guestTok, http.StatusForbidden},
		{"admin", "Bearer " + adminTok, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/calendar", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if seen == nil || seen.Sub != "admin-1" {
		t.Fatalf("claims not propagated: %+v", seen)
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(cache.NewMemoryStore(), middleware.RateLimitConfig{
		Requests: 2,
		Window:   time.Minute,
	})
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/quote", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// Forwarded headers from an untrusted peer do not buy a fresh budget.
	req := httptest.NewRequest(http.MethodPost, "/v1/quote", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "203.0.113.10")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("spoofed header status = %d, want 429", rec.Code)
	}

	// Another client has its own budget.
	req = httptest.NewRequest(http.MethodPost, "/v1/quote", nil)
	req.RemoteAddr = "10.0.0.2:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client status = %d", rec.Code)
	}
}

func TestRateLimiterBehindTrustedProxy(t *testing.T) {
	rl := middleware.NewRateLimiter(cache.NewMemoryStore(), middleware.RateLimitConfig{
		Requests: 1,
		Window:   time.Minute,
	})
	h := chimw.RealIP(rl.Middleware()(http.HandlerFunc(okHandler)))

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/login", nil)
		req.RemoteAddr = "192.168.1.1:443"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client status = %d", code)
	}
	if code := send("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client status = %d, want 429", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Fatalf("other client status = %d", code)
	}
}

type brokenCounter struct{}

func (brokenCounter) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rl := middleware.NewRateLimiter(brokenCounter{}, middleware.RateLimitConfig{Requests: 1, Window: time.Minute})
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/holds", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d", i, rec.Code)
		}
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := middleware.NewRateLimiter(brokenCounter{}, middleware.RateLimitConfig{})
	rec := httptest.NewRecorder()
	rl.Middleware()(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
