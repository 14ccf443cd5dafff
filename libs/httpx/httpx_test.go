package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lukas99o/restaurant-api/libs/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRole(t *testing.T) {
	secret := "test-secret"
	h := Chain(okHandler(), RequireAuth(secret), RequireRole(auth.RoleAdmin))

	staffToken, err := auth.SignHS256(auth.NewClaims("host-1", auth.RoleStaff, time.Now(), time.Hour), secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	adminToken, err := auth.SignHS256(auth.NewClaims("manager", auth.RoleAdmin, time.Now(), time.Hour), secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK.Header.Set("Authorization", "Bearer "+adminToken)
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	h := RequireAuth("secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer badtoken")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}

	rwMissing := httptest.NewRecorder()
	h.ServeHTTP(rwMissing, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rwMissing.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", rwMissing.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc" || rw.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("expected request id abc, got ctx=%q header=%q", seen, rw.Header().Get(RequestIDHeader))
	}

	rwNew := httptest.NewRecorder()
	h.ServeHTTP(rwNew, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rwNew.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	rl := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(context.Background(), "k"); !ok {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if ok, _ := rl.Allow(context.Background(), "k"); ok {
		t.Fatal("third request should be limited")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := rl.Allow(context.Background(), "k"); !ok {
		t.Fatal("request after window reset should be allowed")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitFailOpen(t *testing.T) {
	open := WithRateLimit(failingLimiter{}, nil, true)(okHandler())
	rw := httptest.NewRecorder()
	open.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", rw.Code)
	}

	closed := WithRateLimit(failingLimiter{}, nil, false)(okHandler())
	rwClosed := httptest.NewRecorder()
	closed.ServeHTTP(rwClosed, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rwClosed.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rwClosed.Code)
	}
}

func TestRateLimitRejectsWithJSON(t *testing.T) {
	rl := NewMemoryLimiter(1, time.Minute)
	h := WithRateLimit(rl, nil, true)(okHandler())

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" || second.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected headers: %v", second.Header())
	}
}

func TestMemoryLimiterSweepsExpiredClients(t *testing.T) {
	rl := NewMemoryLimiter(5, time.Minute)
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		_, _ = rl.Allow(context.Background(), k)
	}
	if got := rl.tracked(); got != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", got)
	}
	now = now.Add(5 * time.Minute)
	_, _ = rl.Allow(context.Background(), "d")
	if got := rl.tracked(); got != 1 {
		t.Fatalf("expected expired clients swept, got %d tracked", got)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := clientKey(req); got != "10.0.0.7" {
		t.Fatalf("expected peer host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("expected forwarded client, got %q", got)
	}
}

func TestRedisBucketKey(t *testing.T) {
	rl := NewRedisLimiter(nil, 10, time.Minute, "reservation-service:ratelimit:")
	at := time.Date(2030, 1, 1, 10, 0, 42, 0, time.UTC)
	want := "reservation-service:ratelimit:1.2.3.4:" + strconv.FormatInt(at.Truncate(time.Minute).Unix(), 10)
	if got := rl.bucketKey("1.2.3.4", at); got != want {
		t.Fatalf("bucketKey = %q, want %q", got, want)
	}
	if rl.bucketKey("k", at) != rl.bucketKey("k", at.Add(17*time.Second)) {
		t.Fatal("requests in the same minute should share a bucket")
	}
}

func TestRequestIDRejectsUnsafeValues(t *testing.T) {
	for _, id := range []string{"", "has space", strings.Repeat("x", 129), "line\nbreak"} {
		if ValidRequestID(id) {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
	if !ValidRequestID("3f1c-booking-42") {
		t.Fatal("expected plain id to be accepted")
	}
}

func TestCORS(t *testing.T) {
	h := Chain(okHandler(), WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://book.example.com", "https://*.bistro.test"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         10 * time.Minute,
	}))

	cases := []struct {
		origin string
		allow  bool
	}{
		{"https://book.example.com", true},
		{"https://BOOK.example.com", true},
		{"https://north.bistro.test", true},
		{"https://bistro.test", false},
		{"http://north.bistro.test", false},
		{"https://evil.example.com", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://api.test/api/v1/tables", nil)
		req.Header.Set("Origin", tc.origin)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		got := rw.Header().Get("Access-Control-Allow-Origin")
		if tc.allow && got != tc.origin {
			t.Fatalf("%s: expected origin echoed, got %q", tc.origin, got)
		}
		if !tc.allow && got != "" {
			t.Fatalf("%s: expected no CORS headers, got %q", tc.origin, got)
		}
	}

	pre := httptest.NewRequest(http.MethodOptions, "http://api.test/api/v1/bookings", nil)
	pre.Header.Set("Origin", "https://book.example.com")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, pre)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Methods") != "GET, POST" || rw.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected preflight headers: %v", rw.Header())
	}
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	if WithCORS(CORSPolicy{AllowedOrigins: []string{" "}}) != nil {
		t.Fatal("expected nil middleware when no origins are configured")
	}
}

func TestRecoverWritesInternalError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}
