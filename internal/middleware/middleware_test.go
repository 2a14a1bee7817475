package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestCORSExplicitOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"}, "X-Aether-Session-ID")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Content-Type, X-Aether-Session-ID", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSWildcardHasNoCredentials(t *testing.T) {
	h := CORS([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://evil.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnknownOriginAndPreflight(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://other.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiterEvicts(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.Allow("a")
	time.Sleep(20 * time.Millisecond)

	rl.evict()
	assert.Equal(t, 0, rl.Keys())
}

func TestRateLimiterRunStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Limit(func(*http.Request) string { return "user" })(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/explain", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/explain", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}
