package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// --- モック ---

type mockHTTPMetrics struct {
	mu        sync.Mutex
	statuses  []int
	latencies int
}

func (m *mockHTTPMetrics) RecordLogin(role, result string) {}
func (m *mockHTTPMetrics) RecordEnrollment(result string) {}
func (m *mockHTTPMetrics) RecordGradeUpdate(result string) {}
func (m *mockHTTPMetrics) RecordHTTPStatus(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, statusCode)
}
func (m *mockHTTPMetrics) RecordRequestLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

// newChainRouter は本番と同じ順序でミドルウェアを積んだchi.Routerを返す。
func newChainRouter(mc *mockHTTPMetrics, rl *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(NewRequestIDMiddleware())
	r.Use(NewRecoveryMiddleware())
	r.Use(NewMetricsMiddleware(mc))
	r.Use(NewCORSMiddleware("http://localhost:3000"))
	r.Use(NewSecurityHeadersMiddleware())

	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.Group(func(r chi.Router) {
		r.Use(NewTeacherAuthMiddleware(tokenResolver()))
		r.Use(rl.GeneralMiddleware())
		r.Get("/teachers/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

// TestMiddlewareChain_AuthenticatedRequest は認証済みリクエストが全ミドルウェアを通過することを検証する。
func TestMiddlewareChain_AuthenticatedRequest(t *testing.T) {
	mc := &mockHTTPMetrics{}
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()
	router := newChainRouter(mc, rl)

	req := httptest.NewRequest(http.MethodGet, "/teachers/me", nil)
	req.Header.Set("Authorization", "Bearer teacher-5")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID should be set")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should be set")
	}
	if len(mc.statuses) != 1 || mc.statuses[0] != http.StatusOK {
		t.Errorf("recorded statuses = %v, want [200]", mc.statuses)
	}
	if rl.GeneralLimiterCount() != 1 {
		t.Errorf("GeneralLimiterCount = %d, want 1", rl.GeneralLimiterCount())
	}
}

// TestMiddlewareChain_NoToken_Returns401 は未認証リクエストが401となりレート制限に到達しないことを検証する。
func TestMiddlewareChain_NoToken_Returns401(t *testing.T) {
	mc := &mockHTTPMetrics{}
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()
	router := newChainRouter(mc, rl)

	req := httptest.NewRequest(http.MethodGet, "/teachers/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("GeneralLimiterCount = %d, want 0", rl.GeneralLimiterCount())
	}
	if len(mc.statuses) != 1 || mc.statuses[0] != http.StatusUnauthorized {
		t.Errorf("recorded statuses = %v, want [401]", mc.statuses)
	}
}

// TestMiddlewareChain_PanicRecovered はpanicが500の統一エラーに変換されることを検証する。
func TestMiddlewareChain_PanicRecovered(t *testing.T) {
	mc := &mockHTTPMetrics{}
	rl := NewRateLimiter(testLimiterConfig(10, 10))
	defer rl.Stop()
	router := newChainRouter(mc, rl)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// TestRequestIDMiddleware_PropagatesValidID はクライアント指定のUUIDを引き継ぎ、不正な値は置き換えることを検証する。
func TestRequestIDMiddleware_PropagatesValidID(t *testing.T) {
	var seen string
	handler := NewRequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	const given = "0b7f4c2e-8d43-4e55-9a43-9f5c1c6f7e21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != given || w.Header().Get(RequestIDHeader) != given {
		t.Errorf("request id = %q (header %q), want %q", seen, w.Header().Get(RequestIDHeader), given)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen == "<script>" || seen == "" {
		t.Errorf("request id = %q, want a generated UUID", seen)
	}
}

// TestSecurityHeadersMiddleware はセキュリティヘッダーが付与されることを検証する。
func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}
