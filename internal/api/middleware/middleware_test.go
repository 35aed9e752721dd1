package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JabridDave10/distributed-systems-project-backend/config"
	"github.com/JabridDave10/distributed-systems-project-backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockChecker struct {
	revoked map[string]bool
	err     error
}

func (m *mockChecker) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type mockLimiter struct {
	counts map[string]int
	err    error
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

func newTestManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "medcita-test",
	})
}

// echoIdentity 回显中间件注入的上下文
func echoIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetString("user_id"),
		"role":    c.GetString("role"),
		"jti":     c.GetString("token_jti"),
	})
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth_MissingOrMalformedHeader(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(newTestManager(), nil), echoIdentity)

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer not-a-jwt"} {
		w := doRequest(r, "GET", "/me", header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestJWTAuth_ValidToken(t *testing.T) {
	m := newTestManager()
	token, err := m.GenerateAccessToken("doc-1", "doctor")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	r := gin.New()
	r.GET("/me", JWTAuth(m, &mockChecker{revoked: map[string]bool{}}), echoIdentity)

	w := doRequest(r, "GET", "/me", "bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"user_id":"doc-1"`) || !strings.Contains(w.Body.String(), `"role":"doctor"`) {
		t.Errorf("identity not injected: %s", w.Body.String())
	}
}

func TestJWTAuth_Blacklisted(t *testing.T) {
	m := newTestManager()
	token, _ := m.GenerateAccessToken("pat-1", "patient")
	claims, _ := m.ParseToken(token)

	r := gin.New()
	r.GET("/me", JWTAuth(m, &mockChecker{revoked: map[string]bool{claims.ID: true}}), echoIdentity)

	if w := doRequest(r, "GET", "/me", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for revoked token, got %d", w.Code)
	}
}

func TestJWTAuth_BlacklistErrorAllows(t *testing.T) {
	m := newTestManager()
	token, _ := m.GenerateAccessToken("pat-1", "patient")

	r := gin.New()
	r.GET("/me", JWTAuth(m, &mockChecker{err: errors.New("redis down")}), echoIdentity)

	if w := doRequest(r, "GET", "/me", "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("expected fallback 200, got %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role   string
		status int
	}{
		{"admin", http.StatusOK},
		{"doctor", http.StatusOK},
		{"patient", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
				c.Next()
			}, RoleAuth("admin", "doctor"), echoIdentity)

			if w := doRequest(r, "GET", "/x", ""); w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

// ── RateLimit ──

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	limiter := &mockLimiter{counts: map[string]int{}}
	r := gin.New()
	r.POST("/appointments", RateLimit(limiter, 2, time.Minute), echoIdentity)

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, doRequest(r, "POST", "/appointments", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}
}

func TestRateLimit_KeyedByUser(t *testing.T) {
	limiter := &mockLimiter{counts: map[string]int{}}
	r := gin.New()
	r.POST("/appointments", func(c *gin.Context) {
		c.Set("user_id", c.Query("u"))
		c.Next()
	}, RateLimit(limiter, 1, time.Minute), echoIdentity)

	if w := doRequest(r, "POST", "/appointments?u=pat-1", ""); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := doRequest(r, "POST", "/appointments?u=pat-2", ""); w.Code != http.StatusOK {
		t.Errorf("other user should not share the bucket, got %d", w.Code)
	}
	if _, ok := limiter.counts["POST:/appointments:user:pat-1"]; !ok {
		t.Errorf("unexpected keys %v", limiter.counts)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/a", RateLimit(nil, 1, time.Minute), echoIdentity)
	r.GET("/b", RateLimit(&mockLimiter{err: errors.New("redis down")}, 1, time.Minute), echoIdentity)

	for i := 0; i < 3; i++ {
		if w := doRequest(r, "GET", "/a", ""); w.Code != http.StatusOK {
			t.Errorf("nil limiter should allow, got %d", w.Code)
		}
		if w := doRequest(r, "GET", "/b", ""); w.Code != http.StatusOK {
			t.Errorf("limiter error should allow, got %d", w.Code)
		}
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	small := httptest.NewRequest("POST", "/x", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, small)
	if w.Code != http.StatusNoContent {
		t.Errorf("small body: expected 204, got %d", w.Code)
	}

	large := httptest.NewRequest("POST", "/x", strings.NewReader(strings.Repeat("x", 64)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, large)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: expected 413, got %d", w.Code)
	}
}

// ── SecurityHeaders / RequestID ──

func TestSecurityHeadersAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, "GET", "/x", "")
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options")
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("missing Cache-Control")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRequestID_RejectsUnsafeHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	tests := []struct {
		header string
		keep   bool
	}{
		{"abc-123", true},
		{"bad id\nwith newline", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/x", nil)
		req.Header.Set("X-Request-ID", tt.header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		got := w.Header().Get("X-Request-ID")
		if (got == tt.header) != tt.keep {
			t.Errorf("header %q: got %q, keep=%v", tt.header, got, tt.keep)
		}
		if w.Body.String() != got {
			t.Errorf("context id %q differs from header %q", w.Body.String(), got)
		}
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("allowed origin not echoed")
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}
