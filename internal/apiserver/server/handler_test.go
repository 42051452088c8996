package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"recipe-admin/internal/config"
	"recipe-admin/internal/shared/storage"
)

var (
	metricsOnce sync.Once
	testMetrics *Metrics
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Env:    config.EnvTest,
		Driver: "mongodb",
	}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.OTPTTL = 5 * time.Minute
	cfg.Limits.BulkMax = 100
	cfg.Limits.ListMax = 100
	cfg.Limits.ActivityLimitDefault = 20
	return cfg
}

// Prometheus 默认注册表不允许重复注册，整个测试进程共享一套指标
func testRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandlerWithMetrics(storage.NewMockStore(), testConfig(), nil, nil, sharedMetrics())
	return h.Router()
}

func sharedMetrics() *Metrics {
	metricsOnce.Do(func() { testMetrics = NewMetrics("recipeadmin_test") })
	return testMetrics
}

func TestHealth(t *testing.T) {
	router := testRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rr.Code)
	}
	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAuthEnforcement(t *testing.T) {
	router := testRouter(t)

	// 公开路由放行
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/recipes", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("public list: status %d, want 200", rr.Code)
	}

	// 受保护路由缺 token 统一 401
	for _, path := range []string{"/api/v1/recipes/mine", "/api/v1/activities", "/api/v1/auth/me"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", path, rr.Code)
		}
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	router := testRouter(t)

	body, _ := json.Marshal(map[string]string{
		"firstName": "Alice", "lastName": "Smith",
		"email": "alice@example.com", "password": "Sup3r$ecret", "confirmPassword": "Sup3r$ecret",
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rr.Code, rr.Body.String())
	}
	var reg struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rr.Body.Bytes(), &reg)
	if reg.Token == "" {
		t.Fatal("register returned no token")
	}

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rr.Code, rr.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("OPTIONS", "/api/v1/recipes", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("preflight: status %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: status %d", rr.Code)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/api/v1/recipes", "/api/v1/recipes"},
		{"/api/v1/recipes/mine", "/api/v1/recipes/mine"},
		{"/api/v1/recipes/rcp-a1b2c3", "/api/v1/recipes/{id}"},
		{"/api/v1/recipes/rcp-a1b2c3/restore", "/api/v1/recipes/{id}/restore"},
		{"/api/v1/admin/recipes/rcp-a1b2c3", "/api/v1/admin/recipes/{id}"},
		{"/api/v1/users/usr-x/public", "/api/v1/users/{id}/public"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
