package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backend-discoverudupi/internal/config"
	"backend-discoverudupi/internal/location"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:          "secret",
		ServerPort:         ":0",
		SiteURL:            "https://udupi.example",
		LocationSource:     "static",
		RateLimitPerMinute: 60,
		RateLimitBurst:     10,
	}
}

func newTestServer(t *testing.T, cfg config.Config, rdb *redis.Client) *Server {
	t.Helper()
	s := NewServer(cfg, nil, rdb, zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var out map[string]string
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out["error"]
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp, err := s.App.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
}

func TestStaticLocations(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp, err := s.App.Test(httptest.NewRequest("GET", "/locations", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var locs []location.Location
	if err := json.NewDecoder(resp.Body).Decode(&locs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(locs) != len(location.Catalog()) {
		t.Fatalf("expected %d locations, got %d", len(location.Catalog()), len(locs))
	}
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp, err := s.App.Test(httptest.NewRequest("GET", "/nope", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg == "" {
		t.Fatalf("expected error message")
	}
}

func TestUploadsDisabledWithoutCloudinary(t *testing.T) {
	s := newTestServer(t, testConfig(), nil)

	resp, err := s.App.Test(httptest.NewRequest("POST", "/storage/upload", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	cfg.RateLimitBurst = 2
	s := newTestServer(t, cfg, nil)

	login := func() int {
		req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("test request: %v", err)
		}
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if code := login(); code != fiber.StatusBadRequest {
			t.Fatalf("request %d: expected 400, got %d", i, code)
		}
	}
	if code := login(); code != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	resp, err := s.App.Test(httptest.NewRequest("GET", "/locations/categories", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected non-auth routes to be unlimited, got %d", resp.StatusCode)
	}
}

func TestErrorHandlerLogsServerErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(zap.New(core))})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "bad input") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Internal server error" {
		t.Fatalf("unexpected message %q", msg)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/bad", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if msg := decodeError(t, resp.Body); msg != "bad input" {
		t.Fatalf("unexpected message %q", msg)
	}

	if n := logs.FilterMessage("request failed").Len(); n != 1 {
		t.Fatalf("expected one logged failure, got %d", n)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := newRateLimiter(60, 1)
	rl.get("a")
	rl.get("b").Allow()
	rl.sweep()
	if _, ok := rl.limiters["a"]; ok {
		t.Fatalf("expected idle limiter to be dropped")
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Fatalf("expected drained limiter to be kept")
	}
}

func TestOfflineAssetsServedFromCache(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<h1>Discover Udupi</h1>",
		"offline.html":     "<h1>You are offline</h1>",
		"manifest.json":    `{"name":"Discover Udupi"}`,
		"icon-192x192.png": "png192",
		"icon-512x512.png": "png512",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.StaticDir = dir
	cfg.CacheName = "discover-udupi-v2"
	mr.HSet("offline:discover-udupi-v1:/", "status", "200", "content_type", "text/html", "body", "old")

	s := newTestServer(t, cfg, rdb)
	if s.Offline == nil {
		t.Fatalf("expected offline proxy to be configured")
	}
	s.Warm(context.Background())

	if mr.Exists("offline:discover-udupi-v1:/") {
		t.Fatalf("expected stale cache to be dropped")
	}
	if !mr.Exists("offline:discover-udupi-v2:/manifest.json") {
		t.Fatalf("expected manifest to be precached")
	}

	if err := os.Remove(filepath.Join(dir, "manifest.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	resp, err := s.App.Test(httptest.NewRequest("GET", "/manifest.json", nil))
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != files["manifest.json"] {
		t.Fatalf("expected cached manifest, got %d %q", resp.StatusCode, body)
	}
}
