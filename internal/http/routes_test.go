package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"lecturepdf/internal/app"
	"lecturepdf/internal/config"
	"lecturepdf/internal/domain"
)

type failingLister struct{}

func (failingLister) ListDerived(ctx context.Context) (domain.ListingView, error) {
	return nil, errors.New("listing failed: target pdfs: access denied")
}

func testConfig(t *testing.T) config.Config {
	t.Helper()

	cfg := config.Config{
		Port:         "3000",
		StorageType:  config.StorageFS,
		SourceBucket: "transcripts",
		TargetBucket: "pdfs",
		DataDir:      t.TempDir(),
		LinkMode:     config.LinkSigned,
		BaseURL:      "http://localhost:3000",
		ShareSecret:  "secret",
		ShareTTL:     time.Minute,
		Timezone:     "UTC",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return cfg
}

func setupTestServer(t *testing.T, cfg config.Config) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	api := NewAPI(a.Syncer, a.Lister, a.Share, a.Stores.Target, a.Schedule, logger)
	engine, err := newEngine(cfg, api, logger)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine, a
}

func putTranscript(t *testing.T, a *app.App, key, text string) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{
		"results": map[string]any{"transcripts": []map[string]string{{"transcript": text}}},
	})
	if err := a.Stores.Source.Put(context.Background(), key, body, "application/json"); err != nil {
		t.Fatalf("put transcript: %v", err)
	}
}

func get(engine *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	engine, _ := setupTestServer(t, testConfig(t))

	rec := get(engine, "/api/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if ok, exists := body["ok"].(bool); !exists || !ok {
		t.Fatalf("expected ok=true, body=%v", body)
	}
}

func TestCategoriesHandler(t *testing.T) {
	engine, _ := setupTestServer(t, testConfig(t))

	rec := get(engine, "/api/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Categories []string `json:"categories"`
		Fallback   string   `json:"fallback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if len(body.Categories) != 6 || body.Categories[0] != "Math" {
		t.Fatalf("unexpected categories: %v", body.Categories)
	}
	if body.Fallback != domain.CategoryFallback {
		t.Fatalf("expected fallback %q, got %q", domain.CategoryFallback, body.Fallback)
	}
}

func TestListDocumentsSyncsAndGroups(t *testing.T) {
	engine, a := setupTestServer(t, testConfig(t))
	putTranscript(t, a, "lecture_1699954200000.json", "Hello world")
	putTranscript(t, a, "lecture_1699959600000.json", "Shakespeare")
	putTranscript(t, a, "lecture_bad.json", "")

	for _, path := range []string{"/api/documents", "/get-pdfs"} {
		rec := get(engine, path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}

		var body struct {
			Documents domain.ListingView `json:"documents"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}

		if len(body.Documents) != 2 {
			t.Fatalf("%s: expected 2 categories, got %v", path, body.Documents)
		}
		math := body.Documents["Math"]
		if len(math) != 1 || math[0].FileName != "lecture_1699954200000.pdf" {
			t.Fatalf("%s: unexpected Math entries: %v", path, math)
		}
		if !strings.HasPrefix(math[0].URL, "http://localhost:3000/documents/lecture_1699954200000.pdf?exp=") {
			t.Fatalf("%s: unexpected url %q", path, math[0].URL)
		}
		if len(body.Documents["English"]) != 1 {
			t.Fatalf("%s: expected one English entry, got %v", path, body.Documents["English"])
		}
	}
}

func TestListDocumentsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	api := NewAPI(a.Syncer, failingLister{}, nil, a.Stores.Target, a.Schedule, logger)
	engine, err := newEngine(cfg, api, logger)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	rec := get(engine, "/api/documents")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Failed to fetch PDF list" {
		t.Fatalf("unexpected error message: %q", body["error"])
	}
	if !strings.Contains(body["details"], "access denied") {
		t.Fatalf("expected details, got %q", body["details"])
	}
}

func TestSignedDocumentLink(t *testing.T) {
	engine, a := setupTestServer(t, testConfig(t))
	putTranscript(t, a, "lecture_1699954200000.json", "Hello world")

	if _, err := a.Syncer.SyncAll(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	link, err := a.Share.URL(context.Background(), "lecture_1699954200000.pdf")
	if err != nil {
		t.Fatalf("share url: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	rec := get(engine, u.RequestURI())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != domain.TargetContentType {
		t.Fatalf("expected pdf content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("expected pdf body")
	}

	missing, err := a.Share.URL(context.Background(), "absent.pdf")
	if err != nil {
		t.Fatalf("share url: %v", err)
	}
	mu, _ := url.Parse(missing)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "missing signature", target: "/documents/lecture_1699954200000.pdf", status: http.StatusBadRequest},
		{name: "invalid expiration", target: "/documents/lecture_1699954200000.pdf?exp=soon&sig=x", status: http.StatusBadRequest},
		{name: "expired", target: "/documents/lecture_1699954200000.pdf?exp=1&sig=whatever", status: http.StatusGone},
		{name: "bad signature", target: "/documents/lecture_1699954200000.pdf?exp=9999999999&sig=invalid", status: http.StatusForbidden},
		{name: "not found", target: mu.RequestURI(), status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(engine, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSignedRouteAbsentInPublicMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.LinkMode = config.LinkPublic
	engine, _ := setupTestServer(t, cfg)

	rec := get(engine, "/documents/a.pdf?exp=9999999999&sig=x")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListDocumentsRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	engine, _ := setupTestServer(t, cfg)

	if rec := get(engine, "/api/documents"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := get(engine, "/api/documents")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := get(engine, "/api/health"); rec.Code != http.StatusOK {
		t.Fatalf("health should not be rate limited, got %d", rec.Code)
	}
}

func getFrom(engine *gin.Engine, target, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	engine, _ := setupTestServer(t, cfg)

	allowed := 0
	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3", "203.0.113.4", "203.0.113.5"} {
		if rec := getFrom(engine, "/api/documents", ip); rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("expected 1 request within burst, got %d", allowed)
	}
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	// httptest requests arrive from 192.0.2.1.
	cfg.TrustedProxies = []string{"192.0.2.1"}
	engine, _ := setupTestServer(t, cfg)

	for _, ip := range []string{"203.0.113.1", "203.0.113.2"} {
		if rec := getFrom(engine, "/api/documents", ip); rec.Code != http.StatusOK {
			t.Fatalf("client %s: expected 200, got %d", ip, rec.Code)
		}
	}
	if rec := getFrom(engine, "/api/documents", "203.0.113.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeat client, got %d", rec.Code)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	engine, _ := setupTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}
