package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/neustalgic-grooves/internal/config"
)

func newContext(method, target, route string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	return c
}

func TestBuildRateKey(t *testing.T) {
	c := newContext(http.MethodGet, "/api/gallery?page=2", "/api/gallery")
	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:203.0.113.7"},
		{"route", "rl:route:GET /api/gallery"},
		{"ip_route", "rl:ip:203.0.113.7:route:GET /api/gallery"},
		{"bogus", "rl:ip:203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKeyVariesByQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	a := cacheKeyFrom(cfg, newContext(http.MethodGet, "/api/gallery?page=1", "/api/gallery"))
	b := cacheKeyFrom(cfg, newContext(http.MethodGet, "/api/gallery?page=2", "/api/gallery"))
	if a == b {
		t.Fatal("different queries should produce different keys")
	}
	if !strings.HasPrefix(a, "cache:api.gallery:") {
		t.Fatalf("key should be scoped to the route, got %q", a)
	}

	cfg.KeyStrategy = "route"
	a = cacheKeyFrom(cfg, newContext(http.MethodGet, "/api/gallery?page=1", "/api/gallery"))
	b = cacheKeyFrom(cfg, newContext(http.MethodGet, "/api/gallery?page=2", "/api/gallery"))
	if a != b {
		t.Fatal("route strategy should ignore the query")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || string(body) != `{"ok":true}` {
		t.Fatalf("decode: %v %d %q", ok, status, body)
	}
	if got.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected headers: %v", got)
	}
	if _, _, _, ok := decodePayload([]byte{0, 0}); ok {
		t.Fatal("short payload should not decode")
	}
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	if cw.overflowed() {
		t.Fatal("3 bytes should fit")
	}
	_, _ = cw.Write([]byte("def"))
	if !cw.overflowed() {
		t.Fatal("6 bytes should overflow")
	}
	if rec.Body.String() != "abcdef" {
		t.Fatalf("client should get the full body, got %q", rec.Body.String())
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	calls := 0
	h := func(c echo.Context) error { calls++; return c.NoContent(http.StatusNoContent) }
	mws := []echo.MiddlewareFunc{
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
		NewCacheInvalidator(config.CacheConfig{Enabled: true}, nil, "/api/gallery"),
	}
	for _, mw := range mws {
		if err := mw(h)(newContext(http.MethodGet, "/", "/")); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	if calls != len(mws) {
		t.Fatalf("expected %d calls, got %d", len(mws), calls)
	}
}
