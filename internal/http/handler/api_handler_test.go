package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mkraev/linkforge/internal/app/codec"
	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/mkraev/linkforge/internal/app/quota"
	appserver "github.com/mkraev/linkforge/internal/app/server"
	"github.com/mkraev/linkforge/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryLinkRepository gives the handler tests a real atomic registry.
type memoryLinkRepository struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemoryLinkRepository() *memoryLinkRepository {
	return &memoryLinkRepository{items: make(map[string]string)}
}

func (m *memoryLinkRepository) GetTarget(_ context.Context, slug string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.items[slug]
	if !ok {
		return "", model.ErrLinkNotFound
	}
	return target, nil
}

func (m *memoryLinkRepository) PutIfAbsent(_ context.Context, slug, target string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[slug]; exists {
		return false, nil
	}
	m.items[slug] = target
	return true, nil
}

func newTestServer(t *testing.T, quotaSize int64) *appserver.Server {
	t.Helper()

	tracker := quota.NewTracker(quota.NewMemoryStore(), quota.Config{
		Quota:    quotaSize,
		Window:   time.Minute,
		FailOpen: true,
	}, nil)

	svc := service.NewLinkService(newMemoryLinkRepository(), tracker, nil, nil, service.Config{
		Keyspace:        218340105584896,
		MaxAttempts:     5,
		DefaultTTLHours: 24,
	}, zap.NewNop())

	return appserver.New(appserver.Dependencies{
		Logger: zap.NewNop(),
		Links:  svc,
	})
}

func postLink(t *testing.T, srv *appserver.Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/links", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateLink_GeneratedThenResolve(t *testing.T) {
	srv := newTestServer(t, 10)

	resp := postLink(t, srv, `{"url": "https://example.com/a", "short": "", "expiry": 0}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeJSON(t, resp)
	short, _ := body["short"].(string)
	require.NotEmpty(t, short)
	assert.LessOrEqual(t, len(short), codec.MaxSlugLen)
	for _, r := range short {
		assert.True(t, strings.ContainsRune(codec.Alphabet, r))
	}
	assert.EqualValues(t, 24, body["expiry"])
	assert.EqualValues(t, 9, body["rate_limit"])

	req := httptest.NewRequest(http.MethodGet, "/"+short, nil)
	redirect, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, redirect.StatusCode)
	assert.Equal(t, "https://example.com/a", redirect.Header.Get("Location"))
}

func TestCreateLink_CustomSlugConflict(t *testing.T) {
	srv := newTestServer(t, 10)

	resp := postLink(t, srv, `{"url": "https://example.com/a", "short": "promo"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "promo", body["short"])

	resp = postLink(t, srv, `{"url": "https://example.com/b", "short": "promo"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body = decodeJSON(t, resp)
	assert.Contains(t, body["error"], "in use")
}

func TestCreateLink_InvalidURL(t *testing.T) {
	srv := newTestServer(t, 10)

	for _, raw := range []string{"not-a-url", "http://plain.example.com", "https://"} {
		resp := postLink(t, srv, fmt.Sprintf(`{"url": %q}`, raw))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "url %q", raw)
		resp.Body.Close()
	}
}

func TestCreateLink_MalformedBody(t *testing.T) {
	srv := newTestServer(t, 10)

	resp := postLink(t, srv, `{"url": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateLink_RateLimited(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp := postLink(t, srv, `{"url": "https://example.com"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, "attempt %d", i+1)
		resp.Body.Close()
	}

	resp := postLink(t, srv, `{"url": "https://example.com"}`)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeJSON(t, resp)
	reset, ok := body["rate_limit_reset"].(float64)
	require.True(t, ok, "rate_limit_reset missing from %v", body)
	assert.Greater(t, reset, float64(0))
	assert.LessOrEqual(t, reset, float64(60))
}

func TestCreateLink_CustomTTLEchoed(t *testing.T) {
	srv := newTestServer(t, 10)

	resp := postLink(t, srv, `{"url": "https://example.com", "expiry": 48}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.EqualValues(t, 48, body["expiry"])
}

func TestResolve_NotFound(t *testing.T) {
	srv := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Contains(t, body["error"], "not found")
}

func TestResolve_NotFoundHTMLForBrowsers(t *testing.T) {
	srv := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "missing")
}

func TestReadyWithoutBackends(t *testing.T) {
	srv := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp)
	assert.Equal(t, "ready", body["status"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 10)

	for _, path := range []string{"/", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := srv.App().Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
		body := decodeJSON(t, resp)
		assert.Equal(t, "ok", body["status"])
	}
}
