package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"twitt/internal/config"
	"twitt/internal/models"
	"twitt/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
	cfg *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:            testSecret,
		Env:                  "test",
		Port:                 "0",
		AllowedOrigins:       "http://localhost:5173",
		FeatureFlags:         "suggestions=on",
		MediaLocalDir:        t.TempDir(),
		MediaPublicURL:       "/media",
		MediaMaxUploadSizeMB: 2,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.hub.Shutdown(context.Background()) })

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr, rdb: rdb, cfg: cfg}
}

// user creates an active user and returns it with a valid access token.
func (e *testEnv) user(t *testing.T, email string) (*models.User, string) {
	t.Helper()
	u := testutil.CreateUser(t, e.db, email)
	pair, err := e.srv.tokens.IssuePair(u.ID)
	require.NoError(t, err)
	return u, pair.Access
}

type apiResult struct {
	Status int
	Body   models.APIResponse
	Raw    []byte
}

// data re-decodes the envelope's data field into dst.
func (r apiResult) data(t *testing.T, dst any) {
	t.Helper()
	raw, err := json.Marshal(r.Body.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (r apiResult) errItem() string {
	if r.Body.Errors == nil {
		return ""
	}
	return r.Body.Errors.Item
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) apiResult {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := apiResult{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &res.Body)
	}
	return res
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) apiResult {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) multipart(t *testing.T, method, path, token string, fields map[string]string, image []byte) apiResult {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, token)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)

	res = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, string(res.Raw), `"database":"healthy"`)
	assert.Contains(t, string(res.Raw), `"redis":"healthy"`)

	env.mr.Close()
	res = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.Contains(t, string(res.Raw), `"redis":"unhealthy"`)
}

func TestReadiness_WithoutRedis(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	db := testutil.NewSQLiteDB(t)
	srv, err := NewServerWithDeps(&config.Config{JWTSecret: testSecret, MediaLocalDir: t.TempDir()}, db, nil, nil)
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"redis":"disabled"`)
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health/live", "", nil)

	res := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, string(res.Raw), "http_requests_total")
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/posts"},
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/feed"},
		{http.MethodPost, "/api/follows"},
		{http.MethodPost, "/api/ws/ticket"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodDelete, "/api/comments/9b2f1a0e-8a36-4e8b-9d8e-1f9a2b3c4d5e"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			res := env.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, res.Status)
			assert.False(t, res.Body.Success)
			assert.Equal(t, "Authentication", res.errItem())
		})
	}
}
