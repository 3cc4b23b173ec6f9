package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-registration/config"
	"github.com/oksasatya/go-ddd-user-registration/internal/container"
)

func newTestEngine(t *testing.T) (*gin.Engine, *container.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		AppName:             "user-registration",
		StorageDriver:       config.StorageDriverMemory,
		CreateUserRateLimit: 30,
		DebugMetricsEnabled: true,
		ESUsersIndex:        "users",
	}
	c, err := container.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return NewEngine(c), c
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegistrationFlow(t *testing.T) {
	r, c := newTestEngine(t)

	w := do(r, http.MethodPost, "/v1/users", `{"name":"Bruno","email":"bruno@x.com","role_id":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.EqualValues(t, 1, out["id"])
	assert.NotContains(t, out, "password")
	require.Len(t, c.Memory.Users(), 1)

	w = do(r, http.MethodPost, "/v1/users", `{"name":"Bruno","email":"bruno@x.com","role_id":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"email-already-exists"`)

	w = do(r, http.MethodPost, "/v1/users", `{"name":"Bruno","email":"other@x.com","role_id":999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "999")
	assert.Len(t, c.Memory.Users(), 1)
}

func TestHealthAndRootRedirect(t *testing.T) {
	r, _ := newTestEngine(t)

	w := do(r, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/v1/health", w.Header().Get("Location"))
}

func TestUnknownRouteIsProblem(t *testing.T) {
	r, _ := newTestEngine(t)

	w := do(r, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"not-found"`)
}

func TestDebugVarsExposeCounters(t *testing.T) {
	r, _ := newTestEngine(t)
	do(r, http.MethodPost, "/v1/users", `{"name":"A","email":"a@x.com","role_id":1}`)

	w := do(r, http.MethodGet, "/v1/debug/vars", "")
	require.Equal(t, http.StatusOK, w.Code)
	var vars map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "users_created_total")
	assert.Contains(t, vars, "users_create_failed_total")
}
