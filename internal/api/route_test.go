package api

import (
	"Agora/internal/api/config"
	"Agora/internal/api/dto"
	"Agora/internal/api/handler"
	"Agora/internal/model"
	"Agora/internal/pkg/metrics"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/security"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *security.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Cfg = config.Default()

	reg := prometheus.NewRegistry()
	tm := security.NewTokenManager("secret", "Agora")
	r := SetupRouter(&HandlersGroup{
		PostHandler:      handler.NewPostHandler(nil, nil),
		ArticleHandler:   handler.NewArticleHandler(nil, nil),
		CommentHandler:   handler.NewCommentHandler(nil),
		SavedItemHandler: handler.NewSavedItemHandler(nil),
		AIHandler:        handler.NewAIHandler(nil),
		DownloadHandler:  handler.NewDownloadHandler(nil),
		Tokens:           tm,
		Registry:         reg,
		MetricsHandler:   metrics.Handler(reg),
		MetricsPath:      "/metrics",
	})
	return r, tm
}

func call(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func codeOf(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var res dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Code
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := call(r, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestWriteRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, rt := range []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/abc/like"},
		{http.MethodPut, "/api/posts/abc/status"},
		{http.MethodDelete, "/api/articles/abc"},
		{http.MethodPost, "/api/comments/reply/abc"},
		{http.MethodGet, "/api/saved-items"},
		{http.MethodPost, "/api/ai/generate/abc"},
	} {
		w := call(r, rt.method, rt.path, "")
		assert.Equal(t, response.Unauthorized, codeOf(t, w), rt.path)
	}
}

func TestAIRoutesRejectSystemRole(t *testing.T) {
	r, tm := newTestRouter(t)
	token, err := tm.GenerateToken(99, []string{model.RoleSystem})
	require.NoError(t, err)

	w := call(r, http.MethodDelete, "/api/ai/response/abc", token)
	assert.Equal(t, response.Forbidden, codeOf(t, w))
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	call(r, http.MethodGet, "/api/ping", "")

	w := call(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "agora_http_request_duration_seconds"))
}
