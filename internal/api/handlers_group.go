package api

import (
	"Agora/internal/api/handler"
	"Agora/internal/pkg/security"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	PostHandler      *handler.PostHandler
	ArticleHandler   *handler.ArticleHandler
	CommentHandler   *handler.CommentHandler
	SavedItemHandler *handler.SavedItemHandler
	AIHandler        *handler.AIHandler
	DownloadHandler  *handler.DownloadHandler

	Tokens         *security.TokenManager
	Registry       prometheus.Registerer
	MetricsHandler http.Handler
	MetricsPath    string
}
