package api

import (
	"Agora/internal/api/middleware"
	"Agora/internal/model"
	"Agora/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	if group.Registry != nil {
		r.Use(middleware.MetricsMiddleware(group.Registry))
	}
	logger.SetupGin(r)

	if group.MetricsHandler != nil {
		r.GET(group.MetricsPath, gin.WrapH(group.MetricsHandler))
	}

	auth := middleware.AuthMiddleware(group.Tokens)
	authOpt := middleware.AuthOptionalMiddleware(group.Tokens)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("/:id", authOpt, group.PostHandler.GetPost)

			authGroup := postGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.PostHandler.CreatePost)
				authGroup.PUT("/:id", group.PostHandler.UpdatePost)
				authGroup.DELETE("/:id", group.PostHandler.DeletePost)
				authGroup.PUT("/:id/like", group.PostHandler.ToggleLike)
				authGroup.PUT("/:id/status", group.PostHandler.UpdateStatus)
				authGroup.POST("/:id/attachments", group.PostHandler.AddAttachments)
				authGroup.DELETE("/:id/attachments/:filename", group.PostHandler.RemoveAttachment)
			}
		}

		articleGroup := apiGroup.Group("/articles")
		{
			articleGroup.GET("/:id", authOpt, group.ArticleHandler.GetArticle)

			authGroup := articleGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.ArticleHandler.CreateArticle)
				authGroup.PUT("/:id", group.ArticleHandler.UpdateArticle)
				authGroup.DELETE("/:id", group.ArticleHandler.DeleteArticle)
				authGroup.PUT("/:id/like", group.ArticleHandler.ToggleLike)
				authGroup.POST("/:id/attachments", group.ArticleHandler.AddAttachments)
				authGroup.DELETE("/:id/attachments/:filename", group.ArticleHandler.RemoveAttachment)
			}
		}

		commentGroup := apiGroup.Group("/comments")
		{
			authOptGroup := commentGroup.Group("")
			authOptGroup.Use(authOpt)
			{
				authOptGroup.GET("/:id", group.CommentHandler.GetComment)
				authOptGroup.GET("/post/:postId", group.CommentHandler.ListPostComments)
				authOptGroup.GET("/article/:articleId", group.CommentHandler.ListArticleComments)
			}

			authGroup := commentGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("", group.CommentHandler.CreateComment)
				authGroup.POST("/reply/:commentId", group.CommentHandler.CreateReply)
				authGroup.PUT("/:id", group.CommentHandler.UpdateComment)
				authGroup.DELETE("/:id", group.CommentHandler.DeleteComment)
				authGroup.PUT("/:id/like", group.CommentHandler.ToggleLike)
				authGroup.DELETE("/:id/attachments/:filename", group.CommentHandler.RemoveAttachment)
			}
		}

		savedGroup := apiGroup.Group("/saved-items")
		savedGroup.Use(auth)
		{
			savedGroup.GET("", group.SavedItemHandler.GetSavedItems)
			savedGroup.POST("/toggle", group.SavedItemHandler.ToggleSavedItem)
			savedGroup.GET("/check", group.SavedItemHandler.CheckSavedItem)
		}

		aiGroup := apiGroup.Group("/ai")
		aiGroup.Use(auth, middleware.CheckRoles(model.RoleUser, model.RoleAdmin))
		{
			aiGroup.POST("/generate/:postId", group.AIHandler.Generate)
			aiGroup.DELETE("/response/:postId", group.AIHandler.DeleteResponse)
		}

		downloadGroup := apiGroup.Group("/download")
		{
			downloadGroup.GET("/attachment/:filename", group.DownloadHandler.PostAttachment)
			downloadGroup.GET("/article-attachment/:filename", group.DownloadHandler.ArticleAttachment)
			downloadGroup.GET("/comment-attachment/:filename", group.DownloadHandler.CommentAttachment)
		}
	}

	return r
}
