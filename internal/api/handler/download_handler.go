package handler

import (
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/storage"
	"Agora/internal/service"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

type DownloadHandler struct {
	attachments service.AttachmentService
}

func NewDownloadHandler(attachments service.AttachmentService) *DownloadHandler {
	return &DownloadHandler{attachments: attachments}
}

func (s *DownloadHandler) PostAttachment(c *gin.Context) {
	s.serve(c, storage.CategoryPost)
}

func (s *DownloadHandler) ArticleAttachment(c *gin.Context) {
	s.serve(c, storage.CategoryArticle)
}

func (s *DownloadHandler) CommentAttachment(c *gin.Context) {
	s.serve(c, storage.CategoryComment)
}

// serve 只提供仍被引用的附件，下载名使用上传时的原始文件名
func (s *DownloadHandler) serve(c *gin.Context, category storage.Category) {
	att, rc, err := s.attachments.Open(c.Request.Context(), category, c.Param("filename"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() { _ = rc.Close() }()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": att.OriginalName})
	if disposition == "" {
		disposition = `attachment; filename="` + url.PathEscape(att.OriginalName) + `"`
	}
	contentType := att.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, att.Size, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}
