package handler

import (
	"Agora/internal/api/middleware"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/util"
	"Agora/internal/service"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const filesField = "files"

// ownerFunc 查询资源作者
type ownerFunc func(ctx context.Context, id string) (uint64, error)

// formFiles 读取 multipart 中的附件，非 multipart 请求返回空
func formFiles(c *gin.Context) ([]*service.UploadFile, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, service.ErrParamInvalid
	}
	headers := form.File[filesField]
	files := make([]*service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f := service.UploadFileFromHeader(fh)
		f.MimeType = util.DetectContentType(fh)
		files = append(files, f)
	}
	return files, nil
}

// requireOwner 作者本人或管理员才能继续，失败时已写出响应
func requireOwner(c *gin.Context, owner ownerFunc, id string) bool {
	ownerID, err := owner(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if ownerID != c.GetUint64(consts.ContextUserID) && !middleware.IsAdmin(c) {
		response.Error(c, service.UnauthorizedError)
		return false
	}
	return true
}
