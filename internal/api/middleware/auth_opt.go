package middleware

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/security"

	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入 UID，失败或缺失则 UID 为 0
func AuthOptionalMiddleware(tm *security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, tm); ok {
			setIdentity(c, claims)
		} else {
			c.Set(consts.ContextUserID, uint64(0))
		}
		c.Next()
	}
}
