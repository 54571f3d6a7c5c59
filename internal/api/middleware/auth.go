package middleware

import (
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"Agora/internal/pkg/security"
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(tm *security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, tm)
		if !ok {
			response.Fail(c, response.Unauthorized, "인증 토큰이 없거나 유효하지 않습니다")
			c.Abort()
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

func parseBearer(c *gin.Context, tm *security.TokenManager) (*security.UserClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, false
	}
	claims, err := tm.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *security.UserClaims) {
	c.Set(consts.ContextUserID, claims.UserID)
	c.Set(consts.ContextRoles, claims.Roles)

	newCtx := context.WithValue(c.Request.Context(), consts.ContextUserID, claims.UserID)
	c.Request = c.Request.WithContext(newCtx)
}
