package middleware

import (
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/response"
	"slices"

	"github.com/gin-gonic/gin"
)

// CheckRoles 检查当前用户是否拥有至少一个指定的角色
func CheckRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := c.GetStringSlice(consts.ContextRoles)

		hasPermission := slices.ContainsFunc(requiredRoles, func(r string) bool {
			return slices.Contains(roles, r)
		})
		if !hasPermission {
			response.Fail(c, response.Forbidden, "권한이 없습니다")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsAdmin 当前请求用户是否为管理员
func IsAdmin(c *gin.Context) bool {
	return slices.Contains(c.GetStringSlice(consts.ContextRoles), model.RoleAdmin)
}
