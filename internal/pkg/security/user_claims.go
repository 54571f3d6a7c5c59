package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const JWTExpirationTime = time.Hour * 24

// UserClaims Token 中携带的身份信息
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole 是否拥有指定角色
func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
