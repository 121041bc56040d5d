package middleware

import (
	"net/http"
	"strings"

	"github.com/RevoGrid/RevoGrid/internal/common/auth"
	"github.com/RevoGrid/RevoGrid/internal/common/config"
	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/gin-gonic/gin"
)

const identityKey = "auth_identity"

// IdentityFrom 从请求上下文取出鉴权信息。
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// JWTAuth JWT 鉴权中间件：
// - 从 `Authorization: Bearer <token>` 读取 token
// - 校验通过后把身份信息放入请求上下文，供业务 handler 使用
func JWTAuth(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			if log != nil {
				log.Warn("auth enabled but jwt_secret is empty")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "auth not configured"})
			return
		}

		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access. Token is missing."})
			return
		}

		tokenStr := strings.TrimSpace(raw)
		if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
		}

		id, err := auth.VerifyAccessToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access."})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole 角色校验中间件，必须挂在 JWTAuth 之后。
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
			return
		}
		if !strings.EqualFold(id.Role, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "permission denied"})
			return
		}
		c.Next()
	}
}
