package middleware

import (
	"net/http"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// ClaimsKey gin 上下文中保存当前用户信息的键
const ClaimsKey = "claims"

// TokenParser 令牌校验接口，service.AuthService 满足该接口
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Auth 校验 Authorization: Bearer <token>，skip 中的路径前缀无需登录
func Auth(parser TokenParser, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range skip {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			klog.V(6).Infof("[Auth] 令牌校验失败: path=%s, err=%v", path, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentClaims 返回当前请求的用户信息，未登录时为 nil
func CurrentClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
