package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// PrincipalKey gin context 中当前操作者的键
const PrincipalKey = "principal"

// Principal 当前已认证的操作者
type Principal struct {
	ID          string
	Username    string
	FullName    string
	Role        string
	Permissions []string
}

// Has 判断操作者是否持有给定权限
func (p *Principal) Has(permission string) bool {
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

// PrincipalLoader 按用户 ID 加载操作者信息；令牌校验通过后每个请求调用一次
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
}

// Auth 校验 Bearer 令牌（HS256，sub 为用户 ID），并把操作者写入 gin context。
// 缺失、无效、过期的令牌以及缺失 sub 一律返回 401。
func Auth(secret []byte, loader PrincipalLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			c.Abort()
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			c.Abort()
			return
		}

		principal, err := loader.LoadPrincipal(c.Request.Context(), sub)
		if err != nil {
			response.ErrorWithStatus(c, apperr.HTTPStatus(err), apperr.CodeOf(err), "user not found")
			c.Abort()
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// RequirePermission 校验当前操作者持有给定权限，否则返回 403
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			c.Abort()
			return
		}
		if !principal.Has(permission) {
			response.ErrorWithStatus(c, http.StatusForbidden, "forbidden", "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFrom 从 gin context 取出当前操作者
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := v.(*Principal)
	return principal, ok
}
