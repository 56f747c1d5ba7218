package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
	resp "marketplace-api/internal/transport/http/response"
)

const HeaderUserID = "X-User-Id"

// CallerResolver 把用户 ID 解析为调用者；不存在/被封禁时返回 apperr
type CallerResolver interface {
	Resolve(ctx context.Context, userID string) (domain.Caller, error)
}

// RequireUser 从 X-User-Id 或 Bearer JWT 取用户 ID 并解析调用者
func RequireUser(res CallerResolver, j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			if ah := c.GetHeader("Authorization"); strings.HasPrefix(ah, "Bearer ") && j != nil {
				claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
				if err != nil {
					resp.Abort(c, resp.CodeUnauthorized, "invalid token")
					return
				}
				uid = claims.UID
			}
		}
		if uid == "" {
			resp.Abort(c, resp.CodeUnauthorized, "unauthorized")
			return
		}
		u, err := res.Resolve(c.Request.Context(), uid)
		if err != nil {
			resp.Fail(c, err)
			c.Abort()
			return
		}
		ez.SetCaller(c, u)
		c.Next()
	}
}

// RequireRole 角色门禁；须挂在 RequireUser 之后
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := ez.Caller(c)
		if !ok {
			resp.Fail(c, apperr.Unauthorized("unauthorized"))
			c.Abort()
			return
		}
		if !u.HasRole(roles...) {
			resp.Abort(c, resp.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
