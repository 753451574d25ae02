package router

import (
	"context"
	"errors"
	"strings"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// Authenticator 校验 access token 并返回账号
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (service.Account, error)
}

// RoleEnforcer 按角色判定路由放行
type RoleEnforcer interface {
	EnforceRole(role, obj, act string) (bool, error)
}

// AuthMiddleware 可选鉴权中间件
// 未携带 Authorization 头时按匿名访问继续；携带但无效时直接返回 401
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		if authenticator == nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		account, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrNotFound) {
				response.Unauthorized(c, "invalid token")
			} else {
				shared.RespondError(c, err)
			}
			c.Abort()
			return
		}
		shared.SetAccount(c, account)
		c.Next()
	}
}

// AuthzMiddleware casbin 角色放行中间件
// 匿名访问被拒返回 401，已登录但角色不允许返回 403
func AuthzMiddleware(enforcer RoleEnforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := shared.CurrentAccount(c)
		role := authz.RoleAnonymous
		if account != nil {
			role = account.Role()
		}
		if enforcer == nil {
			logger.Errorw("authz_service_unavailable")
			response.Error(c, response.CodeInternal, "authorization unavailable")
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := enforcer.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("authz_enforce_failed",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Error(c, response.CodeInternal, "authorization unavailable")
			c.Abort()
			return
		}
		if !allowed {
			if account == nil {
				response.Unauthorized(c, "authentication required")
				c.Abort()
				return
			}
			logger.Warnw("authz_permission_denied",
				"user_id", service.AccountID(account),
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "permission denied")
			c.Abort()
			return
		}

		c.Next()
	}
}
