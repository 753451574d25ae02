package admin

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"

	"github.com/gin-gonic/gin"
)

var authzErrorRules = []shared.MappedError{
	{Target: authz.ErrInvalidPolicy, Code: response.CodeBadRequest},
	{Target: authz.ErrUnavailable, Code: response.CodeInternal, Message: "authorization unavailable"},
}

// AuthzPolicyRequest 角色路由策略
type AuthzPolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

func respondAuthzError(c *gin.Context, err error) {
	shared.RespondMappedError(c, err, authzErrorRules, response.CodeInternal, "authorization update failed")
}

// ListAuthzRoles 角色及继承关系
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, roles)
}

// GetAuthzRolePolicies 角色策略，?inherited=true 时包含继承策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if !authz.IsKnownRole(role) {
		response.BadRequest(c, "unknown role")
		return
	}
	inherited, _ := strconv.ParseBool(c.DefaultQuery("inherited", "false"))

	policies, err := h.AuthzService.GetRolePolicies(role, inherited)
	if err != nil {
		respondAuthzError(c, err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 放行角色访问某路由
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "granted", h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzPolicy 撤销角色路由策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.changeAuthzPolicy(c, "revoked", h.AuthzService.RevokeRolePolicy)
}

func (h *Handler) changeAuthzPolicy(c *gin.Context, verb string, apply func(role, object, action string) error) {
	var req AuthzPolicyRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	if err := apply(req.Role, req.Object, req.Action); err != nil {
		respondAuthzError(c, err)
		return
	}
	logger.Infow("admin_authz_policy_"+verb,
		"operator_id", currentAdminID(c),
		"role", req.Role,
		"object", authz.NormalizeObject(req.Object),
		"action", authz.NormalizeAction(req.Action),
	)
	response.Success(c, authz.Policy{
		Subject: req.Role,
		Object:  authz.NormalizeObject(req.Object),
		Action:  authz.NormalizeAction(req.Action),
	})
}

// ReloadAuthzPolicy 从数据库重新加载策略（多实例部署时同步其他实例的改动）
func (h *Handler) ReloadAuthzPolicy(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondAuthzError(c, err)
		return
	}
	logger.Infow("admin_authz_policy_reloaded", "operator_id", currentAdminID(c))
	response.Success(c, gin.H{"reloaded": true})
}

func decodeRoleParam(value string) string {
	if decoded, err := url.PathUnescape(value); err == nil {
		value = decoded
	}
	return strings.TrimSpace(value)
}
