package admin

import (
	"strings"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/http/handlers/public"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// CreateAdminRequest 创建管理员请求
type CreateAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateAdmin 创建管理员账号
func (h *Handler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	account, err := h.AuthService.CreateAdmin(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infow("admin_account_created",
		"operator_id", currentAdminID(c),
		"admin_id", account.Base().ID,
	)
	response.Created(c, account.Base())
}

// ListAdmins 管理员列表
func (h *Handler) ListAdmins(c *gin.Context) {
	h.listAccounts(c, constants.RoleAdmin)
}

// ListSellers 卖家列表
func (h *Handler) ListSellers(c *gin.Context) {
	h.listAccounts(c, constants.RoleSeller)
}

// ListCustomers 顾客列表
func (h *Handler) ListCustomers(c *gin.Context) {
	h.listAccounts(c, constants.RoleCustomer)
}

func (h *Handler) listAccounts(c *gin.Context, role string) {
	page, pageSize := h.pagination(c)
	users, total, err := h.UserService.ListByRole(role, page, pageSize, strings.TrimSpace(c.Query("keyword")))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, users, shared.BuildPagination(page, pageSize, total))
}

// GetSeller 卖家详情
func (h *Handler) GetSeller(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.UserService.GetSeller(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, detail)
}

// GetCustomer 顾客详情
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserService.GetCustomer(shared.CurrentAccount(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateSeller 更新卖家资料或状态
func (h *Handler) UpdateSeller(c *gin.Context) {
	h.updateAccount(c, constants.RoleSeller)
}

// UpdateCustomer 更新顾客资料或状态
func (h *Handler) UpdateCustomer(c *gin.Context) {
	h.updateAccount(c, constants.RoleCustomer)
}

func (h *Handler) updateAccount(c *gin.Context, role string) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req public.ProfileUpdateRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	user, err := h.UserService.UpdateProfile(c.Request.Context(), actor, role, id, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infow("admin_account_updated",
		"operator_id", currentAdminID(c),
		"role", role,
		"user_id", id,
	)
	response.Success(c, user)
}

// DeleteSeller 删除卖家
func (h *Handler) DeleteSeller(c *gin.Context) {
	h.deleteAccount(c, constants.RoleSeller)
}

// DeleteCustomer 删除顾客
func (h *Handler) DeleteCustomer(c *gin.Context) {
	h.deleteAccount(c, constants.RoleCustomer)
}

func (h *Handler) deleteAccount(c *gin.Context, role string) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserService.DeleteAccount(c.Request.Context(), actor, role, id); err != nil {
		respondError(c, err)
		return
	}
	logger.Infow("admin_account_deleted",
		"operator_id", currentAdminID(c),
		"role", role,
		"user_id", id,
	)
	response.NoContent(c)
}
