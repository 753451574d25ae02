package public

import (
	"strings"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求（卖家/顾客共用，按角色取用字段）
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name" binding:"required"`
	SecondName  string `json:"second_name"`
	PhoneNumber string `json:"phone_number"`
	Description string `json:"description"`
	CardNumber  string `json:"card_number"`
	PostCode    string `json:"post_code"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ProfileUpdateRequest 资料更新请求，缺省字段保持不变
type ProfileUpdateRequest struct {
	Name        *string `json:"name"`
	SecondName  *string `json:"second_name"`
	PhoneNumber *string `json:"phone_number"`
	Description *string `json:"description"`
	CardNumber  *string `json:"card_number"`
	PostCode    *string `json:"post_code"`
	Status      *string `json:"status" binding:"omitempty,oneof=active disabled"`
}

// ToServiceInput 转换为服务层输入
func (r ProfileUpdateRequest) ToServiceInput() service.ProfileUpdateInput {
	return service.ProfileUpdateInput{
		Name:        r.Name,
		SecondName:  r.SecondName,
		PhoneNumber: r.PhoneNumber,
		Description: r.Description,
		CardNumber:  r.CardNumber,
		PostCode:    r.PostCode,
		Status:      r.Status,
	}
}

// Register 注册卖家或顾客
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	account, err := h.AuthService.Register(service.RegisterInput{
		Role:        strings.ToLower(strings.TrimSpace(c.Param("role"))),
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		SecondName:  req.SecondName,
		PhoneNumber: req.PhoneNumber,
		Description: req.Description,
		CardNumber:  req.CardNumber,
		PostCode:    req.PostCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, account.Base())
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	account, pair, err := h.AuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"access":             pair.AccessToken,
		"refresh":            pair.RefreshToken,
		"access_expires_at":  pair.AccessExpiresAt,
		"refresh_expires_at": pair.RefreshExpiresAt,
		"user":               account.Base(),
	})
}

// RefreshToken 使用 refresh token 换取 access token
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	pair, err := h.AuthService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"access":            pair.AccessToken,
		"access_expires_at": pair.AccessExpiresAt,
	})
}

// Me 当前登录账号
func (h *Handler) Me(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	response.Success(c, account.Base())
}

// ChangePassword 修改当前账号密码，成功后旧令牌失效
func (h *Handler) ChangePassword(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthService.ChangePassword(c.Request.Context(), service.AccountID(account), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
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

// GetSeller 卖家资料（含其商品）
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

// GetCustomer 顾客资料，仅本人或管理员
func (h *Handler) GetCustomer(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserService.GetCustomer(account, id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateSeller 更新卖家资料
func (h *Handler) UpdateSeller(c *gin.Context) {
	h.updateProfile(c, constants.RoleSeller)
}

// UpdateCustomer 更新顾客资料
func (h *Handler) UpdateCustomer(c *gin.Context) {
	h.updateProfile(c, constants.RoleCustomer)
}

func (h *Handler) updateProfile(c *gin.Context, role string) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ProfileUpdateRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	user, err := h.UserService.UpdateProfile(c.Request.Context(), account, role, id, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteSeller 删除卖家账号（连同其商品）
func (h *Handler) DeleteSeller(c *gin.Context) {
	h.deleteAccount(c, constants.RoleSeller)
}

// DeleteCustomer 删除顾客账号
func (h *Handler) DeleteCustomer(c *gin.Context) {
	h.deleteAccount(c, constants.RoleCustomer)
}

func (h *Handler) deleteAccount(c *gin.Context, role string) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.UserService.DeleteAccount(c.Request.Context(), account, role, id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
