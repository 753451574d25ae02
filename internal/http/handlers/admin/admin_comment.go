package admin

import (
	"github.com/bazaar-next/internal/http/handlers/public"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminCreateCommentRequest 代顾客发表评论请求
type AdminCreateCommentRequest struct {
	ProductID uint    `json:"product_id" binding:"required"`
	AuthorID  uint    `json:"author_id" binding:"required"`
	Rate      int     `json:"rate" binding:"required,min=1,max=5"`
	Content   *string `json:"content"`
}

// GetAdminComments 评论列表，可按商品或作者过滤
func (h *Handler) GetAdminComments(c *gin.Context) {
	page, pageSize := h.pagination(c)
	comments, total, err := h.CommentService.List(repository.CommentListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProductID: shared.ParseUintQuery(c, "product_id"),
		AuthorID:  shared.ParseUintQuery(c, "author_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, comments, shared.BuildPagination(page, pageSize, total))
}

// GetAdminComment 评论详情
func (h *Handler) GetAdminComment(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	comment, err := h.CommentService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, comment)
}

// CreateComment 代顾客发表评论
func (h *Handler) CreateComment(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	var req AdminCreateCommentRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.CommentService.Create(c.Request.Context(), actor, req.ProductID, service.CreateCommentInput{
		Rate:     req.Rate,
		Content:  req.Content,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateComment 修改评论
func (h *Handler) UpdateComment(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req public.UpdateCommentRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.CommentService.Update(c.Request.Context(), actor, id, service.UpdateCommentInput{
		Rate:    req.Rate,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteComment 删除评论并返回重算后的评分
func (h *Handler) DeleteComment(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	rating, err := h.CommentService.Delete(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true, "product_rating": rating})
}
