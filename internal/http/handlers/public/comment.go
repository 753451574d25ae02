package public

import (
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCommentRequest 发表评论请求
type CreateCommentRequest struct {
	Rate     int     `json:"rate" binding:"required,min=1,max=5"`
	Content  *string `json:"content"`
	AuthorID uint    `json:"author_id"`
}

// UpdateCommentRequest 修改评论请求
type UpdateCommentRequest struct {
	Rate    *int    `json:"rate" binding:"omitempty,min=1,max=5"`
	Content *string `json:"content"`
}

// CreateComment 发表评论，路径中的 :id 为商品ID
func (h *Handler) CreateComment(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	productID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CreateCommentRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.CommentService.Create(c.Request.Context(), account, productID, service.CreateCommentInput{
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

// ListComments 商品评论分页列表，路径中的 :id 为商品ID
func (h *Handler) ListComments(c *gin.Context) {
	productID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := h.pagination(c)
	comments, total, err := h.CommentService.ListByProduct(productID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, comments, shared.BuildPagination(page, pageSize, total))
}

// UpdateComment 修改评论，路径中的 :id 为评论ID
func (h *Handler) UpdateComment(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	commentID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCommentRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	result, err := h.CommentService.Update(c.Request.Context(), account, commentID, service.UpdateCommentInput{
		Rate:    req.Rate,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteComment 删除评论并重算商品评分，路径中的 :id 为评论ID
func (h *Handler) DeleteComment(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	commentID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.CommentService.Delete(c.Request.Context(), account, commentID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
