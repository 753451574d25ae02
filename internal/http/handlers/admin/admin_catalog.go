package admin

import (
	"github.com/bazaar-next/internal/http/handlers/public"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminCategories 获取分类列表 (Admin)
func (h *Handler) GetAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, categories)
}

// GetAdminCategory 获取分类详情 (Admin)
func (h *Handler) GetAdminCategory(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	category, err := h.CategoryService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, category)
}

// CreateCategory 创建分类 (Admin)
func (h *Handler) CreateCategory(c *gin.Context) {
	var req public.CategoryRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Create(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory 重命名分类 (Admin)
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req public.CategoryRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	category, err := h.CategoryService.Update(id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类；仍被商品引用时返回 409
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := h.pagination(c)
	products, total, err := h.ProductService.Filter(service.ProductFilterInput{
		Page:        page,
		PageSize:    pageSize,
		Category:    c.Query("category"),
		Price:       c.Query("price"),
		Order:       c.Query("order"),
		RatingOrder: c.Query("rating_order"),
		Search:      c.Query("search"),
		SellerID:    shared.ParseUintQuery(c, "seller_id"),
		CategoryID:  shared.ParseUintQuery(c, "category_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, products, shared.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 代卖家创建商品，seller_id 必填
func (h *Handler) CreateProduct(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	var req public.CreateProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Create(actor, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品 (Admin)
func (h *Handler) UpdateProduct(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req public.UpdateProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), actor, id, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品 (Admin)
func (h *Handler) DeleteProduct(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
