package public

import (
	"strings"

	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryRequest 分类请求
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateProductRequest 创建商品请求；评分字段不接受客户端写入
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       *int64 `json:"price" binding:"required"`
	CategoryID  uint   `json:"category_id" binding:"required"`
	SellerID    uint   `json:"seller_id"`
}

// ToServiceInput 转换为服务层输入
func (r CreateProductRequest) ToServiceInput() service.CreateProductInput {
	input := service.CreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		SellerID:    r.SellerID,
	}
	if r.Price != nil {
		input.Price = *r.Price
	}
	return input
}

// UpdateProductRequest 更新商品请求，缺省字段保持不变
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	CategoryID  *uint   `json:"category_id"`
}

// ToServiceInput 转换为服务层输入
func (r UpdateProductRequest) ToServiceInput() service.UpdateProductInput {
	return service.UpdateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
	}
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, categories)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
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

// ListProducts 商品分页列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := h.pagination(c)
	products, total, err := h.ProductService.List(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, products, shared.BuildPagination(page, pageSize, total))
}

// FilterProducts 按分类、价格上限、价格/评分排序筛选商品
// 非法的筛选参数按缺省处理，不返回错误
func (h *Handler) FilterProducts(c *gin.Context) {
	page, pageSize := h.pagination(c)
	products, total, err := h.ProductService.Filter(service.ProductFilterInput{
		Page:        page,
		PageSize:    pageSize,
		Category:    c.Query("category"),
		Price:       c.Query("price"),
		Order:       c.Query("order"),
		RatingOrder: c.Query("rating_order"),
		Search:      strings.TrimSpace(c.Query("search")),
		SellerID:    shared.ParseUintQuery(c, "seller_id"),
		CategoryID:  shared.ParseUintQuery(c, "category_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, products, shared.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
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

// CreateProduct 卖家发布商品
func (h *Handler) CreateProduct(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Create(account, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品，仅所属卖家或管理员
func (h *Handler) UpdateProduct(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), account, id, req.ToServiceInput())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品，仅所属卖家或管理员
func (h *Handler) DeleteProduct(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(c.Request.Context(), account, id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
