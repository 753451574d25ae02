package admin

import (
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminBasketItemRequest 管理端加入购物篮请求
type AdminBasketItemRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	ProductID  uint `json:"product_id" binding:"required"`
}

// UpdateBasketItemRequest 修改行项目数量请求
type UpdateBasketItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=99"`
}

// GetAdminBaskets 购物篮列表
func (h *Handler) GetAdminBaskets(c *gin.Context) {
	page, pageSize := h.pagination(c)
	baskets, total, err := h.BasketService.ListBaskets(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, baskets, shared.BuildPagination(page, pageSize, total))
}

// GetAdminBasket 购物篮详情
func (h *Handler) GetAdminBasket(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.BasketService.GetBasket(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, detail)
}

// GetAdminBasketItems 行项目列表，可按购物篮或商品过滤
func (h *Handler) GetAdminBasketItems(c *gin.Context) {
	page, pageSize := h.pagination(c)
	items, total, err := h.BasketService.ListAllItems(repository.BasketItemListFilter{
		Page:      page,
		PageSize:  pageSize,
		BasketID:  shared.ParseUintQuery(c, "basket_id"),
		ProductID: shared.ParseUintQuery(c, "product_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, items, shared.BuildPagination(page, pageSize, total))
}

// AddBasketItem 代顾客加入购物篮
func (h *Handler) AddBasketItem(c *gin.Context) {
	actor, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	var req AdminBasketItemRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	item, err := h.BasketService.AddProduct(actor, req.CustomerID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

// UpdateBasketItem 修改行项目数量
func (h *Handler) UpdateBasketItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateBasketItemRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	item, err := h.BasketService.UpdateItemQuantity(id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

// DeleteBasketItem 删除行项目
func (h *Handler) DeleteBasketItem(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.BasketService.AdminDeleteItem(id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
