package public

import (
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AddBasketProductRequest 加入购物篮请求
type AddBasketProductRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// AddBasketProduct 将商品加入顾客购物篮（已存在则数量 +1）
// 路径中的 :id 为顾客ID
func (h *Handler) AddBasketProduct(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	customerID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req AddBasketProductRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	item, err := h.BasketService.AddProduct(account, customerID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, item)
}

// GetBasketInfo 顾客购物篮明细，路径中的 :id 为顾客ID
func (h *Handler) GetBasketInfo(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	customerID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.BasketService.ListItems(account, customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, detail)
}

// DeleteBasketItem 删除购物篮行项目，路径中的 :id 为行项目ID
func (h *Handler) DeleteBasketItem(c *gin.Context) {
	account, ok := shared.RequireAccount(c)
	if !ok {
		return
	}
	itemID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.BasketService.RemoveItem(account, itemID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
