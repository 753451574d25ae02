package public

import (
	"io"
	"net/http"

	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/payment/stripe"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// CreateCheckoutRequest 发起结算请求
type CreateCheckoutRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1,max=99"`
}

// CreateCheckout 为单个商品创建网关结算会话
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	session, err := h.CheckoutService.CreateSession(c.Request.Context(), shared.CurrentAccount(c), service.CreateCheckoutInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, gin.H{"checkout_url": session.CheckoutURL})
}

// CheckoutWebhook 接收网关回调；签名校验先于任何解析
// 业务处理结果不影响 200 应答
func (h *Handler) CheckoutWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.BadRequest(c, "invalid webhook payload")
		return
	}
	headers := map[string]string{
		stripe.SignatureHeader: c.GetHeader(stripe.SignatureHeader),
	}
	if err := h.CheckoutService.HandleWebhook(c.Request.Context(), service.WebhookInput{
		Headers: headers,
		Body:    body,
	}); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}
