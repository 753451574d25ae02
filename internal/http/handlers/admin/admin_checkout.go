package admin

import (
	"strings"

	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetCheckoutSessions 结算会话列表
func (h *Handler) GetCheckoutSessions(c *gin.Context) {
	page, pageSize := h.pagination(c)
	sessions, total, err := h.CheckoutService.ListSessions(repository.CheckoutSessionListFilter{
		Page:       page,
		PageSize:   pageSize,
		Status:     strings.TrimSpace(c.Query("status")),
		ProductID:  shared.ParseUintQuery(c, "product_id"),
		CustomerID: shared.ParseUintQuery(c, "customer_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, sessions, shared.BuildPagination(page, pageSize, total))
}

// GetCheckoutSession 结算会话详情
func (h *Handler) GetCheckoutSession(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	session, err := h.CheckoutService.GetSession(id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// SyncCheckoutSession 向网关查询并同步会话状态
func (h *Handler) SyncCheckoutSession(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	session, err := h.CheckoutService.SyncSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infow("admin_checkout_session_synced",
		"operator_id", currentAdminID(c),
		"session_id", session.ID,
		"status", session.Status,
	)
	response.Success(c, session)
}

// GetPaymentEvents 网关事件列表
func (h *Handler) GetPaymentEvents(c *gin.Context) {
	page, pageSize := h.pagination(c)
	events, total, err := h.CheckoutService.ListPaymentEvents(repository.PaymentEventListFilter{
		Page:      page,
		PageSize:  pageSize,
		EventType: strings.TrimSpace(c.Query("event_type")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithPage(c, events, shared.BuildPagination(page, pageSize, total))
}
