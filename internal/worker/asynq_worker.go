package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/service"

	"github.com/hibiken/asynq"
)

// PaymentEventApplier 支付事件处理入口
type PaymentEventApplier interface {
	ApplyPaymentEvent(ctx context.Context, eventID string) error
}

// Consumer 异步任务消费者
type Consumer struct {
	checkout PaymentEventApplier
}

// NewConsumer 从容器取出任务依赖
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil || c.CheckoutService == nil {
		return &Consumer{}
	}
	return &Consumer{checkout: c.CheckoutService}
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		return
	}
	for taskType, handler := range c.handlers() {
		mux.HandleFunc(taskType, handler)
	}
}

func (c *Consumer) handlers() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		queue.TaskCheckoutPaymentEvent: c.handleCheckoutPaymentEvent,
	}
}

// handleCheckoutPaymentEvent 返回 nil 表示无需重试
func (c *Consumer) handleCheckoutPaymentEvent(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseCheckoutPaymentEventPayload(task)
	if err != nil {
		// 载荷损坏重试无意义
		return fmt.Errorf("decode payment event: %v: %w", err, asynq.SkipRetry)
	}
	log := logger.SW("event_id", payload.EventID)
	if payload.EventID == "" || c.checkout == nil {
		log.Debugw("worker_payment_event_skipped", "checkout_nil", c.checkout == nil)
		return nil
	}

	err = c.checkout.ApplyPaymentEvent(ctx, payload.EventID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrPaymentEventNotFound):
		log.Debugw("worker_payment_event_not_found")
		return nil
	default:
		log.Warnw("worker_payment_event_failed", "error", err)
		return err
	}
}
