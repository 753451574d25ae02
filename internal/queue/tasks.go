package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bazaar-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCheckoutPaymentEvent 支付事件处理任务
	TaskCheckoutPaymentEvent = constants.TaskCheckoutPaymentEvent
)

// CheckoutPaymentEventPayload 支付事件任务载荷
type CheckoutPaymentEventPayload struct {
	EventID string `json:"event_id"`
}

// NewCheckoutPaymentEventTask 创建支付事件处理任务
func NewCheckoutPaymentEventTask(payload CheckoutPaymentEventPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.EventID) == "" {
		return nil, fmt.Errorf("event_id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCheckoutPaymentEvent, body), nil
}

// ParseCheckoutPaymentEventPayload 解析支付事件任务载荷
func ParseCheckoutPaymentEventPayload(task *asynq.Task) (CheckoutPaymentEventPayload, error) {
	var payload CheckoutPaymentEventPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	payload.EventID = strings.TrimSpace(payload.EventID)
	return payload, nil
}

// paymentEventTaskID 同一事件只入队一次
func paymentEventTaskID(eventID string) string {
	return "payment_event:" + eventID
}
