package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WebhookEvent 验签通过并归一化的 webhook 事件
type WebhookEvent struct {
	EventID         string
	EventType       string
	ObjectType      string
	ObjectID        string
	SessionID       string
	PaymentIntentID string
	Reference       string
	Status          string
	AmountMinor     int64
	Currency        string
	Raw             json.RawMessage
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// eventObject checkout.session 与 payment_intent 两类对象字段的并集
type eventObject struct {
	checkoutSessionObject
	Object         string `json:"object"`
	Amount         int64  `json:"amount"`
	AmountReceived int64  `json:"amount_received"`
}

// 事件类型本身即可确定的支付结果
var eventTypeStatus = map[string]string{
	"checkout.session.completed":               StatusSucceeded,
	"checkout.session.async_payment_succeeded": StatusSucceeded,
	"payment_intent.succeeded":                 StatusSucceeded,
	"checkout.session.expired":                 StatusExpired,
	"checkout.session.async_payment_failed":    StatusFailed,
	"payment_intent.payment_failed":            StatusFailed,
	"payment_intent.canceled":                  StatusFailed,
	"payment_intent.processing":                StatusPending,
}

// VerifyAndParseWebhook 使用客户端配置校验并解析 webhook
func (c *Client) VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	return VerifyAndParseWebhook(&c.cfg, headers, body, now)
}

// VerifyAndParseWebhook 先验签再解析；签名问题统一返回 ErrSignatureInvalid
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	if cfg == nil || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	tolerance := time.Duration(cfg.WebhookToleranceSeconds) * time.Second
	if tolerance <= 0 {
		tolerance = defaultWebhookToleranceS * time.Second
	}
	if err := verifySignature(cfg.WebhookSecret, headerValue(headers, SignatureHeader), body, now, tolerance); err != nil {
		return nil, err
	}
	return parseEvent(body)
}

func verifySignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if header == "" {
		return fmt.Errorf("%w: %s is required", ErrSignatureInvalid, SignatureHeader)
	}
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	skew := now.Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}
	expected := []byte(computeSignature(secret, timestamp, body))
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), expected) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching v1 signature", ErrSignatureInvalid)
}

func parseEvent(body []byte) (*WebhookEvent, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", ErrResponseInvalid, err)
	}
	if strings.TrimSpace(envelope.Type) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	if len(envelope.Data.Object) == 0 || string(envelope.Data.Object) == "null" {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}
	var obj eventObject
	if err := json.Unmarshal(envelope.Data.Object, &obj); err != nil {
		return nil, fmt.Errorf("%w: decode event object: %v", ErrResponseInvalid, err)
	}

	event := &WebhookEvent{
		EventID:    strings.TrimSpace(envelope.ID),
		EventType:  strings.TrimSpace(envelope.Type),
		ObjectType: strings.TrimSpace(obj.Object),
		ObjectID:   strings.TrimSpace(obj.ID),
		Reference:  strings.TrimSpace(obj.Metadata["reference"]),
		Currency:   strings.ToLower(strings.TrimSpace(obj.Currency)),
		Raw:        json.RawMessage(body),
	}
	status, known := eventTypeStatus[strings.ToLower(event.EventType)]

	switch event.ObjectType {
	case "checkout.session":
		event.SessionID = event.ObjectID
		event.PaymentIntentID = string(obj.PaymentIntent)
		if ref := strings.TrimSpace(obj.ClientReferenceID); ref != "" {
			event.Reference = ref
		}
		event.AmountMinor = obj.AmountTotal
		if !known {
			status = checkoutSessionStatus(obj.PaymentStatus, obj.Status)
		}
	case "payment_intent":
		event.PaymentIntentID = event.ObjectID
		event.AmountMinor = obj.AmountReceived
		if event.AmountMinor <= 0 {
			event.AmountMinor = obj.Amount
		}
		if !known {
			status = paymentIntentStatus(obj.Status)
		}
	}
	event.Status = status
	return event, nil
}

func checkoutSessionStatus(paymentStatus, sessionStatus string) string {
	paymentStatus = strings.ToLower(strings.TrimSpace(paymentStatus))
	switch {
	case paymentStatus == "paid":
		return StatusSucceeded
	case strings.EqualFold(sessionStatus, "expired"):
		return StatusExpired
	case strings.EqualFold(sessionStatus, "complete") && paymentStatus == "no_payment_required":
		return StatusSucceeded
	default:
		return StatusPending
	}
}

func paymentIntentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return StatusSucceeded
	case "canceled", "requires_payment_method":
		return StatusFailed
	default:
		return StatusPending
	}
}

// ComputeSignature v1 签名：hex(HMAC-SHA256(secret, "<t>.<payload>"))
func ComputeSignature(secret string, timestamp int64, body []byte) string {
	return computeSignature(secret, timestamp, body)
}

// SignatureHeaderValue 生成 Stripe-Signature 头，供测试与本地联调
func SignatureHeaderValue(secret string, timestamp int64, body []byte) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + computeSignature(secret, timestamp, body)
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSignatureHeader 解析 "t=...,v1=...,v1=..."，忽略未知 scheme
func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp == 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for name, value := range headers {
		if strings.EqualFold(strings.TrimSpace(name), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
