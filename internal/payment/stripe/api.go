package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// 响应体读取上限
const maxResponseBytes = 1 << 20

// CheckoutInput 创建结算会话输入，单个行项目
type CheckoutInput struct {
	Reference   string
	ProductID   uint
	ProductName string
	UnitPrice   decimal.Decimal // 主货币单位
	Quantity    int
	Currency    string
}

// CheckoutResult 创建结算会话返回
type CheckoutResult struct {
	SessionID       string
	PaymentIntentID string
	URL             string
	UnitAmount      int64
	Currency        string
}

// SessionStatus 查询结算会话返回
type SessionStatus struct {
	SessionID       string
	PaymentIntentID string
	Reference       string
	Status          string
	AmountTotal     int64
	Currency        string
}

// expandableID 兼容网关返回字符串 ID 或展开后的对象
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = ""
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = expandableID(strings.TrimSpace(id))
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(strings.TrimSpace(obj.ID))
	return nil
}

// checkoutSessionObject checkout.session 对象中用到的字段
type checkoutSessionObject struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentIntent     expandableID      `json:"payment_intent"`
	PaymentStatus     string            `json:"payment_status"`
	Status            string            `json:"status"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError 网关返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe api status %d: %s %s", e.StatusCode, e.Type, e.Code)
}

// Unwrap 使 errors.Is(err, ErrResponseInvalid) 成立
func (e *APIError) Unwrap() error {
	return ErrResponseInvalid
}

// CreateCheckoutSession 创建 payment 模式的结算会话
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := ValidateConfig(&c.cfg); err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}
	unitAmount, err := ToMinorAmount(input.UnitPrice, currency)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		name = reference
	}

	form := url.Values{
		"mode":                 {"payment"},
		"success_url":          {c.cfg.SuccessURL},
		"cancel_url":           {c.cfg.CancelURL},
		"client_reference_id":  {reference},
		"metadata[reference]":  {reference},
		"metadata[product_id]": {strconv.FormatUint(uint64(input.ProductID), 10)},
		"payment_intent_data[metadata][reference]": {reference},
	}
	item := "line_items[0]"
	form.Set(item+"[quantity]", strconv.Itoa(quantity))
	form.Set(item+"[price_data][currency]", currency)
	form.Set(item+"[price_data][unit_amount]", strconv.FormatInt(unitAmount, 10))
	form.Set(item+"[price_data][product_data][name]", name)

	var session checkoutSessionObject
	if err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return &CheckoutResult{
		SessionID:       session.ID,
		PaymentIntentID: string(session.PaymentIntent),
		URL:             session.URL,
		UnitAmount:      unitAmount,
		Currency:        currency,
	}, nil
}

// RetrieveCheckoutSession 查询网关侧结算会话状态
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if err := ValidateConfig(&c.cfg); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrConfigInvalid)
	}
	var session checkoutSessionObject
	if err := c.call(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing checkout session id", ErrResponseInvalid)
	}
	return &SessionStatus{
		SessionID:       session.ID,
		PaymentIntentID: string(session.PaymentIntent),
		Reference:       strings.TrimSpace(session.ClientReferenceID),
		Status:          checkoutSessionStatus(session.PaymentStatus, session.Status),
		AmountTotal:     session.AmountTotal,
		Currency:        strings.ToLower(session.Currency),
	}, nil
}

// call 发送表单请求并把 2xx 响应解码到 out
func (c *Client) call(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed apiErrorBody
		if json.Unmarshal(payload, &parsed) == nil {
			apiErr.Type = parsed.Error.Type
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrResponseInvalid, err)
	}
	return nil
}
