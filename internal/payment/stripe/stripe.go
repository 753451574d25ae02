// Package stripe 是 Stripe Checkout 兼容网关的最小客户端：创建/查询结算会话与 webhook 验签。
package stripe

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultCurrency          = "usd"
	defaultTimeout           = 5 * time.Second
	defaultWebhookToleranceS = 300

	// SignatureHeader webhook 签名头
	SignatureHeader = "Stripe-Signature"

	// successURL 中允许出现的会话 ID 占位符，由网关替换
	sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// 网关事件归一化后的支付状态
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
	StatusPending   = "pending"
)

// Config 网关配置
type Config struct {
	SecretKey               string
	WebhookSecret           string
	SuccessURL              string
	CancelURL               string
	APIBaseURL              string
	Currency                string
	Timeout                 time.Duration
	WebhookToleranceSeconds int
}

func (c *Config) normalize() {
	for _, field := range []*string{&c.SecretKey, &c.WebhookSecret, &c.SuccessURL, &c.CancelURL} {
		*field = strings.TrimSpace(*field)
	}
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
}

// ValidateConfig 校验调用网关 API 所需配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	urls := []struct {
		name  string
		value string
	}{
		{"api_base_url", cfg.APIBaseURL},
		{"success_url", strings.ReplaceAll(cfg.SuccessURL, sessionIDPlaceholder, "cs_placeholder")},
		{"cancel_url", cfg.CancelURL},
	}
	for _, u := range urls {
		if strings.TrimSpace(u.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrConfigInvalid, u.name)
		}
		if _, err := url.ParseRequestURI(strings.TrimSpace(u.value)); err != nil {
			return fmt.Errorf("%w: %s is invalid", ErrConfigInvalid, u.name)
		}
	}
	return nil
}

// Client 网关客户端，可并发使用
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建网关客户端
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Config 返回归一化后的配置副本
func (c *Client) Config() Config {
	return c.cfg
}
