package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitUnavailableMessage = "rate limit unavailable"
	rateLimitKeyBodyLimit       = 64 << 10
)

// RateLimitKeyFunc 从请求中提取限流维度
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

// LoginRateLimitRule 登录接口限流规则，key 前缀沿用 redis.prefix
func LoginRateLimitRule(cfg *config.Config) RateLimitRule {
	prefix := strings.TrimSpace(cfg.Redis.Prefix)
	if prefix == "" {
		prefix = "bz"
	}
	return RateLimitRule{
		Prefix:        prefix + ":rate:login",
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

// windowCounter 在窗口内累加一次命中，返回当前计数与剩余秒数
type windowCounter func(ctx context.Context, key string, windowSeconds int) (count int64, ttl int64, err error)

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

func redisWindowCounter(client *redis.Client) windowCounter {
	return func(ctx context.Context, key string, windowSeconds int) (int64, int64, error) {
		values, err := rateLimitScript.Run(ctx, client, []string{key}, windowSeconds).Slice()
		if err != nil {
			return 0, 0, err
		}
		if len(values) < 2 {
			return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
		}
		count, ok := toInt64(values[0])
		if !ok {
			return 0, 0, fmt.Errorf("unexpected rate limit counter: %v", values[0])
		}
		ttl, _ := toInt64(values[1])
		return count, ttl, nil
	}
}

// RateLimitMiddleware Redis 固定窗口限流；client 为空时不限流
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil || !rule.enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimitHandler(redisWindowCounter(client), rule, keyFunc)
}

func rateLimitHandler(counter windowCounter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}

		count, ttl, err := counter(c.Request.Context(), rule.key(raw), rule.WindowSeconds)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "prefix", rule.Prefix, "error", err)
			response.Error(c, response.CodeInternal, rateLimitUnavailableMessage)
			c.Abort()
			return
		}
		if count <= int64(rule.MaxRequests) {
			c.Next()
			return
		}

		wait := retryAfterSeconds(ttl, rule.WindowSeconds)
		msg := strings.TrimSpace(rule.Message)
		if msg == "" {
			msg = "too many requests"
		}
		logger.Infow("rate_limit_exceeded", "prefix", rule.Prefix, "count", count, "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(wait))
		response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("%s, retry in %ds", msg, wait))
		c.Abort()
	}
}

func retryAfterSeconds(ttl int64, windowSeconds int) int {
	switch {
	case ttl > 0:
		return int(ttl)
	case windowSeconds > 0:
		return windowSeconds
	default:
		return 1
	}
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 按 JSON 字段（小写）+ IP 限流，字段缺失时退化为 IP
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// readJSONField 读取请求体中的字符串字段，读取后还原 body 供后续绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, rateLimitKeyBodyLimit))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if err != nil || len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
