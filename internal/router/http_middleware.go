package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Cache-Control", "X-Requested-With", requestIDHeader}
)

// corsPolicy 启动时计算好的跨域响应头
type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	static      http.Header
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		static:      http.Header{},
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			p.anyOrigin = true
			continue
		}
		if origin != "" {
			p.origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		p.anyOrigin = true
	}

	p.static.Set("Access-Control-Allow-Methods", strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "))
	p.static.Set("Access-Control-Allow-Headers", strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "))
	p.static.Set("Access-Control-Expose-Headers", requestIDHeader+", Retry-After")
	if cfg.MaxAge > 0 {
		p.static.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	if cfg.AllowCredentials {
		p.static.Set("Access-Control-Allow-Credentials", "true")
	}
	return p
}

// allowOrigin 返回 Access-Control-Allow-Origin 的取值，空串表示不放行
// 携带凭证时不能回 *，改为回显请求来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.anyOrigin {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok && origin != "" {
		return origin
	}
	return ""
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		for key, values := range policy.static {
			header[key] = values
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 透传或生成请求 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// LoggerMiddleware 请求日志，5xx 记 error，4xx 记 warn
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			sugar.Errorw("http_request", kv...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("http_request", kv...)
		default:
			sugar.Infow("http_request", kv...)
		}
	}
}
