package shared

import (
	"errors"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "internal server error"

// MappedError 定义业务错误到接口错误响应的映射关系
// Message 为空时使用错误本身的文本
type MappedError struct {
	Target  error
	Code    int
	Message string
}

// DefaultErrorRules 按根错误映射 HTTP 状态码
var DefaultErrorRules = []MappedError{
	{Target: service.ErrSignatureInvalid, Code: response.CodeBadRequest, Message: "invalid webhook signature"},
	{Target: service.ErrPaymentGateway, Code: response.CodeInternal, Message: "payment gateway unavailable"},
	{Target: service.ErrValidation, Code: response.CodeBadRequest},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized},
	{Target: service.ErrInvalidToken, Code: response.CodeUnauthorized},
	{Target: service.ErrPermissionDenied, Code: response.CodeForbidden},
	{Target: service.ErrNotFound, Code: response.CodeNotFound},
	{Target: service.ErrConflict, Code: response.CodeConflict},
}

// RequestLog 提供携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按默认规则返回错误响应；未匹配的错误记录日志后返回 500
func RespondError(c *gin.Context, err error) {
	RespondMappedError(c, err, DefaultErrorRules, response.CodeInternal, internalErrorMessage)
}

// RespondMappedError 按规则表返回错误响应
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			msg := rule.Message
			if msg == "" {
				msg = err.Error()
			}
			var cause error
			if rule.Code >= response.CodeInternal {
				cause = err
			}
			RespondErrorWithMsg(c, rule.Code, msg, cause)
			return
		}
	}
	RespondErrorWithMsg(c, fallbackCode, fallbackMsg, err)
}

// ConcatErrorRules 合并多组映射规则，靠前的优先
func ConcatErrorRules(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	code = response.ErrorStatus(code)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, msg)
}
