package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const requestIDKey = "request_id"

// Response 统一响应信封，status_code 与 HTTP 状态码一致
type Response struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// PageResponse 列表响应信封
type PageResponse struct {
	Response
	Pagination Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// NewPagination 由总数计算页数
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

func write(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{StatusCode: status, Msg: msg, Data: data})
}

// Success 200
func Success(c *gin.Context, data interface{}) {
	write(c, CodeOK, "success", data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	write(c, CodeCreated, "created", data)
}

// NoContent 204，无响应体
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SuccessWithPage 200 + 分页信息
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		Response:   Response{StatusCode: CodeOK, Msg: "success", Data: data},
		Pagination: pagination,
	})
}

// Error 错误响应；非 4xx/5xx 的状态码按 500 处理，data 中附带 request_id
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 带附加数据的错误响应
func ErrorWithData(c *gin.Context, statusCode int, msg string, data gin.H) {
	statusCode = ErrorStatus(statusCode)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	write(c, statusCode, msg, withRequestID(c, data))
}

// ErrorStatus 把不合法的错误状态码收敛为 500
func ErrorStatus(code int) int {
	if code < CodeBadRequest || code > 599 {
		return CodeInternal
	}
	return code
}

// NotFound 404
func NotFound(c *gin.Context, msg string) { Error(c, CodeNotFound, msg) }

// Unauthorized 401
func Unauthorized(c *gin.Context, msg string) { Error(c, CodeUnauthorized, msg) }

// Forbidden 403
func Forbidden(c *gin.Context, msg string) { Error(c, CodeForbidden, msg) }

// BadRequest 400
func BadRequest(c *gin.Context, msg string) { Error(c, CodeBadRequest, msg) }

func withRequestID(c *gin.Context, data gin.H) interface{} {
	requestID := ""
	if c != nil {
		requestID = c.GetString(requestIDKey)
	}
	if requestID == "" {
		if data == nil {
			return nil
		}
		return data
	}
	merged := gin.H{requestIDKey: requestID}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}
