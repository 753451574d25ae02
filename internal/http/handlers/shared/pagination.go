package shared

import (
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	fallbackPageSize    = 10
	fallbackMaxPageSize = 100
)

// NormalizePagination 归一化分页参数
func NormalizePagination(cfg *config.PaginationConfig, page, pageSize int) (int, int) {
	defaultSize, maxSize := fallbackPageSize, fallbackMaxPageSize
	if cfg != nil {
		if cfg.DefaultPageSize > 0 {
			defaultSize = cfg.DefaultPageSize
		}
		if cfg.MaxPageSize > 0 {
			maxSize = cfg.MaxPageSize
		}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

// ParsePagination 读取 page / page_size 查询参数，非法值按默认处理
func ParsePagination(c *gin.Context, cfg *config.PaginationConfig) (int, int) {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page")))
	pageSize, _ := strconv.Atoi(strings.TrimSpace(c.Query("page_size")))
	return NormalizePagination(cfg, page, pageSize)
}

// BuildPagination 构建分页信息
func BuildPagination(page, pageSize int, total int64) response.Pagination {
	return response.NewPagination(page, pageSize, total)
}

// ParseUintParam 读取路径中的正整数 ID，非法时返回 400
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// ParseUintQuery 读取可选的正整数查询参数，缺失或非法时返回 0
func ParseUintQuery(c *gin.Context, name string) uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
