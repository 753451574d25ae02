package public

import (
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 前台/公开接口处理器入口
// 说明：该处理器服务游客、卖家与顾客侧 API，角色放行由路由层 casbin 中间件完成。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func (h *Handler) pagination(c *gin.Context) (int, int) {
	if h.Container == nil || h.Config == nil {
		return shared.ParsePagination(c, nil)
	}
	return shared.ParsePagination(c, &h.Config.Pagination)
}

func respondError(c *gin.Context, err error) {
	shared.RespondError(c, err)
}
