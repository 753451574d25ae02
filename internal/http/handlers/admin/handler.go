package admin

import (
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，路由层已限定 admin 角色。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
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

func currentAdminID(c *gin.Context) uint {
	value, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	id, _ := value.(uint)
	return id
}
