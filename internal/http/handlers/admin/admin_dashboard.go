package admin

import (
	"context"
	"time"

	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardQuery 仪表盘查询参数；range 取 today / 7d / 30d / custom
type DashboardQuery struct {
	Range        string     `form:"range" binding:"omitempty,oneof=today 7d 30d custom"`
	Timezone     string     `form:"tz"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	ForceRefresh bool       `form:"force_refresh"`
}

func (q DashboardQuery) toInput() service.DashboardQueryInput {
	return service.DashboardQueryInput{
		Range:        q.Range,
		From:         q.From,
		To:           q.To,
		Timezone:     q.Timezone,
		ForceRefresh: q.ForceRefresh,
	}
}

func dashboardHandler[T any](load func(context.Context, service.DashboardQueryInput) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query DashboardQuery
		if !shared.BindQuery(c, &query) {
			return
		}
		report, err := load(c.Request.Context(), query.toInput())
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, report)
	}
}

// GetDashboardOverview 总览指标
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	dashboardHandler(h.DashboardService.GetOverview)(c)
}

// GetDashboardTrends 按天结算趋势
func (h *Handler) GetDashboardTrends(c *gin.Context) {
	dashboardHandler(h.DashboardService.GetTrends)(c)
}

// GetDashboardRankings 商品排行
func (h *Handler) GetDashboardRankings(c *gin.Context) {
	dashboardHandler(h.DashboardService.GetRankings)(c)
}
