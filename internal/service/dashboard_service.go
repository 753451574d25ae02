package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/payment/stripe"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
	dashboardRankingLimit  = 10
	dashboardDayLayout     = "2006-01-02"
)

// ErrDashboardRangeInvalid 仪表盘时间范围非法
var ErrDashboardRangeInvalid = fmt.Errorf("%w: invalid dashboard range", ErrValidation)

// 预置统计范围对应的天数（含今天）
var dashboardPresetDays = map[string]int{"today": 1, "7d": 7, "30d": 30}

// DashboardService 后台首页统计：账号、目录、结算
type DashboardService struct {
	repo repository.DashboardRepository
	cfg  *config.Config
	now  func() time.Time
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, cfg *config.Config) *DashboardService {
	return &DashboardService{repo: repo, cfg: cfg, now: time.Now}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardWindow 统计窗口，To 为闭区间最后一秒
type DashboardWindow struct {
	Range    string `json:"range"`
	From     string `json:"from"`
	To       string `json:"to"`
	Timezone string `json:"timezone"`
}

// DashboardOverviewResponse 仪表盘总览
type DashboardOverviewResponse struct {
	DashboardWindow
	Currency string       `json:"currency"`
	KPI      DashboardKPI `json:"kpi"`
}

// DashboardKPI 核心指标
type DashboardKPI struct {
	Sellers             int64  `json:"sellers"`
	Customers           int64  `json:"customers"`
	NewUsers            int64  `json:"new_users"`
	Products            int64  `json:"products"`
	Categories          int64  `json:"categories"`
	Comments            int64  `json:"comments"`
	CheckoutsTotal      int64  `json:"checkouts_total"`
	CheckoutsPaid       int64  `json:"checkouts_paid"`
	CheckoutsFailed     int64  `json:"checkouts_failed"`
	CheckoutSuccessRate string `json:"checkout_success_rate"`
	PaidAmount          string `json:"paid_amount"`
	OpenBasketItems     int64  `json:"open_basket_items"`
	ProcessedWebhooks   int64  `json:"processed_webhooks"`
}

// DashboardTrendResponse 按天结算趋势
type DashboardTrendResponse struct {
	DashboardWindow
	Points []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 单日结算数
type DashboardTrendPoint struct {
	Date           string `json:"date"`
	CheckoutsTotal int64  `json:"checkouts_total"`
	CheckoutsPaid  int64  `json:"checkouts_paid"`
}

// DashboardRankingsResponse 商品排行
type DashboardRankingsResponse struct {
	DashboardWindow
	TopProducts []DashboardProductRanking `json:"top_products"`
	TopRated    []DashboardRatedProduct   `json:"top_rated"`
}

// DashboardProductRanking 成交排行项
type DashboardProductRanking struct {
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	PaidCheckouts int64  `json:"paid_checkouts"`
	Quantity      int64  `json:"quantity"`
	PaidAmount    string `json:"paid_amount"`
}

// DashboardRatedProduct 评分排行项
type DashboardRatedProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Rating    string `json:"rating"`
	Comments  int64  `json:"comments"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

func (w dashboardWindow) info() DashboardWindow {
	return DashboardWindow{
		Range:    w.rangeKey,
		From:     w.startAt.Format(time.RFC3339),
		To:       w.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: w.timezone,
	}
}

func (w dashboardWindow) cacheKey(report string) string {
	return fmt.Sprintf("dashboard:%s:%s:%d:%d:%s", report, w.rangeKey, w.startAt.Unix(), w.endAt.Unix(), w.timezone)
}

// cachedReport 读缓存，未命中时构建并回写；缓存故障只记录日志
func cachedReport[T any](ctx context.Context, key string, force bool, build func() (*T, error)) (*T, error) {
	if !force {
		var cached T
		hit, err := cache.GetJSON(ctx, key, &cached)
		if err != nil {
			logger.Warnw("dashboard_cache_read_failed", "key", key, "error", err)
		} else if hit {
			return &cached, nil
		}
	}
	report, err := build()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, key, report, dashboardCacheTTL); err != nil {
		logger.Warnw("dashboard_cache_write_failed", "key", key, "error", err)
	}
	return report, nil
}

// GetOverview 总览指标
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, window.cacheKey("overview"), input.ForceRefresh, func() (*DashboardOverviewResponse, error) {
		row, err := s.repo.GetOverview(window.startAt, window.endAt)
		if err != nil {
			return nil, err
		}
		currency := s.currency()
		return &DashboardOverviewResponse{
			DashboardWindow: window.info(),
			Currency:        strings.ToUpper(currency),
			KPI: DashboardKPI{
				Sellers:             row.Sellers,
				Customers:           row.Customers,
				NewUsers:            row.NewUsers,
				Products:            row.Products,
				Categories:          row.Categories,
				Comments:            row.Comments,
				CheckoutsTotal:      row.CheckoutsTotal,
				CheckoutsPaid:       row.CheckoutsPaid,
				CheckoutsFailed:     row.CheckoutsFailed,
				CheckoutSuccessRate: percentOf(row.CheckoutsPaid, row.CheckoutsTotal),
				PaidAmount:          stripe.FromMinorAmount(row.PaidAmountMinor, currency),
				OpenBasketItems:     row.OpenBasketItems,
				ProcessedWebhooks:   row.ProcessedWebhooks,
			},
		}, nil
	})
}

// GetTrends 按天结算趋势，无数据的日期补零
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, window.cacheKey("trends"), input.ForceRefresh, func() (*DashboardTrendResponse, error) {
		rows, err := s.repo.GetCheckoutTrends(window.startAt, window.endAt)
		if err != nil {
			return nil, err
		}
		byDay := make(map[string]repository.DashboardCheckoutTrendRow, len(rows))
		for _, row := range rows {
			byDay[row.Day] = row
		}
		points := make([]DashboardTrendPoint, 0)
		for _, day := range dashboardDays(window) {
			row := byDay[day]
			points = append(points, DashboardTrendPoint{Date: day, CheckoutsTotal: row.CheckoutsTotal, CheckoutsPaid: row.CheckoutsPaid})
		}
		return &DashboardTrendResponse{DashboardWindow: window.info(), Points: points}, nil
	})
}

// GetRankings 成交排行与评分排行
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}
	window, err := resolveDashboardWindow(input, s.now())
	if err != nil {
		return nil, err
	}
	return cachedReport(ctx, window.cacheKey("rankings"), input.ForceRefresh, func() (*DashboardRankingsResponse, error) {
		sold, err := s.repo.GetTopProducts(window.startAt, window.endAt, dashboardRankingLimit)
		if err != nil {
			return nil, err
		}
		rated, err := s.repo.GetTopRatedProducts(dashboardRankingLimit)
		if err != nil {
			return nil, err
		}

		currency := s.currency()
		report := &DashboardRankingsResponse{
			DashboardWindow: window.info(),
			TopProducts:     make([]DashboardProductRanking, 0, len(sold)),
			TopRated:        make([]DashboardRatedProduct, 0, len(rated)),
		}
		for _, row := range sold {
			report.TopProducts = append(report.TopProducts, DashboardProductRanking{
				ProductID:     row.ProductID,
				Name:          displayName(row.Name),
				PaidCheckouts: row.PaidCheckouts,
				Quantity:      row.Quantity,
				PaidAmount:    stripe.FromMinorAmount(row.PaidAmountMinor, currency),
			})
		}
		for _, row := range rated {
			report.TopRated = append(report.TopRated, DashboardRatedProduct{
				ProductID: row.ProductID,
				Name:      displayName(row.Name),
				Rating:    row.Rating.String(),
				Comments:  row.CommentCount,
			})
		}
		return report, nil
	})
}

func (s *DashboardService) currency() string {
	if s != nil && s.cfg != nil {
		if currency := strings.ToLower(strings.TrimSpace(s.cfg.Checkout.Currency)); currency != "" {
			return currency
		}
	}
	return constants.DefaultCurrency
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}
	location := time.Local
	if tz := strings.TrimSpace(input.Timezone); tz != "" {
		if loaded, err := time.LoadLocation(tz); err == nil {
			location = loaded
		}
	}
	window := dashboardWindow{rangeKey: rangeKey, timezone: location.String()}

	if days, ok := dashboardPresetDays[rangeKey]; ok {
		local := now.In(location)
		tomorrow := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location).AddDate(0, 0, 1)
		window.startAt = tomorrow.AddDate(0, 0, -days)
		window.endAt = tomorrow
		return window, nil
	}
	if rangeKey != "custom" || input.From == nil || input.To == nil {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	window.startAt = input.From.In(location)
	window.endAt = input.To.In(location).Add(time.Second)
	span := window.endAt.Sub(window.startAt)
	if span <= 0 || span > 24*time.Hour*dashboardCustomMaxDays+time.Second {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func dashboardDays(w dashboardWindow) []string {
	days := make([]string, 0)
	start := w.startAt
	for cursor := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()); cursor.Before(w.endAt); cursor = cursor.AddDate(0, 0, 1) {
		days = append(days, cursor.Format(dashboardDayLayout))
	}
	return days
}

func percentOf(part, total int64) string {
	if total <= 0 {
		return "0.00"
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).StringFixed(2)
}

func displayName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return "-"
}
