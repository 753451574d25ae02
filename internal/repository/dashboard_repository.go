package repository

import (
	"fmt"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetCheckoutTrends(startAt, endAt time.Time) ([]DashboardCheckoutTrendRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
	GetTopRatedProducts(limit int) ([]DashboardRatedProductRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	Sellers           int64
	Customers         int64
	NewUsers          int64
	Products          int64
	Categories        int64
	Comments          int64
	CheckoutsTotal    int64
	CheckoutsPaid     int64
	CheckoutsFailed   int64
	PaidAmountMinor   int64
	OpenBasketItems   int64
	ProcessedWebhooks int64
}

// DashboardCheckoutTrendRow 结算趋势统计
type DashboardCheckoutTrendRow struct {
	Day            string
	CheckoutsTotal int64
	CheckoutsPaid  int64
}

// DashboardProductRankingRow 商品成交排行原始行
type DashboardProductRankingRow struct {
	ProductID       uint
	Name            string
	PaidCheckouts   int64
	Quantity        int64
	PaidAmountMinor int64
}

// DashboardRatedProductRow 高评分商品原始行
type DashboardRatedProductRow struct {
	ProductID    uint
	Name         string
	Rating       models.Rating
	CommentCount int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func paidCheckoutStatuses() []string {
	return []string{constants.CheckoutStatusPaymentSucceeded}
}

func failedCheckoutStatuses() []string {
	return []string{constants.CheckoutStatusFailed, constants.CheckoutStatusPaymentFailed}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	if err := r.db.Model(&models.User{}).Where("role = ?", constants.RoleSeller).Count(&result.Sellers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.User{}).Where("role = ?", constants.RoleCustomer).Count(&result.Customers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Product{}).Count(&result.Products).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Category{}).Count(&result.Categories).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Comment{}).Count(&result.Comments).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.BasketItem{}).Count(&result.OpenBasketItems).Error; err != nil {
		return result, err
	}

	checkoutBase := func() *gorm.DB {
		return r.db.Model(&models.CheckoutSession{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := checkoutBase().Count(&result.CheckoutsTotal).Error; err != nil {
		return result, err
	}
	if err := checkoutBase().Where("status IN ?", paidCheckoutStatuses()).Count(&result.CheckoutsPaid).Error; err != nil {
		return result, err
	}
	if err := checkoutBase().Where("status IN ?", failedCheckoutStatuses()).Count(&result.CheckoutsFailed).Error; err != nil {
		return result, err
	}
	if err := checkoutBase().
		Where("status IN ?", paidCheckoutStatuses()).
		Select("COALESCE(SUM(unit_amount * quantity), 0)").
		Scan(&result.PaidAmountMinor).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.PaymentEvent{}).
		Where("created_at >= ? AND created_at < ? AND status = ?", startAt, endAt, constants.PaymentEventStatusProcessed).
		Count(&result.ProcessedWebhooks).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetCheckoutTrends 获取结算趋势
func (r *GormDashboardRepository) GetCheckoutTrends(startAt, endAt time.Time) ([]DashboardCheckoutTrendRow, error) {
	type countRow struct {
		Day   string
		Total int64
	}

	dayExpr := "CAST(date(created_at) AS TEXT)"
	var totals []countRow
	if err := r.db.Model(&models.CheckoutSession{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []countRow
	if err := r.db.Model(&models.CheckoutSession{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, paidCheckoutStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]int64, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item.Total
	}

	result := make([]DashboardCheckoutTrendRow, 0, len(totals))
	for _, item := range totals {
		result = append(result, DashboardCheckoutTrendRow{
			Day:            item.Day,
			CheckoutsTotal: item.Total,
			CheckoutsPaid:  paidMap[item.Day],
		})
	}
	return result, nil
}

// GetTopProducts 获取成交商品排行榜
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardProductRankingRow, 0)
	if err := r.db.Model(&models.CheckoutSession{}).
		Select(`
			checkout_sessions.product_id as product_id,
			COALESCE(products.name, '') as name,
			COUNT(*) as paid_checkouts,
			COALESCE(SUM(checkout_sessions.quantity), 0) as quantity,
			COALESCE(SUM(checkout_sessions.unit_amount * checkout_sessions.quantity), 0) as paid_amount_minor
		`).
		Joins("LEFT JOIN products ON products.id = checkout_sessions.product_id").
		Where("checkout_sessions.created_at >= ? AND checkout_sessions.created_at < ? AND checkout_sessions.status IN ?", startAt, endAt, paidCheckoutStatuses()).
		Group("checkout_sessions.product_id, products.name").
		Order("paid_amount_minor DESC, quantity DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopRatedProducts 获取评分最高的商品
func (r *GormDashboardRepository) GetTopRatedProducts(limit int) ([]DashboardRatedProductRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardRatedProductRow, 0)
	if err := r.db.Model(&models.Product{}).
		Select(`
			products.id as product_id,
			products.name as name,
			products.rating as rating,
			COUNT(comments.id) as comment_count
		`).
		Joins("LEFT JOIN comments ON comments.product_id = products.id").
		Group("products.id, products.name, products.rating").
		Order("products.rating DESC, comment_count DESC, products.id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
