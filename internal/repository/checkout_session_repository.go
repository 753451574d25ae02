package repository

import (
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// CheckoutSessionRepository 结算会话数据访问接口
type CheckoutSessionRepository interface {
	Create(session *models.CheckoutSession) error
	GetByID(id uint) (*models.CheckoutSession, error)
	GetByReference(reference string) (*models.CheckoutSession, error)
	GetByGatewaySessionID(gatewaySessionID string) (*models.CheckoutSession, error)
	GetByPaymentIntentID(paymentIntentID string) (*models.CheckoutSession, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	List(filter CheckoutSessionListFilter) ([]models.CheckoutSession, int64, error)
	ListPendingBefore(before time.Time, limit int) ([]models.CheckoutSession, error)
	WithTx(tx *gorm.DB) *GormCheckoutSessionRepository
}

// GormCheckoutSessionRepository GORM 实现
type GormCheckoutSessionRepository struct {
	db *gorm.DB
}

// NewCheckoutSessionRepository 创建结算会话仓库
func NewCheckoutSessionRepository(db *gorm.DB) *GormCheckoutSessionRepository {
	return &GormCheckoutSessionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCheckoutSessionRepository) WithTx(tx *gorm.DB) *GormCheckoutSessionRepository {
	if tx == nil {
		return r
	}
	return &GormCheckoutSessionRepository{db: tx}
}

// Create 创建结算会话
func (r *GormCheckoutSessionRepository) Create(session *models.CheckoutSession) error {
	return r.db.Create(session).Error
}

// GetByID 根据 ID 获取结算会话
func (r *GormCheckoutSessionRepository) GetByID(id uint) (*models.CheckoutSession, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByReference 根据本地引用号获取结算会话
func (r *GormCheckoutSessionRepository) GetByReference(reference string) (*models.CheckoutSession, error) {
	if reference == "" {
		return nil, nil
	}
	return r.first(r.db.Where("reference = ?", reference))
}

// GetByGatewaySessionID 根据网关会话 ID 获取结算会话
func (r *GormCheckoutSessionRepository) GetByGatewaySessionID(gatewaySessionID string) (*models.CheckoutSession, error) {
	if gatewaySessionID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("gateway_session_id = ?", gatewaySessionID))
}

// GetByPaymentIntentID 根据支付意图 ID 获取结算会话
func (r *GormCheckoutSessionRepository) GetByPaymentIntentID(paymentIntentID string) (*models.CheckoutSession, error) {
	if paymentIntentID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("payment_intent_id = ?", paymentIntentID))
}

func (r *GormCheckoutSessionRepository) first(query *gorm.DB) (*models.CheckoutSession, error) {
	return firstOrNil[models.CheckoutSession](query)
}

// UpdateFields 更新结算会话字段
func (r *GormCheckoutSessionRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.db.Model(&models.CheckoutSession{}).Where("id = ?", id).Updates(updates).Error
}

// List 结算会话列表
func (r *GormCheckoutSessionRepository) List(filter CheckoutSessionListFilter) ([]models.CheckoutSession, int64, error) {
	query := r.db.Model(&models.CheckoutSession{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	var sessions []models.CheckoutSession
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id DESC", &sessions)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListPendingBefore 获取早于指定时间仍停留在 session_created 的会话
func (r *GormCheckoutSessionRepository) ListPendingBefore(before time.Time, limit int) ([]models.CheckoutSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var sessions []models.CheckoutSession
	err := r.db.Where("status = ? AND created_at < ? AND gateway_session_id <> ''", constants.CheckoutStatusSessionCreated, before).
		Order("id ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
