package repository

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentEventRepository 网关事件数据访问接口
type PaymentEventRepository interface {
	CreateIfAbsent(event *models.PaymentEvent) (bool, error)
	GetByEventID(eventID string) (*models.PaymentEvent, error)
	MarkStatus(eventID, status string, processedAt time.Time) error
	List(filter PaymentEventListFilter) ([]models.PaymentEvent, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentEventRepository
}

// GormPaymentEventRepository GORM 实现
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewPaymentEventRepository 创建网关事件仓库
func NewPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentEventRepository) WithTx(tx *gorm.DB) *GormPaymentEventRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentEventRepository{db: tx}
}

// CreateIfAbsent 按 event_id 幂等写入；返回 true 表示本次新写入
func (r *GormPaymentEventRepository) CreateIfAbsent(event *models.PaymentEvent) (bool, error) {
	if event == nil {
		return false, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByEventID 根据网关事件 ID 获取记录
func (r *GormPaymentEventRepository) GetByEventID(eventID string) (*models.PaymentEvent, error) {
	return firstOrNil[models.PaymentEvent](r.db.Where("event_id = ?", eventID))
}

// MarkStatus 更新事件处理状态
func (r *GormPaymentEventRepository) MarkStatus(eventID, status string, processedAt time.Time) error {
	return r.db.Model(&models.PaymentEvent{}).Where("event_id = ?", eventID).Updates(map[string]interface{}{
		"status":       status,
		"processed_at": processedAt,
	}).Error
}

// List 网关事件列表
func (r *GormPaymentEventRepository) List(filter PaymentEventListFilter) ([]models.PaymentEvent, int64, error) {
	query := r.db.Model(&models.PaymentEvent{})
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	var events []models.PaymentEvent
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id DESC", &events)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
