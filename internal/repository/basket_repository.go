package repository

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BasketRepository 购物篮数据访问接口
type BasketRepository interface {
	GetByCustomerID(customerID uint) (*models.Basket, error)
	GetByID(id uint) (*models.Basket, error)
	List(page, pageSize int) ([]models.Basket, int64, error)
	Create(basket *models.Basket) error
	AddProduct(basketID, productID uint) (*models.BasketItem, error)
	ListItems(basketID uint) ([]models.BasketItem, error)
	ListAllItems(filter BasketItemListFilter) ([]models.BasketItem, int64, error)
	GetItemByID(id uint) (*models.BasketItem, error)
	UpdateItemQuantity(id uint, quantity int) (int64, error)
	DeleteItem(id uint) (int64, error)
	DeleteByCustomer(customerID uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormBasketRepository
}

// GormBasketRepository GORM 实现
type GormBasketRepository struct {
	db *gorm.DB
}

// NewBasketRepository 创建购物篮仓库
func NewBasketRepository(db *gorm.DB) *GormBasketRepository {
	return &GormBasketRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBasketRepository) WithTx(tx *gorm.DB) *GormBasketRepository {
	if tx == nil {
		return r
	}
	return &GormBasketRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBasketRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByCustomerID 获取顾客的购物篮
func (r *GormBasketRepository) GetByCustomerID(customerID uint) (*models.Basket, error) {
	return firstOrNil[models.Basket](r.db.Where("customer_id = ?", customerID))
}

// GetByID 根据 ID 获取购物篮
func (r *GormBasketRepository) GetByID(id uint) (*models.Basket, error) {
	return firstOrNil[models.Basket](r.db.Preload("Items"), id)
}

// List 购物篮列表（管理端）
func (r *GormBasketRepository) List(page, pageSize int) ([]models.Basket, int64, error) {
	var baskets []models.Basket
	total, err := countAndFind(r.db.Model(&models.Basket{}), page, pageSize, "id ASC", &baskets)
	if err != nil {
		return nil, 0, err
	}
	return baskets, total, nil
}

// Create 创建购物篮
func (r *GormBasketRepository) Create(basket *models.Basket) error {
	return r.db.Omit(clause.Associations).Create(basket).Error
}

// AddProduct 原子地插入行项目或将已有行数量加一，返回落库后的行
func (r *GormBasketRepository) AddProduct(basketID, productID uint) (*models.BasketItem, error) {
	now := time.Now()
	item := models.BasketItem{
		BasketID:  basketID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "basket_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("basket_items.quantity + 1"),
			"updated_at": now,
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	var stored models.BasketItem
	if err := r.db.Where("basket_id = ? AND product_id = ?", basketID, productID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListItems 获取购物篮行项目
func (r *GormBasketRepository) ListItems(basketID uint) ([]models.BasketItem, error) {
	var items []models.BasketItem
	if err := r.db.Preload("Product").Where("basket_id = ?", basketID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListAllItems 行项目列表（管理端）
func (r *GormBasketRepository) ListAllItems(filter BasketItemListFilter) ([]models.BasketItem, int64, error) {
	query := r.db.Model(&models.BasketItem{})
	if filter.BasketID != 0 {
		query = query.Where("basket_id = ?", filter.BasketID)
	}
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	var items []models.BasketItem
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id ASC", &items)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetItemByID 根据 ID 获取行项目
func (r *GormBasketRepository) GetItemByID(id uint) (*models.BasketItem, error) {
	return firstOrNil[models.BasketItem](r.db, id)
}

// UpdateItemQuantity 设置行项目数量（管理端）
func (r *GormBasketRepository) UpdateItemQuantity(id uint, quantity int) (int64, error) {
	result := r.db.Model(&models.BasketItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now(),
	})
	return result.RowsAffected, result.Error
}

// DeleteItem 删除行项目，返回影响行数
func (r *GormBasketRepository) DeleteItem(id uint) (int64, error) {
	result := r.db.Delete(&models.BasketItem{}, id)
	return result.RowsAffected, result.Error
}

// DeleteByCustomer 删除顾客的购物篮及其行项目
func (r *GormBasketRepository) DeleteByCustomer(customerID uint) error {
	basket, err := r.GetByCustomerID(customerID)
	if err != nil || basket == nil {
		return err
	}
	if err := r.db.Where("basket_id = ?", basket.ID).Delete(&models.BasketItem{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Basket{}, basket.ID).Error
}
