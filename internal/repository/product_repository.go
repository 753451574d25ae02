package repository

import (
	"strings"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	ListBySeller(sellerID uint) ([]models.Product, error)
	ListIDsBySeller(sellerID uint) ([]uint, error)
	GetByID(id uint) (*models.Product, error)
	GetByIDForUpdate(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	UpdateRating(productID uint, rating models.Rating) error
	DeleteCascade(id uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// List 商品列表
// 排序优先级：rating_order > order(price) > id
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if name := strings.TrimSpace(filter.CategoryName); name != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.name = ?", name)
	}
	if filter.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filter.CategoryID)
	}
	if filter.SellerID != 0 {
		query = query.Where("products.seller_id = ?", filter.SellerID)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	query = applyKeyword(query, filter.Search, "products.name", "products.description")
	if filter.WithCategory {
		query = query.Preload("Category")
	}

	var products []models.Product
	total, err := countAndFind(query, filter.Page, filter.PageSize, buildProductOrder(filter), &products)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func buildProductOrder(filter ProductListFilter) string {
	parts := make([]string, 0, 3)
	if direction := sortDirection(filter.RatingOrder); direction != "" {
		parts = append(parts, "products.rating "+direction)
	}
	if direction := sortDirection(filter.PriceOrder); direction != "" {
		parts = append(parts, "products.price "+direction)
	}
	parts = append(parts, "products.id ASC")
	return strings.Join(parts, ", ")
}

// sortDirection 未知取值返回空串，调用方按未指定处理
func sortDirection(order string) string {
	switch strings.ToLower(strings.TrimSpace(order)) {
	case constants.SortLowToHigh:
		return "ASC"
	case constants.SortHighToLow:
		return "DESC"
	default:
		return ""
	}
}

// ListBySeller 获取卖家全部商品
func (r *GormProductRepository) ListBySeller(sellerID uint) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Preload("Category").Where("seller_id = ?", sellerID).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListIDsBySeller 获取卖家全部商品 ID
func (r *GormProductRepository) ListIDsBySeller(sellerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Product{}).Where("seller_id = ?", sellerID).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	return firstOrNil[models.Product](r.db.Preload("Category"), id)
}

// GetByIDForUpdate 加行锁读取商品，需在事务中调用
// 评论写入与评分重算以此串行化同一商品的并发写
func (r *GormProductRepository) GetByIDForUpdate(id uint) (*models.Product, error) {
	return firstOrNil[models.Product](r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// Create 创建商品，评分固定从 0.00 开始
func (r *GormProductRepository) Create(product *models.Product) error {
	product.Rating = models.ZeroRating()
	return r.db.Omit("Category").Create(product).Error
}

// Update 更新商品基础字段，不触碰评分
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Model(product).
		Select("name", "description", "price", "category_id", "updated_at").
		Updates(map[string]interface{}{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"category_id": product.CategoryID,
		}).Error
}

// UpdateRating 写入重新计算后的评分
func (r *GormProductRepository) UpdateRating(productID uint, rating models.Rating) error {
	return r.db.Model(&models.Product{}).Where("id = ?", productID).UpdateColumn("rating", rating).Error
}

// DeleteCascade 删除商品及其购物篮行项目、评论与评分；需在事务中调用
func (r *GormProductRepository) DeleteCascade(id uint) (int64, error) {
	if err := r.db.Where("product_id = ?", id).Delete(&models.BasketItem{}).Error; err != nil {
		return 0, err
	}
	var rateIDs []uint
	if err := r.db.Model(&models.Comment{}).Where("product_id = ?", id).Pluck("rate_id", &rateIDs).Error; err != nil {
		return 0, err
	}
	if err := r.db.Where("product_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return 0, err
	}
	if len(rateIDs) > 0 {
		if err := r.db.Where("id IN ?", rateIDs).Delete(&models.Rate{}).Error; err != nil {
			return 0, err
		}
	}
	result := r.db.Delete(&models.Product{}, id)
	return result.RowsAffected, result.Error
}
