package repository

import (
	"strings"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	GetByName(name string) (*models.Category, error)
	Create(category *models.Category) error
	Rename(id uint, name string) error
	Delete(id uint) (int64, error)
	NameTaken(name string, excludeID uint) (bool, error)
	CountProducts(categoryID uint) (int64, error)
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 按名称排序
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := r.db.Order("name ASC").Order("id ASC").Find(&categories).Error
	return categories, err
}

// GetByID 不存在时返回 nil
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	return firstOrNil[models.Category](r.db, id)
}

// GetByName 名称精确匹配
func (r *GormCategoryRepository) GetByName(name string) (*models.Category, error) {
	return firstOrNil[models.Category](r.db.Where("name = ?", strings.TrimSpace(name)))
}

func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Rename 只更新名称列
func (r *GormCategoryRepository) Rename(id uint, name string) error {
	return r.db.Model(&models.Category{}).Where("id = ?", id).Update("name", name).Error
}

func (r *GormCategoryRepository) Delete(id uint) (int64, error) {
	result := r.db.Delete(&models.Category{}, id)
	return result.RowsAffected, result.Error
}

// NameTaken 判断名称是否已被其他分类占用，excludeID 为 0 时不排除
func (r *GormCategoryRepository) NameTaken(name string, excludeID uint) (bool, error) {
	query := r.db.Model(&models.Category{}).Where("name = ?", strings.TrimSpace(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var hit []uint
	if err := query.Limit(1).Pluck("id", &hit).Error; err != nil {
		return false, err
	}
	return len(hit) > 0, nil
}

// CountProducts 统计分类下的商品数量
func (r *GormCategoryRepository) CountProducts(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}
