package service

import (
	"errors"
	"strings"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"gorm.io/gorm"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List 获取分类列表
func (s *CategoryService) List() ([]models.Category, error) {
	return s.repo.List()
}

// Get 获取分类
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Create 创建分类
func (s *CategoryService) Create(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}
	if err := s.ensureNameFree(name, 0); err != nil {
		return nil, err
	}
	category := &models.Category{Name: name}
	if err := s.repo.Create(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	return category, nil
}

// Update 重命名分类
func (s *CategoryService) Update(id uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(name, category.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(category.ID, name); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	category.Name = name
	return category, nil
}

func (s *CategoryService) ensureNameFree(name string, excludeID uint) error {
	taken, err := s.repo.NameTaken(name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrCategoryExists
	}
	return nil
}

// Delete 删除分类；仍有商品引用时拒绝
func (s *CategoryService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	count, err := s.repo.CountProducts(id)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warnw("category_delete_rejected", "category_id", id, "products", count)
		return ErrCategoryInUse
	}
	affected, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
