package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"gorm.io/gorm"
)

// ProductService 商品业务服务
type ProductService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, userRepo repository.UserRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

// CreateProductInput 创建商品输入（评分不可由客户端设置）
type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	CategoryID  uint
	SellerID    uint // 仅管理员代建时使用
}

// UpdateProductInput 更新商品输入，nil 字段保持不变
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	CategoryID  *uint
}

// ProductFilterInput 商品筛选输入，原样接收查询参数
type ProductFilterInput struct {
	Page        int
	PageSize    int
	Category    string
	Price       string
	Order       string
	RatingOrder string
	Search      string
	SellerID    uint
	CategoryID  uint
}

// List 分页获取商品列表
func (s *ProductService) List(page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		WithCategory: true,
	})
}

// Filter 按分类名、最高价与排序方向筛选商品
// 非法的 price/order/rating_order 视为未传
func (s *ProductService) Filter(input ProductFilterInput) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		CategoryName: strings.TrimSpace(input.Category),
		CategoryID:   input.CategoryID,
		SellerID:     input.SellerID,
		PriceOrder:   normalizeSortOrder(input.Order),
		RatingOrder:  normalizeSortOrder(input.RatingOrder),
		Search:       strings.TrimSpace(input.Search),
		WithCategory: true,
	}
	if raw := strings.TrimSpace(input.Price); raw != "" {
		if maxPrice, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.MaxPrice = &maxPrice
		}
	}
	return s.repo.List(filter)
}

// Get 获取商品详情（优先读缓存）
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	if cached, hit, err := cache.GetProductDetail(ctx, id); err == nil && hit && cached != nil {
		return cached, nil
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := cache.SetProductDetail(ctx, product); err != nil {
		logger.Warnw("product_cache_set_failed", "product_id", id, "error", err)
	}
	return product, nil
}

// Create 创建商品；卖家只能为自己建商品，管理员需指定卖家
func (s *ProductService) Create(actor Account, input CreateProductInput) (*models.Product, error) {
	if actor == nil || !actor.HasRole(constants.RoleSeller, constants.RoleAdmin) {
		return nil, ErrPermissionDenied
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProductNameEmpty
	}
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}

	sellerID := AccountID(actor)
	if IsAdmin(actor) {
		if input.SellerID == 0 {
			return nil, ErrSellerRequired
		}
		seller, err := s.userRepo.GetByIDAndRole(input.SellerID, constants.RoleSeller)
		if err != nil {
			return nil, err
		}
		if seller == nil {
			return nil, ErrUserNotFound
		}
		sellerID = seller.ID
	}

	category, err := s.requireCategory(input.CategoryID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		SellerID:    sellerID,
		CategoryID:  category.ID,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	product.Category = category
	logger.Infow("product_created", "product_id", product.ID, "seller_id", sellerID, "actor_id", AccountID(actor))
	return product, nil
}

// Update 更新商品，仅所属卖家或管理员
func (s *ProductService) Update(ctx context.Context, actor Account, id uint, input UpdateProductInput) (*models.Product, error) {
	product, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProductNameEmpty
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = *input.Price
	}
	if input.CategoryID != nil && *input.CategoryID != product.CategoryID {
		category, err := s.requireCategory(*input.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = category
	}
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	_ = cache.DelProductDetail(ctx, product.ID)
	return product, nil
}

// Delete 删除商品并级联删除购物篮行项目与评论，仅所属卖家或管理员
func (s *ProductService) Delete(ctx context.Context, actor Account, id uint) error {
	product, err := s.loadOwned(actor, id)
	if err != nil {
		return err
	}
	var affected int64
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		var err error
		affected, err = s.repo.WithTx(tx).DeleteCascade(product.ID)
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	_ = cache.DelProductDetail(ctx, product.ID)
	logger.Infow("product_deleted", "product_id", product.ID, "actor_id", AccountID(actor))
	return nil
}

func (s *ProductService) loadOwned(actor Account, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !canActOn(actor, product.SellerID) {
		return nil, ErrPermissionDenied
	}
	return product, nil
}

func (s *ProductService) requireCategory(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, ErrCategoryNotFound
	}
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func normalizeSortOrder(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.SortLowToHigh:
		return constants.SortLowToHigh
	case constants.SortHighToLow:
		return constants.SortHighToLow
	default:
		return ""
	}
}
