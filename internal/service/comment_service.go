package service

import (
	"context"
	"strings"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"gorm.io/gorm"
)

const (
	minRateValue = 1
	maxRateValue = 5
)

// CommentService 评论服务；所有写操作与评分重算处于同一事务
type CommentService struct {
	repo        repository.CommentRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewCommentService 创建评论服务
func NewCommentService(repo repository.CommentRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository) *CommentService {
	return &CommentService{
		repo:        repo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// CreateCommentInput 发表评论输入
type CreateCommentInput struct {
	Rate     int
	Content  *string
	AuthorID uint // 仅管理员代发时使用
}

// UpdateCommentInput 修改评论输入，nil 字段保持不变
type UpdateCommentInput struct {
	Rate    *int
	Content *string
}

// CommentResult 写评论后的结果（含重算后的商品评分）
type CommentResult struct {
	Comment       *models.Comment `json:"comment"`
	ProductRating models.Rating   `json:"product_rating"`
}

// Create 发表评论并重算商品评分
func (s *CommentService) Create(ctx context.Context, actor Account, productID uint, input CreateCommentInput) (*CommentResult, error) {
	authorID, err := s.resolveAuthor(actor, input.AuthorID)
	if err != nil {
		return nil, err
	}
	if !validRate(input.Rate) {
		return nil, ErrInvalidRate
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	comment := &models.Comment{
		Content:   normalizeContent(input.Content),
		AuthorID:  authorID,
		ProductID: product.ID,
	}
	var rating models.Rating
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		commentRepo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		if _, err := lockProduct(productRepo, product.ID); err != nil {
			return err
		}
		if err := commentRepo.Create(comment, input.Rate); err != nil {
			return err
		}
		var err error
		rating, err = RecalculateRating(commentRepo, productRepo, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = cache.DelProductDetail(ctx, product.ID)
	logger.Infow("comment_created",
		"comment_id", comment.ID,
		"product_id", product.ID,
		"author_id", authorID,
		"rating", rating.String(),
	)
	return &CommentResult{Comment: comment, ProductRating: rating}, nil
}

// ListByProduct 分页获取商品评论
func (s *CommentService) ListByProduct(productID uint, page, pageSize int) ([]models.Comment, int64, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, 0, err
	}
	if product == nil {
		return nil, 0, ErrProductNotFound
	}
	return s.repo.List(repository.CommentListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProductID: product.ID,
	})
}

// List 管理端评论列表
func (s *CommentService) List(filter repository.CommentListFilter) ([]models.Comment, int64, error) {
	return s.repo.List(filter)
}

// Get 获取评论
func (s *CommentService) Get(id uint) (*models.Comment, error) {
	comment, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

// Update 修改评论；改分时重算商品评分。仅作者或管理员
func (s *CommentService) Update(ctx context.Context, actor Account, id uint, input UpdateCommentInput) (*CommentResult, error) {
	comment, err := s.loadOwned(actor, id)
	if err != nil {
		return nil, err
	}
	if input.Rate != nil && !validRate(*input.Rate) {
		return nil, ErrInvalidRate
	}

	var rating models.Rating
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		commentRepo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		product, err := lockProduct(productRepo, comment.ProductID)
		if err != nil {
			return err
		}
		if input.Content != nil {
			comment.Content = normalizeContent(input.Content)
			if err := commentRepo.UpdateContent(comment); err != nil {
				return err
			}
		}
		if input.Rate != nil {
			if err := commentRepo.UpdateRateValue(comment.RateID, *input.Rate); err != nil {
				return err
			}
			if comment.Rate != nil {
				comment.Rate.Value = *input.Rate
			}
			rating, err = RecalculateRating(commentRepo, productRepo, comment.ProductID)
			return err
		}
		rating = product.Rating
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = cache.DelProductDetail(ctx, comment.ProductID)
	return &CommentResult{Comment: comment, ProductRating: rating}, nil
}

// Delete 删除评论并重算商品评分（无评论时归零）。仅作者或管理员
func (s *CommentService) Delete(ctx context.Context, actor Account, id uint) (models.Rating, error) {
	comment, err := s.loadOwned(actor, id)
	if err != nil {
		return models.ZeroRating(), err
	}
	var rating models.Rating
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		commentRepo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		if _, err := lockProduct(productRepo, comment.ProductID); err != nil {
			return err
		}
		if err := commentRepo.Delete(comment); err != nil {
			return err
		}
		var err error
		rating, err = RecalculateRating(commentRepo, productRepo, comment.ProductID)
		return err
	})
	if err != nil {
		return models.ZeroRating(), err
	}
	_ = cache.DelProductDetail(ctx, comment.ProductID)
	logger.Infow("comment_deleted",
		"comment_id", comment.ID,
		"product_id", comment.ProductID,
		"actor_id", AccountID(actor),
		"rating", rating.String(),
	)
	return rating, nil
}

func (s *CommentService) loadOwned(actor Account, id uint) (*models.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !canActOn(actor, comment.AuthorID) {
		return nil, ErrPermissionDenied
	}
	return comment, nil
}

// resolveAuthor 顾客以自己身份评论；管理员需指定顾客
func (s *CommentService) resolveAuthor(actor Account, requested uint) (uint, error) {
	if actor == nil {
		return 0, ErrPermissionDenied
	}
	if actor.HasRole(constants.RoleCustomer) {
		return AccountID(actor), nil
	}
	if !IsAdmin(actor) {
		return 0, ErrPermissionDenied
	}
	if requested == 0 {
		return 0, ErrAuthorRequired
	}
	author, err := s.userRepo.GetByIDAndRole(requested, constants.RoleCustomer)
	if err != nil {
		return 0, err
	}
	if author == nil {
		return 0, ErrUserNotFound
	}
	return author.ID, nil
}

func validRate(value int) bool {
	return value >= minRateValue && value <= maxRateValue
}

func normalizeContent(content *string) *string {
	if content == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*content)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
