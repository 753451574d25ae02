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

// UserService 账号资料服务
type UserService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	commentRepo repository.CommentRepository
	basketRepo  repository.BasketRepository
}

// NewUserService 创建账号资料服务
func NewUserService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	commentRepo repository.CommentRepository,
	basketRepo repository.BasketRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		productRepo: productRepo,
		commentRepo: commentRepo,
		basketRepo:  basketRepo,
	}
}

// SellerDetail 卖家详情（附带其商品）
type SellerDetail struct {
	Account  *models.User     `json:"account"`
	Products []models.Product `json:"products"`
}

// ProfileUpdateInput 资料更新输入，nil 字段保持不变
type ProfileUpdateInput struct {
	Name        *string
	SecondName  *string
	PhoneNumber *string
	Description *string // 仅卖家
	CardNumber  *string // 仅顾客
	PostCode    *string // 仅顾客
	Status      *string // 仅管理员可改
}

// GetAccount 获取账号
func (s *UserService) GetAccount(id uint) (Account, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return NewAccount(user)
}

// ListByRole 按角色分页列出账号
func (s *UserService) ListByRole(role string, page, pageSize int, keyword string) ([]models.User, int64, error) {
	if role != constants.RoleSeller && role != constants.RoleCustomer && role != constants.RoleAdmin {
		return nil, 0, ErrInvalidRole
	}
	return s.userRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Role:     role,
		Keyword:  keyword,
	})
}

// GetSeller 获取卖家资料与其商品
func (s *UserService) GetSeller(id uint) (*SellerDetail, error) {
	user, err := s.userRepo.GetByIDAndRole(id, constants.RoleSeller)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	products, err := s.productRepo.ListBySeller(user.ID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return &SellerDetail{Account: user, Products: products}, nil
}

// GetCustomer 获取顾客资料，仅本人或管理员可见
func (s *UserService) GetCustomer(actor Account, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByIDAndRole(id, constants.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !canActOn(actor, user.ID) {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

// UpdateProfile 更新卖家或顾客资料，仅本人或管理员
func (s *UserService) UpdateProfile(ctx context.Context, actor Account, role string, id uint, input ProfileUpdateInput) (*models.User, error) {
	user, err := s.loadOwned(actor, role, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrProfileNameEmpty
	}

	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		switch role {
		case constants.RoleSeller:
			profile := user.SellerProfile
			if profile == nil {
				profile = &models.SellerProfile{UserID: user.ID}
			}
			applyString(&profile.Name, input.Name)
			applyString(&profile.SecondName, input.SecondName)
			applyString(&profile.PhoneNumber, input.PhoneNumber)
			applyString(&profile.Description, input.Description)
			if err := userRepo.SaveSellerProfile(profile); err != nil {
				return err
			}
			user.SellerProfile = profile
		case constants.RoleCustomer:
			profile := user.CustomerProfile
			if profile == nil {
				profile = &models.CustomerProfile{UserID: user.ID}
			}
			applyString(&profile.Name, input.Name)
			applyString(&profile.SecondName, input.SecondName)
			applyString(&profile.PhoneNumber, input.PhoneNumber)
			applyString(&profile.CardNumber, input.CardNumber)
			applyString(&profile.PostCode, input.PostCode)
			if err := userRepo.SaveCustomerProfile(profile); err != nil {
				return err
			}
			user.CustomerProfile = profile
		}
		if input.Status != nil && IsAdmin(actor) {
			status := strings.TrimSpace(*input.Status)
			if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
				return ErrValidation
			}
			if status != user.Status {
				user.Status = status
				user.TokenVersion++
				if err := userRepo.Update(user); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = cache.DelUserAuthState(ctx, user.ID)
	return user, nil
}

// DeleteAccount 删除卖家或顾客及其关联数据，仅本人或管理员
// 卖家：级联删除其商品；顾客：删除其评论（并重算评分）与购物篮
func (s *UserService) DeleteAccount(ctx context.Context, actor Account, role string, id uint) error {
	user, err := s.loadOwned(actor, role, id)
	if err != nil {
		return err
	}

	var touchedProducts []uint
	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		commentRepo := s.commentRepo.WithTx(tx)
		switch role {
		case constants.RoleSeller:
			productIDs, err := productRepo.ListIDsBySeller(user.ID)
			if err != nil {
				return err
			}
			for _, productID := range productIDs {
				if _, err := productRepo.DeleteCascade(productID); err != nil {
					return err
				}
			}
			touchedProducts = productIDs
		case constants.RoleCustomer:
			// 按商品 ID 升序逐个加锁
			lockIDs, err := commentRepo.ProductIDsByAuthor(user.ID)
			if err != nil {
				return err
			}
			for _, productID := range lockIDs {
				if _, err := lockProduct(productRepo, productID); err != nil {
					return err
				}
			}
			productIDs, err := commentRepo.DeleteByAuthor(user.ID)
			if err != nil {
				return err
			}
			for _, productID := range productIDs {
				if _, err := RecalculateRating(commentRepo, productRepo, productID); err != nil {
					return err
				}
			}
			if err := s.basketRepo.WithTx(tx).DeleteByCustomer(user.ID); err != nil {
				return err
			}
			touchedProducts = productIDs
		}
		_, err := s.userRepo.WithTx(tx).Delete(user.ID)
		return err
	})
	if err != nil {
		return err
	}

	_ = cache.DelUserAuthState(ctx, user.ID)
	for _, productID := range touchedProducts {
		_ = cache.DelProductDetail(ctx, productID)
	}
	logger.Infow("account_deleted",
		"user_id", user.ID,
		"role", role,
		"actor_id", AccountID(actor),
		"products_touched", len(touchedProducts),
	)
	return nil
}

func (s *UserService) loadOwned(actor Account, role string, id uint) (*models.User, error) {
	if role != constants.RoleSeller && role != constants.RoleCustomer {
		return nil, ErrInvalidRole
	}
	user, err := s.userRepo.GetByIDAndRole(id, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !canActOn(actor, user.ID) {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

func applyString(dst *string, value *string) {
	if dst == nil || value == nil {
		return
	}
	*dst = strings.TrimSpace(*value)
}
