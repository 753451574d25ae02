package repository

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 账号数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDAndRole(id uint, role string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	SaveSellerProfile(profile *models.SellerProfile) error
	SaveCustomerProfile(profile *models.CustomerProfile) error
	List(filter UserListFilter) ([]models.User, int64, error)
	TouchLastLogin(id uint, at time.Time) error
	Delete(id uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建账号仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *GormUserRepository) withProfiles() *gorm.DB {
	return r.db.Preload("SellerProfile").Preload("CustomerProfile")
}

// GetByEmail 根据邮箱获取账号
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return firstOrNil[models.User](r.withProfiles().Where("email = ?", normalized))
}

// GetByID 根据 ID 获取账号
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return firstOrNil[models.User](r.withProfiles(), id)
}

// GetByIDAndRole 根据 ID 与角色获取账号
func (r *GormUserRepository) GetByIDAndRole(id uint, role string) (*models.User, error) {
	return firstOrNil[models.User](r.withProfiles().Where("role = ?", role), id)
}

// Create 创建账号（同时写入非空的角色资料）
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新账号基础字段
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit("SellerProfile", "CustomerProfile").Save(user).Error
}

// SaveSellerProfile 保存卖家资料
func (r *GormUserRepository) SaveSellerProfile(profile *models.SellerProfile) error {
	return r.db.Save(profile).Error
}

// SaveCustomerProfile 保存顾客资料
func (r *GormUserRepository) SaveCustomerProfile(profile *models.CustomerProfile) error {
	return r.db.Save(profile).Error
}

// List 账号列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
		switch filter.Role {
		case constants.RoleSeller:
			query = query.Preload("SellerProfile")
		case constants.RoleCustomer:
			query = query.Preload("CustomerProfile")
		}
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = applyKeyword(query, filter.Keyword, "email")

	var users []models.User
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id ASC", &users)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// TouchLastLogin 更新最后登录时间
func (r *GormUserRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// Delete 删除账号及其角色资料
func (r *GormUserRepository) Delete(id uint) (int64, error) {
	if err := r.db.Where("user_id = ?", id).Delete(&models.SellerProfile{}).Error; err != nil {
		return 0, err
	}
	if err := r.db.Where("user_id = ?", id).Delete(&models.CustomerProfile{}).Error; err != nil {
		return 0, err
	}
	result := r.db.Delete(&models.User{}, id)
	return result.RowsAffected, result.Error
}
