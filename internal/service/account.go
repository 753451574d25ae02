package service

import (
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
)

// Account 账号的统一视图：公共身份 + 角色专属资料
type Account interface {
	Base() *models.User
	Role() string
	HasRole(roles ...string) bool
}

// SellerAccount 卖家账号
type SellerAccount struct {
	User    *models.User
	Profile *models.SellerProfile
}

// CustomerAccount 顾客账号
type CustomerAccount struct {
	User    *models.User
	Profile *models.CustomerProfile
}

// AdminAccount 管理员账号
type AdminAccount struct {
	User *models.User
}

func (a *SellerAccount) Base() *models.User           { return a.User }
func (a *SellerAccount) Role() string                 { return constants.RoleSeller }
func (a *SellerAccount) HasRole(roles ...string) bool { return containsRole(roles, a.Role()) }

func (a *CustomerAccount) Base() *models.User           { return a.User }
func (a *CustomerAccount) Role() string                 { return constants.RoleCustomer }
func (a *CustomerAccount) HasRole(roles ...string) bool { return containsRole(roles, a.Role()) }

func (a *AdminAccount) Base() *models.User           { return a.User }
func (a *AdminAccount) Role() string                 { return constants.RoleAdmin }
func (a *AdminAccount) HasRole(roles ...string) bool { return containsRole(roles, a.Role()) }

// NewAccount 按 role 字段把账号记录还原为具体变体
func NewAccount(user *models.User) (Account, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}
	switch user.Role {
	case constants.RoleSeller:
		return &SellerAccount{User: user, Profile: user.SellerProfile}, nil
	case constants.RoleCustomer:
		return &CustomerAccount{User: user, Profile: user.CustomerProfile}, nil
	case constants.RoleAdmin:
		return &AdminAccount{User: user}, nil
	default:
		return nil, ErrInvalidRole
	}
}

// IsAdmin 是否为管理员
func IsAdmin(account Account) bool {
	return account != nil && account.HasRole(constants.RoleAdmin)
}

// AccountID 返回账号ID，nil 账号返回 0
func AccountID(account Account) uint {
	if account == nil || account.Base() == nil {
		return 0
	}
	return account.Base().ID
}

// canActOn 本人或管理员可操作
func canActOn(actor Account, ownerID uint) bool {
	if actor == nil {
		return false
	}
	if IsAdmin(actor) {
		return true
	}
	return ownerID != 0 && AccountID(actor) == ownerID
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
