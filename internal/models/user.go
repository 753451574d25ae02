package models

import (
	"time"
)

// User 账号表（卖家 / 顾客 / 管理员共用的身份记录）
type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                     // 主键
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`                        // 邮箱（全局唯一）
	PasswordHash string     `gorm:"not null" json:"-"`                                        // 密码哈希（不返回给前端）
	Role         string     `gorm:"type:varchar(20);not null;index" json:"role"`              // 角色 seller/customer/admin
	Status       string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // 账号状态
	TokenVersion uint64     `gorm:"not null;default:0" json:"-"`                              // Token 版本（用于全量失效）
	LastLoginAt  *time.Time `json:"last_login_at"`                                            // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                               // 更新时间

	SellerProfile   *SellerProfile   `gorm:"foreignKey:UserID" json:"seller_profile,omitempty"`   // 卖家资料
	CustomerProfile *CustomerProfile `gorm:"foreignKey:UserID" json:"customer_profile,omitempty"` // 顾客资料
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// SellerProfile 卖家资料
type SellerProfile struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"-"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	SecondName  string    `gorm:"type:varchar(100)" json:"second_name"`
	PhoneNumber string    `gorm:"type:varchar(32)" json:"phone_number"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName 指定表名
func (SellerProfile) TableName() string {
	return "seller_profiles"
}

// CustomerProfile 顾客资料
type CustomerProfile struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"-"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	SecondName  string    `gorm:"type:varchar(100)" json:"second_name"`
	PhoneNumber string    `gorm:"type:varchar(32)" json:"phone_number"`
	CardNumber  string    `gorm:"type:varchar(32)" json:"card_number"`
	PostCode    string    `gorm:"type:varchar(16)" json:"post_code"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName 指定表名
func (CustomerProfile) TableName() string {
	return "customer_profiles"
}
