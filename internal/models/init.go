package models

import (
	"errors"
	"strings"

	"github.com/bazaar-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@bazaar.local"
	defaultAdminPassword = "admin123"
	roleAdmin            = "admin"
)

// InitDefaultAdmin 初始化默认管理员账号；已存在管理员时跳过
func InitDefaultAdmin(email, password string) error {
	if DB == nil {
		return errors.New("database is not initialized")
	}
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", roleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = defaultAdminEmail
	}
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         roleAdmin,
		Status:       "active",
	}
	if err := DB.Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Warnw("default_admin_email_taken", "email", email)
			return nil
		}
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}
