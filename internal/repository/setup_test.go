package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// setupRepositoryDB 每个测试独立的内存库，单连接保证并发写入串行
func setupRepositoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price int64, sellerID, categoryID uint) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		Price:      price,
		SellerID:   sellerID,
		CategoryID: categoryID,
	}
	if err := NewProductRepository(db).Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestBasket(t *testing.T, db *gorm.DB, customerID uint) *models.Basket {
	t.Helper()
	basket := &models.Basket{CustomerID: customerID}
	if err := NewBasketRepository(db).Create(basket); err != nil {
		t.Fatalf("create basket failed: %v", err)
	}
	return basket
}
