package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type serviceTestEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	auth     *AuthService
	users    *UserService
	category *CategoryService
	product  *ProductService
	comment  *CommentService
	basket   *BasketService

	userRepo     *repository.GormUserRepository
	productRepo  *repository.GormProductRepository
	commentRepo  *repository.GormCommentRepository
	basketRepo   *repository.GormBasketRepository
	categoryRepo *repository.GormCategoryRepository
	sessionRepo  *repository.GormCheckoutSessionRepository
	eventRepo    *repository.GormPaymentEventRepository
}

func newServiceTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:           "test-secret",
			AccessExpireMinutes: 30,
			RefreshExpireHours:  24,
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				MinLength:     8,
				RequireLower:  true,
				RequireNumber: true,
			},
		},
		Pagination: config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Checkout: config.CheckoutConfig{
			SecretKey:      "sk_test_123",
			WebhookSecret:  "whsec_test_abc",
			SuccessURL:     "https://shop.example.com/success",
			CancelURL:      "https://shop.example.com/cancel",
			Currency:       "usd",
			TimeoutSeconds: 2,
		},
	}
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := newServiceTestConfig()
	env := &serviceTestEnv{
		db:           db,
		cfg:          cfg,
		userRepo:     repository.NewUserRepository(db),
		productRepo:  repository.NewProductRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		basketRepo:   repository.NewBasketRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		sessionRepo:  repository.NewCheckoutSessionRepository(db),
		eventRepo:    repository.NewPaymentEventRepository(db),
	}
	env.auth = NewAuthService(cfg, env.userRepo, env.basketRepo)
	env.users = NewUserService(env.userRepo, env.productRepo, env.commentRepo, env.basketRepo)
	env.category = NewCategoryService(env.categoryRepo)
	env.product = NewProductService(env.productRepo, env.categoryRepo, env.userRepo)
	env.comment = NewCommentService(env.commentRepo, env.productRepo, env.userRepo)
	env.basket = NewBasketService(env.basketRepo, env.productRepo)
	return env
}

func (env *serviceTestEnv) register(t *testing.T, role, email string) Account {
	t.Helper()
	account, err := env.auth.Register(RegisterInput{
		Role:     role,
		Email:    email,
		Password: "secret123",
		Name:     "Test " + role,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", role, err)
	}
	return account
}

func (env *serviceTestEnv) admin(t *testing.T) Account {
	t.Helper()
	account, err := env.auth.CreateAdmin(fmt.Sprintf("admin_%d@example.com", time.Now().UnixNano()), "secret123")
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return account
}

func (env *serviceTestEnv) createProduct(t *testing.T, seller Account, categoryName string, name string, price int64) *models.Product {
	t.Helper()
	category, err := env.categoryRepo.GetByName(categoryName)
	if err != nil {
		t.Fatalf("get category failed: %v", err)
	}
	if category == nil {
		category, err = env.category.Create(categoryName)
		if err != nil {
			t.Fatalf("create category failed: %v", err)
		}
	}
	product, err := env.product.Create(seller, CreateProductInput{
		Name:       name,
		Price:      price,
		CategoryID: category.ID,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (env *serviceTestEnv) reloadProduct(t *testing.T, id uint) *models.Product {
	t.Helper()
	product, err := env.product.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return product
}

func mustRole(t *testing.T, account Account, role string) {
	t.Helper()
	if account == nil || account.Role() != role {
		t.Fatalf("expected role %s, got %+v", role, account)
	}
	if role == constants.RoleAdmin && !IsAdmin(account) {
		t.Fatalf("admin account should report admin role")
	}
}
