package provider

import (
	"time"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment/stripe"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Gateway     *stripe.Client

	// Repositories
	UserRepo            repository.UserRepository
	CategoryRepo        repository.CategoryRepository
	ProductRepo         repository.ProductRepository
	CommentRepo         repository.CommentRepository
	BasketRepo          repository.BasketRepository
	CheckoutSessionRepo repository.CheckoutSessionRepository
	PaymentEventRepo    repository.PaymentEventRepository
	DashboardRepo       repository.DashboardRepository

	// Services
	AuthzService     *authz.Service
	AuthService      *service.AuthService
	UserService      *service.UserService
	CategoryService  *service.CategoryService
	ProductService   *service.ProductService
	CommentService   *service.CommentService
	BasketService    *service.BasketService
	CheckoutService  *service.CheckoutService
	DashboardService *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Gateway:     NewPaymentGateway(&cfg.Checkout),
	}

	// 1. 初始化 Repositories
	c.initRepositories(models.DB)

	// 2. 初始化 Services
	c.initServices(models.DB)

	return c
}

// NewPaymentGateway 按结算配置创建网关客户端
func NewPaymentGateway(cfg *config.CheckoutConfig) *stripe.Client {
	return stripe.NewClient(stripe.Config{
		SecretKey:               cfg.SecretKey,
		WebhookSecret:           cfg.WebhookSecret,
		SuccessURL:              cfg.SuccessURL,
		CancelURL:               cfg.CancelURL,
		APIBaseURL:              cfg.APIBaseURL,
		Currency:                cfg.Currency,
		Timeout:                 time.Duration(cfg.TimeoutSeconds) * time.Second,
		WebhookToleranceSeconds: cfg.WebhookToleranceSeconds,
	})
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CommentRepo = repository.NewCommentRepository(db)
	c.BasketRepo = repository.NewBasketRepository(db)
	c.CheckoutSessionRepo = repository.NewCheckoutSessionRepository(db)
	c.PaymentEventRepo = repository.NewPaymentEventRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	var enqueuer service.PaymentEventEnqueuer
	if c.QueueClient.Enabled() {
		enqueuer = c.QueueClient
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo, c.BasketRepo)
	c.UserService = service.NewUserService(c.UserRepo, c.ProductRepo, c.CommentRepo, c.BasketRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo, c.UserRepo)
	c.CommentService = service.NewCommentService(c.CommentRepo, c.ProductRepo, c.UserRepo)
	c.BasketService = service.NewBasketService(c.BasketRepo, c.ProductRepo)
	c.CheckoutService = service.NewCheckoutService(c.Config, c.Gateway, c.CheckoutSessionRepo, c.PaymentEventRepo, c.ProductRepo, enqueuer)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.Config)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
