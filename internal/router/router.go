package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	adminhandlers "github.com/bazaar-next/internal/http/handlers/admin"
	publichandlers "github.com/bazaar-next/internal/http/handlers/public"
	"github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
// /api/v1 下所有路由先做可选鉴权，再按 casbin 角色矩阵放行
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	if !logger.Initialized() {
		logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	log := logger.Z()
	if cfg.Server.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	shared.RegisterValidatorTagNames()
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	loginRule := LoginRateLimitRule(cfg)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "route not found")
	})

	apiV1 := r.Group("/api/v1")
	apiV1.Use(AuthMiddleware(c.AuthService), AuthzMiddleware(c.AuthzService))
	{
		users := apiV1.Group("/users")
		{
			users.POST("/:role/register", publicHandler.Register)
			users.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			users.POST("/token/refresh", publicHandler.RefreshToken)
			users.GET("/me", publicHandler.Me)
			users.PUT("/me/password", publicHandler.ChangePassword)

			users.GET("/sellers", publicHandler.ListSellers)
			users.GET("/sellers/:id", publicHandler.GetSeller)
			users.PUT("/sellers/:id", publicHandler.UpdateSeller)
			users.DELETE("/sellers/:id", publicHandler.DeleteSeller)

			users.GET("/customers", publicHandler.ListCustomers)
			users.GET("/customers/:id", publicHandler.GetCustomer)
			users.PUT("/customers/:id", publicHandler.UpdateCustomer)
			users.DELETE("/customers/:id", publicHandler.DeleteCustomer)
		}

		products := apiV1.Group("/products")
		{
			products.GET("/categories", publicHandler.ListCategories)
			products.POST("/categories", publicHandler.CreateCategory)
			products.GET("/list", publicHandler.ListProducts)
			products.GET("/filters", publicHandler.FilterProducts)
			products.POST("/create", publicHandler.CreateProduct)
			products.PUT("/update/:id", publicHandler.UpdateProduct)
			products.GET("/:id", publicHandler.GetProduct)
			products.DELETE("/:id/delete", publicHandler.DeleteProduct)

			// 购物篮：:id 为顾客ID，删除行项目时为行项目ID
			products.POST("/:id/basket/add-products", publicHandler.AddBasketProduct)
			products.GET("/:id/basket-info", publicHandler.GetBasketInfo)
			products.DELETE("/:id/basket/item/delete", publicHandler.DeleteBasketItem)

			// 评论：创建/列表时 :id 为商品ID，修改/删除时为评论ID
			products.POST("/:id/comment-create", publicHandler.CreateComment)
			products.GET("/:id/comment-list", publicHandler.ListComments)
			products.PUT("/:id/comment/update", publicHandler.UpdateComment)
			products.DELETE("/:id/comment/delete", publicHandler.DeleteComment)
		}

		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/", publicHandler.CreateCheckout)
			checkout.POST("/webhook", publicHandler.CheckoutWebhook)
		}

		admin := apiV1.Group("/admin")
		{
			admin.GET("/admins", adminHandler.ListAdmins)
			admin.POST("/admins", adminHandler.CreateAdmin)

			admin.GET("/sellers", adminHandler.ListSellers)
			admin.GET("/sellers/:id", adminHandler.GetSeller)
			admin.PUT("/sellers/:id", adminHandler.UpdateSeller)
			admin.DELETE("/sellers/:id", adminHandler.DeleteSeller)
			admin.GET("/customers", adminHandler.ListCustomers)
			admin.GET("/customers/:id", adminHandler.GetCustomer)
			admin.PUT("/customers/:id", adminHandler.UpdateCustomer)
			admin.DELETE("/customers/:id", adminHandler.DeleteCustomer)

			admin.GET("/categories", adminHandler.GetAdminCategories)
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.GET("/categories/:id", adminHandler.GetAdminCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

			admin.GET("/products", adminHandler.GetAdminProducts)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.GET("/products/:id", adminHandler.GetAdminProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)

			admin.GET("/comments", adminHandler.GetAdminComments)
			admin.POST("/comments", adminHandler.CreateComment)
			admin.GET("/comments/:id", adminHandler.GetAdminComment)
			admin.PUT("/comments/:id", adminHandler.UpdateComment)
			admin.DELETE("/comments/:id", adminHandler.DeleteComment)

			admin.GET("/baskets", adminHandler.GetAdminBaskets)
			admin.GET("/baskets/:id", adminHandler.GetAdminBasket)
			admin.GET("/basket-items", adminHandler.GetAdminBasketItems)
			admin.POST("/basket-items", adminHandler.AddBasketItem)
			admin.PUT("/basket-items/:id", adminHandler.UpdateBasketItem)
			admin.DELETE("/basket-items/:id", adminHandler.DeleteBasketItem)

			admin.GET("/checkout/sessions", adminHandler.GetCheckoutSessions)
			admin.GET("/checkout/sessions/:id", adminHandler.GetCheckoutSession)
			admin.POST("/checkout/sessions/:id/sync", adminHandler.SyncCheckoutSession)
			admin.GET("/checkout/events", adminHandler.GetPaymentEvents)

			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
			admin.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
			admin.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.POST("/authz/reload", adminHandler.ReloadAuthzPolicy)
			admin.GET("/authz/routes", func(ctx *gin.Context) {
				response.Success(ctx, buildRouteCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type routeCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildRouteCatalog(engine *gin.Engine) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, routeCatalogItem{
			Module:     deriveRouteModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
