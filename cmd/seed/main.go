package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/service"

	"github.com/spf13/cobra"
)

const demoPassword = "demo12345"

type demoProduct struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Rates       []int
}

var demoProducts = []demoProduct{
	{Name: "Wireless Earphones", Description: "Bluetooth 5.3, 24h battery", Price: 99, Category: "Electronics", Rates: []int{5, 4}},
	{Name: "Smart Watch", Description: "Heart rate and sleep tracking", Price: 199, Category: "Electronics", Rates: []int{3}},
	{Name: "Power Bank", Description: "20000mAh fast charging", Price: 49, Category: "Accessories"},
	{Name: "Travel Backpack", Description: "Waterproof, USB port", Price: 79, Category: "Lifestyle", Rates: []int{4, 4, 5}},
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Populate the marketplace database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "admin <email> <password>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			account, err := container.AuthService.CreateAdmin(args[0], args[1])
			if err != nil {
				return fmt.Errorf("create admin failed: %w", err)
			}
			logger.Infow("seed_admin_created", "user_id", service.AccountID(account), "email", account.Base().Email)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Create demo seller, customer, categories, products and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			return seedDemo(cmd.Context(), container)
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap(configPath string) (*provider.Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// 种子命令不需要异步队列
	cfg.Queue.Enabled = false
	logger.Init("debug", cfg.Log.ToLoggerOptions())

	if err := models.InitDB(cfg.Database, cfg.Log.SQL); err != nil {
		return nil, fmt.Errorf("connect database failed: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate database failed: %w", err)
	}
	return provider.NewContainer(cfg), nil
}

func seedDemo(ctx context.Context, c *provider.Container) error {
	seller, err := ensureAccount(ctx, c, service.RegisterInput{
		Role:        "seller",
		Email:       "seller@bazaar.local",
		Password:    demoPassword,
		Name:        "Demo",
		SecondName:  "Seller",
		Description: "Gadgets and travel gear",
	})
	if err != nil {
		return err
	}
	customer, err := ensureAccount(ctx, c, service.RegisterInput{
		Role:     "customer",
		Email:    "customer@bazaar.local",
		Password: demoPassword,
		Name:     "Demo",
		PostCode: "10001",
	})
	if err != nil {
		return err
	}

	categoryIDs, err := ensureCategories(c, demoProducts)
	if err != nil {
		return err
	}

	sellerID := service.AccountID(seller)
	for _, item := range demoProducts {
		existing, _, err := c.ProductService.Filter(service.ProductFilterInput{
			Page:     1,
			PageSize: 1,
			Search:   item.Name,
			SellerID: sellerID,
		})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			logger.Infow("seed_product_exists", "name", item.Name)
			continue
		}

		product, err := c.ProductService.Create(seller, service.CreateProductInput{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			CategoryID:  categoryIDs[item.Category],
		})
		if err != nil {
			return fmt.Errorf("create product %q failed: %w", item.Name, err)
		}
		for _, rate := range item.Rates {
			content := fmt.Sprintf("%d stars from the demo customer", rate)
			if _, err := c.CommentService.Create(ctx, customer, product.ID, service.CreateCommentInput{
				Rate:    rate,
				Content: &content,
			}); err != nil {
				return fmt.Errorf("create comment failed: %w", err)
			}
		}
		logger.Infow("seed_product_created", "product_id", product.ID, "name", item.Name)
	}

	logger.Infow("seed_demo_done",
		"seller_email", seller.Base().Email,
		"customer_email", customer.Base().Email,
		"password", demoPassword,
	)
	return nil
}

func ensureAccount(ctx context.Context, c *provider.Container, input service.RegisterInput) (service.Account, error) {
	account, err := c.AuthService.Register(input)
	if err == nil {
		logger.Infow("seed_account_created", "role", input.Role, "email", input.Email)
		return account, nil
	}
	if !errors.Is(err, service.ErrEmailExists) {
		return nil, fmt.Errorf("register %s failed: %w", input.Email, err)
	}
	account, _, err = c.AuthService.Login(ctx, input.Email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("existing account %s is not a demo account: %w", input.Email, err)
	}
	return account, nil
}

func ensureCategories(c *provider.Container, products []demoProduct) (map[string]uint, error) {
	existing, err := c.CategoryService.List()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(existing))
	for _, category := range existing {
		ids[strings.ToLower(category.Name)] = category.ID
	}

	result := make(map[string]uint)
	for _, product := range products {
		if _, ok := result[product.Category]; ok {
			continue
		}
		if id, ok := ids[strings.ToLower(product.Category)]; ok {
			result[product.Category] = id
			continue
		}
		category, err := c.CategoryService.Create(product.Category)
		if err != nil {
			return nil, fmt.Errorf("create category %q failed: %w", product.Category, err)
		}
		result[product.Category] = category.ID
	}
	return result, nil
}
