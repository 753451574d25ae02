package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bazaar-next/internal/constants"
)

func TestProductFilterByCategoryAndPrice(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	env.createProduct(t, seller, "Electronics", "Speaker", 90)
	env.createProduct(t, seller, "Electronics", "Cable", 10)
	env.createProduct(t, seller, "Electronics", "Phone", 500)
	env.createProduct(t, seller, "Books", "Manual", 5)

	products, total, err := env.product.Filter(ProductFilterInput{
		Page:     1,
		PageSize: 10,
		Category: "Electronics",
		Price:    "100",
		Order:    constants.SortLowToHigh,
	})
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("expected 2 products, got total=%d len=%d", total, len(products))
	}
	if products[0].Name != "Cable" || products[1].Name != "Speaker" {
		t.Fatalf("unexpected order: %s, %s", products[0].Name, products[1].Name)
	}
	for _, product := range products {
		if product.Category == nil || product.Category.Name != "Electronics" || product.Price > 100 {
			t.Fatalf("product outside filter: %+v", product)
		}
	}

	products, total, err = env.product.Filter(ProductFilterInput{
		Page:        1,
		PageSize:    10,
		Price:       "abc",
		Order:       "sideways",
		RatingOrder: "HIGH_TO_LOW",
	})
	if err != nil {
		t.Fatalf("filter with junk params failed: %v", err)
	}
	if total != 4 || len(products) != 4 {
		t.Fatalf("junk params should be ignored, got total=%d", total)
	}
}

func TestProductOwnershipRules(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	owner := env.register(t, constants.RoleSeller, "owner@example.com")
	other := env.register(t, constants.RoleSeller, "other@example.com")
	customer := env.register(t, constants.RoleCustomer, "c@example.com")
	product := env.createProduct(t, owner, "Garden", "Rake", 30)

	if _, err := env.product.Create(customer, CreateProductInput{Name: "x", CategoryID: product.CategoryID}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("customer create want denied, got %v", err)
	}
	if _, err := env.product.Create(owner, CreateProductInput{Name: "x", CategoryID: 999}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("unknown category want not found, got %v", err)
	}
	if _, err := env.product.Create(owner, CreateProductInput{Name: "x", Price: -1, CategoryID: product.CategoryID}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("negative price want validation error, got %v", err)
	}

	price := int64(45)
	if _, err := env.product.Update(ctx, other, product.ID, UpdateProductInput{Price: &price}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("non-owner update want denied, got %v", err)
	}
	updated, err := env.product.Update(ctx, owner, product.ID, UpdateProductInput{Price: &price})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Price != 45 || updated.Rating.String() != "0.00" {
		t.Fatalf("unexpected product after update: %+v", updated)
	}

	if err := env.product.Delete(ctx, other, product.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("non-owner delete want denied, got %v", err)
	}
	if err := env.product.Delete(ctx, env.admin(t), product.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, err := env.product.Get(ctx, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("deleted product want not found, got %v", err)
	}
}

func TestAdminCreatesProductForSeller(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	category, err := env.category.Create("Music")
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	admin := env.admin(t)

	if _, err := env.product.Create(admin, CreateProductInput{Name: "Drum", CategoryID: category.ID}); !errors.Is(err, ErrSellerRequired) {
		t.Fatalf("admin without seller_id want validation error, got %v", err)
	}
	product, err := env.product.Create(admin, CreateProductInput{Name: "Drum", CategoryID: category.ID, SellerID: seller.Base().ID})
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if product.SellerID != seller.Base().ID {
		t.Fatalf("product should belong to seller %d, got %d", seller.Base().ID, product.SellerID)
	}

	detail, err := env.users.GetSeller(seller.Base().ID)
	if err != nil {
		t.Fatalf("get seller failed: %v", err)
	}
	if len(detail.Products) != 1 || detail.Products[0].ID != product.ID {
		t.Fatalf("seller detail should list the product: %+v", detail.Products)
	}
}

func TestCategoryRules(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")

	if _, err := env.category.Create("   "); !errors.Is(err, ErrCategoryNameEmpty) {
		t.Fatalf("blank name want validation error, got %v", err)
	}
	product := env.createProduct(t, seller, "Sports", "Ball", 9)
	if _, err := env.category.Create("Sports"); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("duplicate category want conflict, got %v", err)
	}
	if err := env.category.Delete(product.CategoryID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("category in use want conflict, got %v", err)
	}
	if err := env.product.Delete(context.Background(), seller, product.ID); err != nil {
		t.Fatalf("delete product failed: %v", err)
	}
	if err := env.category.Delete(product.CategoryID); err != nil {
		t.Fatalf("delete empty category failed: %v", err)
	}
	if err := env.category.Delete(product.CategoryID); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("second delete want not found, got %v", err)
	}
}
