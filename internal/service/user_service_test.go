package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
)

func TestCustomerProfileVisibility(t *testing.T) {
	env := setupServiceTest(t)
	owner := env.register(t, constants.RoleCustomer, "owner@example.com")
	stranger := env.register(t, constants.RoleCustomer, "stranger@example.com")
	seller := env.register(t, constants.RoleSeller, "seller@example.com")

	user, err := env.users.GetCustomer(owner, owner.Base().ID)
	if err != nil {
		t.Fatalf("owner should see own profile: %v", err)
	}
	if user.CustomerProfile == nil || user.CustomerProfile.Name != "Test customer" {
		t.Fatalf("profile not loaded: %+v", user.CustomerProfile)
	}
	if _, err := env.users.GetCustomer(stranger, owner.Base().ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger want forbidden, got %v", err)
	}
	if _, err := env.users.GetCustomer(nil, owner.Base().ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("anonymous want forbidden, got %v", err)
	}
	if _, err := env.users.GetCustomer(env.admin(t), owner.Base().ID); err != nil {
		t.Fatalf("admin should see profile: %v", err)
	}
	if _, err := env.users.GetCustomer(owner, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing customer want not found, got %v", err)
	}
	if _, err := env.users.GetCustomer(owner, seller.Base().ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("seller id under customer route want not found, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	other := env.register(t, constants.RoleSeller, "other@example.com")

	name := "  Ada  "
	description := "handmade goods"
	updated, err := env.users.UpdateProfile(ctx, seller, constants.RoleSeller, seller.Base().ID, ProfileUpdateInput{
		Name:        &name,
		Description: &description,
	})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.SellerProfile.Name != "Ada" || updated.SellerProfile.Description != description {
		t.Fatalf("unexpected profile: %+v", updated.SellerProfile)
	}

	if _, err := env.users.UpdateProfile(ctx, other, constants.RoleSeller, seller.Base().ID, ProfileUpdateInput{Name: &name}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("other seller want forbidden, got %v", err)
	}
	blank := " "
	if _, err := env.users.UpdateProfile(ctx, seller, constants.RoleSeller, seller.Base().ID, ProfileUpdateInput{Name: &blank}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name want validation error, got %v", err)
	}

	disabled := constants.UserStatusDisabled
	if _, err := env.users.UpdateProfile(ctx, seller, constants.RoleSeller, seller.Base().ID, ProfileUpdateInput{Status: &disabled}); err != nil {
		t.Fatalf("self status update should be ignored, got %v", err)
	}
	reloaded, err := env.userRepo.GetByID(seller.Base().ID)
	if err != nil || reloaded.Status != constants.UserStatusActive {
		t.Fatalf("seller should not disable itself: %+v %v", reloaded, err)
	}

	_, tokens, err := env.auth.Login(ctx, "seller@example.com", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, env.admin(t), constants.RoleSeller, seller.Base().ID, ProfileUpdateInput{Status: &disabled}); err != nil {
		t.Fatalf("admin disable failed: %v", err)
	}
	if _, err := env.auth.Authenticate(ctx, tokens.AccessToken); err == nil {
		t.Fatalf("disabled account token should be rejected")
	}
	if _, _, err := env.auth.Login(ctx, "seller@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("disabled account login want invalid credentials, got %v", err)
	}
}

func TestDeleteSellerCascadesProducts(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	customer := env.register(t, constants.RoleCustomer, "customer@example.com")
	product := env.createProduct(t, seller, "Tools", "Hammer", 12)
	if _, err := env.basket.AddProduct(customer, customer.Base().ID, product.ID); err != nil {
		t.Fatalf("add to basket failed: %v", err)
	}

	if err := env.users.DeleteAccount(ctx, customer, constants.RoleSeller, seller.Base().ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("customer deleting seller want forbidden, got %v", err)
	}
	if err := env.users.DeleteAccount(ctx, seller, constants.RoleSeller, seller.Base().ID); err != nil {
		t.Fatalf("delete seller failed: %v", err)
	}
	if _, err := env.users.GetSeller(seller.Base().ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("deleted seller want not found, got %v", err)
	}
	if _, err := env.product.Get(ctx, product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("seller products should be removed, got %v", err)
	}
	detail, err := env.basket.ListItems(customer, customer.Base().ID)
	if err != nil {
		t.Fatalf("list basket failed: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("basket items for deleted products should be removed, got %d", len(detail.Items))
	}
}

func TestListByRole(t *testing.T) {
	env := setupServiceTest(t)
	env.register(t, constants.RoleSeller, "a@example.com")
	env.register(t, constants.RoleSeller, "b@example.com")
	env.register(t, constants.RoleCustomer, "c@example.com")

	users, total, err := env.users.ListByRole(constants.RoleSeller, 1, 10, "")
	if err != nil {
		t.Fatalf("list sellers failed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Fatalf("expected 2 sellers, got %d", total)
	}
	if _, _, err := env.users.ListByRole("pirate", 1, 10, ""); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("unknown role want validation error, got %v", err)
	}
}

func TestWritesUseInjectedRepositories(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	product := env.createProduct(t, seller, "Garden", "Watering Can", 15)

	global := models.DB
	models.DB = nil
	t.Cleanup(func() { models.DB = global })

	customer, err := env.auth.Register(RegisterInput{
		Role:     constants.RoleCustomer,
		Email:    "injected@example.com",
		Password: "secret123",
		Name:     "Injected",
	})
	if err != nil {
		t.Fatalf("register without global db failed: %v", err)
	}
	name := "Renamed"
	if _, err := env.users.UpdateProfile(ctx, customer, constants.RoleCustomer, customer.Base().ID, ProfileUpdateInput{Name: &name}); err != nil {
		t.Fatalf("update profile without global db failed: %v", err)
	}
	item, err := env.basket.AddProduct(customer, customer.Base().ID, product.ID)
	if err != nil {
		t.Fatalf("add basket product without global db failed: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("quantity want 1 got %d", item.Quantity)
	}
}
