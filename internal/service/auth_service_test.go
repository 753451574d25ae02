package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
)

func TestRegisterCustomerCreatesEmptyBasket(t *testing.T) {
	env := setupServiceTest(t)
	account := env.register(t, constants.RoleCustomer, "A@B.com")
	mustRole(t, account, constants.RoleCustomer)
	if account.Base().Email != "a@b.com" {
		t.Fatalf("email should be normalized, got %s", account.Base().Email)
	}
	customer, ok := account.(*CustomerAccount)
	if !ok || customer.Profile == nil || customer.Profile.Name == "" {
		t.Fatalf("customer profile missing: %+v", account)
	}

	detail, err := env.basket.ListItems(account, account.Base().ID)
	if err != nil {
		t.Fatalf("basket should exist after registration: %v", err)
	}
	if len(detail.Items) != 0 {
		t.Fatalf("new basket should be empty, got %d items", len(detail.Items))
	}
}

func TestRegisterSellerHasNoBasket(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	mustRole(t, seller, constants.RoleSeller)

	basket, err := env.basketRepo.GetByCustomerID(seller.Base().ID)
	if err != nil {
		t.Fatalf("get basket failed: %v", err)
	}
	if basket != nil {
		t.Fatalf("seller should not own a basket")
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupServiceTest(t)
	env.register(t, constants.RoleCustomer, "dup@example.com")

	cases := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"duplicate email", RegisterInput{Role: constants.RoleSeller, Email: "DUP@example.com", Password: "secret123", Name: "x"}, ErrEmailExists},
		{"bad role", RegisterInput{Role: constants.RoleAdmin, Email: "x@example.com", Password: "secret123", Name: "x"}, ErrInvalidRole},
		{"bad email", RegisterInput{Role: constants.RoleCustomer, Email: "not-an-email", Password: "secret123", Name: "x"}, ErrInvalidEmail},
		{"weak password", RegisterInput{Role: constants.RoleCustomer, Email: "w@example.com", Password: "short", Name: "x"}, ErrWeakPassword},
		{"missing name", RegisterInput{Role: constants.RoleCustomer, Email: "n@example.com", Password: "secret123"}, ErrProfileNameEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := env.auth.Register(RegisterInput{Role: constants.RoleCustomer, Email: "dup@example.com", Password: "secret123", Name: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email should be a conflict, got %v", err)
	}
}

func TestLoginRefreshAndAuthenticate(t *testing.T) {
	env := setupServiceTest(t)
	registered := env.register(t, constants.RoleCustomer, "login@example.com")
	ctx := context.Background()

	if _, _, err := env.auth.Login(ctx, "login@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password should fail with invalid credentials, got %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "missing@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should fail with invalid credentials, got %v", err)
	}

	account, pair, err := env.auth.Login(ctx, " LOGIN@example.com ", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if account.Base().ID != registered.Base().ID {
		t.Fatalf("login returned wrong account")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("token pair incomplete: %+v", pair)
	}

	caller, err := env.auth.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	mustRole(t, caller, constants.RoleCustomer)

	if _, err := env.auth.Authenticate(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not authenticate requests, got %v", err)
	}

	refreshed, err := env.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken != "" {
		t.Fatalf("refresh should only issue an access token: %+v", refreshed)
	}
	if _, err := env.auth.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	env := setupServiceTest(t)
	account := env.register(t, constants.RoleSeller, "pw@example.com")
	ctx := context.Background()

	_, pair, err := env.auth.Login(ctx, "pw@example.com", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := env.auth.ChangePassword(ctx, account.Base().ID, "bad-old-1", "newsecret1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password should fail, got %v", err)
	}
	if err := env.auth.ChangePassword(ctx, account.Base().ID, "secret123", "newsecret1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := env.auth.Authenticate(ctx, pair.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old token should be revoked, got %v", err)
	}
	if _, _, err := env.auth.Login(ctx, "pw@example.com", "newsecret1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestValidatePasswordPolicy(t *testing.T) {
	env := setupServiceTest(t)
	err := env.auth.ValidatePassword("abcdefgh")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("password without digit should be weak, got %v", err)
	}
	var policyErr passwordPolicyError
	if !errors.As(err, &policyErr) || policyErr.Reason() == "" {
		t.Fatalf("expected policy reason, got %v", err)
	}
	if err := env.auth.ValidatePassword("abcdefg1"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
}

func TestValidatePasswordCollectsViolations(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 10, RequireUpper: true, RequireNumber: true}

	err := validatePassword(policy, "short")
	var policyErr passwordPolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected policy error, got %v", err)
	}
	if len(policyErr.violations) != 3 {
		t.Fatalf("want 3 violations, got %v", policyErr.violations)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("policy error should match ErrValidation")
	}

	if err := validatePassword(policy, "Longenough12"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := validatePassword(config.PasswordPolicyConfig{}, ""); err != nil {
		t.Fatalf("empty policy should accept anything, got %v", err)
	}
	// 多字节字符按 rune 计数
	if err := validatePassword(config.PasswordPolicyConfig{MinLength: 4}, "密码密码"); err != nil {
		t.Fatalf("rune length should be used, got %v", err)
	}
}
