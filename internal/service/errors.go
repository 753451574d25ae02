package service

import (
	"errors"
	"fmt"
)

// 错误分类，handler 依据这些根错误映射 HTTP 状态码
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrConflict           = errors.New("conflict")
	ErrSignatureInvalid   = errors.New("webhook signature invalid")
	ErrPaymentGateway     = errors.New("payment gateway unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// 账号相关错误
var (
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrEmailExists      = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidRole      = fmt.Errorf("%w: invalid role", ErrValidation)
	ErrProfileNameEmpty = fmt.Errorf("%w: name is required", ErrValidation)
	ErrWeakPassword     = fmt.Errorf("%w: weak password", ErrValidation)
	ErrInvalidPassword  = fmt.Errorf("%w: old password mismatch", ErrInvalidCredentials)
	ErrAccountDisabled  = fmt.Errorf("%w: account disabled", ErrInvalidCredentials)
	ErrTokenRevoked     = fmt.Errorf("%w: token revoked", ErrInvalidToken)
)

// 商品目录相关错误
var (
	ErrCategoryNotFound  = fmt.Errorf("%w: category", ErrNotFound)
	ErrCategoryNameEmpty = fmt.Errorf("%w: category name is required", ErrValidation)
	ErrCategoryExists    = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrCategoryInUse     = fmt.Errorf("%w: category still referenced by products", ErrConflict)
	ErrProductNotFound   = fmt.Errorf("%w: product", ErrNotFound)
	ErrProductNameEmpty  = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrInvalidPrice      = fmt.Errorf("%w: price must be >= 0", ErrValidation)
	ErrSellerRequired    = fmt.Errorf("%w: seller_id is required", ErrValidation)
	ErrCommentNotFound   = fmt.Errorf("%w: comment", ErrNotFound)
	ErrInvalidRate       = fmt.Errorf("%w: rate must be between 1 and 5", ErrValidation)
	ErrAuthorRequired    = fmt.Errorf("%w: author_id is required", ErrValidation)
)

// 购物篮与结算相关错误
var (
	ErrBasketNotFound          = fmt.Errorf("%w: basket", ErrNotFound)
	ErrBasketItemNotFound      = fmt.Errorf("%w: basket item", ErrNotFound)
	ErrInvalidQuantity         = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrCheckoutSessionNotFound = fmt.Errorf("%w: checkout session", ErrNotFound)
	ErrPaymentEventNotFound    = fmt.Errorf("%w: payment event", ErrNotFound)
	ErrGatewaySessionMissing   = fmt.Errorf("%w: checkout session has no gateway session", ErrValidation)
)
