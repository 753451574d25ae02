package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 认证服务（注册、登录、令牌签发与校验）
type AuthService struct {
	cfg        *config.Config
	userRepo   repository.UserRepository
	basketRepo repository.BasketRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, basketRepo repository.BasketRepository) *AuthService {
	return &AuthService{
		cfg:        cfg,
		userRepo:   userRepo,
		basketRepo: basketRepo,
	}
}

// UserJWTClaims JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenType    string `json:"token_type"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenPair 登录返回的双令牌
type TokenPair struct {
	AccessToken      string    `json:"access"`
	RefreshToken     string    `json:"refresh,omitempty"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitempty"`
}

// RegisterInput 注册输入
type RegisterInput struct {
	Role        string
	Email       string
	Password    string
	Name        string
	SecondName  string
	PhoneNumber string
	Description string
	CardNumber  string
	PostCode    string
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// Register 注册卖家或顾客；顾客的购物篮与账号在同一事务内创建
func (s *AuthService) Register(input RegisterInput) (Account, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != constants.RoleSeller && role != constants.RoleCustomer {
		return nil, ErrInvalidRole
	}
	user, err := s.buildUser(input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProfileNameEmpty
	}

	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		if err := userRepo.Create(user); err != nil {
			return err
		}
		switch role {
		case constants.RoleSeller:
			profile := &models.SellerProfile{
				UserID:      user.ID,
				Name:        name,
				SecondName:  strings.TrimSpace(input.SecondName),
				PhoneNumber: strings.TrimSpace(input.PhoneNumber),
				Description: strings.TrimSpace(input.Description),
			}
			if err := userRepo.SaveSellerProfile(profile); err != nil {
				return err
			}
			user.SellerProfile = profile
		case constants.RoleCustomer:
			profile := &models.CustomerProfile{
				UserID:      user.ID,
				Name:        name,
				SecondName:  strings.TrimSpace(input.SecondName),
				PhoneNumber: strings.TrimSpace(input.PhoneNumber),
				CardNumber:  strings.TrimSpace(input.CardNumber),
				PostCode:    strings.TrimSpace(input.PostCode),
			}
			if err := userRepo.SaveCustomerProfile(profile); err != nil {
				return err
			}
			user.CustomerProfile = profile
			if err := s.basketRepo.WithTx(tx).Create(&models.Basket{CustomerID: user.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	logger.Infow("account_registered", "user_id", user.ID, "role", role)
	return NewAccount(user)
}

// CreateAdmin 由管理员创建新的管理员账号
func (s *AuthService) CreateAdmin(email, password string) (Account, error) {
	user, err := s.buildUser(email, password, constants.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	logger.Infow("admin_created", "user_id", user.ID)
	return NewAccount(user)
}

func (s *AuthService) buildUser(email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	if err := s.ValidatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       constants.UserStatusActive,
	}, nil
}

// Login 邮箱密码登录，返回 access/refresh 双令牌
func (s *AuthService) Login(ctx context.Context, email, password string) (Account, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !isActiveStatus(user.Status) {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warnw("login_touch_failed", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))

	account, err := NewAccount(user)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Refresh 使用 refresh token 换取新的 access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.ParseToken(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.loadActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	access, expiresAt, err := s.signToken(user, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, AccessExpiresAt: expiresAt}, nil
}

// Authenticate 校验 access token 并返回调用者账号
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (Account, error) {
	claims, err := s.ParseToken(accessToken, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.loadActiveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return NewAccount(user)
}

// ParseToken 解析并校验令牌类型
func (s *AuthService) ParseToken(tokenString, tokenType string) (*UserJWTClaims, error) {
	if s.cfg == nil || strings.TrimSpace(s.cfg.JWT.SecretKey) == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ChangePassword 修改密码，并使已签发令牌全部失效
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
	return nil
}

// loadActiveUser 命中 Redis 鉴权快照时直接返回精简账号，未命中时回源数据库
func (s *AuthService) loadActiveUser(ctx context.Context, claims *UserJWTClaims) (*models.User, error) {
	if cached, hit, cacheErr := cache.GetUserAuthState(ctx, claims.UserID); cacheErr == nil && hit && cached != nil {
		if !isActiveStatus(cached.Status) {
			return nil, ErrAccountDisabled
		}
		if claims.TokenVersion != cached.TokenVersion || claims.Role != cached.Role {
			return nil, ErrTokenRevoked
		}
		return &models.User{
			ID:           claims.UserID,
			Email:        claims.Email,
			Role:         cached.Role,
			Status:       cached.Status,
			TokenVersion: cached.TokenVersion,
		}, nil
	}
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if !isActiveStatus(user.Status) {
		return nil, ErrAccountDisabled
	}
	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrTokenRevoked
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
	return user, nil
}

func (s *AuthService) issueTokenPair(user *models.User) (*TokenPair, error) {
	access, accessExpiresAt, err := s.signToken(user, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExpiresAt, err := s.signToken(user, constants.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *AuthService) signToken(user *models.User, tokenType string) (string, time.Time, error) {
	now := time.Now()
	ttl := time.Duration(s.cfg.JWT.AccessExpireMinutes) * time.Minute
	if tokenType == constants.TokenTypeRefresh {
		ttl = time.Duration(s.cfg.JWT.RefreshExpireHours) * time.Hour
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := now.Add(ttl)

	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenType:    tokenType,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isActiveStatus(status string) bool {
	return strings.TrimSpace(status) == "" || status == constants.UserStatusActive
}
