package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bazaar-next/internal/models"
)

// byID 以数字主键寻址的一类缓存对象
type byID[T any] struct {
	pattern string
	ttl     time.Duration
}

func (b byID[T]) key(id uint) string {
	return fmt.Sprintf(b.pattern, id)
}

func (b byID[T]) get(ctx context.Context, id uint) (*T, bool, error) {
	if id == 0 {
		return nil, false, nil
	}
	var value T
	hit, err := GetJSON(ctx, b.key(id), &value)
	if err != nil || !hit {
		return nil, false, err
	}
	return &value, true, nil
}

func (b byID[T]) set(ctx context.Context, id uint, value *T) error {
	if id == 0 || value == nil {
		return nil
	}
	return SetJSON(ctx, b.key(id), value, b.ttl)
}

func (b byID[T]) del(ctx context.Context, id uint) error {
	if id == 0 {
		return nil
	}
	return Del(ctx, b.key(id))
}

var (
	authStates     = byID[UserAuthState]{pattern: "auth:user:%d", ttl: 10 * time.Minute}
	productDetails = byID[models.Product]{pattern: "product:detail:%d", ttl: 5 * time.Minute}
)

// UserAuthState 账号鉴权快照，令牌校验时代替查询 users 表
type UserAuthState struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	TokenVersion uint64 `json:"token_version"`
	UpdatedAt    int64  `json:"updated_at"`
}

// BuildUserAuthState 从账号记录构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{
		UserID:       user.ID,
		Role:         user.Role,
		Status:       user.Status,
		TokenVersion: user.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetUserAuthState 读取鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	return authStates.get(ctx, userID)
}

// SetUserAuthState 写入鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil {
		return nil
	}
	return authStates.set(ctx, state.UserID, state)
}

// DelUserAuthState 账号状态、密码或令牌版本变化后删除快照
func DelUserAuthState(ctx context.Context, userID uint) error {
	return authStates.del(ctx, userID)
}

// GetProductDetail 读取商品详情缓存
func GetProductDetail(ctx context.Context, productID uint) (*models.Product, bool, error) {
	return productDetails.get(ctx, productID)
}

// SetProductDetail 写入商品详情缓存
func SetProductDetail(ctx context.Context, product *models.Product) error {
	if product == nil {
		return nil
	}
	return productDetails.set(ctx, product.ID, product)
}

// DelProductDetail 商品或评分变化后删除详情缓存
func DelProductDetail(ctx context.Context, productID uint) error {
	return productDetails.del(ctx, productID)
}
