package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bazaar-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "bz"
	pingTimeout   = 2 * time.Second
)

// 未启用 Redis 时所有读写都是空操作，读取恒为未命中
var (
	mu     sync.RWMutex
	client *redis.Client
	prefix = defaultPrefix
)

// InitRedis 按配置连接 Redis；连接不可用时保持禁用并返回错误
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		UseClient(nil, "")
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}

	candidate := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := candidate.Ping(ctx).Err(); err != nil {
		_ = candidate.Close()
		UseClient(nil, "")
		return fmt.Errorf("redis ping %s:%d failed: %w", host, port, err)
	}
	UseClient(candidate, cfg.Prefix)
	return nil
}

// UseClient 替换当前客户端；nil 表示禁用缓存
func UseClient(next *redis.Client, keyPrefix string) {
	mu.Lock()
	defer mu.Unlock()
	client = next
	prefix = defaultPrefix
	if trimmed := strings.TrimSpace(keyPrefix); trimmed != "" {
		prefix = trimmed
	}
}

// Close 关闭连接并禁用缓存
func Close() error {
	mu.Lock()
	current := client
	client = nil
	mu.Unlock()
	if current == nil {
		return nil
	}
	return current.Close()
}

// Enabled 缓存是否可用
func Enabled() bool {
	return Client() != nil
}

// Client 当前 Redis 客户端，未启用时为 nil
func Client() *redis.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// BuildKey 返回带前缀的完整 key
func BuildKey(key string) string {
	mu.RLock()
	p := prefix
	mu.RUnlock()
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return p
	}
	return p + ":" + trimmed
}

// GetJSON 读取 JSON 缓存，返回是否命中
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	c := Client()
	if c == nil {
		return false, nil
	}
	raw, err := c.Get(ctx, BuildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cache %s failed: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c := Client()
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, BuildKey(key), payload, ttl).Err()
}

// Del 删除缓存
func Del(ctx context.Context, keys ...string) error {
	c := Client()
	if c == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, BuildKey(key))
	}
	return c.Del(ctx, full...).Err()
}
