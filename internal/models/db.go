package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB 全局连接，由 InitDB 设置
var DB *gorm.DB

const pingTimeout = 5 * time.Second

// sqlitePragmas 文件库默认开启 WAL 与忙等待，避免 API 与 worker 并发写时报 database is locked
var sqlitePragmas = []string{"_pragma=busy_timeout(5000)", "_pragma=journal_mode(WAL)"}

// OpenDialector 根据驱动名构建 gorm 方言
func OpenDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return sqlite.Open(withSQLitePragmas(dsn)), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// withSQLitePragmas 内存库与已显式设置 _pragma 的 DSN 保持原样
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(sqlitePragmas, "&")
}

// Open 打开连接、应用连接池配置并确认可达
func Open(cfg config.DatabaseConfig, traceSQL bool) (*gorm.DB, error) {
	dialector, err := OpenDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(traceSQL),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialector.Name(), err)
	}
	return db, nil
}

// InitDB 初始化全局连接
func InitDB(cfg config.DatabaseConfig, traceSQL bool) error {
	db, err := Open(cfg, traceSQL)
	if err != nil {
		return err
	}
	DB = db
	logger.Infow("database_connected", "driver", db.Dialector.Name())
	return nil
}

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &SellerProfile{}, &CustomerProfile{},
		&Category{}, &Product{},
		&Rate{}, &Comment{},
		&Basket{}, &BasketItem{},
		&CheckoutSession{}, &PaymentEvent{},
	}
}

// AutoMigrate 迁移全局连接
func AutoMigrate() error {
	return MigrateWith(DB)
}

// MigrateWith 对指定连接执行迁移（测试与种子命令复用）
func MigrateWith(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}
	return db.AutoMigrate(AllModels()...)
}
