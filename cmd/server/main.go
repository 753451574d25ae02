package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bazaar-next/internal/app"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
)

func main() {
	var (
		configPath string
		mode       string
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认依次查找 ./config.yml ./etc/config.yml")
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.StdLogger().Fatalf("config load failed: %v", err)
	}
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.IsRelease() {
			stdLog.Fatalf("jwt.secret is weak or still the default value")
		}
		logger.Warnw("jwt_secret_weak", "hint", "set a random secret of at least 32 chars before production")
	}

	if err := ensureSQLiteDir(cfg.Database); err != nil {
		stdLog.Fatalf("prepare sqlite dir failed: %v", err)
	}
	if err := models.InitDB(cfg.Database, cfg.Log.SQL); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migrate failed: %v", err)
	}

	adminEmail := os.Getenv("BZ_DEFAULT_ADMIN_EMAIL")
	adminPassword := os.Getenv("BZ_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.IsRelease() && adminPassword == "" {
		logger.Warnw("default_admin_skipped", "reason", "BZ_DEFAULT_ADMIN_PASSWORD not set")
	} else if err := models.InitDefaultAdmin(adminEmail, adminPassword); err != nil {
		logger.Warnw("default_admin_init_failed", "error", err)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("server exited: %v", err)
	}
}

func ensureSQLiteDir(cfg config.DatabaseConfig) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "" && driver != "sqlite" {
		return nil
	}
	path := strings.TrimPrefix(strings.TrimSpace(cfg.DSN), "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") || strings.Contains(normalized, "your-secret-key")
}
