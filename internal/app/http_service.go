package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
)

// HTTPService 对外 API 服务
type HTTPService struct {
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

// NewHTTPService 按服务器配置创建 HTTP 服务
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       seconds(cfg.ReadTimeoutSeconds, 30*time.Second),
			WriteTimeout:      seconds(cfg.WriteTimeoutSeconds, 30*time.Second),
			IdleTimeout:       seconds(cfg.IdleTimeoutSeconds, 120*time.Second),
			ErrorLog:          logger.StdLogger(),
		},
	}
}

func (s *HTTPService) Name() string { return "http" }

// Addr 实际监听地址，Start 之前为配置值
func (s *HTTPService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start 绑定端口并阻塞服务，直到 Stop 被调用
func (s *HTTPService) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Infow("http_listen", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求完成
func (s *HTTPService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
