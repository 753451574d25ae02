//go:build integration
// +build integration

package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// resolveRedisAddr 优先使用 TEST_REDIS_ADDR，否则启动临时容器。
func resolveRedisAddr(t *testing.T) string {
	t.Helper()
	if addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR")); addr != "" {
		return addr
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skip redis integration test: start container failed: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis container failed: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("resolve redis endpoint failed: %v", err)
	}
	return endpoint
}

func TestRateLimitMiddlewareWithRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client := redis.NewClient(&redis.Options{Addr: resolveRedisAddr(t)})
	defer client.Close()

	prefix := fmt.Sprintf("bz:rate:it:%d", time.Now().UnixNano())
	r := gin.New()
	r.Use(RateLimitMiddleware(client, RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: 60,
		MaxRequests:   2,
		Message:       "too many login attempts",
	}, KeyByIPAndJSONField("email")))
	r.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 200})
	})

	send := func(email string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:4000"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("a@example.com"); w.Code != http.StatusOK {
			t.Fatalf("attempt %d want 200 got %d", i+1, w.Code)
		}
	}
	w := send("a@example.com")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt want 429 got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("limited response should carry Retry-After")
	}
	if !strings.Contains(w.Body.String(), "too many login attempts") {
		t.Fatalf("unexpected limited body: %s", w.Body.String())
	}

	if w := send("b@example.com"); w.Code != http.StatusOK {
		t.Fatalf("other email should not share bucket, got %d", w.Code)
	}
}
