package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 支付相关高优先级队列
	CriticalQueue = constants.QueueCritical

	defaultMaxRetry     = 5
	defaultConcurrency  = 10
	enqueueTimeout      = 3 * time.Second
	paymentTaskTimeout  = 30 * time.Second
	paymentTaskRetained = 24 * time.Hour
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// enqueuer asynq.Client 的最小接口
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client 队列客户端封装
type Client struct {
	backend  enqueuer
	maxRetry int
}

// NewClient 创建队列客户端；未启用时返回禁用态客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return newClientWith(asynq.NewClient(redisOpt(cfg)), cfg.MaxRetry), nil
}

func newClientWith(backend enqueuer, maxRetry int) *Client {
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	return &Client{backend: backend, maxRetry: maxRetry}
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.backend != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.backend.Close()
}

// EnqueueCheckoutPaymentEvent 推送支付事件处理任务
// 队列未启用时返回 ErrQueueDisabled，由调用方同步处理；同一事件只入队一次
func (c *Client) EnqueueCheckoutPaymentEvent(eventID string) error {
	task, err := NewCheckoutPaymentEventTask(CheckoutPaymentEventPayload{EventID: eventID})
	if err != nil {
		return err
	}
	return c.enqueue(task,
		asynq.Queue(CriticalQueue),
		asynq.TaskID(paymentEventTaskID(strings.TrimSpace(eventID))),
		asynq.Timeout(paymentTaskTimeout),
		asynq.Retention(paymentTaskRetained),
	)
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	opts = append([]asynq.Option{asynq.MaxRetry(c.maxRetry)}, opts...)
	info, err := c.backend.EnqueueContext(ctx, task, opts...)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict), errors.Is(err, asynq.ErrDuplicateTask):
		logger.Debugw("queue_task_duplicate", "type", task.Type())
		return nil
	case err != nil:
		return err
	}
	if info != nil {
		logger.Debugw("queue_task_enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	}
	return nil
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1, CriticalQueue: 5},
	}
	if cfg == nil {
		return redisOpt(nil), serverCfg
	}
	if cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
