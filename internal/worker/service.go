package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	checkoutReconcileInterval = time.Minute
	checkoutReconcileAfter    = 30 * time.Minute
	checkoutReconcileBatch    = 50
)

// CheckoutReconciler 对长时间未回调的结算会话主动同步
type CheckoutReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// periodicJob 随 worker 生命周期运行的定时任务
type periodicJob struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (int, error)
}

func reconcileJob(reconciler CheckoutReconciler) periodicJob {
	return periodicJob{
		name:     "checkout_reconcile",
		interval: checkoutReconcileInterval,
		run: func(ctx context.Context) (int, error) {
			return reconciler.ReconcilePending(ctx, checkoutReconcileAfter, checkoutReconcileBatch)
		},
	}
}

// Service 异步队列服务：asynq 消费者 + 定时任务
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	jobs   []periodicJob

	mu     sync.Mutex
	cancel context.CancelFunc
	loops  sync.WaitGroup
}

// NewService 创建异步队列服务；reconciler 为 nil 时不启动对账任务
func NewService(cfg *config.QueueConfig, consumer *Consumer, reconciler CheckoutReconciler) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, queue.ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	serverCfg.Logger = newAsynqLogger()
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(reportTaskFailure)

	svc := &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    asynq.NewServeMux(),
	}
	consumer.Register(svc.mux)
	if reconciler != nil {
		svc.jobs = append(svc.jobs, reconcileJob(reconciler))
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动定时任务并阻塞运行消费者
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for _, job := range s.jobs {
		s.loops.Add(1)
		go func(job periodicJob) {
			defer s.loops.Done()
			runPeriodic(loopCtx, job)
		}(job)
	}
	return s.server.Run(s.mux)
}

// Stop 停止定时任务与消费者，等待超过 ctx 期限时返回超时错误
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		s.loops.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runPeriodic(ctx context.Context, job periodicJob) {
	tick := func() {
		changed, err := job.run(ctx)
		if err != nil {
			logger.Warnw("worker_job_failed", "job", job.name, "error", err)
			return
		}
		if changed > 0 {
			logger.Infow("worker_job_done", "job", job.name, "changed", changed)
		}
	}
	tick()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

func reportTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.Warnw("worker_task_failed",
		"type", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}
