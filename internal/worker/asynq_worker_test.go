package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/service"

	"github.com/hibiken/asynq"
)

type fakeApplier struct {
	calls []string
	err   error
}

func (f *fakeApplier) ApplyPaymentEvent(_ context.Context, eventID string) error {
	f.calls = append(f.calls, eventID)
	return f.err
}

func TestHandleCheckoutPaymentEvent(t *testing.T) {
	applier := &fakeApplier{}
	consumer := &Consumer{checkout: applier}

	task, err := queue.NewCheckoutPaymentEventTask(queue.CheckoutPaymentEventPayload{EventID: "evt_1"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if err := consumer.handleCheckoutPaymentEvent(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}
	if len(applier.calls) != 1 || applier.calls[0] != "evt_1" {
		t.Fatalf("unexpected calls: %v", applier.calls)
	}

	applier.err = fmt.Errorf("lookup: %w", service.ErrPaymentEventNotFound)
	if err := consumer.handleCheckoutPaymentEvent(context.Background(), task); err != nil {
		t.Fatalf("missing event should not be retried, got %v", err)
	}

	applier.err = errors.New("db down")
	if err := consumer.handleCheckoutPaymentEvent(context.Background(), task); err == nil {
		t.Fatalf("store errors should be returned for retry")
	}

	broken := asynq.NewTask(queue.TaskCheckoutPaymentEvent, []byte("{"))
	if err := consumer.handleCheckoutPaymentEvent(context.Background(), broken); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("invalid payload should fail without retry, got %v", err)
	}
}

func TestHandleCheckoutPaymentEventWithoutService(t *testing.T) {
	consumer := NewConsumer(nil)
	task, _ := queue.NewCheckoutPaymentEventTask(queue.CheckoutPaymentEventPayload{EventID: "evt_2"})
	if err := consumer.handleCheckoutPaymentEvent(context.Background(), task); err != nil {
		t.Fatalf("consumer without checkout service should skip, got %v", err)
	}
}

type countingReconciler struct {
	runs atomic.Int32
}

func (r *countingReconciler) ReconcilePending(_ context.Context, olderThan time.Duration, limit int) (int, error) {
	if olderThan != checkoutReconcileAfter || limit != checkoutReconcileBatch {
		return 0, fmt.Errorf("unexpected args %s %d", olderThan, limit)
	}
	r.runs.Add(1)
	return 1, nil
}

func TestReconcileLoopStopsWithContext(t *testing.T) {
	reconciler := &countingReconciler{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job := reconcileJob(reconciler)
		job.interval = 10 * time.Millisecond
		runPeriodic(ctx, job)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for reconciler.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("reconcile loop did not tick, runs=%d", reconciler.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("reconcile loop did not stop after cancel")
	}
}

func TestNewServiceRequiresQueue(t *testing.T) {
	if _, err := NewService(nil, &Consumer{}, nil); !errors.Is(err, queue.ErrQueueDisabled) {
		t.Fatalf("want ErrQueueDisabled, got %v", err)
	}
}

func TestNewServiceRegistersReconcileJob(t *testing.T) {
	cfg := &config.QueueConfig{Enabled: true, Host: "127.0.0.1", Port: 6379}
	svc, err := NewService(cfg, &Consumer{}, &countingReconciler{})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if len(svc.jobs) != 1 || svc.jobs[0].name != "checkout_reconcile" {
		t.Fatalf("unexpected jobs: %+v", svc.jobs)
	}
	if svc.Name() != "worker" {
		t.Fatalf("unexpected name: %s", svc.Name())
	}

	without, err := NewService(cfg, &Consumer{}, nil)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	if len(without.jobs) != 0 {
		t.Fatalf("nil reconciler should not register jobs")
	}
}

func TestPeriodicJobErrorsDoNotStopLoop(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	job := periodicJob{
		name:     "flaky",
		interval: 5 * time.Millisecond,
		run: func(context.Context) (int, error) {
			if runs.Add(1) == 1 {
				return 0, errors.New("transient")
			}
			return 0, nil
		},
	}
	go runPeriodic(ctx, job)

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("job stopped after error, runs=%d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
