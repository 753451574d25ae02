package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  atomic.Int32
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped.Add(1)
	return nil
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, mode)

	mode, err = ParseMode(" API ")
	require.NoError(t, err)
	assert.Equal(t, ModeAPI, mode)

	_, err = ParseMode("cron")
	assert.Error(t, err)
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	failing := &fakeService{name: "failing", startErr: errors.New("bind failed")}
	blocking := &fakeService{name: "blocking", block: true}

	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, nil)
	require.EqualError(t, err, "bind failed")
	assert.Equal(t, int32(1), failing.stopped.Load())
	assert.Equal(t, int32(1), blocking.stopped.Load())
}

func TestRunnerContextCancelIsCleanExit(t *testing.T) {
	blocking := &fakeService{name: "blocking", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := NewRunner(blocking).Run(ctx, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), blocking.stopped.Load())
	assert.Equal(t, []string{"blocking"}, NewRunner(blocking).Names())
}

func TestRunnerWithoutServices(t *testing.T) {
	assert.Error(t, NewRunner().Run(context.Background(), time.Second, nil))
	assert.Error(t, RunWithOptions(nil, Options{}))
}

func TestBuildRunnerRejectsInvalidInput(t *testing.T) {
	_, err := BuildRunner(nil, ModeAll)
	assert.Error(t, err)

	_, err = BuildRunner(&config.Config{}, "cron")
	assert.Error(t, err)

	_, err = BuildRunner(&config.Config{}, ModeWorker)
	assert.ErrorContains(t, err, "queue.enabled")
}

func TestNormalizeOptionsDefaults(t *testing.T) {
	opts := normalizeOptions(Options{})
	assert.NotNil(t, opts.Logger)
	assert.Equal(t, defaultShutdownTimeout, opts.ShutdownTimeout)
	assert.Equal(t, ModeAll, opts.Mode)
}

type failingStop struct {
	fakeService
}

func (s *failingStop) Stop(context.Context) error {
	s.stopped.Add(1)
	return errors.New("drain timeout")
}

func TestRunnerStopErrorsAreCollected(t *testing.T) {
	a := &failingStop{fakeService{name: "a", block: true}}
	b := &failingStop{fakeService{name: "b", block: true}}

	err := NewRunner(a, b).stopAll(time.Second)
	require.Error(t, err)
	assert.ErrorContains(t, err, "a: drain timeout")
	assert.ErrorContains(t, err, "b: drain timeout")
}

func TestRunnerServiceCleanExitStopsOthers(t *testing.T) {
	done := &fakeService{name: "done"}
	blocking := &fakeService{name: "blocking", block: true}

	require.NoError(t, NewRunner(done, nil, blocking).Run(context.Background(), time.Second, nil))
	assert.Equal(t, int32(1), blocking.stopped.Load())
	assert.Equal(t, []string{"done", "blocking"}, NewRunner(done, nil, blocking).Names())
}

func TestHTTPServiceServesAndStops(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler)
	assert.Equal(t, 30*time.Second, svc.server.ReadTimeout)
	assert.Equal(t, 120*time.Second, svc.server.IdleTimeout)

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()

	var addr string
	require.Eventually(t, func() bool {
		addr = svc.Addr()
		return addr != "127.0.0.1:0"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NoError(t, svc.Stop(context.Background()))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("http service did not stop")
	}
}
