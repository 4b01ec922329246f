package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/app"
	"github.com/lifenjoy/campaigns/pkg/logger"
)

// fakeApp overrides the lifecycle methods used by runServer.
type fakeApp struct {
	app.AppInterface

	initErr     error
	startErr    error
	stopped     chan struct{}
	blockUntil  bool
	timeout     time.Duration
	shutdownHit bool
}

func newFakeApp() *fakeApp {
	return &fakeApp{stopped: make(chan struct{})}
}

func (f *fakeApp) Initialize() error { return f.initErr }

func (f *fakeApp) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeApp) SetShutdownTimeout(timeout time.Duration) { f.timeout = timeout }

func (f *fakeApp) GetActiveRequestCount() int64 { return 0 }

func (f *fakeApp) Shutdown(ctx context.Context) error {
	f.shutdownHit = true
	defer close(f.stopped)
	if f.blockUntil {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func factory(f *fakeApp) NewAppFunc {
	return func(cfg *config.Config, opts ...app.AppOption) app.AppInterface {
		return f
	}
}

// withSignals makes the first n calls to signalNotify deliver SIGTERM.
func withSignals(t *testing.T, n int) {
	t.Helper()
	original := signalNotify
	calls := 0
	signalNotify = func(c chan<- os.Signal, sig ...os.Signal) {
		calls++
		if calls <= n {
			c <- syscall.SIGTERM
		}
	}
	t.Cleanup(func() { signalNotify = original })
}

func TestRunServer_InitializeError(t *testing.T) {
	withSignals(t, 0)
	f := newFakeApp()
	f.initErr = errors.New("database unreachable")

	err := runServer(&config.Config{}, logger.NewMockLogger(), factory(f))
	assert.EqualError(t, err, "database unreachable")
	assert.False(t, f.shutdownHit)
}

func TestRunServer_StartError(t *testing.T) {
	withSignals(t, 0)
	f := newFakeApp()
	f.startErr = errors.New("address already in use")

	err := runServer(&config.Config{}, logger.NewMockLogger(), factory(f))
	assert.EqualError(t, err, "address already in use")
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	withSignals(t, 1)
	f := newFakeApp()

	err := runServer(&config.Config{}, logger.NewMockLogger(), factory(f))
	require.NoError(t, err)
	assert.True(t, f.shutdownHit)
	assert.Equal(t, appShutdownTimeout, f.timeout)
}

func TestRunServer_ForcedShutdown(t *testing.T) {
	withSignals(t, 2)
	f := newFakeApp()
	f.blockUntil = true

	err := runServer(&config.Config{}, logger.NewMockLogger(), factory(f))
	assert.EqualError(t, err, "forced shutdown")
	assert.True(t, f.shutdownHit)
}
