// Package bootstrap provides application lifecycle helpers.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
)

// App runs a command and releases the resources it opened afterwards.
type App struct {
	mu    sync.Mutex
	hooks []func(ctx context.Context) error
}

// New creates a new App.
func New() *App {
	return &App{}
}

// AddShutdownHook registers a function to call once run has finished.
// Hooks run in reverse order (LIFO). Thread-safe.
func (a *App) AddShutdownHook(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Run executes run with a context that is cancelled on OS interrupt.
// After run returns, the registered shutdown hooks run in LIFO order and
// their errors are joined with the error of run.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Default().Debug("interrupted, waiting for the command to stop")
		runErr = <-errCh
	case runErr = <-errCh:
	}
	return errors.Join(runErr, a.shutdown(context.WithoutCancel(ctx)))
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.hooks
	a.hooks = nil
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
