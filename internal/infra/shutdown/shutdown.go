package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/filegate/internal/telemetry/logger"
)

// DefaultTimeout bounds the time all hooks together may take.
const DefaultTimeout = 10 * time.Second

type hook struct {
	name string
	fn   func(context.Context) error
}

// Handler runs registered hooks once the process is asked to stop.
type Handler struct {
	timeout time.Duration
	hooks   []hook
	mu      sync.Mutex
	once    sync.Once
	err     error
	done    chan struct{}
	log     logger.Logger
	signals []os.Signal
}

// NewHandler creates a new shutdown handler.
func NewHandler(timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		timeout: timeout,
		done:    make(chan struct{}),
		log:     logger.Default(),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// SetLogger replaces the logger used to report hook failures.
func (h *Handler) SetLogger(l logger.Logger) {
	h.log = l
}

// OnShutdown registers a named hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// OnClose registers a hook for a plain Close method.
func (h *Handler) OnClose(name string, close func() error) {
	h.OnShutdown(name, func(context.Context) error { return close() })
}

// Context returns a context cancelled on SIGINT or SIGTERM, or when stop
// is called.
func (h *Handler) Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, h.signals...)
}

// Wait blocks until ctx is done and then runs the hooks.
func (h *Handler) Wait(ctx context.Context) error {
	<-ctx.Done()
	return h.Shutdown()
}

// Shutdown runs every hook once, newest first, within the timeout.
// Later calls return the first result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			hk := hooks[i]
			start := time.Now()
			if err := hk.fn(ctx); err != nil {
				h.log.Error("shutdown hook failed", "hook", hk.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", hk.name, err))
				continue
			}
			h.log.Debug("shutdown hook done", "hook", hk.name, "elapsed", time.Since(start))
		}

		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Done returns a channel closed once every hook has run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
