package shutdown

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/telemetry/logger"
)

func newTestHandler(timeout time.Duration) *Handler {
	h := NewHandler(timeout)
	h.SetLogger(logger.Nop())
	return h
}

func TestNewHandler_DefaultTimeout(t *testing.T) {
	if h := NewHandler(0); h.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", h.timeout, DefaultTimeout)
	}
	if h := NewHandler(time.Second); h.timeout != time.Second {
		t.Errorf("timeout = %v, want 1s", h.timeout)
	}
}

func TestHandler_ReverseOrder(t *testing.T) {
	h := newTestHandler(time.Second)

	var order []string
	for _, name := range []string{"store", "http", "poller"} {
		h.OnShutdown(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got, want := strings.Join(order, ","), "poller,http,store"; got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestHandler_ErrorsJoined(t *testing.T) {
	h := newTestHandler(time.Second)
	errStore := errors.New("store busy")
	errHTTP := errors.New("listener stuck")

	ran := 0
	h.OnClose("store", func() error { ran++; return errStore })
	h.OnShutdown("ok", func(context.Context) error { ran++; return nil })
	h.OnShutdown("http", func(context.Context) error { ran++; return errHTTP })

	err := h.Shutdown()
	if !errors.Is(err, errStore) || !errors.Is(err, errHTTP) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
	if ran != 3 {
		t.Errorf("hooks run = %d, want 3", ran)
	}
	if !strings.Contains(err.Error(), "store: store busy") {
		t.Errorf("Shutdown() error = %v, want hook name prefix", err)
	}
}

func TestHandler_RunsOnce(t *testing.T) {
	h := newTestHandler(time.Second)
	calls := 0
	h.OnShutdown("count", func(context.Context) error { calls++; return nil })

	_ = h.Shutdown()
	_ = h.Shutdown()

	if calls != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed after Shutdown()")
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := newTestHandler(20 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Shutdown() took %v", elapsed)
	}
}

func TestHandler_WaitOnSignal(t *testing.T) {
	h := newTestHandler(time.Second)
	h.signals = []os.Signal{syscall.SIGUSR1}

	closed := make(chan struct{})
	h.OnShutdown("marker", func(context.Context) error {
		close(closed)
		return nil
	})

	ctx, stop := h.Context(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after the signal")
	}
	select {
	case <-closed:
	default:
		t.Error("hook did not run")
	}
}

func TestHandler_WaitOnCancel(t *testing.T) {
	h := newTestHandler(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}
