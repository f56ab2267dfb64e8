package bot

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
)

// DefaultWorkers is the number of updates handled at once.
const DefaultWorkers = 16

// Handler processes one update.
type Handler interface {
	Handle(ctx context.Context, u Update) error
}

// Dispatcher runs a Handler for each update on a bounded set of goroutines.
type Dispatcher struct {
	handler Handler
	metrics *metric.Registry
	log     logger.Logger
	group   errgroup.Group

	// slots holds one token per running handler.
	slots chan struct{}
	stop  chan struct{}

	mu      sync.Mutex
	entropy io.Reader

	// closing guards group.Go against a concurrent Wait. It is never held
	// while waiting for a slot.
	closing  sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher running at most workers handlers
// concurrently.
func NewDispatcher(h Handler, workers int, metrics *metric.Registry, log logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}
	if log == nil {
		log = logger.Default()
	}
	d := &Dispatcher{
		handler: h,
		metrics: metrics,
		log:     log,
		slots:   make(chan struct{}, workers),
		stop:    make(chan struct{}),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	return d
}

// Dispatch schedules u. It blocks while every worker is busy. Updates
// arriving after Stop, or with ctx done, are dropped, including ones still
// waiting for a worker.
func (d *Dispatcher) Dispatch(ctx context.Context, u Update) {
	select {
	case d.slots <- struct{}{}:
	case <-d.stop:
		d.drop(u)
		return
	case <-ctx.Done():
		d.drop(u)
		return
	}

	d.closing.RLock()
	defer d.closing.RUnlock()
	if d.closed || ctx.Err() != nil {
		<-d.slots
		d.drop(u)
		return
	}

	ctx = logger.WithRequestID(ctx, d.newID())
	if uid := u.UserID(); uid != 0 {
		ctx = logger.WithUserID(ctx, uid)
	}
	ctx = logger.WithLogger(ctx, d.log)

	d.group.Go(func() error {
		defer func() { <-d.slots }()
		d.run(ctx, u)
		return nil
	})
}

func (d *Dispatcher) drop(u Update) {
	d.log.Debug("update dropped", "update_id", u.ID, "kind", u.Kind())
}

// Wait blocks until every dispatched update has been handled.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}

// Stop rejects further updates and waits for the running ones until ctx
// is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stop) })
	d.closing.Lock()
	d.closed = true
	d.closing.Unlock()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, u Update) {
	kind := u.Kind()
	start := time.Now()
	d.metrics.UpdatesInFlight.Inc()

	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			logger.L(ctx).Error("handler panic", "kind", kind, "panic", fmt.Sprint(r))
		}
		d.metrics.UpdatesInFlight.Dec()
		d.metrics.RecordUpdate(kind, status)
		d.metrics.ObserveUpdateDuration(kind, time.Since(start).Seconds())
	}()

	if err := d.handler.Handle(ctx, u); err != nil {
		status = "error"
		logger.L(ctx).Error("update failed", "kind", kind, "update_id", u.ID, "error", err)
		return
	}
	logger.L(ctx).Debug("update handled", "kind", kind, "update_id", u.ID)
}

func (d *Dispatcher) newID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), d.entropy)
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
