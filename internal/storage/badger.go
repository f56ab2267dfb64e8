package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/telemetry/logger"
)

// Key layout.
const (
	tokenPrefix     = "token/"
	unclaimedPrefix = "unclaimed/"
	userPrefix      = "user/"
)

// claimRetries bounds how often a conflicting claim transaction is retried.
const claimRetries = 5

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("badger store closed")

// BadgerStats contains storage statistics.
type BadgerStats struct {
	TotalSize    uint64
	LSMSize      uint64
	ValueLogSize uint64
	LastGCTime   int64 // Unix milliseconds
	GCRuns       uint64
}

// BadgerStore keeps tokens and users in an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger
	now    func() time.Time

	closed     atomic.Bool
	lastGCTime atomic.Int64
	gcRuns     atomic.Uint64

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	stopCh chan struct{}
	doneCh chan struct{}
}

// badgerRecord is the persisted form of a token record.
type badgerRecord struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiration_time"`
}

// NewBadgerStore opens a Badger database under cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, log logger.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: log}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.DetectConflicts = cfg.DetectConflicts

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go s.gcLoop()

	log.Info("badger store started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return s, nil
}

func tokenKey(userID int64) []byte {
	return []byte(tokenPrefix + strconv.FormatInt(userID, 10))
}

func unclaimedKey(token string) []byte {
	return []byte(unclaimedPrefix + token)
}

func userKey(userID int64) []byte {
	return []byte(userPrefix + strconv.FormatInt(userID, 10))
}

// GetToken returns the user's token record.
func (s *BadgerStore) GetToken(_ context.Context, userID int64) (*domain.TokenRecord, error) {
	var rec badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger: get token: %w", err)
	}
	return &domain.TokenRecord{UserID: userID, Token: rec.Token, ExpiresAt: rec.ExpiresAt}, nil
}

// UpsertToken creates or overwrites the user's token record.
func (s *BadgerStore) UpsertToken(_ context.Context, rec *domain.TokenRecord) error {
	val, err := json.Marshal(badgerRecord{Token: rec.Token, ExpiresAt: rec.ExpiresAt})
	if err != nil {
		return fmt.Errorf("badger: encode token: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(tokenKey(rec.UserID), val)
	}); err != nil {
		return fmt.Errorf("badger: upsert token: %w", err)
	}
	return nil
}

// ResetExpiration clears the expiry of an existing record.
func (s *BadgerStore) ResetExpiration(_ context.Context, userID int64) error {
	err := s.update(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var rec badgerRecord
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
			return err
		}
		rec.ExpiresAt = nil
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(tokenKey(userID), val)
	})
	if err != nil {
		return fmt.Errorf("badger: reset expiration: %w", err)
	}
	return nil
}

// ClaimToken moves an unclaimed token onto the user in one transaction.
func (s *BadgerStore) ClaimToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	val, err := json.Marshal(badgerRecord{Token: token, ExpiresAt: &expiresAt})
	if err != nil {
		return fmt.Errorf("badger: encode token: %w", err)
	}

	err = s.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(unclaimedKey(token)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrTokenInvalid
			}
			return err
		}
		if err := txn.Delete(unclaimedKey(token)); err != nil {
			return err
		}
		return txn.Set(tokenKey(userID), val)
	})
	if errors.Is(err, domain.ErrTokenInvalid) {
		return domain.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("badger: claim token: %w", err)
	}
	return nil
}

// AddUnclaimedToken stores a token without an owner.
func (s *BadgerStore) AddUnclaimedToken(_ context.Context, token string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(unclaimedKey(token), nil)
	}); err != nil {
		return fmt.Errorf("badger: add unclaimed token: %w", err)
	}
	return nil
}

// AddUser registers the user, keeping the first registration time.
func (s *BadgerStore) AddUser(_ context.Context, userID int64) error {
	err := s.update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(userID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		created := s.now().UTC().Format(time.RFC3339Nano)
		return txn.Set(userKey(userID), []byte(created))
	})
	if err != nil {
		return fmt.Errorf("badger: add user: %w", err)
	}
	return nil
}

// HasUser reports whether the user is registered.
func (s *BadgerStore) HasUser(_ context.Context, userID int64) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(userID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger: has user: %w", err)
	}
	return true, nil
}

// DeleteUser removes the user.
func (s *BadgerStore) DeleteUser(_ context.Context, userID int64) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(userKey(userID))
	}); err != nil {
		return fmt.Errorf("badger: delete user: %w", err)
	}
	return nil
}

// ListUsers returns the ids of all registered users in key order.
func (s *BadgerStore) ListUsers(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.scanKeys(ctx, []byte(userPrefix), func(key []byte) error {
		id, err := strconv.ParseInt(string(key[len(userPrefix):]), 10, 64)
		if err != nil {
			return fmt.Errorf("bad user key %q: %w", key, err)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: list users: %w", err)
	}
	return ids, nil
}

// CountUsers returns the number of registered users.
func (s *BadgerStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.scanKeys(ctx, []byte(userPrefix), func([]byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger: count users: %w", err)
	}
	return n, nil
}

// scanKeys calls fn for every key with the given prefix.
func (s *BadgerStore) scanKeys(ctx context.Context, prefix []byte, fn func(key []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(it.Item().Key()); err != nil {
				return err
			}
		}
		return nil
	})
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < claimRetries; i++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Ping reports whether the database is open.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.closed.Load() || s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (s *BadgerStore) GC(ctx context.Context) error {
	if s.cfg.InMemory {
		return nil
	}
	startTime := time.Now()
	runs := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("badger: gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(uint64(runs))
	if s.metricsGCRuns != nil {
		s.metricsGCRuns.Add(float64(runs))
	}

	s.logger.Debug("gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))
	return nil
}

// Stats returns storage statistics.
func (s *BadgerStore) Stats() BadgerStats {
	lsm, vlog := s.db.Size()
	return BadgerStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// Close stops the GC loop and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	s.logger.Info("badger store closed")
	return nil
}

// RegisterMetrics registers Badger size and GC metrics.
func (s *BadgerStore) RegisterMetrics(registry *prometheus.Registry) *BadgerStore {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filegate",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filegate",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	s.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "filegate",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "filegate",
		Subsystem: "badger",
		Name:      "gc_rewrites_total",
		Help:      "Value log files rewritten by Badger garbage collection",
	})

	registry.MustRegister(
		s.metricsLSMSize,
		s.metricsValueLogSize,
		s.metricsLastGCTime,
		s.metricsGCRuns,
	)
	s.updateMetrics()
	return s
}

func (s *BadgerStore) updateMetrics() {
	if s.metricsLSMSize == nil || s.closed.Load() {
		return
	}
	stats := s.Stats()
	s.metricsLSMSize.Set(float64(stats.LSMSize))
	s.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		s.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

// gcLoop runs periodic garbage collection and refreshes size gauges.
func (s *BadgerStore) gcLoop() {
	defer close(s.doneCh)

	interval, err := time.ParseDuration(s.cfg.GCInterval)
	if err != nil || interval <= 0 {
		s.logger.Warn("invalid gc_interval, using default 10m", "value", s.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
			s.updateMetrics()

		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
