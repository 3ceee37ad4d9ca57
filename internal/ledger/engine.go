// Package ledger owns the expense collection of an offline-first wallet.
//
// The Engine is the only writer of the collection. Every mutation (create,
// delete, reconcile) runs on a single worker goroutine in arrival order, is
// persisted to the local store before it completes, and is published as an
// immutable snapshot for readers.
//
// Records are born Pending. They become Synced only through a refresh from
// the remote service, which replaces the whole local collection with the
// server's list (replace-wins). A pending record whose push fails right
// before such a refresh is therefore dropped from the local view; the engine
// logs every such drop and counts it in Result.Dropped.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NgigiN/walletsync/internal/connectivity"
	"github.com/NgigiN/walletsync/internal/expense"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned for operations submitted after Close.
var ErrClosed = errors.New("ledger closed")

// Store persists the whole collection as one unit.
type Store interface {
	Load(ctx context.Context) ([]expense.Record, error)
	Save(ctx context.Context, records []expense.Record) error
}

// Remote is the authoritative expenses service for one owner.
type Remote interface {
	ListAll(ctx context.Context) ([]expense.Record, error)
	Create(ctx context.Context, r expense.Record) (expense.Record, error)
	Delete(ctx context.Context, remoteID string) error
}

type op struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

type Engine struct {
	store   Store
	remote  Remote
	monitor connectivity.Monitor
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	ops       chan op
	reconcile chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	started   atomic.Bool

	online   atomic.Bool
	onlineMu sync.Mutex
	edgeSeen bool
	unsub    func()

	// records is owned by the worker; snapshot is the published copy.
	records  []expense.Record
	snapMu   sync.RWMutex
	snapshot []expense.Record

	events events
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the local id source. Ids must never repeat.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}

func New(store Store, remote Remote, monitor connectivity.Monitor, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		remote:    remote,
		monitor:   monitor,
		logger:    zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
		ops:       make(chan op),
		reconcile: make(chan struct{}, 1),
		closed:    make(chan struct{}),
		records:   []expense.Record{},
		snapshot:  []expense.Record{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start loads the local collection, seeds it from the remote service when it
// is empty and the service is reachable, and starts processing operations.
// An unreadable store fails Start; the stored collection is left untouched.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("ledger already started")
	}

	records, err := e.store.Load(ctx)
	if err != nil {
		e.started.Store(false)
		return fmt.Errorf("failed to load local expenses: %w", err)
	}

	// Subscribe before reading the verdict so an edge in between is queued.
	e.unsub = e.monitor.Subscribe(e.onConnectivity)
	e.initialOnline(e.monitor.Online())
	e.initialize(ctx, records)

	e.wg.Add(1)
	go e.run()
	return nil
}

// Close stops accepting operations and waits for the one in flight.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.unsub != nil {
			e.unsub()
		}
		close(e.closed)
		e.wg.Wait()
		e.events.closeAll()
	})
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.closed:
			return
		case o := <-e.ops:
			o.fn(o.ctx)
			close(o.done)
		case <-e.reconcile:
			e.reconcilePass(context.Background())
		}
	}
}

// submit queues fn behind any running operation and waits for it. Once
// started, fn runs to completion even if ctx is cancelled.
func (e *Engine) submit(ctx context.Context, fn func(ctx context.Context)) error {
	if !e.started.Load() {
		return fmt.Errorf("ledger not started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	o := op{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan struct{})}
	select {
	case <-e.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case e.ops <- o:
	}
	<-o.done
	return nil
}

// Snapshot returns the current collection, most recent first.
func (e *Engine) Snapshot() []expense.Record {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return slices.Clone(e.snapshot)
}

// Online returns the last connectivity verdict the engine saw.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// Subscribe returns a channel that receives an event after every change.
// The channel holds a single event; later events are dropped while it is
// full, so consumers should re-read Snapshot rather than count events.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.events.subscribe()
}

// initialOnline stores the verdict read at startup unless an edge already
// delivered a newer one.
func (e *Engine) initialOnline(online bool) {
	e.onlineMu.Lock()
	defer e.onlineMu.Unlock()
	if !e.edgeSeen {
		e.online.Store(online)
	}
}

func (e *Engine) onConnectivity(online bool) {
	e.onlineMu.Lock()
	e.edgeSeen = true
	e.online.Store(online)
	e.onlineMu.Unlock()
	e.events.publish(Event{Kind: EventConnectivity, Online: online})
	if !online {
		return
	}
	select {
	case e.reconcile <- struct{}{}:
	default:
		// a pass is already waiting and will cover this edge
	}
}

func (e *Engine) initialize(ctx context.Context, records []expense.Record) {
	e.replace(records)

	if len(e.records) == 0 && e.Online() {
		if _, err := e.refresh(ctx); err != nil {
			e.logger.Warn("failed to seed expenses from remote", zap.Error(err))
		}
	}

	e.logger.Info("ledger loaded", zap.Int("expenses", len(e.records)), zap.Bool("online", e.Online()))
	e.publish(EventLoaded)
}

// replace swaps the working collection without persisting it.
func (e *Engine) replace(records []expense.Record) {
	if records == nil {
		records = []expense.Record{}
	}
	e.records = records
}

// commit persists the working collection and publishes it. A failed write is
// logged; the in-memory collection stays authoritative for this session.
func (e *Engine) commit(ctx context.Context, kind EventKind) {
	if err := e.store.Save(ctx, e.records); err != nil {
		e.logger.Warn("failed to persist expenses, change lives in memory only",
			zap.Int("expenses", len(e.records)), zap.Error(err))
	}
	e.publish(kind)
}

func (e *Engine) publish(kind EventKind) {
	snap := slices.Clone(e.records)
	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()
	e.events.publish(Event{Kind: kind, Expenses: len(snap), Online: e.Online()})
}

func (e *Engine) indexOf(identity string) int {
	return slices.IndexFunc(e.records, func(r expense.Record) bool {
		return r.Identity() == identity
	})
}
