package clubhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/plugin"
	"github.com/xraph/clubhouse/store"
	"github.com/xraph/clubhouse/types"
)

// Emitter receives events after the transition that produced them has been
// committed.
type Emitter interface {
	Emit(ctx context.Context, ev event.Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev event.Event)

func (f EmitterFunc) Emit(ctx context.Context, ev event.Event) { f(ctx, ev) }

type discard struct{}

func (discard) Emit(context.Context, event.Event) {}

// TickReport summarizes one call to Tick or ProcessDue.
type TickReport struct {
	Tick      types.Tick
	Processed int
	Elapsed   time.Duration
}

// Engine wires the club registry, membership lifecycle and expiration
// scheduler over one store and one funds ledger. Every command and every
// tick runs under a single lock, so a host may call the engine from any
// goroutine and still get the strictly sequential behaviour the state
// machine relies on.
type Engine struct {
	mu sync.Mutex

	store   store.Store
	funds   funds.Ledger
	clock   clock.Clock
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config

	registry  *Registry
	scheduler *Scheduler
	lifecycle *Lifecycle

	skipMigrate bool

	// pending holds a tick whose drain failed; Tick retries it before
	// advancing the clock.
	pending *types.Tick

	// Background tick worker
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	closed   bool
}

// New creates an engine over s and f. The config is validated once all
// options are applied.
func New(s store.Store, f funds.Ledger, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    s,
		funds:    f,
		clock:    clock.NewManual(0),
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		config:   DefaultConfig(),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	emit := EmitterFunc(e.dispatch)
	e.registry = NewRegistry(s, f, e.clock, e.config, emit, e.logger)
	e.scheduler = NewScheduler(s, e.logger)
	e.lifecycle = NewLifecycle(s, e.registry, e.scheduler, f, e.clock, e.config, emit, e.logger)

	return e, nil
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithClock sets the tick source. Tick requires a clock.Advancer.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTickInterval starts a background worker on Start that calls Tick at
// the given interval.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.config.TickInterval = d
	}
}

// WithoutMigrate makes Start skip store migration, for hosts that manage
// the schema themselves.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Start migrates the store, checks the creation fee against the ledger's
// minimum balance, initializes plugins and starts the tick worker if one
// is configured.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.started {
		e.mu.Unlock()
		return nil
	}

	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	// Fees below the minimum balance could never open the sink account.
	if mb, ok := e.funds.(funds.MinimumBalancer); ok {
		if minimum := mb.MinimumBalance(); e.config.CreationFee < minimum {
			e.mu.Unlock()
			return ValidationError{
				Field:   "creation_fee",
				Message: fmt.Sprintf("must be at least the minimum balance %s", minimum),
			}
		}
	}

	e.started = true
	e.stopChan = make(chan struct{})
	e.mu.Unlock()

	e.plugins.EmitInit(ctx, e)

	if e.config.TickInterval > 0 {
		e.wg.Add(1)
		go e.tickWorker(ctx, e.stopChan)
	}

	e.logger.Info("clubhouse started",
		"root_configured", !e.config.RootAccount.IsNil(),
		"creation_fee", e.config.CreationFee,
		"ticks_per_duration_unit", e.config.TicksPerDurationUnit,
		"max_duration_units", e.config.MaxDurationUnits,
		"tick_interval", e.config.TickInterval,
		"current_tick", e.clock.Now(),
	)

	return nil
}

// Stop shuts down the engine and closes the store. Only the first call has
// any effect.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if !e.started {
		e.mu.Unlock()
		return e.store.Close()
	}
	e.started = false
	close(e.stopChan)
	e.mu.Unlock()

	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Registry returns the club registry. Calls made through it bypass the
// engine lock.
func (e *Engine) Registry() *Registry { return e.registry }

// Scheduler returns the expiration scheduler. Calls made through it bypass
// the engine lock.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// Lifecycle returns the membership lifecycle. Calls made through it bypass
// the engine lock.
func (e *Engine) Lifecycle() *Lifecycle { return e.lifecycle }

// CurrentTick returns the clock's tick.
func (e *Engine) CurrentTick() types.Tick { return e.clock.Now() }

// ──────────────────────────────────────────────────
// Club management
// ──────────────────────────────────────────────────

// CreateClub creates a club owned by owner. caller must be root.
func (e *Engine) CreateClub(ctx context.Context, caller, owner id.AccountID, fee types.Balance) (*club.Club, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.CreateClub(ctx, caller, owner, fee)
}

// TransferOwnership hands a club to a new owner.
func (e *Engine) TransferOwnership(ctx context.Context, caller id.AccountID, clubID uint64, newOwner id.AccountID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.TransferOwnership(ctx, caller, clubID, newOwner)
}

// SetAnnualExpense sets the per-unit fee of a club.
func (e *Engine) SetAnnualExpense(ctx context.Context, caller id.AccountID, clubID uint64, fee types.Balance) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.SetFee(ctx, caller, clubID, fee)
}

// GetClub retrieves a club by id.
func (e *Engine) GetClub(ctx context.Context, clubID uint64) (*club.Club, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.GetClub(ctx, clubID)
}

// ListClubs lists clubs in id order.
func (e *Engine) ListClubs(ctx context.Context, opts club.ListOpts) ([]*club.Club, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.ListClubs(ctx, opts)
}

// ──────────────────────────────────────────────────
// Membership management
// ──────────────────────────────────────────────────

// RequestMembership pays for and records a membership request.
func (e *Engine) RequestMembership(ctx context.Context, account id.AccountID, clubID uint64, duration uint8) (*membership.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.RequestMembership(ctx, account, clubID, duration)
}

// RequestRenewal pays for and records a renewal of an expired membership.
func (e *Engine) RequestRenewal(ctx context.Context, account id.AccountID, clubID uint64, duration uint8) (*membership.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.RequestRenewal(ctx, account, clubID, duration)
}

// AdmitMember admits a pending request. caller must own the club.
func (e *Engine) AdmitMember(ctx context.Context, caller id.AccountID, clubID uint64, account id.AccountID) (*membership.Membership, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.AdmitMember(ctx, caller, clubID, account)
}

// Status reports the membership state of account in clubID.
func (e *Engine) Status(ctx context.Context, account id.AccountID, clubID uint64) (membership.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.Status(ctx, account, clubID)
}

// Members lists the active members of a club.
func (e *Engine) Members(ctx context.Context, clubID uint64) ([]*membership.Membership, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lifecycle.Members(ctx, clubID)
}

// ──────────────────────────────────────────────────
// Expiration scheduling
// ──────────────────────────────────────────────────

// Bucket returns the expiration bucket for tick.
func (e *Engine) Bucket(ctx context.Context, tick types.Tick) (*expiry.Bucket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler.Bucket(ctx, tick)
}

// Tombstone removes one scheduled expiration entry.
func (e *Engine) Tombstone(ctx context.Context, tick types.Tick, index uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler.Tombstone(ctx, tick, index)
}

// ProcessDue drains the bucket for tick and expires the memberships in it.
// Hosts that drive their own clock call this once per tick.
func (e *Engine) ProcessDue(ctx context.Context, tick types.Tick) (TickReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processDue(ctx, tick)
}

// Tick advances the clock by one and processes the new tick's bucket. If a
// previous drain failed, Tick retries that tick instead and leaves the
// clock where it is.
func (e *Engine) Tick(ctx context.Context) (TickReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	adv, ok := e.clock.(clock.Advancer)
	if !ok {
		return TickReport{}, ErrClockReadOnly
	}
	if e.pending != nil {
		return e.processDue(ctx, *e.pending)
	}

	tick := adv.Advance()
	report, err := e.processDue(ctx, tick)
	if err != nil {
		e.pending = &tick
	}
	return report, err
}

// PendingTick reports the tick whose drain failed and will be retried by
// the next Tick.
func (e *Engine) PendingTick() (types.Tick, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return 0, false
	}
	return *e.pending, true
}

func (e *Engine) processDue(ctx context.Context, tick types.Tick) (TickReport, error) {
	start := time.Now()
	processed, err := e.scheduler.ProcessDue(ctx, tick, e.lifecycle.Expire)
	report := TickReport{Tick: tick, Processed: processed, Elapsed: time.Since(start)}
	if err != nil {
		e.logger.Error("failed to process expirations",
			"tick", tick,
			"processed", processed,
			"error", err,
		)
		return report, err
	}
	if e.pending != nil && *e.pending == tick {
		e.pending = nil
	}

	if processed > 0 {
		e.logger.Debug("expirations processed",
			"tick", tick,
			"processed", processed,
			"elapsed", report.Elapsed,
		)
	}
	e.plugins.EmitTickProcessed(ctx, tick, processed, report.Elapsed)
	return report, nil
}

// tickWorker advances the clock on every interval.
func (e *Engine) tickWorker(ctx context.Context, stop <-chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed drain stays pending and is retried on the next fire.
			if _, err := e.Tick(ctx); errors.Is(err, ErrClockReadOnly) {
				e.logger.Error("tick worker stopped", "error", err)
				return
			}
		}
	}
}

// dispatch forwards committed events to plugins.
func (e *Engine) dispatch(ctx context.Context, ev event.Event) {
	e.logger.Debug("event emitted",
		"kind", ev.Kind(),
		"event_id", ev.Metadata().ID.String(),
		"tick", ev.Metadata().Tick,
	)
	e.plugins.Emit(ctx, ev)
}
