package clubhouse_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/store/memory"
	"github.com/xraph/clubhouse/types"
)

const startingBalance types.Balance = 1_000_000

// recorder captures every emitted event in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnEvent(_ context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kinds() []event.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]event.Kind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	ctx    context.Context
	engine *clubhouse.Engine
	store  *memory.Store
	ledger *funds.Memory
	clock  *clock.Manual
	rec    *recorder

	root  id.AccountID
	owner id.AccountID
	sink  id.AccountID
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture builds a started engine with the defaults used across the
// tests: fee 100, 10 ticks per unit, at most 100 units, clock at tick 100.
func newFixture(t *testing.T, mutate func(*clubhouse.Config)) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		store:  memory.New(),
		ledger: funds.NewMemory(1),
		clock:  clock.NewManual(100),
		rec:    &recorder{},
		root:   id.NewAccountID(),
		owner:  id.NewAccountID(),
	}

	cfg := clubhouse.DefaultConfig()
	cfg.RootAccount = f.root
	if mutate != nil {
		mutate(&cfg)
	}
	f.sink = cfg.SinkAccount

	f.ledger.SetBalance(f.root, startingBalance)
	f.ledger.SetBalance(f.owner, startingBalance)

	engine, err := clubhouse.New(f.store, f.ledger,
		clubhouse.WithConfig(cfg),
		clubhouse.WithClock(f.clock),
		clubhouse.WithLogger(quietLogger()),
		clubhouse.WithPlugin(f.rec),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := engine.Start(f.ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Stop() })

	f.engine = engine
	return f
}

// funded returns a new account holding startingBalance.
func (f *fixture) funded() id.AccountID {
	acct := id.NewAccountID()
	f.ledger.SetBalance(acct, startingBalance)
	return acct
}

// club creates a club owned by f.owner with the given fee.
func (f *fixture) club(t *testing.T, fee types.Balance) uint64 {
	t.Helper()
	c, err := f.engine.CreateClub(f.ctx, f.root, f.owner, fee)
	if err != nil {
		t.Fatalf("CreateClub: %v", err)
	}
	return c.ID
}

// member requests and admits account, returning the expiry tick.
func (f *fixture) member(t *testing.T, account id.AccountID, clubID uint64, duration uint8) types.Tick {
	t.Helper()
	if _, err := f.engine.RequestMembership(f.ctx, account, clubID, duration); err != nil {
		t.Fatalf("RequestMembership: %v", err)
	}
	m, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, account)
	if err != nil {
		t.Fatalf("AdmitMember: %v", err)
	}
	return m.ExpiresAt
}

func (f *fixture) status(t *testing.T, account id.AccountID, clubID uint64) clubhouse.MembershipState {
	t.Helper()
	s, err := f.engine.Status(f.ctx, account, clubID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	return s
}
