// Package clubhouse provides a club membership engine with time-bucketed
// expiration scheduling.
//
// Clubhouse is designed as a library, not a service. A host embeds an
// Engine, supplies a store and a funds ledger, and drives it one tick at a
// time. It provides:
//
//   - Root-created clubs with owner-managed admission and fees
//   - Paid membership requests and renewals charged through a funds port
//   - Expiration buckets keyed by tick, so each tick only touches the
//     memberships expiring in it
//   - Synchronous lifecycle events delivered to plugins in commit order
//   - Memory, SQLite, PostgreSQL and MongoDB stores
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/clubhouse"
//	    "github.com/xraph/clubhouse/funds"
//	    "github.com/xraph/clubhouse/store/memory"
//	)
//
//	cfg := clubhouse.DefaultConfig()
//	cfg.RootAccount = root
//
//	ledger := funds.NewMemory(1)
//	engine, err := clubhouse.New(memory.New(), ledger, clubhouse.WithConfig(cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Lifecycle
//
// Root creates a club and names its owner:
//
//	c, err := engine.CreateClub(ctx, root, owner, 100)
//
// An account pays fee*duration to request membership, and the owner
// admits it. Admission schedules the expiration at
// now + duration*TicksPerDurationUnit:
//
//	_, err = engine.RequestMembership(ctx, alice, c.ID, 1)
//	m, err := engine.AdmitMember(ctx, owner, c.ID, alice)
//
// Once per tick the host drains that tick's bucket. Expired members must
// renew rather than request again:
//
//	report, err := engine.Tick(ctx)
//	_, err = engine.RequestRenewal(ctx, alice, c.ID, 1)
//
// # Plugins
//
// Plugins implement any subset of the hook interfaces in package plugin.
// The audit_hook and observability packages are ready-made plugins for
// audit trails and metrics.
package clubhouse
