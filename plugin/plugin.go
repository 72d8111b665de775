// Package plugin provides an extensible plugin system for Clubhouse.
// Plugins hook into club and membership lifecycle events. Hooks run
// synchronously in commit order; a failing hook is logged and never rolls
// back the transition that triggered it.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Club hooks
// ──────────────────────────────────────────────────

// OnClubCreated is called after root creates a club.
type OnClubCreated interface {
	Plugin
	OnClubCreated(ctx context.Context, ev *event.ClubCreated) error
}

// OnClubOwnerChanged is called after an ownership transfer.
type OnClubOwnerChanged interface {
	Plugin
	OnClubOwnerChanged(ctx context.Context, ev *event.ClubOwnerChanged) error
}

// OnAnnualExpenseSet is called after an owner changes the club fee.
type OnAnnualExpenseSet interface {
	Plugin
	OnAnnualExpenseSet(ctx context.Context, ev *event.AnnualExpenseSet) error
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMembershipRequested is called after a paid request or renewal.
type OnMembershipRequested interface {
	Plugin
	OnMembershipRequested(ctx context.Context, ev *event.MembershipRequested) error
}

// OnMemberAdded is called after an owner admits a request.
type OnMemberAdded interface {
	Plugin
	OnMemberAdded(ctx context.Context, ev *event.MemberAdded) error
}

// OnMembershipExpired is called after the scheduler expires a membership.
type OnMembershipExpired interface {
	Plugin
	OnMembershipExpired(ctx context.Context, ev *event.MembershipExpired) error
}

// OnEvent receives every event after the typed hooks have run.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, ev event.Event) error
}

// ──────────────────────────────────────────────────
// Scheduler hooks
// ──────────────────────────────────────────────────

// OnTickProcessed is called after a tick's expiration bucket is drained.
type OnTickProcessed interface {
	Plugin
	OnTickProcessed(ctx context.Context, tick types.Tick, processed int, elapsed time.Duration) error
}
