package clubhouse

import (
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Balance is re-exported from types package.
type Balance = types.Balance

// Tick is re-exported from types package.
type Tick = types.Tick

// Entity is re-exported from types package.
type Entity = types.Entity

// MembershipState is re-exported from membership package.
type MembershipState = membership.State

// Re-export membership states
const (
	StateNone      = membership.StateNone
	StateRequested = membership.StateRequested
	StateActive    = membership.StateActive
	StateExpired   = membership.StateExpired
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
