// Package event defines the notifications the club engine emits after each
// committed state transition. Events are delivered synchronously, in commit
// order, to every registered plugin.
package event

import (
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Kind names an event type.
type Kind string

const (
	KindClubCreated         Kind = "club.created"
	KindClubOwnerChanged    Kind = "club.owner_changed"
	KindAnnualExpenseSet    Kind = "club.annual_expense_set"
	KindMembershipRequested Kind = "membership.requested"
	KindMemberAdded         Kind = "membership.member_added"
	KindMembershipExpired   Kind = "membership.expired"
)

// Event is implemented by every event struct in this package.
type Event interface {
	Kind() Kind
	Metadata() Meta
}

// Meta is common to all events.
type Meta struct {
	ID   id.EventID `json:"id"`
	Tick types.Tick `json:"tick"`
}

// NewMeta stamps a fresh event id at tick.
func NewMeta(tick types.Tick) Meta {
	return Meta{ID: id.NewEventID(), Tick: tick}
}

func (m Meta) Metadata() Meta { return m }

// ClubCreated is emitted when root creates a club.
type ClubCreated struct {
	Meta
	ClubID uint64        `json:"club_id"`
	Owner  id.AccountID  `json:"owner"`
	Fee    types.Balance `json:"fee"`
}

func (*ClubCreated) Kind() Kind { return KindClubCreated }

// ClubOwnerChanged is emitted on an ownership transfer.
type ClubOwnerChanged struct {
	Meta
	ClubID   uint64       `json:"club_id"`
	OldOwner id.AccountID `json:"old_owner"`
	NewOwner id.AccountID `json:"new_owner"`
}

func (*ClubOwnerChanged) Kind() Kind { return KindClubOwnerChanged }

// AnnualExpenseSet is emitted when an owner changes the per-unit fee.
type AnnualExpenseSet struct {
	Meta
	ClubID uint64        `json:"club_id"`
	OldFee types.Balance `json:"old_fee"`
	NewFee types.Balance `json:"new_fee"`
}

func (*AnnualExpenseSet) Kind() Kind { return KindAnnualExpenseSet }

// MembershipRequested is emitted for both first requests and renewals.
type MembershipRequested struct {
	Meta
	ClubID    uint64        `json:"club_id"`
	Account   id.AccountID  `json:"account"`
	Cost      types.Balance `json:"cost"`
	Duration  uint8         `json:"duration"`
	IsRenewal bool          `json:"is_renewal"`
}

func (*MembershipRequested) Kind() Kind { return KindMembershipRequested }

// MemberAdded is emitted when an owner admits a pending request.
type MemberAdded struct {
	Meta
	ClubID    uint64       `json:"club_id"`
	Account   id.AccountID `json:"account"`
	IsRenewal bool         `json:"is_renewal"`
	ExpiresAt types.Tick   `json:"expires_at"`
}

func (*MemberAdded) Kind() Kind { return KindMemberAdded }

// MembershipExpired is emitted when the scheduler expires a membership.
type MembershipExpired struct {
	Meta
	ClubID  uint64       `json:"club_id"`
	Account id.AccountID `json:"account"`
}

func (*MembershipExpired) Kind() Kind { return KindMembershipExpired }

var (
	_ Event = (*ClubCreated)(nil)
	_ Event = (*ClubOwnerChanged)(nil)
	_ Event = (*AnnualExpenseSet)(nil)
	_ Event = (*MembershipRequested)(nil)
	_ Event = (*MemberAdded)(nil)
	_ Event = (*MembershipExpired)(nil)
)
