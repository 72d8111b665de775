package membership

import (
	"cmp"
	"fmt"

	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Key identifies an account's standing in one club.
type Key struct {
	Account id.AccountID `json:"account"`
	ClubID  uint64       `json:"club_id"`
}

// NewKey returns the key for account in clubID.
func NewKey(account id.AccountID, clubID uint64) Key {
	return Key{Account: account, ClubID: clubID}
}

// String formats the key as "<account>@<club>".
func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Account, k.ClubID)
}

// Compare orders keys by account, then club.
func (k Key) Compare(other Key) int {
	if c := k.Account.Compare(other.Account); c != 0 {
		return c
	}
	return cmp.Compare(k.ClubID, other.ClubID)
}

// State is the lifecycle position of a Key.
type State string

const (
	StateNone      State = "none"
	StateRequested State = "requested"
	StateActive    State = "active"
	StateExpired   State = "expired"
)

// Request is a paid, not yet admitted application.
type Request struct {
	Key
	types.Entity
	Cost        types.Balance `json:"cost"`
	Duration    uint8         `json:"duration"`
	IsRenewal   bool          `json:"is_renewal"`
	RequestedAt types.Tick    `json:"requested_at"`
}

// Membership is an active admission with a scheduled expiration.
type Membership struct {
	Key
	types.Entity
	IsRenewal  bool       `json:"is_renewal"`
	AdmittedAt types.Tick `json:"admitted_at"`
	ExpiresAt  types.Tick `json:"expires_at"`
	// ExpiryIndex is the entry index inside the ExpiresAt bucket.
	ExpiryIndex uint64 `json:"expiry_index"`
}

// Expired records the last membership an account held in a club.
type Expired struct {
	Key
	types.Entity
	WasRenewal bool       `json:"was_renewal"`
	ExpiredAt  types.Tick `json:"expired_at"`
}
