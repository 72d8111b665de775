package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// u64 and i64 convert between the engine's unsigned values and SQLite's
// signed INTEGER without losing bits.
func i64(v uint64) int64 { return int64(v) } //nolint:gosec // bit-preserving

func u64(v int64) uint64 { return uint64(v) } //nolint:gosec // bit-preserving

// ==================== Club models ====================

type clubModel struct {
	grove.BaseModel `grove:"table:clubhouse_clubs"`

	ID        int64     `grove:"id,pk"`
	Owner     string    `grove:"owner"`
	Fee       int64     `grove:"fee"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toClubModel(c *club.Club) *clubModel {
	return &clubModel{
		ID:        i64(c.ID),
		Owner:     c.Owner.String(),
		Fee:       i64(uint64(c.Fee)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromClubModel(m *clubModel) (*club.Club, error) {
	owner, err := id.ParseAccountID(m.Owner)
	if err != nil {
		return nil, err
	}
	return &club.Club{
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     u64(m.ID),
		Owner:  owner,
		Fee:    types.Balance(u64(m.Fee)),
	}, nil
}

// ==================== Membership models ====================

type requestModel struct {
	grove.BaseModel `grove:"table:clubhouse_requests"`

	Account     string    `grove:"account,pk"`
	ClubID      int64     `grove:"club_id,pk"`
	Cost        int64     `grove:"cost"`
	Duration    int       `grove:"duration"`
	IsRenewal   bool      `grove:"is_renewal"`
	RequestedAt int64     `grove:"requested_at"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toRequestModel(r *membership.Request) *requestModel {
	return &requestModel{
		Account:     r.Account.String(),
		ClubID:      i64(r.ClubID),
		Cost:        i64(uint64(r.Cost)),
		Duration:    int(r.Duration),
		IsRenewal:   r.IsRenewal,
		RequestedAt: i64(uint64(r.RequestedAt)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRequestModel(m *requestModel) (*membership.Request, error) {
	key, err := parseKey(m.Account, m.ClubID)
	if err != nil {
		return nil, err
	}
	return &membership.Request{
		Key:         key,
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Cost:        types.Balance(u64(m.Cost)),
		Duration:    uint8(m.Duration), //nolint:gosec // bounded by max duration on write
		IsRenewal:   m.IsRenewal,
		RequestedAt: types.Tick(u64(m.RequestedAt)),
	}, nil
}

type membershipModel struct {
	grove.BaseModel `grove:"table:clubhouse_memberships"`

	Account     string    `grove:"account,pk"`
	ClubID      int64     `grove:"club_id,pk"`
	IsRenewal   bool      `grove:"is_renewal"`
	AdmittedAt  int64     `grove:"admitted_at"`
	ExpiresAt   int64     `grove:"expires_at"`
	ExpiryIndex int64     `grove:"expiry_index"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toMembershipModel(m *membership.Membership) *membershipModel {
	return &membershipModel{
		Account:     m.Account.String(),
		ClubID:      i64(m.ClubID),
		IsRenewal:   m.IsRenewal,
		AdmittedAt:  i64(uint64(m.AdmittedAt)),
		ExpiresAt:   i64(uint64(m.ExpiresAt)),
		ExpiryIndex: i64(m.ExpiryIndex),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromMembershipModel(m *membershipModel) (*membership.Membership, error) {
	key, err := parseKey(m.Account, m.ClubID)
	if err != nil {
		return nil, err
	}
	return &membership.Membership{
		Key:         key,
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		IsRenewal:   m.IsRenewal,
		AdmittedAt:  types.Tick(u64(m.AdmittedAt)),
		ExpiresAt:   types.Tick(u64(m.ExpiresAt)),
		ExpiryIndex: u64(m.ExpiryIndex),
	}, nil
}

type expiredModel struct {
	grove.BaseModel `grove:"table:clubhouse_expired"`

	Account    string    `grove:"account,pk"`
	ClubID     int64     `grove:"club_id,pk"`
	WasRenewal bool      `grove:"was_renewal"`
	ExpiredAt  int64     `grove:"expired_at"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toExpiredModel(e *membership.Expired) *expiredModel {
	return &expiredModel{
		Account:    e.Account.String(),
		ClubID:     i64(e.ClubID),
		WasRenewal: e.WasRenewal,
		ExpiredAt:  i64(uint64(e.ExpiredAt)),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func fromExpiredModel(m *expiredModel) (*membership.Expired, error) {
	key, err := parseKey(m.Account, m.ClubID)
	if err != nil {
		return nil, err
	}
	return &membership.Expired{
		Key:        key,
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		WasRenewal: m.WasRenewal,
		ExpiredAt:  types.Tick(u64(m.ExpiredAt)),
	}, nil
}

// ==================== Expiry models ====================

type bucketModel struct {
	grove.BaseModel `grove:"table:clubhouse_buckets"`

	Tick  int64 `grove:"tick,pk"`
	Count int64 `grove:"count"`
}

func toBucketModel(b *expiry.Bucket) *bucketModel {
	return &bucketModel{Tick: i64(uint64(b.Tick)), Count: i64(b.Count)}
}

func fromBucketModel(m *bucketModel) *expiry.Bucket {
	return &expiry.Bucket{Tick: types.Tick(u64(m.Tick)), Count: u64(m.Count)}
}

type entryModel struct {
	grove.BaseModel `grove:"table:clubhouse_entries"`

	Tick    int64  `grove:"tick,pk"`
	Index   int64  `grove:"idx,pk"`
	Account string `grove:"account"`
	ClubID  int64  `grove:"club_id"`
}

func toEntryModel(e *expiry.Entry) *entryModel {
	return &entryModel{
		Tick:    i64(uint64(e.Tick)),
		Index:   i64(e.Index),
		Account: e.Account.String(),
		ClubID:  i64(e.ClubID),
	}
}

func fromEntryModel(m *entryModel) (*expiry.Entry, error) {
	key, err := parseKey(m.Account, m.ClubID)
	if err != nil {
		return nil, err
	}
	return &expiry.Entry{
		Key:   key,
		Tick:  types.Tick(u64(m.Tick)),
		Index: u64(m.Index),
	}, nil
}

func parseKey(account string, clubID int64) (membership.Key, error) {
	acct, err := id.ParseAccountID(account)
	if err != nil {
		return membership.Key{}, err
	}
	return membership.NewKey(acct, u64(clubID)), nil
}
