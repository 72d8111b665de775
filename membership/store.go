package membership

import "context"

// Store persists the three per-key membership tables. Get methods return
// the matching not-found sentinel; Delete methods are no-ops for absent keys.
type Store interface {
	GetRequest(ctx context.Context, key Key) (*Request, error)
	PutRequest(ctx context.Context, r *Request) error
	DeleteRequest(ctx context.Context, key Key) error

	GetMembership(ctx context.Context, key Key) (*Membership, error)
	PutMembership(ctx context.Context, m *Membership) error
	DeleteMembership(ctx context.Context, key Key) error
	// ListMemberships returns the active members of clubID ordered by account.
	ListMemberships(ctx context.Context, clubID uint64) ([]*Membership, error)

	GetExpired(ctx context.Context, key Key) (*Expired, error)
	PutExpired(ctx context.Context, e *Expired) error
	DeleteExpired(ctx context.Context, key Key) error
}
