package store

import (
	"context"

	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// Store is the unified storage interface for all Clubhouse entities.
// The methods are declared explicitly rather than by embedding so that each
// backend's surface reads in one place.
type Store interface {
	// Club methods
	NextClubID(ctx context.Context) (uint64, error)
	CreateClub(ctx context.Context, c *club.Club) error
	GetClub(ctx context.Context, clubID uint64) (*club.Club, error)
	UpdateClub(ctx context.Context, c *club.Club) error
	ListClubs(ctx context.Context, opts club.ListOpts) ([]*club.Club, error)

	// Membership methods
	GetRequest(ctx context.Context, key membership.Key) (*membership.Request, error)
	PutRequest(ctx context.Context, r *membership.Request) error
	DeleteRequest(ctx context.Context, key membership.Key) error
	GetMembership(ctx context.Context, key membership.Key) (*membership.Membership, error)
	PutMembership(ctx context.Context, m *membership.Membership) error
	DeleteMembership(ctx context.Context, key membership.Key) error
	ListMemberships(ctx context.Context, clubID uint64) ([]*membership.Membership, error)
	GetExpired(ctx context.Context, key membership.Key) (*membership.Expired, error)
	PutExpired(ctx context.Context, e *membership.Expired) error
	DeleteExpired(ctx context.Context, key membership.Key) error

	// Expiry methods
	GetBucket(ctx context.Context, tick types.Tick) (*expiry.Bucket, error)
	PutBucket(ctx context.Context, b *expiry.Bucket) error
	DeleteBucket(ctx context.Context, tick types.Tick) error
	GetEntry(ctx context.Context, tick types.Tick, index uint64) (*expiry.Entry, error)
	PutEntry(ctx context.Context, e *expiry.Entry) error
	DeleteEntry(ctx context.Context, tick types.Tick, index uint64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ club.Store       = Store(nil)
	_ membership.Store = Store(nil)
	_ expiry.Store     = Store(nil)
)
