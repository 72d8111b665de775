package expiry

import (
	"context"

	"github.com/xraph/clubhouse/types"
)

// Store persists expiration buckets and their entries.
type Store interface {
	GetBucket(ctx context.Context, tick types.Tick) (*Bucket, error)
	PutBucket(ctx context.Context, b *Bucket) error
	DeleteBucket(ctx context.Context, tick types.Tick) error

	GetEntry(ctx context.Context, tick types.Tick, index uint64) (*Entry, error)
	PutEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, tick types.Tick, index uint64) error
}
