package club

import (
	"context"

	"github.com/xraph/clubhouse/id"
)

// Store persists clubs and the club id counter.
type Store interface {
	// NextClubID returns the id the next created club will receive.
	// It is 1 until the first club is created.
	NextClubID(ctx context.Context) (uint64, error)
	// CreateClub inserts c and advances the counter to c.ID+1.
	CreateClub(ctx context.Context, c *Club) error
	GetClub(ctx context.Context, clubID uint64) (*Club, error)
	UpdateClub(ctx context.Context, c *Club) error
	ListClubs(ctx context.Context, opts ListOpts) ([]*Club, error)
}

// ListOpts filters ListClubs. Results are ordered by ascending id.
type ListOpts struct {
	Owner  id.AccountID
	Limit  int
	Offset int
}
