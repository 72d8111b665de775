package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/store"
	"github.com/xraph/clubhouse/types"
)

type entryKey struct {
	tick  types.Tick
	index uint64
}

// Store keeps every table in process memory. Records are copied on the way
// in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	// Club storage
	nextClubID uint64
	clubs      map[uint64]*club.Club

	// Membership storage
	requests    map[membership.Key]*membership.Request
	memberships map[membership.Key]*membership.Membership
	expired     map[membership.Key]*membership.Expired

	// Expiry storage
	buckets map[types.Tick]*expiry.Bucket
	entries map[entryKey]*expiry.Entry
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextClubID:  1,
		clubs:       make(map[uint64]*club.Club),
		requests:    make(map[membership.Key]*membership.Request),
		memberships: make(map[membership.Key]*membership.Membership),
		expired:     make(map[membership.Key]*membership.Expired),
		buckets:     make(map[types.Tick]*expiry.Bucket),
		entries:     make(map[entryKey]*expiry.Entry),
	}
}

// Club Store implementation
func (s *Store) NextClubID(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nextClubID, nil
}

func (s *Store) CreateClub(_ context.Context, c *club.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clubs[c.ID]; exists {
		return clubhouse.ErrAlreadyExists
	}
	cp := *c
	s.clubs[c.ID] = &cp
	if c.ID >= s.nextClubID {
		s.nextClubID = c.ID + 1
	}
	return nil
}

func (s *Store) GetClub(_ context.Context, clubID uint64) (*club.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.clubs[clubID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, clubhouse.ErrClubNotFound
}

func (s *Store) UpdateClub(_ context.Context, c *club.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clubs[c.ID]; !exists {
		return clubhouse.ErrClubNotFound
	}
	cp := *c
	s.clubs[c.ID] = &cp
	return nil
}

func (s *Store) ListClubs(_ context.Context, opts club.ListOpts) ([]*club.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*club.Club, 0, len(s.clubs))
	for _, c := range s.clubs {
		if !opts.Owner.IsNil() && c.Owner != opts.Owner {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	slices.SortFunc(result, func(a, b *club.Club) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return paginate(result, opts.Limit, opts.Offset), nil
}

// Membership Store implementation
func (s *Store) GetRequest(_ context.Context, key membership.Key) (*membership.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.requests[key]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, clubhouse.ErrRequestNotFound
}

func (s *Store) PutRequest(_ context.Context, r *membership.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.requests[r.Key] = &cp
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, key membership.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.requests, key)
	return nil
}

func (s *Store) GetMembership(_ context.Context, key membership.Key) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.memberships[key]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, clubhouse.ErrMemberNotFound
}

func (s *Store) PutMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.memberships[m.Key] = &cp
	return nil
}

func (s *Store) DeleteMembership(_ context.Context, key membership.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.memberships, key)
	return nil
}

func (s *Store) ListMemberships(_ context.Context, clubID uint64) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*membership.Membership, 0)
	for k, m := range s.memberships {
		if k.ClubID != clubID {
			continue
		}
		cp := *m
		result = append(result, &cp)
	}
	slices.SortFunc(result, func(a, b *membership.Membership) int {
		return a.Key.Compare(b.Key)
	})
	return result, nil
}

func (s *Store) GetExpired(_ context.Context, key membership.Key) (*membership.Expired, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.expired[key]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, clubhouse.ErrNoExpiredMembership
}

func (s *Store) PutExpired(_ context.Context, e *membership.Expired) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.expired[e.Key] = &cp
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, key membership.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expired, key)
	return nil
}

// Expiry Store implementation
func (s *Store) GetBucket(_ context.Context, tick types.Tick) (*expiry.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.buckets[tick]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, clubhouse.ErrBucketNotFound
}

func (s *Store) PutBucket(_ context.Context, b *expiry.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.buckets[b.Tick] = &cp
	return nil
}

func (s *Store) DeleteBucket(_ context.Context, tick types.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, tick)
	return nil
}

func (s *Store) GetEntry(_ context.Context, tick types.Tick, index uint64) (*expiry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[entryKey{tick, index}]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, clubhouse.ErrEntryNotFound
}

func (s *Store) PutEntry(_ context.Context, e *expiry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.entries[entryKey{e.Tick, e.Index}] = &cp
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, tick types.Tick, index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, entryKey{tick, index})
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// paginate treats a non-positive limit as unlimited and a negative offset
// as zero.
func paginate[T any](items []T, limit, offset int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
