package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/membership"
	clubstore "github.com/xraph/clubhouse/store"
	"github.com/xraph/clubhouse/types"
)

// Collection name constants.
const (
	colClubs       = "clubhouse_clubs"
	colRequests    = "clubhouse_requests"
	colMemberships = "clubhouse_memberships"
	colExpired     = "clubhouse_expired"
	colBuckets     = "clubhouse_buckets"
	colEntries     = "clubhouse_entries"
)

// compile-time interface check
var _ clubstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all clubhouse collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("clubhouse/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Club Store ====================

// NextClubID is one past the highest stored club id.
func (s *Store) NextClubID(ctx context.Context) (uint64, error) {
	var m clubModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 1, nil
		}
		return 0, fmt.Errorf("clubhouse/mongo: next club id: %w", err)
	}
	return u64(m.ID) + 1, nil
}

func (s *Store) CreateClub(ctx context.Context, c *club.Club) error {
	m := toClubModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return clubhouse.ErrAlreadyExists
		}
		return fmt.Errorf("clubhouse/mongo: create club: %w", err)
	}
	return nil
}

func (s *Store) GetClub(ctx context.Context, clubID uint64) (*club.Club, error) {
	var m clubModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": i64(clubID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrClubNotFound
		}
		return nil, fmt.Errorf("clubhouse/mongo: get club: %w", err)
	}
	return fromClubModel(&m)
}

func (s *Store) UpdateClub(ctx context.Context, c *club.Club) error {
	m := toClubModel(c)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: update club: %w", err)
	}
	if res.MatchedCount() == 0 {
		return clubhouse.ErrClubNotFound
	}
	return nil
}

func (s *Store) ListClubs(ctx context.Context, opts club.ListOpts) ([]*club.Club, error) {
	var models []clubModel

	filter := bson.M{}
	if !opts.Owner.IsNil() {
		filter["owner"] = opts.Owner.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("clubhouse/mongo: list clubs: %w", err)
	}

	result := make([]*club.Club, len(models))
	for i := range models {
		c, err := fromClubModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Membership Store ====================

func (s *Store) GetRequest(ctx context.Context, key membership.Key) (*membership.Request, error) {
	var m requestModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrRequestNotFound
		}
		return nil, fmt.Errorf("clubhouse/mongo: get request: %w", err)
	}
	return fromRequestModel(&m)
}

func (s *Store) PutRequest(ctx context.Context, r *membership.Request) error {
	m := toRequestModel(r)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"account":      m.Account,
			"club_id":      m.ClubID,
			"cost":         m.Cost,
			"duration":     m.Duration,
			"is_renewal":   m.IsRenewal,
			"requested_at": m.RequestedAt,
			"created_at":   m.CreatedAt,
			"updated_at":   m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: put request: %w", err)
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, key membership.Key) error {
	_, err := s.mdb.NewDelete((*requestModel)(nil)).
		Filter(bson.M{"_id": key.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: delete request: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, key membership.Key) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrMemberNotFound
		}
		return nil, fmt.Errorf("clubhouse/mongo: get membership: %w", err)
	}
	return fromMembershipModel(&m)
}

func (s *Store) PutMembership(ctx context.Context, mem *membership.Membership) error {
	m := toMembershipModel(mem)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"account":      m.Account,
			"club_id":      m.ClubID,
			"is_renewal":   m.IsRenewal,
			"admitted_at":  m.AdmittedAt,
			"expires_at":   m.ExpiresAt,
			"expiry_index": m.ExpiryIndex,
			"created_at":   m.CreatedAt,
			"updated_at":   m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: put membership: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, key membership.Key) error {
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Filter(bson.M{"_id": key.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: delete membership: %w", err)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, clubID uint64) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"club_id": i64(clubID)}).
		Sort(bson.D{{Key: "account", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("clubhouse/mongo: list memberships: %w", err)
	}

	result := make([]*membership.Membership, len(models))
	for i := range models {
		m, err := fromMembershipModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) GetExpired(ctx context.Context, key membership.Key) (*membership.Expired, error) {
	var m expiredModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrNoExpiredMembership
		}
		return nil, fmt.Errorf("clubhouse/mongo: get expired: %w", err)
	}
	return fromExpiredModel(&m)
}

func (s *Store) PutExpired(ctx context.Context, e *membership.Expired) error {
	m := toExpiredModel(e)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"account":     m.Account,
			"club_id":     m.ClubID,
			"was_renewal": m.WasRenewal,
			"expired_at":  m.ExpiredAt,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: put expired: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, key membership.Key) error {
	_, err := s.mdb.NewDelete((*expiredModel)(nil)).
		Filter(bson.M{"_id": key.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: delete expired: %w", err)
	}
	return nil
}

// ==================== Expiry Store ====================

func (s *Store) GetBucket(ctx context.Context, tick types.Tick) (*expiry.Bucket, error) {
	var m bucketModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": i64(uint64(tick))}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrBucketNotFound
		}
		return nil, fmt.Errorf("clubhouse/mongo: get bucket: %w", err)
	}
	return fromBucketModel(&m), nil
}

func (s *Store) PutBucket(ctx context.Context, b *expiry.Bucket) error {
	m := toBucketModel(b)
	_, err := s.mdb.NewUpdate((*bucketModel)(nil)).
		Filter(bson.M{"_id": m.Tick}).
		Set("count", m.Count).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: put bucket: %w", err)
	}
	return nil
}

func (s *Store) DeleteBucket(ctx context.Context, tick types.Tick) error {
	_, err := s.mdb.NewDelete((*bucketModel)(nil)).
		Filter(bson.M{"_id": i64(uint64(tick))}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: delete bucket: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, tick types.Tick, index uint64) (*expiry.Entry, error) {
	var m entryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID(tick, index)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, clubhouse.ErrEntryNotFound
		}
		return nil, fmt.Errorf("clubhouse/mongo: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) PutEntry(ctx context.Context, e *expiry.Entry) error {
	m := toEntryModel(e)
	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"tick":    m.Tick,
			"idx":     m.Index,
			"account": m.Account,
			"club_id": m.ClubID,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: put entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntry(ctx context.Context, tick types.Tick, index uint64) error {
	_, err := s.mdb.NewDelete((*entryModel)(nil)).
		Filter(bson.M{"_id": entryID(tick, index)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clubhouse/mongo: delete entry: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all clubhouse collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colClubs: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colRequests: {
			{
				Keys:    bson.D{{Key: "account", Value: 1}, {Key: "club_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colMemberships: {
			{
				Keys:    bson.D{{Key: "account", Value: 1}, {Key: "club_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "club_id", Value: 1}, {Key: "account", Value: 1}}},
		},
		colExpired: {
			{
				Keys:    bson.D{{Key: "account", Value: 1}, {Key: "club_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colBuckets: {},
		colEntries: {
			{
				Keys:    bson.D{{Key: "tick", Value: 1}, {Key: "idx", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
