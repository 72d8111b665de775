package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/membership"
	clubstore "github.com/xraph/clubhouse/store"
	"github.com/xraph/clubhouse/types"
)

// compile-time interface check
var _ clubstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("clubhouse/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("clubhouse/sqlite: migration failed: %w", err)
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

// NextClubID derives the counter from the highest stored id; clubs are
// never deleted.
func (s *Store) NextClubID(ctx context.Context) (uint64, error) {
	var maxID int64
	err := s.sdb.NewRaw(`SELECT COALESCE(MAX(id), 0) FROM clubhouse_clubs`).Scan(ctx, &maxID)
	if err != nil {
		return 0, err
	}
	return u64(maxID) + 1, nil
}

func (s *Store) CreateClub(ctx context.Context, c *club.Club) error {
	m := toClubModel(c)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetClub(ctx context.Context, clubID uint64) (*club.Club, error) {
	m := new(clubModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", i64(clubID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrClubNotFound
		}
		return nil, err
	}
	return fromClubModel(m)
}

func (s *Store) UpdateClub(ctx context.Context, c *club.Club) error {
	m := toClubModel(c)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return clubhouse.ErrClubNotFound
	}
	return nil
}

func (s *Store) ListClubs(ctx context.Context, opts club.ListOpts) ([]*club.Club, error) {
	var models []clubModel
	q := s.sdb.NewSelect(&models)

	if !opts.Owner.IsNil() {
		q = q.Where("owner = ?", opts.Owner.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	m := new(requestModel)
	err := s.sdb.NewSelect(m).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrRequestNotFound
		}
		return nil, err
	}
	return fromRequestModel(m)
}

func (s *Store) PutRequest(ctx context.Context, r *membership.Request) error {
	m := toRequestModel(r)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(account, club_id) DO UPDATE").
		Set("cost = EXCLUDED.cost").
		Set("duration = EXCLUDED.duration").
		Set("is_renewal = EXCLUDED.is_renewal").
		Set("requested_at = EXCLUDED.requested_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteRequest(ctx context.Context, key membership.Key) error {
	_, err := s.sdb.NewDelete((*requestModel)(nil)).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Exec(ctx)
	return err
}

func (s *Store) GetMembership(ctx context.Context, key membership.Key) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrMemberNotFound
		}
		return nil, err
	}
	return fromMembershipModel(m)
}

func (s *Store) PutMembership(ctx context.Context, mem *membership.Membership) error {
	m := toMembershipModel(mem)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(account, club_id) DO UPDATE").
		Set("is_renewal = EXCLUDED.is_renewal").
		Set("admitted_at = EXCLUDED.admitted_at").
		Set("expires_at = EXCLUDED.expires_at").
		Set("expiry_index = EXCLUDED.expiry_index").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteMembership(ctx context.Context, key membership.Key) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Exec(ctx)
	return err
}

func (s *Store) ListMemberships(ctx context.Context, clubID uint64) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("club_id = ?", i64(clubID)).
		OrderExpr("account ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	m := new(expiredModel)
	err := s.sdb.NewSelect(m).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrNoExpiredMembership
		}
		return nil, err
	}
	return fromExpiredModel(m)
}

func (s *Store) PutExpired(ctx context.Context, e *membership.Expired) error {
	m := toExpiredModel(e)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(account, club_id) DO UPDATE").
		Set("was_renewal = EXCLUDED.was_renewal").
		Set("expired_at = EXCLUDED.expired_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteExpired(ctx context.Context, key membership.Key) error {
	_, err := s.sdb.NewDelete((*expiredModel)(nil)).
		Where("account = ?", key.Account.String()).
		Where("club_id = ?", i64(key.ClubID)).
		Exec(ctx)
	return err
}

// ==================== Expiry Store ====================

func (s *Store) GetBucket(ctx context.Context, tick types.Tick) (*expiry.Bucket, error) {
	m := new(bucketModel)
	err := s.sdb.NewSelect(m).
		Where("tick = ?", i64(uint64(tick))).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrBucketNotFound
		}
		return nil, err
	}
	return fromBucketModel(m), nil
}

func (s *Store) PutBucket(ctx context.Context, b *expiry.Bucket) error {
	_, err := s.sdb.NewInsert(toBucketModel(b)).
		OnConflict("(tick) DO UPDATE").
		Set("count = EXCLUDED.count").
		Exec(ctx)
	return err
}

func (s *Store) DeleteBucket(ctx context.Context, tick types.Tick) error {
	_, err := s.sdb.NewDelete((*bucketModel)(nil)).
		Where("tick = ?", i64(uint64(tick))).
		Exec(ctx)
	return err
}

func (s *Store) GetEntry(ctx context.Context, tick types.Tick, index uint64) (*expiry.Entry, error) {
	m := new(entryModel)
	err := s.sdb.NewSelect(m).
		Where("tick = ?", i64(uint64(tick))).
		Where("idx = ?", i64(index)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, clubhouse.ErrEntryNotFound
		}
		return nil, err
	}
	return fromEntryModel(m)
}

func (s *Store) PutEntry(ctx context.Context, e *expiry.Entry) error {
	_, err := s.sdb.NewInsert(toEntryModel(e)).
		OnConflict("(tick, idx) DO UPDATE").
		Set("account = EXCLUDED.account").
		Set("club_id = EXCLUDED.club_id").
		Exec(ctx)
	return err
}

func (s *Store) DeleteEntry(ctx context.Context, tick types.Tick, index uint64) error {
	_, err := s.sdb.NewDelete((*entryModel)(nil)).
		Where("tick = ?", i64(uint64(tick))).
		Where("idx = ?", i64(index)).
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
