package clubhouse

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/xraph/clubhouse/club"
	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Registry owns club records: creation by root, ownership transfer and fee
// changes by the owner.
type Registry struct {
	store  club.Store
	funds  funds.Ledger
	clock  clock.Clock
	config Config
	emit   Emitter
	logger *slog.Logger
}

// NewRegistry builds a club registry. A nil emitter discards events and a
// nil logger uses slog.Default.
func NewRegistry(s club.Store, f funds.Ledger, c clock.Clock, cfg Config, emit Emitter, logger *slog.Logger) *Registry {
	if emit == nil {
		emit = discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: s, funds: f, clock: c, config: cfg, emit: emit, logger: logger}
}

// CreateClub charges the creation fee to caller, which must be the
// configured root, and creates a club with the next id.
func (r *Registry) CreateClub(ctx context.Context, caller, owner id.AccountID, fee types.Balance) (*club.Club, error) {
	if r.config.RootAccount.IsNil() {
		return nil, ErrNoRootConfigured
	}
	if caller != r.config.RootAccount {
		return nil, ErrNotAuthorized
	}
	if owner.IsNil() {
		return nil, ValidationError{Field: "owner", Message: "must be set"}
	}

	clubID, err := r.store.NextClubID(ctx)
	if err != nil {
		return nil, fmt.Errorf("clubhouse: next club id: %w", err)
	}
	if clubID == math.MaxUint64 {
		return nil, ErrArithmeticOverflow
	}

	if err := funds.Transfer(ctx, r.funds, caller, r.config.SinkAccount, r.config.CreationFee, true); err != nil {
		return nil, err
	}

	c := &club.Club{
		Entity: types.NewEntity(),
		ID:     clubID,
		Owner:  owner,
		Fee:    fee,
	}
	if err := r.store.CreateClub(ctx, c); err != nil {
		r.refund(ctx, caller, r.config.CreationFee)
		return nil, fmt.Errorf("clubhouse: create club: %w", err)
	}

	r.logger.Info("club created",
		"club_id", c.ID,
		"owner", owner.String(),
		"fee", fee,
	)
	r.emit.Emit(ctx, &event.ClubCreated{
		Meta:   event.NewMeta(r.clock.Now()),
		ClubID: c.ID,
		Owner:  owner,
		Fee:    fee,
	})
	return c, nil
}

// TransferOwnership hands a club to newOwner. Only the current owner may
// call it; transferring to the current owner still emits an event.
func (r *Registry) TransferOwnership(ctx context.Context, caller id.AccountID, clubID uint64, newOwner id.AccountID) error {
	if newOwner.IsNil() {
		return ValidationError{Field: "new_owner", Message: "must be set"}
	}
	c, err := r.authorize(ctx, caller, clubID)
	if err != nil {
		return err
	}

	old := c.Owner
	c.Owner = newOwner
	c.Touch()
	if err := r.store.UpdateClub(ctx, c); err != nil {
		return fmt.Errorf("clubhouse: update club: %w", err)
	}

	r.logger.Info("club ownership transferred",
		"club_id", clubID,
		"old_owner", old.String(),
		"new_owner", newOwner.String(),
	)
	r.emit.Emit(ctx, &event.ClubOwnerChanged{
		Meta:     event.NewMeta(r.clock.Now()),
		ClubID:   clubID,
		OldOwner: old,
		NewOwner: newOwner,
	})
	return nil
}

// SetFee changes the per-unit fee. Pending requests keep the amount they
// already paid.
func (r *Registry) SetFee(ctx context.Context, caller id.AccountID, clubID uint64, fee types.Balance) error {
	c, err := r.authorize(ctx, caller, clubID)
	if err != nil {
		return err
	}

	old := c.Fee
	c.Fee = fee
	c.Touch()
	if err := r.store.UpdateClub(ctx, c); err != nil {
		return fmt.Errorf("clubhouse: update club: %w", err)
	}

	r.logger.Info("club fee set",
		"club_id", clubID,
		"old_fee", old,
		"new_fee", fee,
	)
	r.emit.Emit(ctx, &event.AnnualExpenseSet{
		Meta:   event.NewMeta(r.clock.Now()),
		ClubID: clubID,
		OldFee: old,
		NewFee: fee,
	})
	return nil
}

// GetClub retrieves a club by id.
func (r *Registry) GetClub(ctx context.Context, clubID uint64) (*club.Club, error) {
	return r.store.GetClub(ctx, clubID)
}

// ListClubs lists clubs in id order.
func (r *Registry) ListClubs(ctx context.Context, opts club.ListOpts) ([]*club.Club, error) {
	return r.store.ListClubs(ctx, opts)
}

// authorize loads the club and checks that caller owns it.
func (r *Registry) authorize(ctx context.Context, caller id.AccountID, clubID uint64) (*club.Club, error) {
	c, err := r.store.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if c.Owner != caller {
		return nil, ErrNotOwner
	}
	return c, nil
}

// refund returns a fee from the sink after a failed write.
func (r *Registry) refund(ctx context.Context, to id.AccountID, amount types.Balance) {
	refundFee(ctx, r.funds, r.config.SinkAccount, to, amount, r.logger)
}

func refundFee(ctx context.Context, l funds.Ledger, sink, to id.AccountID, amount types.Balance, logger *slog.Logger) {
	if err := funds.Transfer(ctx, l, sink, to, amount, false); err != nil {
		logger.Error("failed to refund fee",
			"account", to.String(),
			"amount", amount,
			"error", err,
		)
	}
}
