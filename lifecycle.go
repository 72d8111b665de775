package clubhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// Lifecycle moves a (account, club) key through
// none → requested → active → expired → requested.
// Each key is in at most one of those states.
type Lifecycle struct {
	store     membership.Store
	registry  *Registry
	scheduler *Scheduler
	funds     funds.Ledger
	clock     clock.Clock
	config    Config
	emit      Emitter
	logger    *slog.Logger
}

// NewLifecycle builds the membership state machine.
func NewLifecycle(
	s membership.Store,
	registry *Registry,
	scheduler *Scheduler,
	f funds.Ledger,
	c clock.Clock,
	cfg Config,
	emit Emitter,
	logger *slog.Logger,
) *Lifecycle {
	if emit == nil {
		emit = discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		store:     s,
		registry:  registry,
		scheduler: scheduler,
		funds:     f,
		clock:     c,
		config:    cfg,
		emit:      emit,
		logger:    logger,
	}
}

// RequestMembership pays fee*duration into the sink and records a pending
// request. Accounts with an expired membership must renew instead.
func (l *Lifecycle) RequestMembership(ctx context.Context, account id.AccountID, clubID uint64, duration uint8) (*membership.Request, error) {
	return l.request(ctx, account, clubID, duration, false)
}

// RequestRenewal is RequestMembership for an account whose membership in
// the club has expired. The expired record is consumed.
func (l *Lifecycle) RequestRenewal(ctx context.Context, account id.AccountID, clubID uint64, duration uint8) (*membership.Request, error) {
	return l.request(ctx, account, clubID, duration, true)
}

func (l *Lifecycle) request(ctx context.Context, account id.AccountID, clubID uint64, duration uint8, renewal bool) (*membership.Request, error) {
	c, err := l.registry.GetClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	key := membership.NewKey(account, clubID)
	state, err := l.Status(ctx, account, clubID)
	if err != nil {
		return nil, err
	}
	switch state {
	case membership.StateRequested:
		return nil, ErrAlreadyRequested
	case membership.StateActive:
		return nil, ErrAlreadyMember
	case membership.StateExpired:
		if !renewal {
			return nil, ErrHasExpiredMembership
		}
	case membership.StateNone:
		if renewal {
			return nil, ErrNoExpiredMembership
		}
	}

	if duration > l.config.MaxDurationUnits {
		return nil, ErrDurationExceeded
	}
	// Expiry at the current tick would land in an already drained bucket.
	if duration == 0 {
		return nil, ErrZeroDuration
	}
	cost, ok := c.Fee.CheckedMul(uint64(duration))
	if !ok {
		return nil, ErrArithmeticOverflow
	}

	if err := funds.Transfer(ctx, l.funds, account, l.config.SinkAccount, cost, true); err != nil {
		return nil, err
	}

	now := l.clock.Now()
	req := &membership.Request{
		Key:         key,
		Entity:      types.NewEntity(),
		Cost:        cost,
		Duration:    duration,
		IsRenewal:   renewal,
		RequestedAt: now,
	}
	if err := l.store.PutRequest(ctx, req); err != nil {
		l.refund(ctx, account, cost)
		return nil, fmt.Errorf("clubhouse: put request: %w", err)
	}
	if renewal {
		if err := l.store.DeleteExpired(ctx, key); err != nil {
			_ = l.store.DeleteRequest(ctx, key) //nolint:errcheck // best-effort rollback
			l.refund(ctx, account, cost)
			return nil, fmt.Errorf("clubhouse: delete expired: %w", err)
		}
	}

	l.logger.Info("membership requested",
		"club_id", clubID,
		"account", account.String(),
		"cost", cost,
		"duration", duration,
		"renewal", renewal,
	)
	l.emit.Emit(ctx, &event.MembershipRequested{
		Meta:      event.NewMeta(now),
		ClubID:    clubID,
		Account:   account,
		Cost:      cost,
		Duration:  duration,
		IsRenewal: renewal,
	})
	return req, nil
}

// AdmitMember converts a pending request into an active membership and
// schedules its expiration at now + duration*TicksPerDurationUnit.
func (l *Lifecycle) AdmitMember(ctx context.Context, caller id.AccountID, clubID uint64, account id.AccountID) (*membership.Membership, error) {
	if _, err := l.registry.authorize(ctx, caller, clubID); err != nil {
		return nil, err
	}

	key := membership.NewKey(account, clubID)
	req, err := l.store.GetRequest(ctx, key)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	expiresAt, ok := now.Offset(l.config.TicksPerDurationUnit, uint64(req.Duration))
	if !ok {
		return nil, ErrArithmeticOverflow
	}

	index, err := l.scheduler.Schedule(ctx, expiresAt, key)
	if err != nil {
		return nil, err
	}

	m := &membership.Membership{
		Key:         key,
		Entity:      types.NewEntity(),
		IsRenewal:   req.IsRenewal,
		AdmittedAt:  now,
		ExpiresAt:   expiresAt,
		ExpiryIndex: index,
	}
	if err := l.store.PutMembership(ctx, m); err != nil {
		_ = l.scheduler.store.DeleteEntry(ctx, expiresAt, index) //nolint:errcheck // best-effort rollback
		return nil, fmt.Errorf("clubhouse: put membership: %w", err)
	}
	if err := l.store.DeleteRequest(ctx, key); err != nil {
		_ = l.store.DeleteMembership(ctx, key)                   //nolint:errcheck // best-effort rollback
		_ = l.scheduler.store.DeleteEntry(ctx, expiresAt, index) //nolint:errcheck // best-effort rollback
		return nil, fmt.Errorf("clubhouse: delete request: %w", err)
	}

	l.logger.Info("member added",
		"club_id", clubID,
		"account", account.String(),
		"expires_at", expiresAt,
		"renewal", req.IsRenewal,
	)
	l.emit.Emit(ctx, &event.MemberAdded{
		Meta:      event.NewMeta(now),
		ClubID:    clubID,
		Account:   account,
		IsRenewal: req.IsRenewal,
		ExpiresAt: expiresAt,
	})
	return m, nil
}

// Expire is the scheduler's handler. An entry whose membership is gone, or
// was rescheduled to a different tick, is skipped without error.
func (l *Lifecycle) Expire(ctx context.Context, entry *expiry.Entry) error {
	m, err := l.store.GetMembership(ctx, entry.Key)
	if errors.Is(err, ErrMemberNotFound) {
		l.logger.Debug("expiration skipped: no active membership",
			"tick", entry.Tick,
			"key", entry.Key.String(),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("clubhouse: load membership %s: %w", entry.Key, err)
	}
	if m.ExpiresAt != entry.Tick {
		l.logger.Debug("expiration skipped: stale entry",
			"tick", entry.Tick,
			"expires_at", m.ExpiresAt,
			"key", entry.Key.String(),
		)
		return nil
	}

	exp := &membership.Expired{
		Key:        entry.Key,
		Entity:     types.NewEntity(),
		WasRenewal: m.IsRenewal,
		ExpiredAt:  entry.Tick,
	}
	if err := l.store.PutExpired(ctx, exp); err != nil {
		return fmt.Errorf("clubhouse: put expired: %w", err)
	}
	if err := l.store.DeleteMembership(ctx, entry.Key); err != nil {
		_ = l.store.DeleteExpired(ctx, entry.Key) //nolint:errcheck // best-effort rollback
		return fmt.Errorf("clubhouse: delete membership: %w", err)
	}

	l.logger.Info("membership expired",
		"club_id", entry.ClubID,
		"account", entry.Account.String(),
		"tick", entry.Tick,
	)
	l.emit.Emit(ctx, &event.MembershipExpired{
		Meta:    event.NewMeta(entry.Tick),
		ClubID:  entry.ClubID,
		Account: entry.Account,
	})
	return nil
}

// Status reports which lifecycle state the key is in.
func (l *Lifecycle) Status(ctx context.Context, account id.AccountID, clubID uint64) (membership.State, error) {
	key := membership.NewKey(account, clubID)

	if _, err := l.store.GetRequest(ctx, key); err == nil {
		return membership.StateRequested, nil
	} else if !errors.Is(err, ErrRequestNotFound) {
		return "", err
	}

	if _, err := l.store.GetMembership(ctx, key); err == nil {
		return membership.StateActive, nil
	} else if !errors.Is(err, ErrMemberNotFound) {
		return "", err
	}

	if _, err := l.store.GetExpired(ctx, key); err == nil {
		return membership.StateExpired, nil
	} else if !errors.Is(err, ErrNoExpiredMembership) {
		return "", err
	}

	return membership.StateNone, nil
}

// GetRequest returns the pending request for account in clubID.
func (l *Lifecycle) GetRequest(ctx context.Context, account id.AccountID, clubID uint64) (*membership.Request, error) {
	return l.store.GetRequest(ctx, membership.NewKey(account, clubID))
}

// GetMembership returns the active membership for account in clubID.
func (l *Lifecycle) GetMembership(ctx context.Context, account id.AccountID, clubID uint64) (*membership.Membership, error) {
	return l.store.GetMembership(ctx, membership.NewKey(account, clubID))
}

// GetExpired returns the expired record for account in clubID.
func (l *Lifecycle) GetExpired(ctx context.Context, account id.AccountID, clubID uint64) (*membership.Expired, error) {
	return l.store.GetExpired(ctx, membership.NewKey(account, clubID))
}

// Members lists the active members of a club.
func (l *Lifecycle) Members(ctx context.Context, clubID uint64) ([]*membership.Membership, error) {
	if _, err := l.registry.GetClub(ctx, clubID); err != nil {
		return nil, err
	}
	return l.store.ListMemberships(ctx, clubID)
}

func (l *Lifecycle) refund(ctx context.Context, to id.AccountID, amount types.Balance) {
	refundFee(ctx, l.funds, l.config.SinkAccount, to, amount, l.logger)
}
