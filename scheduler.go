package clubhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

// ExpiryHandler is handed each live entry drained from a bucket.
type ExpiryHandler func(ctx context.Context, entry *expiry.Entry) error

// Scheduler keeps a bucket of expiration entries per future tick. Work per
// tick is proportional to that tick's bucket only.
type Scheduler struct {
	store  expiry.Store
	logger *slog.Logger
}

// NewScheduler builds a scheduler over s. A nil logger uses slog.Default.
func NewScheduler(s expiry.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: s, logger: logger}
}

// Schedule appends key to the bucket for tick and returns its 1-based index.
func (s *Scheduler) Schedule(ctx context.Context, tick types.Tick, key membership.Key) (uint64, error) {
	var count uint64
	b, err := s.store.GetBucket(ctx, tick)
	switch {
	case err == nil:
		count = b.Count
	case !errors.Is(err, ErrBucketNotFound):
		return 0, fmt.Errorf("clubhouse: load bucket %d: %w", tick, err)
	}

	if count == math.MaxUint64 {
		return 0, ErrArithmeticOverflow
	}
	index := count + 1

	if err := s.store.PutEntry(ctx, &expiry.Entry{Key: key, Tick: tick, Index: index}); err != nil {
		return 0, fmt.Errorf("clubhouse: put entry %d/%d: %w", tick, index, err)
	}
	if err := s.store.PutBucket(ctx, &expiry.Bucket{Tick: tick, Count: index}); err != nil {
		_ = s.store.DeleteEntry(ctx, tick, index) //nolint:errcheck // best-effort rollback
		return 0, fmt.Errorf("clubhouse: put bucket %d: %w", tick, err)
	}

	s.logger.Debug("expiration scheduled",
		"tick", tick,
		"index", index,
		"key", key.String(),
	)
	return index, nil
}

// ProcessDue drains the bucket for tick. The bucket counter is removed
// first, so entries scheduled for tick from inside handler land in a fresh
// bucket and are not visited by this call. Tombstoned indices are skipped.
// It returns the number of entries handed to handler.
//
// When a store or handler error interrupts the drain, the counter is
// restored so a later call finishes the bucket. Entries already handled
// are gone by then and are skipped as tombstones.
func (s *Scheduler) ProcessDue(ctx context.Context, tick types.Tick, handler ExpiryHandler) (int, error) {
	b, err := s.store.GetBucket(ctx, tick)
	if errors.Is(err, ErrBucketNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("clubhouse: load bucket %d: %w", tick, err)
	}

	if err := s.store.DeleteBucket(ctx, tick); err != nil {
		return 0, fmt.Errorf("clubhouse: delete bucket %d: %w", tick, err)
	}

	processed := 0
	for index := uint64(1); index <= b.Count; index++ {
		entry, err := s.store.GetEntry(ctx, tick, index)
		if errors.Is(err, ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return processed, s.abort(ctx, b, fmt.Errorf("clubhouse: load entry %d/%d: %w", tick, index, err))
		}

		if err := s.store.DeleteEntry(ctx, tick, index); err != nil {
			return processed, s.abort(ctx, b, fmt.Errorf("clubhouse: delete entry %d/%d: %w", tick, index, err))
		}
		if err := handler(ctx, entry); err != nil {
			_ = s.store.PutEntry(ctx, entry) //nolint:errcheck // best-effort restore for retry
			return processed, s.abort(ctx, b, err)
		}
		processed++
	}

	return processed, nil
}

// abort restores the bucket counter so the remaining entries stay reachable.
func (s *Scheduler) abort(ctx context.Context, b *expiry.Bucket, cause error) error {
	restoreCtx := context.WithoutCancel(ctx)
	if err := s.restore(restoreCtx, b); err != nil {
		s.logger.Error("failed to restore expiration bucket",
			"tick", b.Tick,
			"count", b.Count,
			"error", err,
		)
	}
	return cause
}

func (s *Scheduler) restore(ctx context.Context, b *expiry.Bucket) error {
	// Entries may have been scheduled into a fresh bucket meanwhile; keep
	// the larger counter so no index is reused.
	current, err := s.store.GetBucket(ctx, b.Tick)
	switch {
	case err == nil:
		if current.Count >= b.Count {
			return nil
		}
	case !errors.Is(err, ErrBucketNotFound):
		return err
	}
	return s.store.PutBucket(ctx, b)
}

// Bucket returns the bucket for tick.
func (s *Scheduler) Bucket(ctx context.Context, tick types.Tick) (*expiry.Bucket, error) {
	return s.store.GetBucket(ctx, tick)
}

// Entry returns one scheduled entry.
func (s *Scheduler) Entry(ctx context.Context, tick types.Tick, index uint64) (*expiry.Entry, error) {
	return s.store.GetEntry(ctx, tick, index)
}

// Tombstone removes an entry without touching the bucket counter; the
// index is skipped when the bucket is drained. The membership it pointed at
// stays active until corrected out of band.
func (s *Scheduler) Tombstone(ctx context.Context, tick types.Tick, index uint64) error {
	if _, err := s.store.GetEntry(ctx, tick, index); err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, tick, index); err != nil {
		return fmt.Errorf("clubhouse: delete entry %d/%d: %w", tick, index, err)
	}
	s.logger.Warn("expiration entry tombstoned",
		"tick", tick,
		"index", index,
	)
	return nil
}
