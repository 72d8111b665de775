package sqlite

import (
	"math"
	"testing"

	"github.com/xraph/clubhouse/expiry"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/membership"
	"github.com/xraph/clubhouse/types"
)

func TestUnsignedValuesSurviveSignedColumns(t *testing.T) {
	key := membership.NewKey(id.NewAccountID(), math.MaxUint64)

	mem := &membership.Membership{
		Key:         key,
		AdmittedAt:  types.Tick(math.MaxUint64 - 1),
		ExpiresAt:   types.Tick(math.MaxUint64),
		ExpiryIndex: 1 << 63,
	}
	m := toMembershipModel(mem)
	if m.ExpiresAt >= 0 {
		t.Errorf("expected a negative bit pattern, got %d", m.ExpiresAt)
	}

	got, err := fromMembershipModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Key != key || got.AdmittedAt != mem.AdmittedAt || got.ExpiresAt != mem.ExpiresAt || got.ExpiryIndex != mem.ExpiryIndex {
		t.Errorf("got %+v, want %+v", got, mem)
	}

	b := fromBucketModel(toBucketModel(&expiry.Bucket{Tick: math.MaxUint64, Count: math.MaxUint64}))
	if b.Tick != math.MaxUint64 || b.Count != math.MaxUint64 {
		t.Errorf("bucket = %+v", b)
	}
}

func TestParseKeyRejectsForeignIDs(t *testing.T) {
	if _, err := parseKey(id.NewEventID().String(), 1); err == nil {
		t.Error("event id accepted as account")
	}
}
