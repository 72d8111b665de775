package clubhouse_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/event"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/types"
)

func TestRequestMembershipCost(t *testing.T) {
	tests := []struct {
		name     string
		balance  types.Balance
		duration uint8
		wantErr  error
		wantPaid types.Balance
	}{
		{"Fee times duration", startingBalance, 5, nil, 500},
		{"Insufficient funds", 499, 5, funds.ErrInsufficientFunds, 0},
		{"Keep alive", 500, 5, funds.ErrWouldReapAccount, 0},
		{"Maximum duration", startingBalance, 100, nil, 10_000},
		{"Duration exceeded", startingBalance, 150, clubhouse.ErrDurationExceeded, 0},
		{"Zero duration", startingBalance, 0, clubhouse.ErrZeroDuration, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			clubID := f.club(t, 100)
			alice := f.funded()
			f.ledger.SetBalance(alice, tt.balance)
			sinkBefore := f.ledger.Balance(f.sink)

			req, err := f.engine.RequestMembership(f.ctx, alice, clubID, tt.duration)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got := f.ledger.Balance(alice); got != tt.balance-tt.wantPaid {
				t.Errorf("alice balance = %d, want %d", got, tt.balance-tt.wantPaid)
			}
			if got := f.ledger.Balance(f.sink); got != sinkBefore+tt.wantPaid {
				t.Errorf("sink balance = %d, want %d", got, sinkBefore+tt.wantPaid)
			}

			if tt.wantErr != nil {
				if s := f.status(t, alice, clubID); s != clubhouse.StateNone {
					t.Errorf("status = %s, want none", s)
				}
				return
			}
			if req.Cost != tt.wantPaid || req.Duration != tt.duration || req.IsRenewal {
				t.Errorf("request = %+v", req)
			}
			if s := f.status(t, alice, clubID); s != clubhouse.StateRequested {
				t.Errorf("status = %s, want requested", s)
			}
		})
	}
}

func TestRequestMembershipOverflowLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, types.MaxBalance)
	alice := f.funded()
	f.rec.reset()

	_, err := f.engine.RequestMembership(f.ctx, alice, clubID, 2)
	if !errors.Is(err, clubhouse.ErrArithmeticOverflow) {
		t.Fatalf("error = %v, want ErrArithmeticOverflow", err)
	}
	if got := f.ledger.Balance(alice); got != startingBalance {
		t.Errorf("alice balance = %d, want %d", got, startingBalance)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateNone {
		t.Errorf("status = %s, want none", s)
	}
	if len(f.rec.kinds()) != 0 {
		t.Errorf("unexpected events: %v", f.rec.kinds())
	}
}

func TestRequestMembershipClubNotFound(t *testing.T) {
	f := newFixture(t, nil)
	alice := f.funded()

	if _, err := f.engine.RequestMembership(f.ctx, alice, 9, 1); !errors.Is(err, clubhouse.ErrClubNotFound) {
		t.Errorf("RequestMembership: error = %v, want ErrClubNotFound", err)
	}
	if _, err := f.engine.RequestRenewal(f.ctx, alice, 9, 1); !errors.Is(err, clubhouse.ErrClubNotFound) {
		t.Errorf("RequestRenewal: error = %v, want ErrClubNotFound", err)
	}
}

func TestMembershipStatesAreExclusive(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrNoExpiredMembership) {
		t.Fatalf("renewal with no history: error = %v, want ErrNoExpiredMembership", err)
	}

	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrAlreadyRequested) {
		t.Errorf("second request: error = %v, want ErrAlreadyRequested", err)
	}
	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrAlreadyRequested) {
		t.Errorf("renewal while requested: error = %v, want ErrAlreadyRequested", err)
	}

	m, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice)
	if err != nil {
		t.Fatal(err)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateActive {
		t.Fatalf("status = %s, want active", s)
	}
	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrAlreadyMember) {
		t.Errorf("request while active: error = %v, want ErrAlreadyMember", err)
	}
	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrAlreadyMember) {
		t.Errorf("renewal while active: error = %v, want ErrAlreadyMember", err)
	}

	f.clock.Set(m.ExpiresAt)
	if _, err := f.engine.ProcessDue(f.ctx, m.ExpiresAt); err != nil {
		t.Fatal(err)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateExpired {
		t.Fatalf("status = %s, want expired", s)
	}
	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 1); !errors.Is(err, clubhouse.ErrHasExpiredMembership) {
		t.Errorf("request while expired: error = %v, want ErrHasExpiredMembership", err)
	}
}

func TestAdmitMember(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	if _, err := f.engine.AdmitMember(f.ctx, f.owner, 77, alice); !errors.Is(err, clubhouse.ErrClubNotFound) {
		t.Errorf("missing club: error = %v, want ErrClubNotFound", err)
	}
	if _, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice); !errors.Is(err, clubhouse.ErrRequestNotFound) {
		t.Errorf("no request: error = %v, want ErrRequestNotFound", err)
	}

	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.AdmitMember(f.ctx, alice, clubID, alice); !errors.Is(err, clubhouse.ErrNotOwner) {
		t.Errorf("self admit: error = %v, want ErrNotOwner", err)
	}

	f.rec.reset()
	m, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice)
	if err != nil {
		t.Fatalf("AdmitMember: %v", err)
	}
	if m.ExpiresAt != 130 || m.AdmittedAt != 100 || m.IsRenewal {
		t.Errorf("membership = %+v", m)
	}
	if _, err := f.engine.Lifecycle().GetRequest(f.ctx, alice, clubID); !errors.Is(err, clubhouse.ErrRequestNotFound) {
		t.Errorf("request still present: %v", err)
	}

	ev, ok := f.rec.last().(*event.MemberAdded)
	if !ok {
		t.Fatalf("last event = %T, want *event.MemberAdded", f.rec.last())
	}
	if ev.ExpiresAt != 130 || ev.Account != alice || ev.ClubID != clubID {
		t.Errorf("event = %+v", ev)
	}
}

func TestAdmitMemberOverflowLeavesNoTrace(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	f.clock.Set(types.Tick(math.MaxUint64 - 5))
	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 1); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice)
	if !errors.Is(err, clubhouse.ErrArithmeticOverflow) {
		t.Fatalf("error = %v, want ErrArithmeticOverflow", err)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateRequested {
		t.Errorf("status = %s, want requested", s)
	}
}

// Fee 100, tick 100, 10 ticks per unit: two admissions for one unit share
// bucket 110 at indices 1 and 2.
func TestAdmissionsShareBucket(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice, bob := f.funded(), f.funded()

	if got := f.member(t, alice, clubID, 1); got != 110 {
		t.Fatalf("alice expiry = %d, want 110", got)
	}
	b, err := f.engine.Bucket(f.ctx, 110)
	if err != nil {
		t.Fatal(err)
	}
	if b.Count != 1 {
		t.Errorf("bucket count = %d, want 1", b.Count)
	}

	f.member(t, bob, clubID, 1)
	b, err = f.engine.Bucket(f.ctx, 110)
	if err != nil {
		t.Fatal(err)
	}
	if b.Count != 2 {
		t.Errorf("bucket count = %d, want 2", b.Count)
	}

	for index, want := range map[uint64]string{1: alice.String(), 2: bob.String()} {
		e, err := f.engine.Scheduler().Entry(f.ctx, 110, index)
		if err != nil {
			t.Fatalf("Entry(%d): %v", index, err)
		}
		if e.Account.String() != want || e.ClubID != clubID {
			t.Errorf("entry %d = %+v", index, e)
		}
	}

	am, err := f.engine.Lifecycle().GetMembership(f.ctx, bob, clubID)
	if err != nil {
		t.Fatal(err)
	}
	if am.ExpiryIndex != 2 {
		t.Errorf("bob expiry index = %d, want 2", am.ExpiryIndex)
	}
}

func TestExpirationRoundTrip(t *testing.T) {
	for _, renewal := range []bool{false, true} {
		name := "Initial"
		if renewal {
			name = "Renewal"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			clubID := f.club(t, 100)
			alice := f.funded()

			expiresAt := f.member(t, alice, clubID, 1)
			if renewal {
				f.clock.Set(expiresAt)
				if _, err := f.engine.ProcessDue(f.ctx, expiresAt); err != nil {
					t.Fatal(err)
				}
				req, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 2)
				if err != nil {
					t.Fatalf("RequestRenewal: %v", err)
				}
				if !req.IsRenewal {
					t.Error("renewal request not flagged")
				}
				m, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice)
				if err != nil {
					t.Fatal(err)
				}
				expiresAt = m.ExpiresAt
			}

			f.clock.Set(expiresAt)
			report, err := f.engine.ProcessDue(f.ctx, expiresAt)
			if err != nil {
				t.Fatalf("ProcessDue: %v", err)
			}
			if report.Processed != 1 {
				t.Errorf("processed = %d, want 1", report.Processed)
			}

			exp, err := f.engine.Lifecycle().GetExpired(f.ctx, alice, clubID)
			if err != nil {
				t.Fatalf("GetExpired: %v", err)
			}
			if exp.WasRenewal != renewal {
				t.Errorf("WasRenewal = %v, want %v", exp.WasRenewal, renewal)
			}
			if exp.ExpiredAt != expiresAt {
				t.Errorf("ExpiredAt = %d, want %d", exp.ExpiredAt, expiresAt)
			}
			if _, err := f.engine.Lifecycle().GetMembership(f.ctx, alice, clubID); !errors.Is(err, clubhouse.ErrMemberNotFound) {
				t.Errorf("membership still present: %v", err)
			}
			if _, err := f.engine.Lifecycle().GetRequest(f.ctx, alice, clubID); !errors.Is(err, clubhouse.ErrRequestNotFound) {
				t.Errorf("request still present: %v", err)
			}
		})
	}
}

func TestRenewalConsumesExpiredRecord(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	expiresAt := f.member(t, alice, clubID, 1)
	f.clock.Set(expiresAt)
	if _, err := f.engine.ProcessDue(f.ctx, expiresAt); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); err != nil {
		t.Fatalf("RequestRenewal: %v", err)
	}
	if _, err := f.engine.Lifecycle().GetExpired(f.ctx, alice, clubID); !errors.Is(err, clubhouse.ErrNoExpiredMembership) {
		t.Errorf("expired record still present: %v", err)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateRequested {
		t.Errorf("status = %s, want requested", s)
	}
}

func TestFeeChangeKeepsPaidRequest(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	if _, err := f.engine.RequestMembership(f.ctx, alice, clubID, 2); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.SetAnnualExpense(f.ctx, f.owner, clubID, 900); err != nil {
		t.Fatal(err)
	}

	req, err := f.engine.Lifecycle().GetRequest(f.ctx, alice, clubID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Cost != 200 {
		t.Errorf("cost = %d, want 200", req.Cost)
	}
	if _, err := f.engine.AdmitMember(f.ctx, f.owner, clubID, alice); err != nil {
		t.Errorf("AdmitMember: %v", err)
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	other := f.club(t, 100)
	alice, bob, carol := f.funded(), f.funded(), f.funded()

	f.member(t, alice, clubID, 1)
	f.member(t, bob, clubID, 1)
	f.member(t, carol, other, 1)

	members, err := f.engine.Members(f.ctx, clubID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	got := []string{members[0].Account.String(), members[1].Account.String()}
	want := []string{alice.String(), bob.String()}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}

	if _, err := f.engine.Members(f.ctx, 99); !errors.Is(err, clubhouse.ErrClubNotFound) {
		t.Errorf("missing club: error = %v, want ErrClubNotFound", err)
	}
}

func TestEventOrder(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	expiresAt := f.member(t, alice, clubID, 1)
	f.clock.Set(expiresAt)
	if _, err := f.engine.ProcessDue(f.ctx, expiresAt); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); err != nil {
		t.Fatal(err)
	}

	want := []event.Kind{
		event.KindClubCreated,
		event.KindMembershipRequested,
		event.KindMemberAdded,
		event.KindMembershipExpired,
		event.KindMembershipRequested,
	}
	if got := f.rec.kinds(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	ev, ok := f.rec.last().(*event.MembershipRequested)
	if !ok {
		t.Fatalf("last event = %T", f.rec.last())
	}
	if !ev.IsRenewal || ev.Cost != 100 || ev.Duration != 1 {
		t.Errorf("renewal event = %+v", ev)
	}
}

func TestZeroDurationRenewalKeepsExpiredRecord(t *testing.T) {
	f := newFixture(t, nil)
	clubID := f.club(t, 100)
	alice := f.funded()

	expiresAt := f.member(t, alice, clubID, 1)
	f.clock.Set(expiresAt)
	if _, err := f.engine.ProcessDue(f.ctx, expiresAt); err != nil {
		t.Fatal(err)
	}
	before := f.ledger.Balance(alice)

	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 0); !errors.Is(err, clubhouse.ErrZeroDuration) {
		t.Fatalf("error = %v, want ErrZeroDuration", err)
	}
	if got := f.ledger.Balance(alice); got != before {
		t.Errorf("balance = %d, want %d", got, before)
	}
	if s := f.status(t, alice, clubID); s != clubhouse.StateExpired {
		t.Errorf("status = %s, want expired", s)
	}
	if _, err := f.engine.RequestRenewal(f.ctx, alice, clubID, 1); err != nil {
		t.Errorf("renewal with one unit: %v", err)
	}
}
