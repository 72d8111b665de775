package observability_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/observability"
	"github.com/xraph/clubhouse/store/memory"
)

// gathered maps metric family names to their counter value or histogram
// sample count.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				out[mf.GetName()] += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				out[mf.GetName()] += float64(h.GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsExtensionWithPrometheus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	root, owner, alice := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()
	ledger := funds.NewMemory(1)
	ledger.SetBalance(root, 10_000)
	ledger.SetBalance(alice, 10_000)

	cfg := clubhouse.DefaultConfig()
	cfg.RootAccount = root
	cfg.TicksPerDurationUnit = 2

	engine, err := clubhouse.New(memory.New(), ledger,
		clubhouse.WithConfig(cfg),
		clubhouse.WithClock(clock.NewManual(0)),
		clubhouse.WithLogger(slog.New(slog.DiscardHandler)),
		clubhouse.WithPlugin(metrics),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer engine.Stop()

	c, err := engine.CreateClub(ctx, root, owner, 100)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.TransferOwnership(ctx, owner, c.ID, owner); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.RequestMembership(ctx, alice, c.ID, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.AdmitMember(ctx, owner, c.ID, alice); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := engine.Tick(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := engine.RequestRenewal(ctx, alice, c.ID, 1); err != nil {
		t.Fatal(err)
	}

	got := gathered(t, reg)
	want := map[string]float64{
		"clubhouse_club_created":                 1,
		"clubhouse_club_owner_changed":           1,
		"clubhouse_club_fee_changed":             0,
		"clubhouse_membership_requested":         1,
		"clubhouse_membership_renewal_requested": 1,
		"clubhouse_membership_cost":              2,
		"clubhouse_membership_admitted":          1,
		"clubhouse_membership_expired":           1,
		"clubhouse_scheduler_ticks":              2,
		"clubhouse_scheduler_expiries_per_tick":  2,
		"clubhouse_scheduler_tick_latency_ms":    2,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	a := f.Counter("clubhouse.test.counter")
	b := f.Counter("clubhouse.test.counter")
	a.Inc()
	b.Add(2)

	if got := gathered(t, reg)["clubhouse_test_counter"]; got != 3 {
		t.Errorf("counter = %v, want 3", got)
	}
}
