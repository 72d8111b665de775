package clubhouse_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/xraph/clubhouse"
	"github.com/xraph/clubhouse/clock"
	"github.com/xraph/clubhouse/funds"
	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/store/memory"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		root, owner, alice := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

		cfg := clubhouse.DefaultConfig()
		cfg.RootAccount = root

		ledger := funds.NewMemory(1)
		ledger.SetBalance(root, 10_000)
		ledger.SetBalance(alice, 10_000)

		engine, err := clubhouse.New(memory.New(), ledger,
			clubhouse.WithConfig(cfg),
			clubhouse.WithLogger(quietLogger()),
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
		if _, err := engine.RequestMembership(ctx, alice, c.ID, 1); err != nil {
			t.Fatal(err)
		}
		m, err := engine.AdmitMember(ctx, owner, c.ID, alice)
		if err != nil {
			t.Fatal(err)
		}

		for engine.CurrentTick() < m.ExpiresAt {
			if _, err := engine.Tick(ctx); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := engine.RequestRenewal(ctx, alice, c.ID, 1); err != nil {
			t.Fatalf("RequestRenewal: %v", err)
		}

		// 100 creation fee, then two membership payments of 100.
		if got := ledger.Balance(cfg.SinkAccount); got != 300 {
			t.Errorf("sink balance = %d, want 300", got)
		}
	})
}

func ExampleEngine() {
	ctx := context.Background()
	root, owner, alice := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

	cfg := clubhouse.DefaultConfig()
	cfg.RootAccount = root

	ledger := funds.NewMemory(1)
	ledger.SetBalance(root, 1_000)
	ledger.SetBalance(alice, 1_000)

	engine, err := clubhouse.New(memory.New(), ledger,
		clubhouse.WithConfig(cfg),
		clubhouse.WithClock(clock.NewManual(100)),
		clubhouse.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		panic(err)
	}
	if err := engine.Start(ctx); err != nil {
		panic(err)
	}
	defer engine.Stop()

	c, _ := engine.CreateClub(ctx, root, owner, 100)
	req, _ := engine.RequestMembership(ctx, alice, c.ID, 5)
	m, _ := engine.AdmitMember(ctx, owner, c.ID, alice)
	fmt.Println("club", c.ID, "cost", req.Cost, "expires at", m.ExpiresAt)

	report, _ := engine.ProcessDue(ctx, m.ExpiresAt)
	state, _ := engine.Status(ctx, alice, c.ID)
	fmt.Println("processed", report.Processed, "state", state)
	// Output:
	// club 1 cost 500 expires at 150
	// processed 1 state expired
}
