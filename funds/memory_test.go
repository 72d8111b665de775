package funds

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

func TestMemoryDebit(t *testing.T) {
	tests := []struct {
		name      string
		minimum   types.Balance
		start     types.Balance
		amount    types.Balance
		keepAlive bool
		want      types.Balance
		wantErr   error
	}{
		{"Leaves minimum", 1, 1000, 999, true, 1, nil},
		{"Keep alive refuses reap", 10, 1000, 1000, true, 1000, ErrWouldReapAccount},
		{"Keep alive refuses dust", 10, 1000, 995, true, 1000, ErrWouldReapAccount},
		{"Allow death reaps", 10, 1000, 1000, false, 0, nil},
		{"Dust is reaped", 10, 10, 5, false, 0, nil},
		{"Insufficient", 10, 50, 51, false, 50, ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory(tt.minimum)
			acct := id.NewAccountID()
			m.SetBalance(acct, tt.start)

			err := m.Debit(context.Background(), acct, tt.amount, tt.keepAlive)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Debit error = %v, want %v", err, tt.wantErr)
			}
			if got := m.Balance(acct); got != tt.want {
				t.Errorf("balance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemoryCredit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5)
	acct := id.NewAccountID()

	if err := m.Credit(ctx, acct, 4); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if err := m.Credit(ctx, acct, 5); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := m.Credit(ctx, acct, 1); err != nil {
		t.Fatalf("Credit to live account: %v", err)
	}
	if got := m.Balance(acct); got != 6 {
		t.Errorf("balance = %d, want 6", got)
	}
	if err := m.Credit(ctx, acct, types.MaxBalance); !errors.Is(err, ErrBalanceOverflow) {
		t.Errorf("expected ErrBalanceOverflow, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("Moves balance", func(t *testing.T) {
		m := NewMemory(1)
		from, to := id.NewAccountID(), id.NewAccountID()
		m.SetBalance(from, 1000)

		if err := Transfer(ctx, m, from, to, 100, true); err != nil {
			t.Fatalf("Transfer: %v", err)
		}
		if m.Balance(from) != 900 || m.Balance(to) != 100 {
			t.Errorf("balances = %d/%d, want 900/100", m.Balance(from), m.Balance(to))
		}
	})

	t.Run("Zero amount is a no-op", func(t *testing.T) {
		m := NewMemory(1)
		from, to := id.NewAccountID(), id.NewAccountID()
		if err := Transfer(ctx, m, from, to, 0, true); err != nil {
			t.Fatalf("Transfer: %v", err)
		}
	})

	t.Run("Failed credit is refunded", func(t *testing.T) {
		m := NewMemory(10)
		from, to := id.NewAccountID(), id.NewAccountID()
		m.SetBalance(from, 1000)

		err := Transfer(ctx, m, from, to, 5, true)
		if !errors.Is(err, ErrBelowMinimum) {
			t.Fatalf("expected ErrBelowMinimum, got %v", err)
		}
		if got := m.Balance(from); got != 1000 {
			t.Errorf("from balance = %d, want 1000", got)
		}
		if got := m.Balance(to); got != 0 {
			t.Errorf("to balance = %d, want 0", got)
		}
	})
}
