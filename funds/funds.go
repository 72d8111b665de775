// Package funds is the balance port the club engine charges through.
//
// The engine never stores balances itself. Every fee moves from the paying
// account to a sink account through a Ledger, which a host backs with its
// own accounting system. Memory is a reference implementation for tests and
// single-process deployments.
package funds

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

var (
	ErrInsufficientFunds = errors.New("funds: insufficient funds")
	ErrWouldReapAccount  = errors.New("funds: transfer would take account below minimum balance")
	ErrBelowMinimum      = errors.New("funds: credit below minimum balance for new account")
	ErrBalanceOverflow   = errors.New("funds: balance overflow")
)

// Ledger moves balance in and out of accounts.
type Ledger interface {
	// Debit removes amount from account. With keepAlive set the debit fails
	// with ErrWouldReapAccount rather than leave the account below the
	// minimum balance.
	Debit(ctx context.Context, account id.AccountID, amount types.Balance, keepAlive bool) error
	// Credit adds amount to account.
	Credit(ctx context.Context, account id.AccountID, amount types.Balance) error
}

// MinimumBalancer is implemented by ledgers that enforce an existential
// deposit.
type MinimumBalancer interface {
	MinimumBalance() types.Balance
}

// Transfer debits from and credits to. A failed credit is compensated by
// returning the amount to from, so the pair either fully applies or leaves
// both balances untouched. Zero amounts are a no-op.
func Transfer(ctx context.Context, l Ledger, from, to id.AccountID, amount types.Balance, keepAlive bool) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.Debit(ctx, from, amount, keepAlive); err != nil {
		return err
	}
	if err := l.Credit(ctx, to, amount); err != nil {
		if rerr := l.Credit(ctx, from, amount); rerr != nil {
			return fmt.Errorf("funds: credit %s failed (%w), refund to %s failed: %v", to, err, from, rerr)
		}
		return err
	}
	return nil
}
