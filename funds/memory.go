package funds

import (
	"context"
	"sync"

	"github.com/xraph/clubhouse/id"
	"github.com/xraph/clubhouse/types"
)

// Memory is a Ledger over an in-process balance map. Accounts that fall
// below the existential deposit without keepAlive are reaped to zero.
type Memory struct {
	mu       sync.Mutex
	balances map[id.AccountID]types.Balance
	minimum  types.Balance
}

var (
	_ Ledger          = (*Memory)(nil)
	_ MinimumBalancer = (*Memory)(nil)
)

// NewMemory returns an empty ledger with the given existential deposit.
func NewMemory(existentialDeposit types.Balance) *Memory {
	return &Memory{
		balances: make(map[id.AccountID]types.Balance),
		minimum:  existentialDeposit,
	}
}

// MinimumBalance returns the existential deposit.
func (m *Memory) MinimumBalance() types.Balance { return m.minimum }

// SetBalance overwrites an account balance. A zero balance removes it.
func (m *Memory) SetBalance(account id.AccountID, amount types.Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount.IsZero() {
		delete(m.balances, account)
		return
	}
	m.balances[account] = amount
}

// Balance returns the free balance of account.
func (m *Memory) Balance(account id.AccountID) types.Balance {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.balances[account]
}

func (m *Memory) Debit(_ context.Context, account id.AccountID, amount types.Balance, keepAlive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining, ok := m.balances[account].CheckedSub(amount)
	if !ok {
		return ErrInsufficientFunds
	}
	if remaining < m.minimum {
		if keepAlive {
			return ErrWouldReapAccount
		}
		remaining = 0
	}
	if remaining.IsZero() {
		delete(m.balances, account)
		return nil
	}
	m.balances[account] = remaining
	return nil
}

func (m *Memory) Credit(_ context.Context, account id.AccountID, amount types.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.balances[account]
	if current.IsZero() && amount < m.minimum {
		return ErrBelowMinimum
	}
	next, ok := current.CheckedAdd(amount)
	if !ok {
		return ErrBalanceOverflow
	}
	if !next.IsZero() {
		m.balances[account] = next
	}
	return nil
}
