// Package types provides common value types used across Clubhouse.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

// Balance is an amount of the single fungible balance type, in its
// smallest unit. All arithmetic is unsigned integer arithmetic; the
// Checked* methods never wrap.
type Balance uint64

// MaxBalance is the largest representable Balance.
const MaxBalance = Balance(math.MaxUint64)

// CheckedAdd returns b+other and false if the sum overflows.
func (b Balance) CheckedAdd(other Balance) (Balance, bool) {
	sum, carry := bits.Add64(uint64(b), uint64(other), 0)
	if carry != 0 {
		return 0, false
	}
	return Balance(sum), true
}

// CheckedSub returns b-other and false if other is larger than b.
func (b Balance) CheckedSub(other Balance) (Balance, bool) {
	diff, borrow := bits.Sub64(uint64(b), uint64(other), 0)
	if borrow != 0 {
		return 0, false
	}
	return Balance(diff), true
}

// CheckedMul returns b*qty and false if the product overflows.
func (b Balance) CheckedMul(qty uint64) (Balance, bool) {
	hi, lo := bits.Mul64(uint64(b), qty)
	if hi != 0 {
		return 0, false
	}
	return Balance(lo), true
}

// IsZero returns true if the amount is zero.
func (b Balance) IsZero() bool { return b == 0 }

// String returns the decimal amount.
func (b Balance) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so balances can be
// loaded from environment variables and YAML.
func (b *Balance) UnmarshalText(data []byte) error {
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("balance: parse %q: %w", string(data), err)
	}
	*b = Balance(v)
	return nil
}

// MarshalJSON encodes the balance as a JSON number.
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(b))
}

// UnmarshalJSON accepts a JSON number.
func (b *Balance) UnmarshalJSON(data []byte) error {
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	*b = Balance(v)
	return nil
}
