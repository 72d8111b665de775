package types

import (
	"math/bits"
	"strconv"
)

// Tick is the host's discrete unit of progress, such as a block height.
type Tick uint64

// CheckedAdd returns t+n and false if the result overflows.
func (t Tick) CheckedAdd(n Tick) (Tick, bool) {
	sum, carry := bits.Add64(uint64(t), uint64(n), 0)
	if carry != 0 {
		return 0, false
	}
	return Tick(sum), true
}

// CheckedMul returns t*n and false if the product overflows.
func (t Tick) CheckedMul(n uint64) (Tick, bool) {
	hi, lo := bits.Mul64(uint64(t), n)
	if hi != 0 {
		return 0, false
	}
	return Tick(lo), true
}

// Offset computes t + perUnit*units, checking both the multiply and the add.
func (t Tick) Offset(perUnit Tick, units uint64) (Tick, bool) {
	delta, ok := perUnit.CheckedMul(units)
	if !ok {
		return 0, false
	}
	return t.CheckedAdd(delta)
}

// String returns the decimal tick number.
func (t Tick) String() string {
	return strconv.FormatUint(uint64(t), 10)
}
