package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestBalanceCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		op     func() (Balance, bool)
		want   Balance
		wantOK bool
	}{
		{"Add", func() (Balance, bool) { return Balance(100).CheckedAdd(200) }, 300, true},
		{"Add overflow", func() (Balance, bool) { return MaxBalance.CheckedAdd(1) }, 0, false},
		{"Sub", func() (Balance, bool) { return Balance(500).CheckedSub(200) }, 300, true},
		{"Sub underflow", func() (Balance, bool) { return Balance(1).CheckedSub(2) }, 0, false},
		{"Mul fee by duration", func() (Balance, bool) { return Balance(100).CheckedMul(5) }, 500, true},
		{"Mul by zero", func() (Balance, bool) { return MaxBalance.CheckedMul(0) }, 0, true},
		{"Mul overflow", func() (Balance, bool) { return MaxBalance.CheckedMul(2) }, 0, false},
		{"Mul edge", func() (Balance, bool) { return Balance(math.MaxUint64 / 255).CheckedMul(255) }, Balance(math.MaxUint64 / 255 * 255), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op()
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("value: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBalanceText(t *testing.T) {
	var b Balance
	if err := b.UnmarshalText([]byte("12345")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if b != 12345 {
		t.Errorf("got %d, want 12345", b)
	}
	if b.String() != "12345" {
		t.Errorf("String: got %q", b.String())
	}
	if err := b.UnmarshalText([]byte("-1")); err == nil {
		t.Error("expected error for negative balance")
	}
}

func TestBalanceJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Fee Balance `json:"fee"`
	}{Fee: 100})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"fee":100}` {
		t.Errorf("got %s", data)
	}

	var decoded struct {
		Fee Balance `json:"fee"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Fee != 100 {
		t.Errorf("got %d, want 100", decoded.Fee)
	}
}

func TestTickOffset(t *testing.T) {
	tests := []struct {
		name    string
		now     Tick
		perUnit Tick
		units   uint64
		want    Tick
		wantOK  bool
	}{
		{"One unit", 100, 10, 1, 110, true},
		{"Zero units", 100, 10, 0, 100, true},
		{"Max units", 1, 10, 255, 2551, true},
		{"Multiply overflow", 0, Tick(math.MaxUint64), 2, 0, false},
		{"Add overflow", Tick(math.MaxUint64 - 5), 10, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.now.Offset(tt.perUnit, tt.units)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("tick: got %d, want %d", got, tt.want)
			}
		})
	}
}
