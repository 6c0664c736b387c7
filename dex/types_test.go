// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"errors"
	"math/big"
	"testing"
)

func TestBeforeSwapDeltaPacking(t *testing.T) {
	maxInt128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))

	tests := []struct {
		name        string
		specified   *big.Int
		unspecified *big.Int
	}{
		{"zero", big.NewInt(0), big.NewInt(0)},
		{"exact input wrap", big.NewInt(100), big.NewInt(-100)},
		{"exact output unwrap", big.NewInt(-250), big.NewInt(250)},
		{"both negative", big.NewInt(-1), big.NewInt(-1)},
		{"bounds", maxInt128, minInt128},
		{"inverted bounds", minInt128, maxInt128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := BeforeSwapDelta{Specified: tt.specified, Unspecified: tt.unspecified}
			packed, err := d.Pack()
			if err != nil {
				t.Fatalf("Pack failed: %v", err)
			}
			got := UnpackBeforeSwapDelta(packed)
			if got.Specified.Cmp(tt.specified) != 0 || got.Unspecified.Cmp(tt.unspecified) != 0 {
				t.Errorf("got (%s, %s), want (%s, %s)", got.Specified, got.Unspecified, tt.specified, tt.unspecified)
			}
		})
	}
}

func TestBeforeSwapDeltaPackLayout(t *testing.T) {
	d := BeforeSwapDelta{Specified: big.NewInt(1), Unspecified: big.NewInt(-1)}
	packed, err := d.Pack()
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	// 1<<128 | (2^128 - 1)
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 129), big.NewInt(1))
	if packed.Cmp(want) != 0 {
		t.Errorf("packed: got %x, want %x", packed, want)
	}
}

func TestBeforeSwapDeltaOverflow(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 127)
	_, err := BeforeSwapDelta{Specified: tooBig, Unspecified: big.NewInt(0)}.Pack()
	if !errors.Is(err, ErrDeltaOverflow) {
		t.Errorf("Expected ErrDeltaOverflow, got: %v", err)
	}
}

func TestBeforeSwapDeltaToBalanceDelta(t *testing.T) {
	d := BeforeSwapDelta{Specified: big.NewInt(7), Unspecified: big.NewInt(-3)}

	tests := []struct {
		name       string
		zeroForOne bool
		amount     int64
		want0      int64
		want1      int64
	}{
		{"exact input zeroForOne", true, -7, 7, -3},
		{"exact input oneForZero", false, -7, -3, 7},
		{"exact output zeroForOne", true, 7, -3, 7},
		{"exact output oneForZero", false, 7, 7, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := d.ToBalanceDelta(SwapParams{ZeroForOne: tt.zeroForOne, AmountSpecified: big.NewInt(tt.amount)})
			if bd.Amount0.Int64() != tt.want0 || bd.Amount1.Int64() != tt.want1 {
				t.Errorf("got (%s, %s), want (%d, %d)", bd.Amount0, bd.Amount1, tt.want0, tt.want1)
			}
		})
	}
}

func TestPoolKeyID(t *testing.T) {
	key := PoolKey{
		Currency0:   Currency{Address: testToken0},
		Currency1:   Currency{Address: testToken1},
		TickSpacing: 1,
	}
	other := key
	other.Fee = Fee030

	if key.ID() == other.ID() {
		t.Error("Pools with different fees must have different IDs")
	}
	if key.ID() != key.ID() {
		t.Error("Pool ID must be deterministic")
	}
}

func TestSortCurrencies(t *testing.T) {
	a := Currency{Address: testToken1}
	b := Currency{Address: testToken0}

	c0, c1 := SortCurrencies(a, b)
	if c0 != b || c1 != a {
		t.Errorf("got (%s, %s), want (%s, %s)", c0, c1, b, a)
	}
	if !NativeCurrency.Less(b) {
		t.Error("Native currency sorts first")
	}
}
