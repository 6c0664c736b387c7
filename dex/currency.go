// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/wraphook/token"
)

// BalanceOf returns how much of the currency owner holds
func (c Currency) BalanceOf(stateDB StateDB, owner common.Address) *big.Int {
	if c.IsNative() {
		return stateDB.GetBalance(owner).ToBig()
	}
	return token.BalanceOf(stateDB, c.Address, owner)
}

// Transfer moves amount of the currency between two accounts
func (c Currency) Transfer(stateDB StateDB, from, to common.Address, amount *big.Int) error {
	if !c.IsNative() {
		return token.Transfer(stateDB, c.Address, from, to, amount)
	}
	return transferNative(stateDB, from, to, amount)
}

func transferNative(stateDB StateDB, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	amountU256, overflow := uint256.FromBig(amount)
	if overflow {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if stateDB.GetBalance(from).Lt(amountU256) {
		return fmt.Errorf("%w: native holder=%s want=%s", ErrInsufficientBalance, from.Hex(), amount)
	}
	stateDB.SubBalance(from, amountU256)
	stateDB.AddBalance(to, amountU256)
	return nil
}
