// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token implements ERC20-style fungible token accounting directly on
// EVM storage slots. Every token lives at its own address; balances,
// allowances and total supply are kept in that address's storage.
package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// StateDB is the subset of EVM state the token ledger needs.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
}

// MaxAllowance is the "infinite" approval. Allowances at this value are
// never decremented by TransferFrom.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	ErrAmountOverflow        = errors.New("token amount out of uint256 range")
	ErrZeroToken             = errors.New("zero token address")
)

// Storage key prefixes
var (
	balancePrefix   = []byte("tbal")
	allowancePrefix = []byte("talw")
	supplyPrefix    = []byte("tsup")
)

func slot(prefix []byte, parts ...common.Address) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, p := range parts {
		h.Write(p.Bytes())
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func toU256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %v", ErrAmountOverflow, amount)
	}
	v, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, amount)
	}
	return v, nil
}

func load(stateDB StateDB, token common.Address, key common.Hash) *uint256.Int {
	raw := stateDB.GetState(token, key)
	return new(uint256.Int).SetBytes32(raw[:])
}

func store(stateDB StateDB, token common.Address, key common.Hash, v *uint256.Int) {
	stateDB.SetState(token, key, common.Hash(v.Bytes32()))
}

// BalanceOf returns the token balance held by owner.
func BalanceOf(stateDB StateDB, token, owner common.Address) *big.Int {
	return load(stateDB, token, slot(balancePrefix, owner)).ToBig()
}

// Allowance returns how much spender may move on behalf of owner.
func Allowance(stateDB StateDB, token, owner, spender common.Address) *big.Int {
	return load(stateDB, token, slot(allowancePrefix, owner, spender)).ToBig()
}

// TotalSupply returns the minted supply of token.
func TotalSupply(stateDB StateDB, token common.Address) *big.Int {
	return load(stateDB, token, slot(supplyPrefix)).ToBig()
}

// Approve sets the allowance of spender over owner's tokens.
func Approve(stateDB StateDB, token, owner, spender common.Address, amount *big.Int) error {
	if token == (common.Address{}) {
		return ErrZeroToken
	}
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	store(stateDB, token, slot(allowancePrefix, owner, spender), v)
	return nil
}

// Transfer moves amount of token from one holder to another.
func Transfer(stateDB StateDB, token, from, to common.Address, amount *big.Int) error {
	if token == (common.Address{}) {
		return ErrZeroToken
	}
	v, err := toU256(amount)
	if err != nil {
		return err
	}

	fromKey := slot(balancePrefix, from)
	fromBal := load(stateDB, token, fromKey)
	if fromBal.Lt(v) {
		return fmt.Errorf("%w: token=%s holder=%s have=%s want=%s",
			ErrInsufficientBalance, token.Hex(), from.Hex(), fromBal.Dec(), v.Dec())
	}
	store(stateDB, token, fromKey, new(uint256.Int).Sub(fromBal, v))

	toKey := slot(balancePrefix, to)
	toBal := load(stateDB, token, toKey)
	store(stateDB, token, toKey, new(uint256.Int).Add(toBal, v))
	return nil
}

// TransferFrom moves tokens on behalf of from, spending spender's allowance.
func TransferFrom(stateDB StateDB, token, spender, from, to common.Address, amount *big.Int) error {
	if spender != from {
		v, err := toU256(amount)
		if err != nil {
			return err
		}
		key := slot(allowancePrefix, from, spender)
		allowed := load(stateDB, token, key)
		if allowed.Lt(v) {
			return fmt.Errorf("%w: token=%s owner=%s spender=%s",
				ErrInsufficientAllowance, token.Hex(), from.Hex(), spender.Hex())
		}
		if allowed.ToBig().Cmp(MaxAllowance) != 0 {
			store(stateDB, token, key, new(uint256.Int).Sub(allowed, v))
		}
	}
	return Transfer(stateDB, token, from, to, amount)
}

// Mint creates amount of token for to.
func Mint(stateDB StateDB, token, to common.Address, amount *big.Int) error {
	if token == (common.Address{}) {
		return ErrZeroToken
	}
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	supplyKey := slot(supplyPrefix)
	supply := load(stateDB, token, supplyKey)
	newSupply, overflow := new(uint256.Int).AddOverflow(supply, v)
	if overflow {
		return fmt.Errorf("%w: supply overflow", ErrAmountOverflow)
	}
	store(stateDB, token, supplyKey, newSupply)

	toKey := slot(balancePrefix, to)
	store(stateDB, token, toKey, new(uint256.Int).Add(load(stateDB, token, toKey), v))
	return nil
}

// Burn destroys amount of token held by from.
func Burn(stateDB StateDB, token, from common.Address, amount *big.Int) error {
	if token == (common.Address{}) {
		return ErrZeroToken
	}
	v, err := toU256(amount)
	if err != nil {
		return err
	}
	fromKey := slot(balancePrefix, from)
	bal := load(stateDB, token, fromKey)
	if bal.Lt(v) {
		return fmt.Errorf("%w: token=%s holder=%s have=%s burn=%s",
			ErrInsufficientBalance, token.Hex(), from.Hex(), bal.Dec(), v.Dec())
	}
	store(stateDB, token, fromKey, new(uint256.Int).Sub(bal, v))

	supplyKey := slot(supplyPrefix)
	store(stateDB, token, supplyKey, new(uint256.Int).Sub(load(stateDB, token, supplyKey), v))
	return nil
}
