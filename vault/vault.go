// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements a 1:1 wrapped-asset vault. The vault's own address
// is the wrapped token: wrapping pulls underlying from the caller and mints
// the same amount of wrapped token, unwrapping burns and pays it back.
package vault

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/wraphook/token"
)

// StateDB is the state the vault reads and writes
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
}

var (
	ErrZeroAddress    = errors.New("vault: zero address")
	ErrSameToken      = errors.New("vault: underlying is the vault itself")
	ErrNegativeAmount = errors.New("vault: negative amount")
)

// Option configures a Vault
type Option func(*Vault)

// WithLogger sets the vault logger
func WithLogger(l log.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// Vault wraps one underlying ERC20 token 1:1
type Vault struct {
	address    common.Address
	underlying common.Address
	log        log.Logger
}

// New creates a vault at address wrapping underlying
func New(address, underlying common.Address, opts ...Option) (*Vault, error) {
	if address == (common.Address{}) || underlying == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if address == underlying {
		return nil, ErrSameToken
	}
	v := &Vault{
		address:    address,
		underlying: underlying,
		log:        log.NewTestLogger(log.InfoLevel),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Address returns the vault address, which is also the wrapped token
func (v *Vault) Address() common.Address {
	return v.address
}

// Token returns the underlying token
func (v *Vault) Token() common.Address {
	return v.underlying
}

// TotalAssets returns the underlying held by the vault
func (v *Vault) TotalAssets(stateDB StateDB) *big.Int {
	return token.BalanceOf(stateDB, v.underlying, v.address)
}

// TotalSupply returns the wrapped tokens outstanding
func (v *Vault) TotalSupply(stateDB StateDB) *big.Int {
	return token.TotalSupply(stateDB, v.address)
}

// Wrap pulls amount of underlying from caller, which must have approved the
// vault, and mints the same amount of wrapped token to caller. Returns the
// amount minted.
func (v *Vault) Wrap(stateDB StateDB, caller common.Address, amount *big.Int) (*big.Int, error) {
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	if err := token.TransferFrom(stateDB, v.underlying, v.address, caller, v.address, amount); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}
	if err := token.Mint(stateDB, v.address, caller, amount); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}

	v.log.Debug("wrapped", "vault", v.address, "caller", caller, "amount", amount)
	return new(big.Int).Set(amount), nil
}

// Unwrap burns amount of wrapped token from caller and sends the same amount
// of underlying back. Returns the amount of underlying paid.
func (v *Vault) Unwrap(stateDB StateDB, caller common.Address, amount *big.Int) (*big.Int, error) {
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	if err := token.Burn(stateDB, v.address, caller, amount); err != nil {
		return nil, fmt.Errorf("unwrap: %w", err)
	}
	if err := token.Transfer(stateDB, v.underlying, v.address, caller, amount); err != nil {
		return nil, fmt.Errorf("unwrap: %w", err)
	}

	v.log.Debug("unwrapped", "vault", v.address, "caller", caller, "amount", amount)
	return new(big.Int).Set(amount), nil
}
