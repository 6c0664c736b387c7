// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wrapper implements a pool hook that turns every swap on a
// wrapped/underlying pool into a 1:1 wrap or unwrap on a vault. The pool
// holds no inventory and prices nothing; the hook takes the trader's input
// from the pool manager, converts it through the vault, settles the output
// back and returns a delta that consumes the whole swap.
package wrapper

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/wraphook/dex"
	"github.com/luxfi/wraphook/token"
	"github.com/luxfi/wraphook/vault"
)

// PoolManager is the part of the pool engine the hook settles against
type PoolManager interface {
	Address() common.Address
	Take(stateDB dex.StateDB, sender common.Address, currency dex.Currency, to common.Address, amount *big.Int) error
	Sync(stateDB dex.StateDB, currency dex.Currency) error
	Settle(stateDB dex.StateDB, sender common.Address, value *big.Int) (*big.Int, error)
}

// Vault converts between the underlying token and the wrapped token, which
// lives at the vault's address
type Vault interface {
	Address() common.Address
	Token() common.Address
	Wrap(stateDB vault.StateDB, caller common.Address, amount *big.Int) (*big.Int, error)
	Unwrap(stateDB vault.StateDB, caller common.Address, amount *big.Int) (*big.Int, error)
}

var (
	_ dex.BeforeInitializeHook   = (*Hook)(nil)
	_ dex.BeforeAddLiquidityHook = (*Hook)(nil)
	_ dex.BeforeSwapHook         = (*Hook)(nil)
	_ PoolManager                = (*dex.PoolManager)(nil)
	_ Vault                      = (*vault.Vault)(nil)
)

// permissions is the static set of callbacks the hook answers
var permissions = dex.HookPermissions{
	BeforeInitialize:      true,
	BeforeAddLiquidity:    true,
	BeforeSwap:            true,
	BeforeSwapReturnDelta: true,
}

// Hook is the wrapper hook
type Hook struct {
	address common.Address
	manager PoolManager
	vault   Vault

	underlying dex.Currency
	wrapped    dex.Currency

	// wrapZeroForOne is true when currency0 is the underlying
	wrapZeroForOne bool

	rate     ExchangeRate
	deployer common.Address
	salt     [32]byte
	guard    guard
	log      log.Logger
}

// New creates the hook for vault, derives its address and approves the
// vault to pull the hook's underlying.
func New(stateDB dex.StateDB, manager PoolManager, v Vault, opts ...Option) (*Hook, error) {
	if manager == nil || manager.Address() == (common.Address{}) {
		return nil, ErrZeroPoolManager
	}
	if v == nil || v.Address() == (common.Address{}) {
		return nil, ErrZeroVault
	}
	underlying := v.Token()
	if underlying == (common.Address{}) {
		return nil, ErrZeroUnderlying
	}
	if underlying == v.Address() {
		return nil, ErrSameCurrency
	}

	h := &Hook{
		manager:    manager,
		vault:      v,
		underlying: dex.Currency{Address: underlying},
		wrapped:    dex.Currency{Address: v.Address()},
		rate:       OneToOne{},
		deployer:   manager.Address(),
		log:        log.NewTestLogger(log.InfoLevel),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.wrapZeroForOne = h.underlying.Less(h.wrapped)
	h.address = dex.GenerateHookAddress(h.deployer, h.salt, permissions)

	if err := token.Approve(stateDB, underlying, h.address, v.Address(), token.MaxAllowance); err != nil {
		return nil, fmt.Errorf("approve vault: %w", err)
	}

	h.log.Info("wrapper hook created",
		"hook", h.address,
		"vault", v.Address(),
		"underlying", underlying,
		"wrapZeroForOne", h.wrapZeroForOne,
	)
	return h, nil
}

// Address returns the hook address. Its leading bytes encode Permissions.
func (h *Hook) Address() common.Address {
	return h.address
}

// Permissions returns the callbacks this hook implements
func (h *Hook) Permissions() dex.HookPermissions {
	return permissions
}

// WrapZeroForOne reports whether a zeroForOne swap wraps
func (h *Hook) WrapZeroForOne() bool {
	return h.wrapZeroForOne
}

// Underlying returns the underlying currency
func (h *Hook) Underlying() dex.Currency {
	return h.underlying
}

// Wrapped returns the wrapped currency
func (h *Hook) Wrapped() dex.Currency {
	return h.wrapped
}

// PoolKey returns the only pool key this hook accepts
func (h *Hook) PoolKey(tickSpacing int32) dex.PoolKey {
	c0, c1 := h.wrapped, h.underlying
	if h.wrapZeroForOne {
		c0, c1 = h.underlying, h.wrapped
	}
	return dex.PoolKey{
		Currency0:   c0,
		Currency1:   c1,
		Fee:         dex.FeeZero,
		TickSpacing: tickSpacing,
		Hooks:       h.address,
	}
}

// BeforeInitialize only admits the wrapped/underlying pool with a zero fee
func (h *Hook) BeforeInitialize(stateDB dex.StateDB, sender common.Address, key dex.PoolKey, sqrtPriceX96 *big.Int) (dex.Selector, error) {
	want := h.PoolKey(key.TickSpacing)
	if key.Currency0 != want.Currency0 || key.Currency1 != want.Currency1 {
		return dex.Selector{}, fmt.Errorf("%w: got (%s, %s) want (%s, %s)",
			ErrInvalidPoolToken, key.Currency0, key.Currency1, want.Currency0, want.Currency1)
	}
	if key.Fee != 0 {
		return dex.Selector{}, fmt.Errorf("%w: %d", ErrInvalidPoolFee, key.Fee)
	}
	return dex.SelectorBeforeInitialize, nil
}

// BeforeAddLiquidity rejects all liquidity
func (h *Hook) BeforeAddLiquidity(dex.StateDB, common.Address, dex.PoolKey, dex.ModifyLiquidityParams, []byte) (dex.Selector, error) {
	return dex.Selector{}, ErrLiquidityNotAllowed
}

// BeforeSwap serves the whole swap through the vault and returns the delta
// that leaves nothing for the pool to price.
func (h *Hook) BeforeSwap(stateDB dex.StateDB, sender common.Address, key dex.PoolKey, params dex.SwapParams, hookData []byte) (dex.Selector, dex.BeforeSwapDelta, uint32, error) {
	amount := params.AmountSpecified
	if amount == nil {
		return dex.Selector{}, dex.BeforeSwapDelta{}, 0, fmt.Errorf("%w: nil amount", dex.ErrSwapAmountZero)
	}
	wrapping := params.ZeroForOne == h.wrapZeroForOne
	exactInput := params.IsExactInput()

	var input, expected *big.Int
	switch {
	case exactInput && wrapping:
		input = new(big.Int).Neg(amount)
		expected = h.rate.WrapOutput(input)
	case exactInput:
		input = new(big.Int).Neg(amount)
		expected = h.rate.UnwrapOutput(input)
	case wrapping:
		input = h.rate.WrapInputRequired(amount)
		expected = new(big.Int).Set(amount)
	default:
		input = h.rate.UnwrapInputRequired(amount)
		expected = new(big.Int).Set(amount)
	}

	output, err := h.convert(stateDB, wrapping, input, expected)
	if err != nil {
		return dex.Selector{}, dex.BeforeSwapDelta{}, 0, err
	}

	unspecified := new(big.Int).Set(input)
	if exactInput {
		unspecified.Neg(output)
	}
	delta := dex.BeforeSwapDelta{
		Specified:   new(big.Int).Neg(amount),
		Unspecified: unspecified,
	}

	h.log.Debug("wrapper swap",
		"sender", sender,
		"wrap", wrapping,
		"exactInput", exactInput,
		"input", input,
		"output", output,
	)
	return dex.SelectorBeforeSwap, delta, 0, nil
}

// convert takes input from the pool manager, runs it through the vault and
// settles the output back. Hook custody must be the same before and after.
func (h *Hook) convert(stateDB dex.StateDB, wrapping bool, input, expected *big.Int) (*big.Int, error) {
	in, out := h.wrapped, h.underlying
	if wrapping {
		in, out = h.underlying, h.wrapped
	}

	before := h.snapshotCustody(stateDB)

	if err := h.take(stateDB, in, input); err != nil {
		return nil, err
	}
	held := h.snapshotCustody(stateDB).of(in, h.underlying)
	if received := new(big.Int).Sub(held, before.of(in, h.underlying)); received.Cmp(input) < 0 {
		return nil, fmt.Errorf("%w: received %s of %s %s", ErrInsufficientCustody, received, input, in)
	}

	var (
		output *big.Int
		err    error
	)
	if wrapping {
		output, err = h.deposit(stateDB, input)
	} else {
		output, err = h.withdraw(stateDB, input)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case wrapping && output.Cmp(expected) != 0:
		return nil, fmt.Errorf("%w: got %s want %s", ErrWrapFailed, output, expected)
	case !wrapping && output.Cmp(expected) != 0:
		return nil, fmt.Errorf("%w: got %s want %s", ErrUnwrapFailed, output, expected)
	}

	if err := h.settle(stateDB, out, output); err != nil {
		return nil, err
	}

	if after := h.snapshotCustody(stateDB); !after.equal(before) {
		return nil, fmt.Errorf("%w: underlying %s -> %s, wrapped %s -> %s", ErrCustodyImbalance,
			before.underlying, after.underlying, before.wrapped, after.wrapped)
	}
	return output, nil
}

// deposit wraps amount of hook-held underlying
func (h *Hook) deposit(stateDB dex.StateDB, amount *big.Int) (*big.Int, error) {
	release, err := h.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	out, err := h.vault.Wrap(stateDB, h.address, amount)
	if err != nil {
		return nil, fmt.Errorf("vault wrap %s: %w", amount, err)
	}
	return out, nil
}

// withdraw unwraps amount of hook-held wrapped token
func (h *Hook) withdraw(stateDB dex.StateDB, amount *big.Int) (*big.Int, error) {
	release, err := h.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	out, err := h.vault.Unwrap(stateDB, h.address, amount)
	if err != nil {
		return nil, fmt.Errorf("vault unwrap %s: %w", amount, err)
	}
	return out, nil
}
