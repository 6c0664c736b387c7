// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/wraphook/dex"
)

// Gas costs
const (
	GasPermissions uint64 = dex.GasPoolLookup
	GasGuard       uint64 = dex.GasHookCall
	GasConversion  uint64 = dex.GasHookCall + 2*dex.GasSettlement + 4*dex.GasBalanceUpdate
)

var _ dex.HookContract = (*Contract)(nil)

// Contract exposes a Hook through the v4 hook ABI. Mutating methods may only
// be called by the pool manager; getHookPermissions is open to anyone.
type Contract struct {
	hook *Hook
}

// NewContract wraps h
func NewContract(h *Hook) *Contract {
	return &Contract{hook: h}
}

// Address returns the hook address
func (c *Contract) Address() common.Address {
	return c.hook.Address()
}

// RequiredGas returns the gas charged for input
func (c *Contract) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return GasGuard
	}
	var sel dex.Selector
	copy(sel[:], input[:4])

	switch sel {
	case dex.SelectorGetHookPermissions:
		return GasPermissions
	case dex.SelectorBeforeSwap:
		return GasConversion
	default:
		return GasGuard
	}
}

// Run executes a hook call
func (c *Contract) Run(stateDB dex.StateDB, caller common.Address, input []byte) ([]byte, error) {
	call, err := dex.UnpackHookCall(input)
	if err != nil {
		return nil, err
	}

	if call.Method == "getHookPermissions" {
		return dex.PackHookPermissions(c.hook.Permissions())
	}
	if caller != c.hook.manager.Address() {
		return nil, fmt.Errorf("%w: caller %s is not the pool manager", ErrNotPoolManager, caller.Hex())
	}

	switch call.Method {
	case "beforeInitialize":
		sel, err := c.hook.BeforeInitialize(stateDB, call.Sender, call.Key, call.SqrtPriceX96)
		if err != nil {
			return nil, err
		}
		return dex.PackSelectorResult(call.Method, sel)

	case "beforeAddLiquidity":
		sel, err := c.hook.BeforeAddLiquidity(stateDB, call.Sender, call.Key, call.Liquidity, call.HookData)
		if err != nil {
			return nil, err
		}
		return dex.PackSelectorResult(call.Method, sel)

	case "beforeSwap":
		sel, delta, fee, err := c.hook.BeforeSwap(stateDB, call.Sender, call.Key, call.Swap, call.HookData)
		if err != nil {
			return nil, err
		}
		return dex.PackBeforeSwapResult(sel, delta, fee)

	default:
		return nil, fmt.Errorf("%w: %s", dex.ErrHookNotImplemented, call.Method)
	}
}
