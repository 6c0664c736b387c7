// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
)

// HookContract is hook code reachable only through ABI calldata
type HookContract interface {
	Run(stateDB StateDB, caller common.Address, input []byte) ([]byte, error)
}

// ABIHook lets the pool manager call a HookContract as if it were a native
// hook. Every call is encoded with HookABI and sent from caller.
type ABIHook struct {
	contract    HookContract
	caller      common.Address
	permissions HookPermissions
}

var (
	_ BeforeInitializeHook   = (*ABIHook)(nil)
	_ BeforeAddLiquidityHook = (*ABIHook)(nil)
	_ BeforeSwapHook         = (*ABIHook)(nil)
)

// NewABIHook queries the contract's permissions and returns the adapter
func NewABIHook(stateDB StateDB, contract HookContract, caller common.Address) (*ABIHook, error) {
	input, err := PackGetHookPermissions()
	if err != nil {
		return nil, err
	}
	ret, err := contract.Run(stateDB, caller, input)
	if err != nil {
		return nil, fmt.Errorf("getHookPermissions: %w", err)
	}
	perms, err := UnpackHookPermissions(ret)
	if err != nil {
		return nil, err
	}
	return &ABIHook{contract: contract, caller: caller, permissions: perms}, nil
}

// Permissions returns the permissions reported by the contract
func (h *ABIHook) Permissions() HookPermissions {
	return h.permissions
}

// BeforeInitialize forwards beforeInitialize to the contract
func (h *ABIHook) BeforeInitialize(stateDB StateDB, sender common.Address, key PoolKey, sqrtPriceX96 *big.Int) (Selector, error) {
	input, err := PackBeforeInitialize(sender, key, sqrtPriceX96)
	if err != nil {
		return Selector{}, err
	}
	ret, err := h.contract.Run(stateDB, h.caller, input)
	if err != nil {
		return Selector{}, err
	}
	return UnpackSelectorResult("beforeInitialize", ret)
}

// BeforeAddLiquidity forwards beforeAddLiquidity to the contract
func (h *ABIHook) BeforeAddLiquidity(stateDB StateDB, sender common.Address, key PoolKey, params ModifyLiquidityParams, hookData []byte) (Selector, error) {
	input, err := PackBeforeAddLiquidity(sender, key, params, hookData)
	if err != nil {
		return Selector{}, err
	}
	ret, err := h.contract.Run(stateDB, h.caller, input)
	if err != nil {
		return Selector{}, err
	}
	return UnpackSelectorResult("beforeAddLiquidity", ret)
}

// BeforeSwap forwards beforeSwap to the contract
func (h *ABIHook) BeforeSwap(stateDB StateDB, sender common.Address, key PoolKey, params SwapParams, hookData []byte) (Selector, BeforeSwapDelta, uint24, error) {
	input, err := PackBeforeSwap(sender, key, params, hookData)
	if err != nil {
		return Selector{}, BeforeSwapDelta{}, 0, err
	}
	ret, err := h.contract.Run(stateDB, h.caller, input)
	if err != nil {
		return Selector{}, BeforeSwapDelta{}, 0, err
	}
	return UnpackBeforeSwapResult(ret)
}
