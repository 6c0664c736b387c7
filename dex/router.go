// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/wraphook/token"
)

// Router is the trader-facing entry point (LP-9012 LXRouter). It opens an
// unlock session, performs the pool operation and resolves the resulting
// deltas against the trader: debts are pulled from the trader with the
// router's allowance, credits are sent to the trader.
type Router struct {
	pm      *PoolManager
	address common.Address
}

// NewRouter creates a router bound to pm
func NewRouter(pm *PoolManager) *Router {
	return &Router{
		pm:      pm,
		address: common.HexToAddress(LXRouterAddress),
	}
}

// Address returns the router account traders approve
func (r *Router) Address() common.Address {
	return r.address
}

// Swap executes a swap for trader and returns the trader's delta
func (r *Router) Swap(
	stateDB StateDB,
	trader common.Address,
	key PoolKey,
	params SwapParams,
	hookData []byte,
) (BalanceDelta, error) {
	delta := ZeroBalanceDelta()
	err := r.pm.Unlock(stateDB, r.address, func(stateDB StateDB) error {
		d, err := r.pm.Swap(stateDB, r.address, key, params, hookData)
		if err != nil {
			return err
		}
		delta = d
		return r.resolve(stateDB, trader, key, d)
	})
	if err != nil {
		return ZeroBalanceDelta(), err
	}
	return delta, nil
}

// ModifyLiquidity adds or removes liquidity for trader
func (r *Router) ModifyLiquidity(
	stateDB StateDB,
	trader common.Address,
	key PoolKey,
	params ModifyLiquidityParams,
	hookData []byte,
) (BalanceDelta, error) {
	delta := ZeroBalanceDelta()
	err := r.pm.Unlock(stateDB, r.address, func(stateDB StateDB) error {
		d, err := r.pm.ModifyLiquidity(stateDB, r.address, key, params, hookData)
		if err != nil {
			return err
		}
		delta = d
		return r.resolve(stateDB, trader, key, d)
	})
	if err != nil {
		return ZeroBalanceDelta(), err
	}
	return delta, nil
}

func (r *Router) resolve(stateDB StateDB, trader common.Address, key PoolKey, delta BalanceDelta) error {
	if err := r.resolveCurrency(stateDB, trader, key.Currency0, delta.Amount0); err != nil {
		return err
	}
	return r.resolveCurrency(stateDB, trader, key.Currency1, delta.Amount1)
}

func (r *Router) resolveCurrency(stateDB StateDB, trader common.Address, currency Currency, amount *big.Int) error {
	switch amount.Sign() {
	case 0:
		return nil
	case 1:
		return r.pm.Take(stateDB, r.address, currency, trader, amount)
	}

	owed := new(big.Int).Neg(amount)
	if err := r.pm.Sync(stateDB, currency); err != nil {
		return err
	}

	var paid *big.Int
	var err error
	if currency.IsNative() {
		if err := transferNative(stateDB, trader, r.address, owed); err != nil {
			return fmt.Errorf("pay native: %w", err)
		}
		paid, err = r.pm.Settle(stateDB, r.address, owed)
	} else {
		if err := token.TransferFrom(stateDB, currency.Address, r.address, trader, r.pm.Address(), owed); err != nil {
			return fmt.Errorf("pay %s: %w", currency, err)
		}
		paid, err = r.pm.Settle(stateDB, r.address, nil)
	}
	if err != nil {
		return err
	}
	if paid.Cmp(owed) != 0 {
		return fmt.Errorf("%w: paid %s of %s owed in %s", ErrSettlementFailed, paid, owed, currency)
	}
	return nil
}
