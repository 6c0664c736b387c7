// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import (
	"fmt"
	"math/big"

	"github.com/luxfi/wraphook/dex"
)

// custody is the hook's holding of both pool currencies at one point of a
// conversion. It lives on the stack of a single BeforeSwap call.
type custody struct {
	underlying *big.Int
	wrapped    *big.Int
}

func (h *Hook) snapshotCustody(stateDB dex.StateDB) custody {
	return custody{
		underlying: h.underlying.BalanceOf(stateDB, h.address),
		wrapped:    h.wrapped.BalanceOf(stateDB, h.address),
	}
}

func (c custody) of(currency, underlying dex.Currency) *big.Int {
	if currency == underlying {
		return c.underlying
	}
	return c.wrapped
}

func (c custody) equal(other custody) bool {
	return c.underlying.Cmp(other.underlying) == 0 && c.wrapped.Cmp(other.wrapped) == 0
}

// take moves amount of currency from the pool manager into hook custody
func (h *Hook) take(stateDB dex.StateDB, currency dex.Currency, amount *big.Int) error {
	if err := h.manager.Take(stateDB, h.address, currency, h.address, amount); err != nil {
		return fmt.Errorf("take %s %s: %w", amount, currency, err)
	}
	return nil
}

// settle pays amount of currency from hook custody to the pool manager with
// a plain transfer and has the manager credit it
func (h *Hook) settle(stateDB dex.StateDB, currency dex.Currency, amount *big.Int) error {
	if err := h.manager.Sync(stateDB, currency); err != nil {
		return fmt.Errorf("sync %s: %w", currency, err)
	}

	var value *big.Int
	if currency.IsNative() {
		value = amount
	} else if err := currency.Transfer(stateDB, h.address, h.manager.Address(), amount); err != nil {
		return fmt.Errorf("settle %s %s: %w", amount, currency, err)
	}

	paid, err := h.manager.Settle(stateDB, h.address, value)
	if err != nil {
		return fmt.Errorf("settle %s %s: %w", amount, currency, err)
	}
	if paid.Cmp(amount) != 0 {
		return fmt.Errorf("%w: credited %s of %s %s", dex.ErrSettlementFailed, paid, amount, currency)
	}
	return nil
}
