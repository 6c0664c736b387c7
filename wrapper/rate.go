// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import "math/big"

// ExchangeRate converts between underlying and wrapped amounts. The hook
// uses it to size exact-output swaps and to predict what the vault must
// return for exact-input swaps.
type ExchangeRate interface {
	// WrapInputRequired is the underlying needed to mint wrappedOut
	WrapInputRequired(wrappedOut *big.Int) *big.Int
	// UnwrapInputRequired is the wrapped amount needed to release underlyingOut
	UnwrapInputRequired(underlyingOut *big.Int) *big.Int
	// WrapOutput is the wrapped amount minted for underlyingIn
	WrapOutput(underlyingIn *big.Int) *big.Int
	// UnwrapOutput is the underlying released for wrappedIn
	UnwrapOutput(wrappedIn *big.Int) *big.Int
}

// OneToOne is the identity rate of a plain wrapper vault
type OneToOne struct{}

var _ ExchangeRate = OneToOne{}

func (OneToOne) WrapInputRequired(wrappedOut *big.Int) *big.Int {
	return new(big.Int).Set(wrappedOut)
}

func (OneToOne) UnwrapInputRequired(underlyingOut *big.Int) *big.Int {
	return new(big.Int).Set(underlyingOut)
}

func (OneToOne) WrapOutput(underlyingIn *big.Int) *big.Int {
	return new(big.Int).Set(underlyingIn)
}

func (OneToOne) UnwrapOutput(wrappedIn *big.Int) *big.Int {
	return new(big.Int).Set(wrappedIn)
}
