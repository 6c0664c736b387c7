// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import (
	"errors"

	"github.com/luxfi/wraphook/dex"
)

// Configuration errors
var (
	ErrZeroVault       = errors.New("wrapper: vault address is zero")
	ErrZeroPoolManager = errors.New("wrapper: pool manager address is zero")
	ErrZeroUnderlying  = errors.New("wrapper: vault underlying is zero")
	ErrSameCurrency    = errors.New("wrapper: vault wraps itself")
)

// Pool validation errors
var (
	ErrInvalidPoolToken = errors.New("wrapper: pool currencies are not wrapper/underlying")
	ErrInvalidPoolFee   = errors.New("wrapper: pool fee must be zero")
)

// Call-time errors
var (
	ErrLiquidityNotAllowed = errors.New("wrapper: liquidity not allowed")
	ErrWrapFailed          = errors.New("wrapper: wrap returned unexpected amount")
	ErrUnwrapFailed        = errors.New("wrapper: unwrap returned unexpected amount")
	ErrInsufficientCustody = errors.New("wrapper: input not received before conversion")
	ErrCustodyImbalance    = errors.New("wrapper: custody changed across conversion")

	// ErrNotPoolManager is returned when a hook entry point is called by
	// anyone other than the pool manager
	ErrNotPoolManager = dex.ErrUnauthorized

	// ErrReentrant is returned when the vault re-enters a conversion
	ErrReentrant = dex.ErrReentrant
)
