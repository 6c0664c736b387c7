// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dex implements a Uniswap v4-style singleton pool manager with flash
// accounting and hooks. Pools carry no pricing curve of their own: every swap
// must be fully served by a hook that returns a swap delta.
package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Precompile addresses
const (
	LXPoolAddress   = "0x0000000000000000000000000000000000009010" // LP-9010 LXPool (singleton pool manager)
	LXRouterAddress = "0x0000000000000000000000000000000000009012" // LP-9012 LXRouter (swap routing)
)

// Gas costs
const (
	GasPoolCreate    uint64 = 50_000
	GasSwap          uint64 = 10_000
	GasAddLiquidity  uint64 = 20_000
	GasHookCall      uint64 = 3_000
	GasBalanceUpdate uint64 = 500
	GasSettlement    uint64 = 8_000
	GasPoolLookup    uint64 = 100
)

// Pool fee tiers (hundredths of a bip)
const (
	FeeZero uint24 = 0      // wrapper pools
	Fee001  uint24 = 100    // 0.01% - stablecoins
	Fee005  uint24 = 500    // 0.05% - stable pairs
	Fee030  uint24 = 3000   // 0.30% - standard
	Fee100  uint24 = 10000  // 1.00% - exotic pairs
	FeeMax  uint24 = 100000 // 10% max fee
)

// HookFlags is a bitmap of hook capabilities
type HookFlags uint16

const (
	HookBeforeInitialize HookFlags = 1 << iota
	HookAfterInitialize
	HookBeforeAddLiquidity
	HookAfterAddLiquidity
	HookBeforeRemoveLiquidity
	HookAfterRemoveLiquidity
	HookBeforeSwap
	HookAfterSwap
	HookBeforeDonate
	HookAfterDonate
	HookBeforeSwapReturnDelta
	HookAfterSwapReturnDelta
	HookAfterAddLiquidityReturnDelta
	HookAfterRemoveLiquidityReturnDelta
)

// Currency represents a token (native or ERC20)
// Address(0) represents the native coin
type Currency struct {
	Address common.Address
}

// NativeCurrency represents the native coin
var NativeCurrency = Currency{Address: common.Address{}}

// IsNative returns true if this currency is the native coin
func (c Currency) IsNative() bool {
	return c.Address == common.Address{}
}

// Less reports whether c sorts before other.
func (c Currency) Less(other Currency) bool {
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0
}

func (c Currency) String() string {
	if c.IsNative() {
		return "native"
	}
	return c.Address.Hex()
}

// SortCurrencies returns a and b in pool order.
func SortCurrencies(a, b Currency) (Currency, Currency) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// PoolKey uniquely identifies a pool
// Sorted by currency address (currency0 < currency1)
type PoolKey struct {
	Currency0   Currency       // Lower address token
	Currency1   Currency       // Higher address token
	Fee         uint24         // Fee in hundredths of a bip
	TickSpacing int24          // Tick spacing
	Hooks       common.Address // Hook contract address (zero = no hooks)
}

// ID computes the unique pool identifier
func (pk PoolKey) ID() [32]byte {
	h := blake3.New()
	h.Write(pk.Currency0.Address.Bytes())
	h.Write(pk.Currency1.Address.Bytes())

	var feeBytes [4]byte
	binary.BigEndian.PutUint32(feeBytes[:], uint32(pk.Fee))
	h.Write(feeBytes[1:]) // uint24

	var tickBytes [4]byte
	binary.BigEndian.PutUint32(tickBytes[:], uint32(pk.TickSpacing))
	h.Write(tickBytes[1:]) // int24

	h.Write(pk.Hooks.Bytes())

	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// BalanceDelta is the net token change of an account during an unlock.
// Positive = the pool manager owes the account, negative = the account owes
// the pool manager.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// NewBalanceDelta creates a new balance delta
func NewBalanceDelta(amount0, amount1 *big.Int) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

// ZeroBalanceDelta returns a zero balance delta
func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{
		Amount0: big.NewInt(0),
		Amount1: big.NewInt(0),
	}
}

// Sub subtracts another balance delta
func (bd BalanceDelta) Sub(other BalanceDelta) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Sub(bd.Amount0, other.Amount0),
		Amount1: new(big.Int).Sub(bd.Amount1, other.Amount1),
	}
}

// IsZero returns true if both amounts are zero
func (bd BalanceDelta) IsZero() bool {
	return bd.Amount0.Sign() == 0 && bd.Amount1.Sign() == 0
}

// BeforeSwapDelta is the delta a beforeSwap hook takes on. Specified is in the
// currency of params.AmountSpecified, Unspecified in the other one. Same sign
// convention as BalanceDelta, seen from the hook.
type BeforeSwapDelta struct {
	Specified   *big.Int
	Unspecified *big.Int
}

// ZeroBeforeSwapDelta returns an empty hook delta
func ZeroBeforeSwapDelta() BeforeSwapDelta {
	return BeforeSwapDelta{Specified: big.NewInt(0), Unspecified: big.NewInt(0)}
}

// IsZero returns true if both amounts are zero
func (d BeforeSwapDelta) IsZero() bool {
	return d.Specified.Sign() == 0 && d.Unspecified.Sign() == 0
}

// ToBalanceDelta maps the hook delta onto currency0/currency1 for a swap.
// The specified currency is currency0 iff exact-input and zeroForOne agree.
func (d BeforeSwapDelta) ToBalanceDelta(params SwapParams) BalanceDelta {
	if params.IsExactInput() == params.ZeroForOne {
		return NewBalanceDelta(d.Specified, d.Unspecified)
	}
	return NewBalanceDelta(d.Unspecified, d.Specified)
}

var (
	int128Mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	int128Sign = new(big.Int).Lsh(big.NewInt(1), 127)
	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
)

// Pack encodes the delta as an int256 with specified in the upper 128 bits and
// unspecified in the lower 128 bits.
func (d BeforeSwapDelta) Pack() (*big.Int, error) {
	if !fitsInt128(d.Specified) || !fitsInt128(d.Unspecified) {
		return nil, ErrDeltaOverflow
	}
	lo := new(big.Int).And(d.Unspecified, int128Mask)
	packed := new(big.Int).Lsh(d.Specified, 128)
	return packed.Add(packed, lo), nil
}

// UnpackBeforeSwapDelta is the inverse of BeforeSwapDelta.Pack.
func UnpackBeforeSwapDelta(packed *big.Int) BeforeSwapDelta {
	lo := new(big.Int).And(packed, int128Mask)
	hi := new(big.Int).Sub(packed, lo)
	hi.Rsh(hi, 128)
	if lo.Cmp(int128Sign) >= 0 {
		lo.Sub(lo, two128)
	}
	return BeforeSwapDelta{Specified: hi, Unspecified: lo}
}

func fitsInt128(v *big.Int) bool {
	return v.Cmp(int128Sign) < 0 && v.Cmp(new(big.Int).Neg(int128Sign)) >= 0
}

// Pool represents the state of a pool
type Pool struct {
	SqrtPriceX96 *big.Int // sqrt(price) * 2^96 (Q64.96)
	Liquidity    *big.Int // Total liquidity (L)
}

// IsInitialized returns true if the pool has been initialized
func (p *Pool) IsInitialized() bool {
	return p.SqrtPriceX96 != nil && p.SqrtPriceX96.Sign() > 0
}

// NewPool creates a new uninitialized pool
func NewPool() *Pool {
	return &Pool{
		SqrtPriceX96: big.NewInt(0),
		Liquidity:    big.NewInt(0),
	}
}

// Position represents a liquidity position
type Position struct {
	Owner     common.Address
	TickLower int24
	TickUpper int24
	Liquidity *big.Int
}

// PositionKey computes the unique position identifier
func PositionKey(poolID [32]byte, owner common.Address, tickLower, tickUpper int24, salt [32]byte) [32]byte {
	h := blake3.New()
	h.Write(poolID[:])
	h.Write(owner.Bytes())

	var tickBytes [8]byte
	binary.BigEndian.PutUint32(tickBytes[:4], uint32(tickLower))
	binary.BigEndian.PutUint32(tickBytes[4:], uint32(tickUpper))
	h.Write(tickBytes[:])
	h.Write(salt[:])

	var key [32]byte
	h.Digest().Read(key[:])
	return key
}

// SwapParams contains parameters for a swap
type SwapParams struct {
	ZeroForOne        bool     // true = sell currency0 for currency1
	AmountSpecified   *big.Int // Negative = exact input, Positive = exact output
	SqrtPriceLimitX96 *big.Int // Price limit (sqrt(price) * 2^96)
}

// IsExactInput reports whether AmountSpecified fixes the amount sold.
func (p SwapParams) IsExactInput() bool {
	return p.AmountSpecified.Sign() < 0
}

// ModifyLiquidityParams contains parameters for adding/removing liquidity
type ModifyLiquidityParams struct {
	TickLower      int24
	TickUpper      int24
	LiquidityDelta *big.Int // Positive = add, Negative = remove
	Salt           [32]byte // Position salt for uniqueness
}

// Errors - Core DEX
var (
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrInvalidTickRange       = errors.New("invalid tick range")
	ErrInvalidFee             = errors.New("invalid fee")
	ErrCurrencyNotSorted      = errors.New("currencies not sorted")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidHookResponse    = errors.New("invalid hook response")
	ErrSettlementFailed       = errors.New("settlement failed")
	ErrNonZeroDelta           = errors.New("non-zero balance delta after settlement")
	ErrInvalidSqrtPrice       = errors.New("invalid sqrt price")
	ErrTickOutOfRange         = errors.New("tick out of range")
	ErrReentrant              = errors.New("reentrancy detected")
	ErrSwapAmountZero         = errors.New("swap amount cannot be zero")
	ErrSwapNotConsumed        = errors.New("swap not fully consumed by hook")
	ErrDeltaOverflow          = errors.New("delta does not fit in int128")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrManagerLocked          = errors.New("pool manager is locked")
	ErrInvalidTickSpacing     = errors.New("invalid tick spacing")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
)

// Constants for math
var (
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	MinTick int24 = -887272
	MaxTick int24 = 887272

	MinSqrtRatio    = new(big.Int).SetUint64(4295128739)
	MaxSqrtRatio, _ = new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)
)

// uint24 type alias for fees
type uint24 = uint32

// int24 type alias for ticks
type int24 = int32
