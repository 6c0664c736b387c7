// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/zeebo/blake3"
)

// StateDB interface for accessing and modifying EVM state
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash)
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
	Snapshot() int
	RevertToSnapshot(id int)
}

// Storage key prefixes for pool manager state
var (
	poolStatePrefix     = []byte("pool")
	poolLiquidityPrefix = []byte("pliq")
	positionPrefix      = []byte("posn")
)

// UnlockCallback runs inside an unlocked session. Every delta it creates must
// be resolved before it returns.
type UnlockCallback func(stateDB StateDB) error

// Option configures a PoolManager
type Option func(*PoolManager)

// WithLogger sets the logger used by the pool manager
func WithLogger(l log.Logger) Option {
	return func(pm *PoolManager) { pm.log = l }
}

// WithAddress overrides the account that holds pool reserves
func WithAddress(addr common.Address) Option {
	return func(pm *PoolManager) { pm.address = addr }
}

// PoolManager implements the singleton DEX pool manager precompile
// All pools live in this single contract, enabling:
// - Flash accounting (net token transfers at end of transaction)
// - Hook-driven pools with no pricing curve of their own
type PoolManager struct {
	// mu protects the session flags
	mu sync.RWMutex

	// unlocked is set for the duration of an Unlock callback
	unlocked bool

	address common.Address
	hooks   *HookRegistry
	log     log.Logger

	// currentDeltas tracks balance changes during callback execution
	// Only valid within an unlocked session, must net to zero at the end
	currentDeltas map[common.Address]map[Currency]*big.Int

	// syncedCurrency and syncedReserves are set by Sync and consumed by Settle
	syncedCurrency *Currency
	syncedReserves *big.Int
}

// NewPoolManager creates a new pool manager instance
func NewPoolManager(hooks *HookRegistry, opts ...Option) *PoolManager {
	pm := &PoolManager{
		address:       common.HexToAddress(LXPoolAddress),
		hooks:         hooks,
		log:           log.NewTestLogger(log.InfoLevel),
		currentDeltas: make(map[common.Address]map[Currency]*big.Int),
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Address returns the account that holds pool reserves
func (pm *PoolManager) Address() common.Address {
	return pm.address
}

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, b := range id {
		h.Write(b)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// =========================================================================
// Pool Initialization
// =========================================================================

// Initialize creates and initializes a new pool
func (pm *PoolManager) Initialize(
	stateDB StateDB,
	sender common.Address,
	key PoolKey,
	sqrtPriceX96 *big.Int,
) error {
	if !key.Currency0.Less(key.Currency1) {
		return ErrCurrencyNotSorted
	}
	if key.Fee > FeeMax {
		return fmt.Errorf("%w: %d", ErrInvalidFee, key.Fee)
	}
	if key.TickSpacing <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, key.TickSpacing)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return ErrInvalidSqrtPrice
	}

	poolId := key.ID()
	pool := pm.getPool(stateDB, poolId)
	if pool.IsInitialized() {
		return ErrPoolAlreadyInitialized
	}

	hook, err := pm.lookupHook(key)
	if err != nil {
		return err
	}
	if HasPermission(key.Hooks, HookBeforeInitialize) {
		h, ok := hook.(BeforeInitializeHook)
		if !ok {
			return fmt.Errorf("%w: beforeInitialize", ErrHookNotImplemented)
		}
		sel, err := h.BeforeInitialize(stateDB, sender, key, sqrtPriceX96)
		if err != nil {
			return err
		}
		if sel != SelectorBeforeInitialize {
			return fmt.Errorf("%w: beforeInitialize returned %x", ErrInvalidHookResponse, sel)
		}
	}

	pool.SqrtPriceX96 = new(big.Int).Set(sqrtPriceX96)
	pm.setPool(stateDB, poolId, pool)

	if HasPermission(key.Hooks, HookAfterInitialize) {
		h, ok := hook.(AfterInitializeHook)
		if !ok {
			return fmt.Errorf("%w: afterInitialize", ErrHookNotImplemented)
		}
		sel, err := h.AfterInitialize(stateDB, sender, key, sqrtPriceX96)
		if err != nil {
			return err
		}
		if sel != SelectorAfterInitialize {
			return fmt.Errorf("%w: afterInitialize returned %x", ErrInvalidHookResponse, sel)
		}
	}

	pm.log.Info("pool initialized",
		"pool", common.Hash(poolId),
		"currency0", key.Currency0,
		"currency1", key.Currency1,
		"fee", key.Fee,
		"hooks", key.Hooks,
	)
	return nil
}

// lookupHook returns the code registered for key.Hooks, or nil for a hookless pool
func (pm *PoolManager) lookupHook(key PoolKey) (Hook, error) {
	if key.Hooks == (common.Address{}) {
		return nil, nil
	}
	hook, ok := pm.hooks.Lookup(key.Hooks)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHookNotRegistered, key.Hooks.Hex())
	}
	return hook, nil
}

// =========================================================================
// Flash Accounting - Unlock Pattern
// =========================================================================

// Unlock opens a flash-accounting session for locker and runs fn. Token
// movements inside fn are tracked as deltas which must all be zero when fn
// returns. On any failure every state change made by fn is reverted.
func (pm *PoolManager) Unlock(stateDB StateDB, locker common.Address, fn UnlockCallback) error {
	// Reentrancy guard
	pm.mu.Lock()
	if pm.unlocked {
		pm.mu.Unlock()
		return ErrReentrant
	}
	pm.unlocked = true
	pm.mu.Unlock()

	defer func() {
		pm.mu.Lock()
		pm.unlocked = false
		pm.currentDeltas = make(map[common.Address]map[Currency]*big.Int)
		pm.syncedCurrency = nil
		pm.syncedReserves = nil
		pm.mu.Unlock()
	}()

	snapshot := stateDB.Snapshot()

	err := fn(stateDB)
	if err == nil {
		err = pm.verifySettlement()
	}
	if err != nil {
		stateDB.RevertToSnapshot(snapshot)
		pm.log.Warn("unlock reverted", "locker", locker, "err", err)
		return err
	}
	return nil
}

func (pm *PoolManager) isUnlocked() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.unlocked
}

// verifySettlement ensures every account's deltas are zero
func (pm *PoolManager) verifySettlement() error {
	for account, deltas := range pm.currentDeltas {
		for currency, delta := range deltas {
			if delta.Sign() != 0 {
				return fmt.Errorf("%w: account=%s currency=%s delta=%s",
					ErrNonZeroDelta, account.Hex(), currency, delta)
			}
		}
	}
	return nil
}

// Take sends amount of currency from the pool manager to to, debiting the
// sender's delta.
func (pm *PoolManager) Take(
	stateDB StateDB,
	sender common.Address,
	currency Currency,
	to common.Address,
	amount *big.Int,
) error {
	if !pm.isUnlocked() {
		return ErrManagerLocked
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: take %v", ErrInvalidAmount, amount)
	}

	if err := currency.Transfer(stateDB, pm.address, to, amount); err != nil {
		return fmt.Errorf("take %s: %w", currency, err)
	}
	pm.updateDelta(sender, currency, new(big.Int).Neg(amount))
	return nil
}

// Sync records the pool manager's current balance of currency so that a
// following Settle can credit whatever was transferred in between.
func (pm *PoolManager) Sync(stateDB StateDB, currency Currency) error {
	if !pm.isUnlocked() {
		return ErrManagerLocked
	}

	c := currency
	pm.syncedCurrency = &c
	if currency.IsNative() {
		pm.syncedReserves = nil
		return nil
	}
	pm.syncedReserves = currency.BalanceOf(stateDB, pm.address)
	return nil
}

// Settle credits sender for the tokens paid to the pool manager since the last
// Sync. With no synced currency, or a native one, value is moved from sender
// to the pool manager and credited instead. Returns the credited amount.
func (pm *PoolManager) Settle(stateDB StateDB, sender common.Address, value *big.Int) (*big.Int, error) {
	if !pm.isUnlocked() {
		return nil, ErrManagerLocked
	}
	if value == nil {
		value = big.NewInt(0)
	}

	currency := NativeCurrency
	if pm.syncedCurrency != nil {
		currency = *pm.syncedCurrency
	}

	var paid *big.Int
	if currency.IsNative() {
		if err := transferNative(stateDB, sender, pm.address, value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
		paid = new(big.Int).Set(value)
	} else {
		if value.Sign() != 0 {
			return nil, fmt.Errorf("%w: native value sent for %s", ErrSettlementFailed, currency)
		}
		paid = new(big.Int).Sub(currency.BalanceOf(stateDB, pm.address), pm.syncedReserves)
		if paid.Sign() < 0 {
			return nil, fmt.Errorf("%w: reserves of %s decreased since sync", ErrSettlementFailed, currency)
		}
	}

	pm.syncedCurrency = nil
	pm.syncedReserves = nil
	pm.updateDelta(sender, currency, paid)
	return paid, nil
}

// updateDelta updates the balance delta for a currency
func (pm *PoolManager) updateDelta(account common.Address, currency Currency, delta *big.Int) {
	if delta.Sign() == 0 {
		return
	}
	deltas, ok := pm.currentDeltas[account]
	if !ok {
		deltas = make(map[Currency]*big.Int)
		pm.currentDeltas[account] = deltas
	}

	current, ok := deltas[currency]
	if !ok {
		current = big.NewInt(0)
	}

	deltas[currency] = new(big.Int).Add(current, delta)
}

// accountPoolDelta books a delta expressed in pool currencies against account
func (pm *PoolManager) accountPoolDelta(key PoolKey, delta BalanceDelta, account common.Address) {
	pm.updateDelta(account, key.Currency0, delta.Amount0)
	pm.updateDelta(account, key.Currency1, delta.Amount1)
}

// =========================================================================
// Core DEX Operations
// =========================================================================

// Swap executes a swap in a pool. Pools have no curve: the pool's hook must
// consume the whole specified amount through its beforeSwap delta. Returns the
// caller's delta.
func (pm *PoolManager) Swap(
	stateDB StateDB,
	sender common.Address,
	key PoolKey,
	params SwapParams,
	hookData []byte,
) (BalanceDelta, error) {
	if !pm.isUnlocked() {
		return ZeroBalanceDelta(), ErrManagerLocked
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return ZeroBalanceDelta(), ErrSwapAmountZero
	}

	pool := pm.getPool(stateDB, key.ID())
	if !pool.IsInitialized() {
		return ZeroBalanceDelta(), ErrPoolNotInitialized
	}

	hook, err := pm.lookupHook(key)
	if err != nil {
		return ZeroBalanceDelta(), err
	}

	amountToSwap := new(big.Int).Set(params.AmountSpecified)
	beforeDelta := ZeroBeforeSwapDelta()
	if HasPermission(key.Hooks, HookBeforeSwap) {
		h, ok := hook.(BeforeSwapHook)
		if !ok {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeSwap", ErrHookNotImplemented)
		}
		sel, d, _, err := h.BeforeSwap(stateDB, sender, key, params, hookData)
		if err != nil {
			return ZeroBalanceDelta(), err
		}
		if sel != SelectorBeforeSwap {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeSwap returned %x", ErrInvalidHookResponse, sel)
		}
		if HasPermission(key.Hooks, HookBeforeSwapReturnDelta) {
			beforeDelta = d
			amountToSwap.Add(amountToSwap, d.Specified)
		}
	}

	if amountToSwap.Sign() != 0 {
		return ZeroBalanceDelta(), fmt.Errorf("%w: %s left of %s", ErrSwapNotConsumed, amountToSwap, params.AmountSpecified)
	}

	// The curve moves nothing, so the caller's delta is the inverse of the hook's.
	hookDelta := beforeDelta.ToBalanceDelta(params)
	callerDelta := ZeroBalanceDelta().Sub(hookDelta)

	if HasPermission(key.Hooks, HookAfterSwap) {
		h, ok := hook.(AfterSwapHook)
		if !ok {
			return ZeroBalanceDelta(), fmt.Errorf("%w: afterSwap", ErrHookNotImplemented)
		}
		sel, err := h.AfterSwap(stateDB, sender, key, params, callerDelta, hookData)
		if err != nil {
			return ZeroBalanceDelta(), err
		}
		if sel != SelectorAfterSwap {
			return ZeroBalanceDelta(), fmt.Errorf("%w: afterSwap returned %x", ErrInvalidHookResponse, sel)
		}
	}

	if !hookDelta.IsZero() {
		pm.accountPoolDelta(key, hookDelta, key.Hooks)
	}
	pm.accountPoolDelta(key, callerDelta, sender)

	pm.log.Debug("swap",
		"pool", common.Hash(key.ID()),
		"sender", sender,
		"zeroForOne", params.ZeroForOne,
		"amountSpecified", params.AmountSpecified,
		"amount0", callerDelta.Amount0,
		"amount1", callerDelta.Amount1,
	)
	return callerDelta, nil
}

// ModifyLiquidity adds or removes liquidity from a pool. Token amounts are
// half of the liquidity delta in each currency.
func (pm *PoolManager) ModifyLiquidity(
	stateDB StateDB,
	sender common.Address,
	key PoolKey,
	params ModifyLiquidityParams,
	hookData []byte,
) (BalanceDelta, error) {
	if !pm.isUnlocked() {
		return ZeroBalanceDelta(), ErrManagerLocked
	}
	if params.LiquidityDelta == nil {
		return ZeroBalanceDelta(), fmt.Errorf("%w: nil liquidity delta", ErrInvalidAmount)
	}

	// Validate tick range
	if params.TickLower >= params.TickUpper {
		return ZeroBalanceDelta(), ErrInvalidTickRange
	}
	if params.TickLower < MinTick || params.TickUpper > MaxTick {
		return ZeroBalanceDelta(), ErrTickOutOfRange
	}

	poolId := key.ID()
	pool := pm.getPool(stateDB, poolId)
	if !pool.IsInitialized() {
		return ZeroBalanceDelta(), ErrPoolNotInitialized
	}

	hook, err := pm.lookupHook(key)
	if err != nil {
		return ZeroBalanceDelta(), err
	}

	isAdd := params.LiquidityDelta.Sign() > 0
	if isAdd && HasPermission(key.Hooks, HookBeforeAddLiquidity) {
		h, ok := hook.(BeforeAddLiquidityHook)
		if !ok {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeAddLiquidity", ErrHookNotImplemented)
		}
		sel, err := h.BeforeAddLiquidity(stateDB, sender, key, params, hookData)
		if err != nil {
			return ZeroBalanceDelta(), err
		}
		if sel != SelectorBeforeAddLiquidity {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeAddLiquidity returned %x", ErrInvalidHookResponse, sel)
		}
	}
	if !isAdd && HasPermission(key.Hooks, HookBeforeRemoveLiquidity) {
		h, ok := hook.(BeforeRemoveLiquidityHook)
		if !ok {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeRemoveLiquidity", ErrHookNotImplemented)
		}
		sel, err := h.BeforeRemoveLiquidity(stateDB, sender, key, params, hookData)
		if err != nil {
			return ZeroBalanceDelta(), err
		}
		if sel != SelectorBeforeRemoveLiquidity {
			return ZeroBalanceDelta(), fmt.Errorf("%w: beforeRemoveLiquidity returned %x", ErrInvalidHookResponse, sel)
		}
	}

	positionKey := PositionKey(poolId, sender, params.TickLower, params.TickUpper, params.Salt)
	position := pm.getPositionLiquidity(stateDB, positionKey)
	position.Add(position, params.LiquidityDelta)
	if position.Sign() < 0 {
		return ZeroBalanceDelta(), fmt.Errorf("%w: position would hold %s", ErrInsufficientLiquidity, position)
	}
	pool.Liquidity = new(big.Int).Add(pool.Liquidity, params.LiquidityDelta)

	pm.setPositionLiquidity(stateDB, positionKey, position)
	pm.setPool(stateDB, poolId, pool)

	// Adding liquidity costs the caller, removing pays it back
	half := new(big.Int).Quo(params.LiquidityDelta, big.NewInt(2))
	half.Neg(half)
	callerDelta := NewBalanceDelta(half, half)
	pm.accountPoolDelta(key, callerDelta, sender)

	return callerDelta, nil
}

// =========================================================================
// Storage
// =========================================================================

// getPool retrieves pool state from storage
func (pm *PoolManager) getPool(stateDB StateDB, poolId [32]byte) *Pool {
	pool := NewPool()

	sqrtPriceHash := stateDB.GetState(pm.address, makeStorageKey(poolStatePrefix, poolId[:], []byte("sqrtPrice")))
	pool.SqrtPriceX96.SetBytes(sqrtPriceHash[:])

	liqHash := stateDB.GetState(pm.address, makeStorageKey(poolLiquidityPrefix, poolId[:]))
	pool.Liquidity.SetBytes(liqHash[:])

	return pool
}

// setPool saves pool state to storage
func (pm *PoolManager) setPool(stateDB StateDB, poolId [32]byte, pool *Pool) {
	var sqrtPriceHash common.Hash
	pool.SqrtPriceX96.FillBytes(sqrtPriceHash[:])
	stateDB.SetState(pm.address, makeStorageKey(poolStatePrefix, poolId[:], []byte("sqrtPrice")), sqrtPriceHash)

	var liqHash common.Hash
	pool.Liquidity.FillBytes(liqHash[:])
	stateDB.SetState(pm.address, makeStorageKey(poolLiquidityPrefix, poolId[:]), liqHash)
}

func (pm *PoolManager) getPositionLiquidity(stateDB StateDB, positionKey [32]byte) *big.Int {
	h := stateDB.GetState(pm.address, makeStorageKey(positionPrefix, positionKey[:]))
	return new(big.Int).SetBytes(h[:])
}

func (pm *PoolManager) setPositionLiquidity(stateDB StateDB, positionKey [32]byte, liquidity *big.Int) {
	var h common.Hash
	liquidity.FillBytes(h[:])
	stateDB.SetState(pm.address, makeStorageKey(positionPrefix, positionKey[:]), h)
}

// =========================================================================
// View Functions
// =========================================================================

// GetPool returns the current state of a pool
func (pm *PoolManager) GetPool(stateDB StateDB, key PoolKey) (*Pool, error) {
	pool := pm.getPool(stateDB, key.ID())
	if !pool.IsInitialized() {
		return nil, ErrPoolNotInitialized
	}
	return pool, nil
}

// GetPosition returns the liquidity held by a position
func (pm *PoolManager) GetPosition(
	stateDB StateDB,
	key PoolKey,
	owner common.Address,
	tickLower, tickUpper int24,
	salt [32]byte,
) *Position {
	posKey := PositionKey(key.ID(), owner, tickLower, tickUpper, salt)
	return &Position{
		Owner:     owner,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: pm.getPositionLiquidity(stateDB, posKey),
	}
}

// GetDelta returns the current delta of account for a currency
func (pm *PoolManager) GetDelta(account common.Address, currency Currency) *big.Int {
	deltas, ok := pm.currentDeltas[account]
	if !ok {
		return big.NewInt(0)
	}
	delta, ok := deltas[currency]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(delta)
}
