// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// HookPermissions contains the flags derived from a hook address
// Following Uniswap v4 pattern where hook address encodes capabilities
type HookPermissions struct {
	BeforeInitialize                bool
	AfterInitialize                 bool
	BeforeAddLiquidity              bool
	AfterAddLiquidity               bool
	BeforeRemoveLiquidity           bool
	AfterRemoveLiquidity            bool
	BeforeSwap                      bool
	AfterSwap                       bool
	BeforeDonate                    bool
	AfterDonate                     bool
	BeforeSwapReturnDelta           bool
	AfterSwapReturnDelta            bool
	AfterAddLiquidityReturnDelta    bool
	AfterRemoveLiquidityReturnDelta bool
}

// Hook is implemented by every hook contract. The permission set is static:
// it must be encoded in the hook's address and never changes.
type Hook interface {
	Permissions() HookPermissions
}

// BeforeInitializeHook is called before a pool is initialized
type BeforeInitializeHook interface {
	BeforeInitialize(stateDB StateDB, sender common.Address, key PoolKey, sqrtPriceX96 *big.Int) (Selector, error)
}

// AfterInitializeHook is called after a pool is initialized
type AfterInitializeHook interface {
	AfterInitialize(stateDB StateDB, sender common.Address, key PoolKey, sqrtPriceX96 *big.Int) (Selector, error)
}

// BeforeAddLiquidityHook is called before liquidity is added
type BeforeAddLiquidityHook interface {
	BeforeAddLiquidity(stateDB StateDB, sender common.Address, key PoolKey, params ModifyLiquidityParams, hookData []byte) (Selector, error)
}

// BeforeRemoveLiquidityHook is called before liquidity is removed
type BeforeRemoveLiquidityHook interface {
	BeforeRemoveLiquidity(stateDB StateDB, sender common.Address, key PoolKey, params ModifyLiquidityParams, hookData []byte) (Selector, error)
}

// BeforeSwapHook is called before a swap. The returned delta is only applied
// when the hook also holds the BeforeSwapReturnDelta permission. The fee
// override is ignored since pools have no dynamic fee layer.
type BeforeSwapHook interface {
	BeforeSwap(stateDB StateDB, sender common.Address, key PoolKey, params SwapParams, hookData []byte) (Selector, BeforeSwapDelta, uint24, error)
}

// AfterSwapHook is called after a swap
type AfterSwapHook interface {
	AfterSwap(stateDB StateDB, sender common.Address, key PoolKey, params SwapParams, delta BalanceDelta, hookData []byte) (Selector, error)
}

// Hook errors
var (
	ErrHookNotRegistered   = errors.New("hook not registered")
	ErrHookNotImplemented  = errors.New("hook permission set but not implemented")
	ErrHookInvalidAddress  = errors.New("hook address doesn't match capabilities")
	ErrHookInvalidFlags    = errors.New("hook return-delta flag without base flag")
	ErrHookAlreadyExisting = errors.New("hook already registered")
)

// HookRegistry manages hook contract registrations and validations
type HookRegistry struct {
	mu sync.RWMutex

	// registeredHooks maps hook addresses to their capabilities
	registeredHooks map[common.Address]HookFlags

	// impls maps hook addresses to the code answering the calls
	impls map[common.Address]Hook
}

// NewHookRegistry creates a new hook registry
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		registeredHooks: make(map[common.Address]HookFlags),
		impls:           make(map[common.Address]Hook),
	}
}

// ValidateHookAddress validates that a hook address encodes the claimed permissions
// Following Uniswap v4, the leading bits of the address encode hook capabilities
func ValidateHookAddress(addr common.Address, permissions HookPermissions) error {
	encoded := EncodeHookPermissions(permissions)
	addrFlags := binary.BigEndian.Uint16(addr[0:2])

	if addrFlags != uint16(encoded) {
		return fmt.Errorf("%w: address=%s flags=%#04x want=%#04x",
			ErrHookInvalidAddress, addr.Hex(), addrFlags, uint16(encoded))
	}
	return validateFlags(encoded)
}

// validateFlags rejects return-delta flags whose base callback is disabled
func validateFlags(flags HookFlags) error {
	pairs := []struct{ delta, base HookFlags }{
		{HookBeforeSwapReturnDelta, HookBeforeSwap},
		{HookAfterSwapReturnDelta, HookAfterSwap},
		{HookAfterAddLiquidityReturnDelta, HookAfterAddLiquidity},
		{HookAfterRemoveLiquidityReturnDelta, HookAfterRemoveLiquidity},
	}
	for _, p := range pairs {
		if flags&p.delta != 0 && flags&p.base == 0 {
			return ErrHookInvalidFlags
		}
	}
	return nil
}

// EncodeHookPermissions encodes permissions into a HookFlags bitmap
func EncodeHookPermissions(p HookPermissions) HookFlags {
	var flags HookFlags
	set := func(on bool, f HookFlags) {
		if on {
			flags |= f
		}
	}

	set(p.BeforeInitialize, HookBeforeInitialize)
	set(p.AfterInitialize, HookAfterInitialize)
	set(p.BeforeAddLiquidity, HookBeforeAddLiquidity)
	set(p.AfterAddLiquidity, HookAfterAddLiquidity)
	set(p.BeforeRemoveLiquidity, HookBeforeRemoveLiquidity)
	set(p.AfterRemoveLiquidity, HookAfterRemoveLiquidity)
	set(p.BeforeSwap, HookBeforeSwap)
	set(p.AfterSwap, HookAfterSwap)
	set(p.BeforeDonate, HookBeforeDonate)
	set(p.AfterDonate, HookAfterDonate)
	set(p.BeforeSwapReturnDelta, HookBeforeSwapReturnDelta)
	set(p.AfterSwapReturnDelta, HookAfterSwapReturnDelta)
	set(p.AfterAddLiquidityReturnDelta, HookAfterAddLiquidityReturnDelta)
	set(p.AfterRemoveLiquidityReturnDelta, HookAfterRemoveLiquidityReturnDelta)

	return flags
}

// DecodeHookPermissions decodes a HookFlags bitmap into permissions
func DecodeHookPermissions(flags HookFlags) HookPermissions {
	return HookPermissions{
		BeforeInitialize:                flags&HookBeforeInitialize != 0,
		AfterInitialize:                 flags&HookAfterInitialize != 0,
		BeforeAddLiquidity:              flags&HookBeforeAddLiquidity != 0,
		AfterAddLiquidity:               flags&HookAfterAddLiquidity != 0,
		BeforeRemoveLiquidity:           flags&HookBeforeRemoveLiquidity != 0,
		AfterRemoveLiquidity:            flags&HookAfterRemoveLiquidity != 0,
		BeforeSwap:                      flags&HookBeforeSwap != 0,
		AfterSwap:                       flags&HookAfterSwap != 0,
		BeforeDonate:                    flags&HookBeforeDonate != 0,
		AfterDonate:                     flags&HookAfterDonate != 0,
		BeforeSwapReturnDelta:           flags&HookBeforeSwapReturnDelta != 0,
		AfterSwapReturnDelta:            flags&HookAfterSwapReturnDelta != 0,
		AfterAddLiquidityReturnDelta:    flags&HookAfterAddLiquidityReturnDelta != 0,
		AfterRemoveLiquidityReturnDelta: flags&HookAfterRemoveLiquidityReturnDelta != 0,
	}
}

// GetHookPermissionsFromAddress extracts permissions from hook address
func GetHookPermissionsFromAddress(addr common.Address) HookPermissions {
	return DecodeHookPermissions(flagsOf(addr))
}

// HasPermission checks if an address has a specific hook permission
func HasPermission(addr common.Address, flag HookFlags) bool {
	return flagsOf(addr)&flag != 0
}

func flagsOf(addr common.Address) HookFlags {
	return HookFlags(binary.BigEndian.Uint16(addr[0:2]))
}

// GenerateHookAddress generates a valid hook address for given permissions
// Uses CREATE2-style address derivation
func GenerateHookAddress(deployer common.Address, salt [32]byte, permissions HookPermissions) common.Address {
	flags := EncodeHookPermissions(permissions)

	h := blake3.New()
	h.Write([]byte{0xff}) // CREATE2 prefix
	h.Write(deployer.Bytes())
	h.Write(salt[:])

	var hash [32]byte
	h.Digest().Read(hash[:])

	// Set permission flags in first 2 bytes
	var addr common.Address
	copy(addr[:], hash[12:32])
	binary.BigEndian.PutUint16(addr[0:2], uint16(flags))

	return addr
}

// RegisterHook binds hook code to an address after checking that the address
// encodes exactly the hook's permissions.
func (hr *HookRegistry) RegisterHook(addr common.Address, hook Hook) error {
	if err := ValidateHookAddress(addr, hook.Permissions()); err != nil {
		return err
	}

	hr.mu.Lock()
	defer hr.mu.Unlock()

	if _, ok := hr.impls[addr]; ok {
		return fmt.Errorf("%w: %s", ErrHookAlreadyExisting, addr.Hex())
	}
	hr.registeredHooks[addr] = EncodeHookPermissions(hook.Permissions())
	hr.impls[addr] = hook
	return nil
}

// GetHookFlags returns the flags for a registered hook
func (hr *HookRegistry) GetHookFlags(addr common.Address) (HookFlags, bool) {
	hr.mu.RLock()
	defer hr.mu.RUnlock()
	flags, ok := hr.registeredHooks[addr]
	return flags, ok
}

// Lookup returns the code registered at addr
func (hr *HookRegistry) Lookup(addr common.Address) (Hook, bool) {
	hr.mu.RLock()
	defer hr.mu.RUnlock()
	h, ok := hr.impls[addr]
	return h, ok
}

// IsHookEnabled checks if a specific hook type is enabled for an address
func (hr *HookRegistry) IsHookEnabled(addr common.Address, flag HookFlags) bool {
	flags, ok := hr.GetHookFlags(addr)
	if !ok {
		// If not registered, derive from address
		flags = flagsOf(addr)
	}
	return flags&flag != 0
}
