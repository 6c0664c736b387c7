// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/luxfi/geth/common"
)

// permHook is a Hook that implements no callbacks
type permHook struct {
	perms HookPermissions
}

func (h permHook) Permissions() HookPermissions { return h.perms }

func addrWithFlags(flags HookFlags) common.Address {
	var addr common.Address
	binary.BigEndian.PutUint16(addr[0:2], uint16(flags))
	addr[19] = 0x01
	return addr
}

// =========================================================================
// Hook Permission Tests
// =========================================================================

func TestEncodeDecodeHookPermissions(t *testing.T) {
	tests := []struct {
		name        string
		permissions HookPermissions
	}{
		{
			name:        "no permissions",
			permissions: HookPermissions{},
		},
		{
			name: "beforeSwap only",
			permissions: HookPermissions{
				BeforeSwap: true,
			},
		},
		{
			name: "wrapper hooks",
			permissions: HookPermissions{
				BeforeInitialize:      true,
				BeforeAddLiquidity:    true,
				BeforeSwap:            true,
				BeforeSwapReturnDelta: true,
			},
		},
		{
			name: "all hooks",
			permissions: HookPermissions{
				BeforeInitialize:                true,
				AfterInitialize:                 true,
				BeforeAddLiquidity:              true,
				AfterAddLiquidity:               true,
				BeforeRemoveLiquidity:           true,
				AfterRemoveLiquidity:            true,
				BeforeSwap:                      true,
				AfterSwap:                       true,
				BeforeDonate:                    true,
				AfterDonate:                     true,
				BeforeSwapReturnDelta:           true,
				AfterSwapReturnDelta:            true,
				AfterAddLiquidityReturnDelta:    true,
				AfterRemoveLiquidityReturnDelta: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := DecodeHookPermissions(EncodeHookPermissions(tt.permissions))
			if decoded != tt.permissions {
				t.Errorf("permissions mismatch: got %+v, want %+v", decoded, tt.permissions)
			}
		})
	}
}

func TestGetHookPermissionsFromAddress(t *testing.T) {
	permissions := HookPermissions{
		BeforeSwap: true,
		AfterSwap:  true,
	}
	addr := addrWithFlags(EncodeHookPermissions(permissions))

	decoded := GetHookPermissionsFromAddress(addr)

	if !decoded.BeforeSwap {
		t.Error("Expected BeforeSwap to be true")
	}
	if !decoded.AfterSwap {
		t.Error("Expected AfterSwap to be true")
	}
	if decoded.BeforeInitialize {
		t.Error("Expected BeforeInitialize to be false")
	}
}

func TestHasPermission(t *testing.T) {
	addr := addrWithFlags(HookBeforeSwap | HookBeforeSwapReturnDelta)

	if !HasPermission(addr, HookBeforeSwap) {
		t.Error("Expected HasPermission(BeforeSwap) to be true")
	}
	if !HasPermission(addr, HookBeforeSwapReturnDelta) {
		t.Error("Expected HasPermission(BeforeSwapReturnDelta) to be true")
	}
	if HasPermission(addr, HookBeforeInitialize) {
		t.Error("Expected HasPermission(BeforeInitialize) to be false")
	}
}

func TestValidateHookAddress(t *testing.T) {
	permissions := HookPermissions{
		BeforeSwap: true,
		AfterSwap:  true,
	}

	validAddr := addrWithFlags(EncodeHookPermissions(permissions))
	if err := ValidateHookAddress(validAddr, permissions); err != nil {
		t.Errorf("ValidateHookAddress failed for valid address: %v", err)
	}

	invalidAddr := addrWithFlags(HookBeforeInitialize)
	if err := ValidateHookAddress(invalidAddr, permissions); !errors.Is(err, ErrHookInvalidAddress) {
		t.Errorf("Expected ErrHookInvalidAddress, got: %v", err)
	}
}

func TestValidateHookAddressReturnDeltaWithoutBase(t *testing.T) {
	permissions := HookPermissions{BeforeSwapReturnDelta: true}
	addr := addrWithFlags(EncodeHookPermissions(permissions))

	if err := ValidateHookAddress(addr, permissions); !errors.Is(err, ErrHookInvalidFlags) {
		t.Errorf("Expected ErrHookInvalidFlags, got: %v", err)
	}
}

// =========================================================================
// Hook Registry Tests
// =========================================================================

func TestHookRegistryRegister(t *testing.T) {
	registry := NewHookRegistry()

	hook := permHook{perms: HookPermissions{BeforeSwap: true, AfterSwap: true}}
	flags := EncodeHookPermissions(hook.perms)
	addr := addrWithFlags(flags)

	if err := registry.RegisterHook(addr, hook); err != nil {
		t.Errorf("RegisterHook failed: %v", err)
	}

	registeredFlags, ok := registry.GetHookFlags(addr)
	if !ok {
		t.Error("Expected hook to be registered")
	}
	if registeredFlags != flags {
		t.Errorf("Flags mismatch: got %d, want %d", registeredFlags, flags)
	}

	if _, ok := registry.Lookup(addr); !ok {
		t.Error("Expected Lookup to find the hook")
	}

	if err := registry.RegisterHook(addr, hook); !errors.Is(err, ErrHookAlreadyExisting) {
		t.Errorf("Expected ErrHookAlreadyExisting, got: %v", err)
	}
}

func TestHookRegistryRegisterInvalidAddress(t *testing.T) {
	registry := NewHookRegistry()

	addr := addrWithFlags(HookBeforeSwap)
	err := registry.RegisterHook(addr, permHook{perms: HookPermissions{AfterSwap: true}})
	if !errors.Is(err, ErrHookInvalidAddress) {
		t.Errorf("Expected ErrHookInvalidAddress, got: %v", err)
	}
	if _, ok := registry.Lookup(addr); ok {
		t.Error("Rejected hook must not be registered")
	}
}

func TestHookRegistryIsEnabled(t *testing.T) {
	registry := NewHookRegistry()

	hook := permHook{perms: HookPermissions{BeforeSwap: true, AfterSwap: true}}
	addr := addrWithFlags(EncodeHookPermissions(hook.perms))
	if err := registry.RegisterHook(addr, hook); err != nil {
		t.Fatalf("RegisterHook failed: %v", err)
	}

	if !registry.IsHookEnabled(addr, HookBeforeSwap) {
		t.Error("Expected BeforeSwap to be enabled")
	}
	if !registry.IsHookEnabled(addr, HookAfterSwap) {
		t.Error("Expected AfterSwap to be enabled")
	}
	if registry.IsHookEnabled(addr, HookBeforeInitialize) {
		t.Error("Expected BeforeInitialize to be disabled")
	}
}

// =========================================================================
// Hook Address Generation Tests
// =========================================================================

func TestGenerateHookAddress(t *testing.T) {
	deployer := common.HexToAddress("0x1234567890123456789012345678901234567890")
	var salt [32]byte
	copy(salt[:], []byte("test-salt"))

	permissions := HookPermissions{
		BeforeInitialize:      true,
		BeforeAddLiquidity:    true,
		BeforeSwap:            true,
		BeforeSwapReturnDelta: true,
	}

	addr := GenerateHookAddress(deployer, salt, permissions)

	if decoded := GetHookPermissionsFromAddress(addr); decoded != permissions {
		t.Errorf("Generated address encodes %+v, want %+v", decoded, permissions)
	}
	if err := ValidateHookAddress(addr, permissions); err != nil {
		t.Errorf("Generated address should validate: %v", err)
	}

	var otherSalt [32]byte
	copy(otherSalt[:], []byte("other-salt"))
	if GenerateHookAddress(deployer, otherSalt, permissions) == addr {
		t.Error("Different salts should give different addresses")
	}
}

// =========================================================================
// Benchmark Tests
// =========================================================================

func BenchmarkEncodeHookPermissions(b *testing.B) {
	permissions := HookPermissions{
		BeforeSwap:         true,
		AfterSwap:          true,
		BeforeAddLiquidity: true,
		AfterAddLiquidity:  true,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeHookPermissions(permissions)
	}
}

func BenchmarkDecodeHookPermissions(b *testing.B) {
	flags := HookFlags(0x00FF)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = DecodeHookPermissions(flags)
	}
}

func BenchmarkHasPermission(b *testing.B) {
	addr := addrWithFlags(HookBeforeSwap | HookAfterSwap)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HasPermission(addr, HookBeforeSwap)
	}
}

func BenchmarkGenerateHookAddress(b *testing.B) {
	deployer := common.HexToAddress("0x1234567890123456789012345678901234567890")
	var salt [32]byte
	permissions := HookPermissions{
		BeforeSwap: true,
		AfterSwap:  true,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GenerateHookAddress(deployer, salt, permissions)
	}
}
