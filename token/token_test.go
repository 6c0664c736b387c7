// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

// mapState is a bare storage map; balances of native coin are not needed here.
type mapState map[common.Address]map[common.Hash]common.Hash

func (m mapState) GetState(addr common.Address, key common.Hash) common.Hash {
	return m[addr][key]
}

func (m mapState) SetState(addr common.Address, key common.Hash, value common.Hash) {
	if m[addr] == nil {
		m[addr] = make(map[common.Hash]common.Hash)
	}
	m[addr][key] = value
}

var (
	testToken = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	alice     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol     = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestMintTransferBurn(t *testing.T) {
	db := mapState{}

	require.NoError(t, Mint(db, testToken, alice, big.NewInt(100)))
	require.Equal(t, int64(100), BalanceOf(db, testToken, alice).Int64())
	require.Equal(t, int64(100), TotalSupply(db, testToken).Int64())

	require.NoError(t, Transfer(db, testToken, alice, bob, big.NewInt(40)))
	require.Equal(t, int64(60), BalanceOf(db, testToken, alice).Int64())
	require.Equal(t, int64(40), BalanceOf(db, testToken, bob).Int64())

	require.NoError(t, Burn(db, testToken, bob, big.NewInt(15)))
	require.Equal(t, int64(25), BalanceOf(db, testToken, bob).Int64())
	require.Equal(t, int64(85), TotalSupply(db, testToken).Int64())
}

func TestTransferInsufficientBalance(t *testing.T) {
	db := mapState{}
	require.NoError(t, Mint(db, testToken, alice, big.NewInt(5)))

	err := Transfer(db, testToken, alice, bob, big.NewInt(6))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, int64(5), BalanceOf(db, testToken, alice).Int64())
	require.Zero(t, BalanceOf(db, testToken, bob).Sign())

	require.ErrorIs(t, Burn(db, testToken, bob, big.NewInt(1)), ErrInsufficientBalance)
}

func TestTransferFromAllowance(t *testing.T) {
	db := mapState{}
	require.NoError(t, Mint(db, testToken, alice, big.NewInt(100)))

	t.Run("no allowance", func(t *testing.T) {
		err := TransferFrom(db, testToken, carol, alice, bob, big.NewInt(1))
		require.ErrorIs(t, err, ErrInsufficientAllowance)
	})

	t.Run("finite allowance is spent", func(t *testing.T) {
		require.NoError(t, Approve(db, testToken, alice, carol, big.NewInt(30)))
		require.NoError(t, TransferFrom(db, testToken, carol, alice, bob, big.NewInt(20)))
		require.Equal(t, int64(10), Allowance(db, testToken, alice, carol).Int64())
		require.ErrorIs(t, TransferFrom(db, testToken, carol, alice, bob, big.NewInt(11)), ErrInsufficientAllowance)
	})

	t.Run("max allowance is not spent", func(t *testing.T) {
		require.NoError(t, Approve(db, testToken, alice, carol, MaxAllowance))
		require.NoError(t, TransferFrom(db, testToken, carol, alice, bob, big.NewInt(50)))
		require.Zero(t, Allowance(db, testToken, alice, carol).Cmp(MaxAllowance))
	})

	t.Run("owner moves own tokens", func(t *testing.T) {
		require.NoError(t, TransferFrom(db, testToken, alice, alice, bob, big.NewInt(1)))
	})

	require.Equal(t, int64(29), BalanceOf(db, testToken, alice).Int64())
	require.Equal(t, int64(71), BalanceOf(db, testToken, bob).Int64())
}

func TestInvalidAmounts(t *testing.T) {
	db := mapState{}

	require.ErrorIs(t, Mint(db, testToken, alice, big.NewInt(-1)), ErrAmountOverflow)
	require.ErrorIs(t, Mint(db, testToken, alice, new(big.Int).Lsh(big.NewInt(1), 256)), ErrAmountOverflow)
	require.ErrorIs(t, Mint(db, common.Address{}, alice, big.NewInt(1)), ErrZeroToken)

	require.NoError(t, Mint(db, testToken, alice, MaxAllowance))
	require.ErrorIs(t, Mint(db, testToken, bob, big.NewInt(1)), ErrAmountOverflow)
}
