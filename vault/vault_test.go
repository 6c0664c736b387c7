// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"testing"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/wraphook/state"
	"github.com/luxfi/wraphook/token"
)

var (
	vaultAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	underlying = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	holder     = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newTestVault(t *testing.T) (*Vault, *state.StateDB) {
	t.Helper()
	v, err := New(vaultAddr, underlying)
	require.NoError(t, err)

	db := state.New(memdb.New())
	require.NoError(t, token.Mint(db, underlying, holder, big.NewInt(1_000)))
	require.NoError(t, token.Approve(db, underlying, holder, vaultAddr, token.MaxAllowance))
	return v, db
}

func TestNewValidation(t *testing.T) {
	_, err := New(common.Address{}, underlying)
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = New(vaultAddr, common.Address{})
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = New(vaultAddr, vaultAddr)
	require.ErrorIs(t, err, ErrSameToken)
}

func TestWrapUnwrap(t *testing.T) {
	v, db := newTestVault(t)
	require.Equal(t, underlying, v.Token())
	require.Equal(t, vaultAddr, v.Address())

	minted, err := v.Wrap(db, holder, big.NewInt(300))
	require.NoError(t, err)
	require.Equal(t, int64(300), minted.Int64())

	require.Equal(t, int64(700), token.BalanceOf(db, underlying, holder).Int64())
	require.Equal(t, int64(300), token.BalanceOf(db, vaultAddr, holder).Int64())
	require.Equal(t, int64(300), v.TotalAssets(db).Int64())
	require.Equal(t, int64(300), v.TotalSupply(db).Int64())

	paid, err := v.Unwrap(db, holder, big.NewInt(120))
	require.NoError(t, err)
	require.Equal(t, int64(120), paid.Int64())

	require.Equal(t, int64(820), token.BalanceOf(db, underlying, holder).Int64())
	require.Equal(t, int64(180), token.BalanceOf(db, vaultAddr, holder).Int64())
	require.Zero(t, v.TotalAssets(db).Cmp(v.TotalSupply(db)))
}

func TestZeroAmountIsNoop(t *testing.T) {
	v, db := newTestVault(t)

	out, err := v.Wrap(db, holder, big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, out.Sign())

	out, err = v.Unwrap(db, holder, big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, out.Sign())

	require.Zero(t, v.TotalSupply(db).Sign())
}

func TestWrapFailures(t *testing.T) {
	v, db := newTestVault(t)

	_, err := v.Wrap(db, holder, big.NewInt(-1))
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = v.Wrap(db, holder, big.NewInt(5_000))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)

	stranger := common.HexToAddress("0x5555555555555555555555555555555555555555")
	require.NoError(t, token.Mint(db, underlying, stranger, big.NewInt(10)))
	_, err = v.Wrap(db, stranger, big.NewInt(10))
	require.ErrorIs(t, err, token.ErrInsufficientAllowance)

	_, err = v.Unwrap(db, holder, big.NewInt(1))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
}
