// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	require.Equal(t, common.HexToAddress("0x1000000000000000000000000000000000000001"), cfg.Underlying)
	require.Equal(t, common.HexToAddress("0x2000000000000000000000000000000000000002"), cfg.Vault)
	require.Equal(t, common.Address{}, cfg.Deployer)
	require.Equal(t, int32(1), cfg.TickSpacing)
	require.Equal(t, "1000000", cfg.Funds.String())
	require.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.Swaps, 2)
	require.Equal(t, "wrap:-1", cfg.Swaps[0].String())
	require.Equal(t, "unwrap:1", cfg.Swaps[1].String())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wraphook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vault: "0x3000000000000000000000000000000000000003"
funds: "42"
swap:
  - "wrap:-7"
log-level: warn
`), 0o600))

	t.Setenv("WRAPHOOK_FUNDS", "99")
	t.Setenv("WRAPHOOK_TICK_SPACING", "60")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.StringSlice("swap", nil, "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	require.Equal(t, common.HexToAddress("0x3000000000000000000000000000000000000003"), cfg.Vault)
	require.Equal(t, "99", cfg.Funds.String())
	require.Equal(t, int32(60), cfg.TickSpacing)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Swaps, 1)
	require.True(t, cfg.Swaps[0].Wrap)
	require.Equal(t, int64(-7), cfg.Swaps[0].Amount.Int64())
}

func TestLoadSwapsFromEnv(t *testing.T) {
	t.Setenv("WRAPHOOK_SWAP", "wrap:-5, unwrap:5 ,")
	t.Setenv("WRAPHOOK_SALT", "0x01")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Len(t, cfg.Swaps, 2)
	require.Equal(t, "unwrap:5", cfg.Swaps[1].String())
	require.Equal(t, common.HexToHash("0x01"), cfg.Salt)
}

func TestLoadOddLengthSalt(t *testing.T) {
	t.Setenv("WRAPHOOK_SALT", "0xabc")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x0abc"), cfg.Salt)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"bad vault", map[string]string{"WRAPHOOK_VAULT": "0x1234"}, ErrInvalidAddress},
		{"bad deployer", map[string]string{"WRAPHOOK_DEPLOYER": "nope"}, ErrInvalidAddress},
		{"bad swap", map[string]string{"WRAPHOOK_SWAP": "sideways:1"}, ErrInvalidSwap},
		{"bad salt", map[string]string{"WRAPHOOK_SALT": "zz"}, ErrInvalidSalt},
		{"empty salt", map[string]string{"WRAPHOOK_SALT": "0x"}, ErrInvalidSalt},
		{"long salt", map[string]string{"WRAPHOOK_SALT": "0x" + strings.Repeat("01", 33)}, ErrInvalidSalt},
		{"negative funds", map[string]string{"WRAPHOOK_FUNDS": "-1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestParseSwap(t *testing.T) {
	tests := []struct {
		raw     string
		wrap    bool
		amount  int64
		wantErr bool
	}{
		{raw: "wrap:-10", wrap: true, amount: -10},
		{raw: "UNWRAP:3", amount: 3},
		{raw: " wrap : 8 ", wrap: true, amount: 8},
		{raw: "wrap:0", wantErr: true},
		{raw: "wrap", wantErr: true},
		{raw: "wrap:abc", wantErr: true},
		{raw: "mint:1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := ParseSwap(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSwap)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wrap, s.Wrap)
			require.Equal(t, tt.amount, s.Amount.Int64())
		})
	}
}
