// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/wraphook/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulate(t *testing.T) {
	for _, abi := range []string{"--abi=true", "--abi=false"} {
		t.Run(abi, func(t *testing.T) {
			out, err := execute(t, "simulate", abi, "--funds=100", "--reserves=50", "--swap=wrap:-10,unwrap:10")
			require.NoError(t, err)

			require.Contains(t, out, "[start]")
			require.Contains(t, out, "[wrap:-10]")
			require.Contains(t, out, "trader   underlying=90 wrapped=110")
			require.Contains(t, out, "[unwrap:10]")
			require.Contains(t, out, "trader   underlying=100 wrapped=100")
			require.Contains(t, out, "manager  underlying=50 wrapped=50")
			require.Contains(t, out, "hook     underlying=0 wrapped=0")
		})
	}
}

func TestSimulateReversedOrientation(t *testing.T) {
	out, err := execute(t, "simulate",
		"--underlying=0xf000000000000000000000000000000000000001",
		"--vault=0x1000000000000000000000000000000000000001",
		"--funds=20", "--reserves=20", "--swap=wrap:5,unwrap:-5")
	require.NoError(t, err)
	require.Contains(t, out, "wrap 0->1   false")
	require.Contains(t, out, "trader   underlying=15 wrapped=25")
	require.Contains(t, out, "trader   underlying=20 wrapped=20")
}

func TestSimulateFailures(t *testing.T) {
	_, err := execute(t, "simulate", "--funds=5", "--swap=wrap:-6")
	require.Error(t, err)

	_, err = execute(t, "simulate", "--tick-spacing=0")
	require.Error(t, err)

	_, err = execute(t, "simulate", "--log-level=loud")
	require.Error(t, err)

	_, err = execute(t, "simulate", "--vault=0x1000000000000000000000000000000000000001")
	require.Error(t, err)
}

func TestPermissionsCommand(t *testing.T) {
	out, err := execute(t, "permissions")
	require.NoError(t, err)
	require.Contains(t, out, "beforeInitialize        true")
	require.Contains(t, out, "afterInitialize         false")
	require.Contains(t, out, "beforeSwapReturnDelta   true")
	require.Contains(t, out, "afterSwap               false")

	salted, err := execute(t, "permissions", "--salt=0x01")
	require.NoError(t, err)
	require.NotEqual(t, out, salted)

	_, err = execute(t, "permissions", "--salt=zz")
	require.ErrorIs(t, err, config.ErrInvalidSalt)
}
