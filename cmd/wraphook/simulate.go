// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/wraphook/dex"
	"github.com/luxfi/wraphook/internal/config"
	"github.com/luxfi/wraphook/state"
	"github.com/luxfi/wraphook/token"
	"github.com/luxfi/wraphook/vault"
	"github.com/luxfi/wraphook/wrapper"
)

// seeder funds the pool manager's reserves
var seeder = common.HexToAddress("0x5eed000000000000000000000000000000005eed")

type simulation struct {
	db     *state.StateDB
	pm     *dex.PoolManager
	router *dex.Router
	vault  *vault.Vault
	hook   *wrapper.Hook
	key    dex.PoolKey
	trader common.Address
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	viaABI, _ := cmd.Flags().GetBool("abi")

	sim, err := deploy(cfg, logger, viaABI)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "hook        %s\n", sim.hook.Address().Hex())
	fmt.Fprintf(out, "pool        %s\n", common.Hash(sim.key.ID()).Hex())
	fmt.Fprintf(out, "currency0   %s\n", sim.key.Currency0)
	fmt.Fprintf(out, "currency1   %s\n", sim.key.Currency1)
	fmt.Fprintf(out, "wrap 0->1   %t\n", sim.hook.WrapZeroForOne())
	sim.printBalances(out, "start")

	for _, s := range cfg.Swaps {
		params := dex.SwapParams{
			ZeroForOne:      s.Wrap == sim.hook.WrapZeroForOne(),
			AmountSpecified: new(big.Int).Set(s.Amount),
		}
		delta, err := sim.router.Swap(sim.db, sim.trader, sim.key, params, nil)
		if err != nil {
			return fmt.Errorf("swap %s: %w", s, err)
		}
		fmt.Fprintf(out, "swap %-14s amount0=%s amount1=%s\n", s, delta.Amount0, delta.Amount1)
		sim.printBalances(out, s.String())
	}

	return sim.db.Commit()
}

func runPermissions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	sim, err := deploy(cfg, logger, false)
	if err != nil {
		return err
	}

	input, err := dex.PackGetHookPermissions()
	if err != nil {
		return err
	}
	ret, err := wrapper.NewContract(sim.hook).Run(sim.db, cfg.Trader, input)
	if err != nil {
		return err
	}
	perms, err := dex.UnpackHookPermissions(ret)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "address                 %s\n", sim.hook.Address().Hex())
	fmt.Fprintf(out, "flags                   %#04x\n", uint16(dex.EncodeHookPermissions(perms)))
	fmt.Fprintf(out, "beforeInitialize        %t\n", perms.BeforeInitialize)
	fmt.Fprintf(out, "afterInitialize         %t\n", perms.AfterInitialize)
	fmt.Fprintf(out, "beforeAddLiquidity      %t\n", perms.BeforeAddLiquidity)
	fmt.Fprintf(out, "afterAddLiquidity       %t\n", perms.AfterAddLiquidity)
	fmt.Fprintf(out, "beforeRemoveLiquidity   %t\n", perms.BeforeRemoveLiquidity)
	fmt.Fprintf(out, "afterRemoveLiquidity    %t\n", perms.AfterRemoveLiquidity)
	fmt.Fprintf(out, "beforeSwap              %t\n", perms.BeforeSwap)
	fmt.Fprintf(out, "afterSwap               %t\n", perms.AfterSwap)
	fmt.Fprintf(out, "beforeDonate            %t\n", perms.BeforeDonate)
	fmt.Fprintf(out, "afterDonate             %t\n", perms.AfterDonate)
	fmt.Fprintf(out, "beforeSwapReturnDelta   %t\n", perms.BeforeSwapReturnDelta)
	fmt.Fprintf(out, "afterSwapReturnDelta    %t\n", perms.AfterSwapReturnDelta)
	fmt.Fprintf(out, "afterAddLiquidityReturnDelta    %t\n", perms.AfterAddLiquidityReturnDelta)
	fmt.Fprintf(out, "afterRemoveLiquidityReturnDelta %t\n", perms.AfterRemoveLiquidityReturnDelta)
	return nil
}

// deploy builds an in-memory chain with the vault, pool manager, router and
// an initialized wrapper pool, and funds the trader and the pool manager.
func deploy(cfg config.Config, logger log.Logger, viaABI bool) (*simulation, error) {
	db := state.New(memdb.New())
	registry := dex.NewHookRegistry()
	pm := dex.NewPoolManager(registry, dex.WithLogger(logger))

	v, err := vault.New(cfg.Vault, cfg.Underlying, vault.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	hookCfg := wrapper.Config{
		PoolManager: pm.Address(),
		Vault:       v.Address(),
		Deployer:    cfg.Deployer,
		Salt:        cfg.Salt,
	}
	if err := hookCfg.Verify(); err != nil {
		return nil, err
	}
	opts := append(hookCfg.Options(), wrapper.WithLogger(logger))
	h, err := wrapper.New(db, pm, v, opts...)
	if err != nil {
		return nil, err
	}

	var impl dex.Hook = h
	if viaABI {
		if impl, err = dex.NewABIHook(db, wrapper.NewContract(h), pm.Address()); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterHook(h.Address(), impl); err != nil {
		return nil, err
	}

	key := h.PoolKey(cfg.TickSpacing)
	if err := pm.Initialize(db, cfg.Trader, key, dex.Q96); err != nil {
		return nil, fmt.Errorf("initialize pool: %w", err)
	}

	sim := &simulation{
		db:     db,
		pm:     pm,
		router: dex.NewRouter(pm),
		vault:  v,
		hook:   h,
		key:    key,
		trader: cfg.Trader,
	}
	if err := sim.fund(cfg.Trader, cfg.Funds); err != nil {
		return nil, fmt.Errorf("fund trader: %w", err)
	}
	if err := sim.fund(seeder, cfg.Reserves); err != nil {
		return nil, fmt.Errorf("fund reserves: %w", err)
	}
	for _, tok := range []common.Address{v.Token(), v.Address()} {
		if err := token.Transfer(db, tok, seeder, pm.Address(), cfg.Reserves); err != nil {
			return nil, fmt.Errorf("seed reserves: %w", err)
		}
		if err := token.Approve(db, tok, cfg.Trader, sim.router.Address(), token.MaxAllowance); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// fund mints 2*amount underlying to holder and wraps half of it
func (s *simulation) fund(holder common.Address, amount *big.Int) error {
	underlying := s.vault.Token()
	if err := token.Mint(s.db, underlying, holder, new(big.Int).Lsh(amount, 1)); err != nil {
		return err
	}
	if err := token.Approve(s.db, underlying, holder, s.vault.Address(), token.MaxAllowance); err != nil {
		return err
	}
	_, err := s.vault.Wrap(s.db, holder, amount)
	return err
}

func (s *simulation) printBalances(w io.Writer, label string) {
	fmt.Fprintf(w, "[%s]\n", label)
	for _, who := range []struct {
		name string
		addr common.Address
	}{
		{"trader", s.trader},
		{"manager", s.pm.Address()},
		{"hook", s.hook.Address()},
	} {
		fmt.Fprintf(w, "  %-8s underlying=%s wrapped=%s\n", who.name,
			token.BalanceOf(s.db, s.vault.Token(), who.addr),
			token.BalanceOf(s.db, s.vault.Address(), who.addr))
	}
	fmt.Fprintf(w, "  vault    assets=%s supply=%s\n", s.vault.TotalAssets(s.db), s.vault.TotalSupply(s.db))
}
