// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/luxfi/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wraphook",
		Short:        "Wrapper hook simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Deploy a vault and wrapper pool in memory and run swaps through it",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("underlying", "", "underlying token address")
	simulateCmd.Flags().String("vault", "", "vault (wrapped token) address")
	simulateCmd.Flags().String("trader", "", "trader address")
	simulateCmd.Flags().String("deployer", "", "hook deployer, defaults to the pool manager")
	simulateCmd.Flags().String("salt", "", "hook address salt (hex)")
	simulateCmd.Flags().Int32("tick-spacing", 1, "pool tick spacing")
	simulateCmd.Flags().String("funds", "1000000", "underlying and wrapped balance given to the trader")
	simulateCmd.Flags().String("reserves", "1000000", "underlying and wrapped reserves given to the pool manager")
	simulateCmd.Flags().StringSlice("swap", nil, "swaps as direction:amount, negative amount is exact input (e.g. wrap:-100,unwrap:50)")
	simulateCmd.Flags().Bool("abi", true, "call the hook through its ABI contract")

	root.AddCommand(simulateCmd)

	permissionsCmd := &cobra.Command{
		Use:   "permissions",
		Short: "Print the hook permissions and derived hook address",
		RunE:  runPermissions,
	}

	permissionsCmd.Flags().String("underlying", "", "underlying token address")
	permissionsCmd.Flags().String("vault", "", "vault (wrapped token) address")
	permissionsCmd.Flags().String("deployer", "", "hook deployer, defaults to the pool manager")
	permissionsCmd.Flags().String("salt", "", "hook address salt (hex)")

	root.AddCommand(permissionsCmd)

	return root
}

func newLogger(level string) (log.Logger, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.NewTestLogger(log.DebugLevel), nil
	case "", "info":
		return log.NewTestLogger(log.InfoLevel), nil
	case "warn":
		return log.NewTestLogger(log.WarnLevel), nil
	case "error":
		return log.NewTestLogger(log.ErrorLevel), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
}
