// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidSwap    = errors.New("invalid swap")
	ErrInvalidSalt    = errors.New("invalid salt")
)

// Config holds simulation settings loaded from flags, env, or config file.
type Config struct {
	Underlying  common.Address
	Vault       common.Address
	Trader      common.Address
	Deployer    common.Address
	Salt        common.Hash
	TickSpacing int32
	Funds       *big.Int
	Reserves    *big.Int
	Swaps       []Swap
	LogLevel    string
}

// Swap is one trade against the wrapper pool. A negative amount is exact
// input, a positive one exact output.
type Swap struct {
	Wrap   bool
	Amount *big.Int
}

func (s Swap) String() string {
	dir := "unwrap"
	if s.Wrap {
		dir = "wrap"
	}
	return dir + ":" + s.Amount.String()
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WRAPHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("underlying", "0x1000000000000000000000000000000000000001")
	v.SetDefault("vault", "0x2000000000000000000000000000000000000002")
	v.SetDefault("trader", "0x7000000000000000000000000000000000000007")
	v.SetDefault("tick-spacing", 1)
	v.SetDefault("funds", "1000000")
	v.SetDefault("reserves", "1000000")
	v.SetDefault("swap", []string{"wrap:-1", "unwrap:1"})
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("wraphook")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		TickSpacing: v.GetInt32("tick-spacing"),
		LogLevel:    v.GetString("log-level"),
	}

	var err error
	if cfg.Underlying, err = parseAddress(v, "underlying", true); err != nil {
		return Config{}, err
	}
	if cfg.Vault, err = parseAddress(v, "vault", true); err != nil {
		return Config{}, err
	}
	if cfg.Trader, err = parseAddress(v, "trader", true); err != nil {
		return Config{}, err
	}
	if cfg.Deployer, err = parseAddress(v, "deployer", false); err != nil {
		return Config{}, err
	}
	if cfg.Salt, err = parseSalt(v); err != nil {
		return Config{}, err
	}
	if cfg.Funds, err = parseAmount(v, "funds"); err != nil {
		return Config{}, err
	}
	if cfg.Reserves, err = parseAmount(v, "reserves"); err != nil {
		return Config{}, err
	}
	for _, raw := range getStringSlice(v, "swap") {
		s, err := ParseSwap(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.Swaps = append(cfg.Swaps, s)
	}

	return cfg, nil
}

// ParseSwap parses "wrap:<amount>" or "unwrap:<amount>"
func ParseSwap(raw string) (Swap, error) {
	dir, amt, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return Swap{}, fmt.Errorf("%w: %q", ErrInvalidSwap, raw)
	}

	var s Swap
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "wrap":
		s.Wrap = true
	case "unwrap":
	default:
		return Swap{}, fmt.Errorf("%w: unknown direction %q", ErrInvalidSwap, dir)
	}

	amount, ok := new(big.Int).SetString(strings.TrimSpace(amt), 10)
	if !ok || amount.Sign() == 0 {
		return Swap{}, fmt.Errorf("%w: bad amount %q", ErrInvalidSwap, amt)
	}
	s.Amount = amount
	return s, nil
}

func parseAddress(v *viper.Viper, key string, required bool) (common.Address, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		if required {
			return common.Address{}, fmt.Errorf("%w: %s is required", ErrInvalidAddress, key)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %s=%q", ErrInvalidAddress, key, raw)
	}
	return common.HexToAddress(raw), nil
}

// parseSalt accepts up to 32 bytes of hex, left-padded like common.HexToHash
func parseSalt(v *viper.Viper) (common.Hash, error) {
	raw := strings.TrimSpace(v.GetString("salt"))
	if raw == "" {
		return common.Hash{}, nil
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if digits == "" || len(digits) > 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidSalt, raw)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidSalt, raw)
	}
	return common.BytesToHash(b), nil
}

func parseAmount(v *viper.Viper, key string) (*big.Int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return amount, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
