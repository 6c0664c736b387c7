// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import (
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// Option configures a Hook
type Option func(*Hook)

// WithLogger sets the hook logger
func WithLogger(l log.Logger) Option {
	return func(h *Hook) { h.log = l }
}

// WithExchangeRate replaces the 1:1 rate
func WithExchangeRate(rate ExchangeRate) Option {
	return func(h *Hook) { h.rate = rate }
}

// WithDeployer sets the deployer used to derive the hook address
func WithDeployer(deployer common.Address) Option {
	return func(h *Hook) { h.deployer = deployer }
}

// WithSalt sets the salt used to derive the hook address
func WithSalt(salt [32]byte) Option {
	return func(h *Hook) { h.salt = salt }
}

// Config describes a wrapper hook deployment
type Config struct {
	PoolManager common.Address `json:"poolManager"`
	Vault       common.Address `json:"vault"`
	Deployer    common.Address `json:"deployer,omitempty"`
	Salt        common.Hash    `json:"salt,omitempty"`
}

// Verify checks the deployment references
func (c *Config) Verify() error {
	if c.PoolManager == (common.Address{}) {
		return ErrZeroPoolManager
	}
	if c.Vault == (common.Address{}) {
		return ErrZeroVault
	}
	return nil
}

// Equal returns true if other describes the same deployment
func (c *Config) Equal(other *Config) bool {
	if other == nil {
		return false
	}
	return *c == *other
}

// Options returns the hook options implied by the config
func (c *Config) Options() []Option {
	var opts []Option
	if c.Deployer != (common.Address{}) {
		opts = append(opts, WithDeployer(c.Deployer))
	}
	if c.Salt != (common.Hash{}) {
		opts = append(opts, WithSalt(c.Salt))
	}
	return opts
}
