// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrapper

import "sync"

// guard marks the vault conversion as a critical section. A second enter
// before the first release fails instead of blocking, since re-entry comes
// from the same call stack.
type guard struct {
	mu      sync.Mutex
	entered bool
}

// enter acquires the guard and returns its release function
func (g *guard) enter() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.entered {
		return nil, ErrReentrant
	}
	g.entered = true

	return func() {
		g.mu.Lock()
		g.entered = false
		g.mu.Unlock()
	}, nil
}
