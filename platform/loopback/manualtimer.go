// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package loopback

import (
	"sync"
	"time"
)

// ManualTimer is a galaxybus.Timer a test steps by hand with Tick,
// instead of waiting on wall-clock ticks the way galaxybus.SoftTimer
// does. It lets a test advance a Bus one sub-bit at a time and make
// deterministic assertions between ticks.
type ManualTimer struct {
	mu      sync.Mutex
	handler func()
	running bool
}

// StartPeriodic implements galaxybus.Timer. period is ignored: time
// only advances when Tick is called.
func (m *ManualTimer) StartPeriodic(_ time.Duration, handler func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	m.running = true
	return nil
}

// Stop implements galaxybus.Timer.
func (m *ManualTimer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

// Tick invokes the handler once, as if one period had elapsed. It is a
// no-op if the timer isn't running.
func (m *ManualTimer) Tick() {
	m.mu.Lock()
	handler, running := m.handler, m.running
	m.mu.Unlock()
	if running && handler != nil {
		handler()
	}
}

// TickN calls Tick n times.
func (m *ManualTimer) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}
