// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import (
	"errors"
	"sync"
	"time"
)

// Timer is the periodic-alarm capability the tick loop needs (spec
// section 9: "abstract behind a minimal capability trait — start_periodic,
// stop"). Programming the actual timer hardware and attaching it to an
// interrupt vector is an external collaborator's concern (spec section
// 1, out of scope); this package only ever calls StartPeriodic once, at
// Start, and Stop, at End.
type Timer interface {
	// StartPeriodic arms the timer at the given period and invokes
	// handler on every tick until Stop is called. handler must return
	// promptly: it runs the entire rx or tx tick, and on real hardware
	// it is the ISR body.
	StartPeriodic(period time.Duration, handler func()) error
	Stop()
}

// SoftTimer is a time.Ticker-backed Timer: the software stand-in for a
// hardware periodic-alarm interrupt, used when no platform-specific
// Timer is supplied. handler runs on a dedicated goroutine.
type SoftTimer struct {
	mu     sync.Mutex
	ticker *time.Ticker
	done   chan struct{}
}

// StartPeriodic implements Timer.
func (s *SoftTimer) StartPeriodic(period time.Duration, handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return errors.New("galaxybus: timer already started")
	}
	s.ticker = time.NewTicker(period)
	s.done = make(chan struct{})
	ticker, done := s.ticker, s.done
	go func() {
		for {
			select {
			case <-ticker.C:
				handler()
			case <-done:
				return
			}
		}
	}()
	return nil
}

// Stop implements Timer.
func (s *SoftTimer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
}
