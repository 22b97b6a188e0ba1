// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package loopback provides an in-memory galaxybus.Line and
// galaxybus.Timer so a galaxybus.Bus can be driven deterministically in
// tests, without real GPIO hardware or wall-clock timing.
package loopback

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Wire is a single-conductor bus shared by any number of participants,
// each wired to it through a Tap. It models an idle RS485 line resting
// high (gpio.High) when nobody is driving it low.
type Wire struct {
	mu      sync.Mutex
	drivers map[*Tap]bool // participants currently driving the line low
}

// NewWire returns an idle Wire.
func NewWire() *Wire {
	return &Wire{drivers: map[*Tap]bool{}}
}

// level computes the wire's resolved level: low if any tap drives low,
// matching an open-drain/differential RS485 bus where any transmitter
// pulling the line dominates. lock must be held.
func (w *Wire) level() gpio.Level {
	for _, low := range w.drivers {
		if low {
			return gpio.Low
		}
	}
	return gpio.High
}

// Tap is one participant's connection to a Wire: a Line for galaxybus
// to drive and sample, plus a separate OutPin for its DE signal (which
// loopback does not couple to the wire — it only gates whether this
// tap's Out calls are visible to everyone else).
type Tap struct {
	wire *Wire
	de   bool // local copy of this tap's DE state
}

// NewTap attaches a new participant to w.
func NewTap(w *Wire) *Tap {
	t := &Tap{wire: w}
	w.mu.Lock()
	w.drivers[t] = false
	w.mu.Unlock()
	return t
}

// Out implements galaxybus.Pin. While DE is not asserted the call is
// accepted but has no effect on the shared wire, mirroring a real
// RS485 transceiver with its driver disabled.
func (t *Tap) Out(l gpio.Level) error {
	t.wire.mu.Lock()
	defer t.wire.mu.Unlock()
	if t.de {
		t.wire.drivers[t] = l == gpio.Low
	}
	return nil
}

// Read implements galaxybus.Pin: the resolved level of the shared wire.
func (t *Tap) Read() gpio.Level {
	t.wire.mu.Lock()
	defer t.wire.mu.Unlock()
	return t.wire.level()
}

// ReleaseToInput implements galaxybus.Line: stop driving the wire.
func (t *Tap) ReleaseToInput() error {
	t.wire.mu.Lock()
	defer t.wire.mu.Unlock()
	t.wire.drivers[t] = false
	return nil
}

// DE returns an OutPin that asserts/deasserts this tap's right to drive
// the wire, for use as galaxybus.Config.DE.
func (t *Tap) DE() *dePin { return (*dePin)(t) }

type dePin Tap

func (d *dePin) Out(l gpio.Level) error {
	t := (*Tap)(d)
	t.wire.mu.Lock()
	defer t.wire.mu.Unlock()
	t.de = l == gpio.High
	if !t.de {
		t.wire.drivers[t] = false
	}
	return nil
}

// DiscardPin is a no-op OutPin, for optional pins (RE, Debug) a test
// doesn't care to observe.
type DiscardPin struct{}

func (DiscardPin) Out(gpio.Level) error { return nil }
