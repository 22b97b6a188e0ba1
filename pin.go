// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "periph.io/x/conn/v3/gpio"

// Pin is the fast get/set capability the tick loop needs from a GPIO
// line (spec section 9: "abstract behind a minimal capability trait").
// Any periph.io/x/conn/v3/gpio.PinIO — sysfs, register-mapped, or a
// Linux GPIO character device line — satisfies it structurally.
type Pin interface {
	Out(l gpio.Level) error
	Read() gpio.Level
}

// OutPin is the narrower capability needed for the driver-enable,
// receiver-enable and debug-clock pins: output only.
type OutPin interface {
	Out(l gpio.Level) error
}

// Line is the data pin as driven by the tx state machine and sampled by
// the rx state machine. On one-wire tristate wiring (tx and rx are the
// same physical pin) ReleaseToInput reconfigures the pin as an input so
// the rx state machine can resume sampling; on two-pin wiring it is a
// no-op since the rx pin was never an output.
type Line interface {
	Pin
	ReleaseToInput() error
}

// TriPin adapts a single gpio.PinIO used for both tx and rx (shared,
// tristated data pin) into a Line.
type TriPin struct {
	gpio.PinIO
}

// ReleaseToInput reconfigures the shared pin as an input.
func (t TriPin) ReleaseToInput() error {
	return t.In(gpio.PullNoChange, gpio.NoEdge)
}

// TwoPin adapts a dedicated tx output pin and a dedicated rx input pin
// into a Line. ReleaseToInput is a no-op: Rx never changes direction.
type TwoPin struct {
	Tx Pin
	Rx Pin
}

// Out implements Pin by writing to the dedicated tx pin.
func (t TwoPin) Out(l gpio.Level) error { return t.Tx.Out(l) }

// Read implements Pin by reading the dedicated rx pin.
func (t TwoPin) Read() gpio.Level { return t.Rx.Read() }

// ReleaseToInput is a no-op for two-pin wiring.
func (t TwoPin) ReleaseToInput() error { return nil }
