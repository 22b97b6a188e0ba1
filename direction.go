// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "periph.io/x/conn/v3/gpio"

// directionController switches the RS485 driver-enable (and, for
// shared tx/rx wiring, the data line's direction) at frame boundaries
// (spec section 4.4). It holds driver-enable high for the whole tx
// frame including txpost padding; receiver-enable, if distinct, is
// asserted low whenever driver-enable is asserted high, and released
// (high) for rx, per spec section 4.4.
type directionController struct {
	de   OutPin
	re   OutPin // nil if tied to de or unused
	line Line
}

func (d *directionController) toTx() {
	d.de.Out(gpio.High)
	if d.re != nil {
		d.re.Out(gpio.Low)
	}
}

func (d *directionController) toRx() {
	d.de.Out(gpio.Low)
	if d.re != nil {
		d.re.Out(gpio.High)
	}
	d.line.ReleaseToInput()
}
