// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/galaxybus/galaxybus/platform/boardpins"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// resolvePin finds a gpio.PinIO either by name (periph's gpioreg, the
// usual path) or, if name is empty and header is nonzero, by header
// position on the configured board (platform/boardpins).
func resolvePin(board string, name string, header int) (gpio.PinIO, error) {
	if name != "" {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("galaxyctl: no such pin %q", name)
		}
		return p, nil
	}
	if header != 0 {
		p, ok := boardpins.Pin(boardpins.Board(board), header)
		if !ok {
			return nil, fmt.Errorf("galaxyctl: board %q has no GPIO at header position %d", board, header)
		}
		return p, nil
	}
	return nil, fmt.Errorf("galaxyctl: no pin specified")
}
