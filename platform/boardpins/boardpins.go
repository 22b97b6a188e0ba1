// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package boardpins resolves a header pin position on a known
// single-board computer (e.g. "NanoPi NEO Air, pin 11") to the
// platform/allwinnergpio.Pin wired to it, so cmd/galaxyctl can be
// pointed at a board and a header number instead of a raw bank/offset.
package boardpins

import (
	"os"
	"strconv"
	"strings"

	"github.com/galaxybus/galaxybus/platform/allwinnergpio"
)

// Board names a supported single-board computer model.
type Board string

var (
	boardModelPrefix = map[Board]string{}
	headers          = map[Board][]string{}
)

// Detect reads the kernel's device tree model string and returns the
// Board it names, if any of the boards this package knows about.
func Detect() (Board, bool) {
	data, err := os.ReadFile("/proc/device-tree/model")
	if err != nil {
		return "", false
	}
	model := strings.TrimRight(string(data), "\x00")
	for board, prefix := range boardModelPrefix {
		if strings.HasPrefix(model, prefix) {
			return board, true
		}
	}
	return "", false
}

// Pin resolves header position n (1-based, silkscreen numbering) on
// board to its allwinnergpio.Pin. It returns false for ground/power
// positions and for positions board doesn't have.
func Pin(board Board, n int) (*allwinnergpio.Pin, bool) {
	names, ok := headers[board]
	if !ok || n < 1 || n > len(names) {
		return nil, false
	}
	num, ok := pinNumber(names[n-1])
	if !ok {
		return nil, false
	}
	if allwinnergpio.Pins == nil {
		return nil, false
	}
	p, ok := allwinnergpio.Pins[num]
	return p, ok
}

// pinNumber converts a symbolic name like "PA12" to the bank*32+offset
// convention platform/allwinnergpio.Pins is keyed by.
func pinNumber(name string) (int, bool) {
	if len(name) < 3 || name[0] != 'P' {
		return 0, false
	}
	bank := int(name[1] - 'A')
	if bank < 0 || bank > 11 {
		return 0, false
	}
	offset, err := strconv.Atoi(name[2:])
	if err != nil {
		return 0, false
	}
	return bank*32 + offset, true
}
