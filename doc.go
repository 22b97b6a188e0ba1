// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package galaxybus implements a half-duplex RS485 bit-bang transceiver
// for the Galaxy alarm-panel bus protocol: a software UART sampled at
// 3x the bit rate from a periodic timer tick, 8-N-1 framing at 9600
// baud, an additive 1's-complement checksum, RS485 driver-enable
// control and inter-message gap detection.
//
// The package owns only the ISR-equivalent tick loop and the lock-free
// handoff to callers. GPIO pins and the periodic timer are abstracted
// behind the Pin, Line and Timer interfaces so the same engine runs
// against real hardware or an in-memory loopback for tests.
//
// Platform backends live under platform/: sysfsgpio for generic Linux
// GPIO, allwinnergpio and boardpins for Allwinner SBCs, loopback for
// deterministic tests, and the experimental uartassist alternate
// transport that drives a real hardware UART instead of bit-banging.
// platform/auto blank-imports whichever backends apply to the build
// target and registers them with driverreg. cmd/galaxyctl is a
// TOML-configured bench tool for bringing up a wiring without writing
// Go.
package galaxybus
