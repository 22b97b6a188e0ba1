// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

// Config is the galaxyctl.toml layout. Pins can be named two ways:
// directly by their periph gpioreg name (Line, DE, RE), or by board and
// header position (Board, LineHeader, DEHeader, REHeader) for the
// boards platform/boardpins knows about. UART switches to the
// hardware-assisted transport (platform/uartassist) instead of
// bit-banging Line/DE/RE.
type Config struct {
	Debug bool

	Role    string // "master" or "slave"
	Address int    // 0 => package default for Role

	Board      string
	Line       string
	DE         string
	RE         string
	LineHeader int
	DEHeader   int
	REHeader   int

	TxPre  int
	TxPost int
	Gap    int

	UART     string // e.g. "/dev/ttyS1"; set to use platform/uartassist
	UARTBaud int

	// Poll lists the slave addresses a master repeatedly queries, each
	// with the request payload to send (hex-encoded).
	Poll []PollTarget
}

// PollTarget is one entry of Config.Poll.
type PollTarget struct {
	Address int
	Payload string // hex-encoded
}
