// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

// checksum implements the Galaxy bus's additive 1's-complement
// checksum (spec section 4.2): seed 0xAA, end-around carry on byte
// overflow, 8-bit wrap. The trailing checksum byte of a frame equals
// the running checksum over every preceding byte.
type checksum byte

func newChecksum() checksum { return 0xAA }

// add folds b into the running sum.
func (c checksum) add(b byte) checksum {
	sum := int(c) + int(b)
	if sum > 0xFF {
		sum++
	}
	return checksum(sum & 0xFF)
}

// sum computes the checksum byte over buf from scratch; used by Tx to
// append the trailing checksum and by tests to cross-check the
// incremental rx implementation.
func sum(buf []byte) byte {
	c := newChecksum()
	for _, b := range buf {
		c = c.add(b)
	}
	return byte(c)
}

// FrameChecksum computes the Galaxy bus frame checksum over buf. It is
// exported for platform/uartassist, which builds and validates frames
// independently of Bus.
func FrameChecksum(buf []byte) byte { return sum(buf) }
