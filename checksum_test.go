// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "testing"

func TestNewChecksumSeed(t *testing.T) {
	if got := byte(newChecksum()); got != 0xAA {
		t.Errorf("newChecksum() = 0x%02x, want 0xAA", got)
	}
}

func TestChecksumEndAroundCarry(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want byte
	}{
		{"empty", nil, 0xAA},
		{"single byte no carry", []byte{0x01}, 0xAB},
		{"carry on overflow", []byte{0xFF, 0xFF}, 0xAA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sum(tt.buf); got != tt.want {
				t.Errorf("sum(%v) = 0x%02x, want 0x%02x", tt.buf, got, tt.want)
			}
		})
	}
}

func TestChecksumIncrementalMatchesBatch(t *testing.T) {
	buf := []byte{0x11, 0x00, 0x01, 0x02, 0x03, 0xFF, 0x80}
	c := newChecksum()
	for _, b := range buf {
		c = c.add(b)
	}
	if got, want := byte(c), sum(buf); got != want {
		t.Errorf("incremental checksum = 0x%02x, want 0x%02x", got, want)
	}
}

func TestFrameChecksumExported(t *testing.T) {
	buf := []byte{0x11, 0x22, 0x33}
	if got, want := FrameChecksum(buf), sum(buf); got != want {
		t.Errorf("FrameChecksum = 0x%02x, want 0x%02x", got, want)
	}
}
