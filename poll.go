// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "time"

// Poll is the master-side request/response convenience built on top of
// Tx and Rx, grounded on the original firmware's galaxybus_poll: address
// a slave, send it payload, and wait up to timeout for its reply.
//
// The destination address is prepended to payload as the frame's first
// byte, matching the address filter every rx-side Bus applies to the
// first byte of a message.
func (b *Bus) Poll(addr byte, payload []byte, resp []byte, timeout time.Duration) (int, error) {
	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, addr)
	frame = append(frame, payload...)

	if err := b.Tx(frame); err != nil {
		return 0, err
	}
	return b.Rx(resp, timeout)
}
