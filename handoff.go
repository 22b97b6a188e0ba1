// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "time"

// txBusyTimeout is how long Tx waits for a prior transmission to
// finish before giving up with Busy (spec section 6: Busy's "tx could
// not acquire the transmitter within 100ms").
const txBusyTimeout = 100 * time.Millisecond

// Tx queues payload for transmission and returns as soon as it is
// queued, not once it has gone out on the wire. payload must not
// exceed MaxFrame-1 bytes; the trailing checksum byte is computed and
// appended automatically. If a previous frame is still pending or
// transmitting, Tx waits up to 100ms for it to finish (spec section 6,
// Busy) before giving up.
func (b *Bus) Tx(payload []byte) error {
	if len(payload) > MaxFrame-1 {
		return TooBig
	}

	b.txMu.Lock()
	defer b.txMu.Unlock()

	if !b.waitTxIdleLocked(txBusyTimeout) {
		return Busy
	}

	n := copy(b.txBuf[:], payload)
	b.txBuf[n] = sum(payload)
	b.txLen = n + 1

	// Cleared by the caller on submit; set by the tick loop once the
	// frame has gone out (spec section 4.5's event table).
	b.events.clear(evTxIdle)

	// A master sends as soon as the bus is idle. A slave only preloads
	// the frame here: rxEndOfMessage promotes txQueued to txDue once an
	// addressed poll actually arrives, so an unsolicited Tx never goes
	// out on the wire (spec section 4.5).
	if b.cfg.Role == RoleMaster {
		b.txDue.Store(true)
	} else {
		b.txQueued.Store(true)
	}
	return nil
}

// waitTxIdleLocked waits until TX_IDLE is set or timeout elapses. Tx
// clears TX_IDLE when it queues a frame and the tick loop sets it again
// only once that frame has been sent, so a slave's frame still waiting
// for an addressed message keeps Tx waiting too.
func (b *Bus) waitTxIdleLocked(timeout time.Duration) bool {
	return b.events.waitSet(evTxIdle, timeout)
}

// Hold suspends automatic tx-mode entry: a master will not send a
// queued response (and a slave will not answer an addressed poll) until
// Resume is called. It has no effect on a transmission already under
// way.
func (b *Bus) Hold() { b.txHold.Store(true) }

// Resume reverses Hold.
func (b *Bus) Resume() { b.txHold.Store(false) }

// Ready reports whether a received message is waiting to be collected
// with Rx, without blocking.
func (b *Bus) Ready() bool {
	return b.events.isSet(evRxReady)
}

// Rx waits up to timeout for a received message and copies its payload
// (the trailing checksum byte is not included) into buf, returning the
// number of bytes copied. A timeout is not an error: like an empty
// frame, it is reported as (0, nil) (spec section 4.5, section 7).
//
// Rx tracks delivery with an 8-bit sequence counter: each call bumps
// its own watermark and compares it against the tick loop's message
// counter (spec section 4.5). If a second message completed while the
// caller was away from Rx, the watermark falls a step behind and this
// call reports Missed without consuming the counter gap — the very
// next Rx call then catches back up and delivers the newest message,
// not the one that was missed.
func (b *Bus) Rx(buf []byte, timeout time.Duration) (int, error) {
	if !b.events.waitSet(evRxReady, timeout) {
		return 0, nil
	}

	b.rxMu.Lock()
	defer b.rxMu.Unlock()

	b.rxDue++
	seq := byte(b.rxSeq.Load())
	if b.rxDue != seq {
		return 0, Missed
	}

	if b.rxDoneLen == 0 {
		b.events.clear(evRxReady)
		return 0, nil
	}
	if b.rxDoneErr != 0 {
		b.events.clear(evRxReady)
		return 0, b.rxDoneErr
	}

	payloadLen := b.rxDoneLen - 1
	n := copy(buf, b.rxBuf[:payloadLen])
	b.events.clear(evRxReady)
	return n, nil
}
