// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "periph.io/x/conn/v3/gpio"

// rxPhase is the rx state machine's state (spec section 4.2):
// IDLE -> START -> DATA -> STOP -> (GAP, watching for either the next
// byte's start bit or end-of-message) -> IDLE again.
type rxPhase int

const (
	rxIdle rxPhase = iota
	rxStart
	rxData
	rxStop
	rxGap
)

// rxTick advances the rx state machine by one sub-bit tick (spec
// section 4.1: 3x oversampling, mid-bit sampling).
func (b *Bus) rxTick() {
	switch b.rxPhase {
	case rxIdle:
		if b.txDue.Load() && !b.txHold.Load() {
			b.beginTxMode()
			return
		}
		if b.cfg.Line.Read() == gpio.Low {
			b.rxBeginMessage()
		}
	case rxGap:
		if b.cfg.Line.Read() == gpio.Low {
			b.rxBeginByte()
			return
		}
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.rxGapTicks--
		if b.rxGapTicks == 0 {
			b.rxEndOfMessage()
		}
	default: // rxStart, rxData, rxStop
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		level := b.cfg.Line.Read()
		switch b.rxPhase {
		case rxStart:
			b.rxSampleStart(level)
		case rxData:
			b.rxSampleData(level)
		case rxStop:
			b.rxSampleStop(level)
		}
	}
}

// rxBeginMessage resets per-message state and starts framing the first
// byte; it is only reached from true rxIdle (no message in progress).
func (b *Bus) rxBeginMessage() {
	b.rxPos = 0
	b.rxSum = newChecksum()
	b.rxSumPrev = b.rxSum
	b.rxErr = 0
	b.rxIgnore = false
	b.rxFirstSeen = false
	b.events.clear(evRxIdle)
	b.rxBeginByte()
}

// rxBeginByte arms the 3x-oversampled sampler so the next sample lands
// mid-start-bit: one sub-bit tick, not a full bit time, since the
// falling edge that triggered this call was itself detected roughly at
// the bit boundary (spec section 4.1).
func (b *Bus) rxBeginByte() {
	b.subBit = 1
	b.rxPhase = rxStart
}

func (b *Bus) rxSampleStart(level gpio.Level) {
	if level == gpio.High {
		// Spurious edge: not a real start bit.
		b.rxAbort(StartBit)
		return
	}
	b.shiftReg = 0
	b.dataBitsLeft = 8
	b.rxPhase = rxData
}

func (b *Bus) rxSampleData(level gpio.Level) {
	var bit byte
	if level == gpio.High {
		bit = 1
	}
	b.shiftReg = (b.shiftReg >> 1) | (bit << 7)
	b.dataBitsLeft--
	if b.dataBitsLeft == 0 {
		b.rxPhase = rxStop
	}
}

func (b *Bus) rxSampleStop(level gpio.Level) {
	value := b.shiftReg
	if level == gpio.Low {
		if value != 0 {
			b.rxSetErr(StopBit)
		} else {
			b.rxSetErr(Break)
		}
	}
	// The assembled byte is processed regardless of a stop-bit error
	// (spec section 4.2, section 9 Open Question (c)).
	b.rxByteDone(value)
}

// rxByteDone applies the address filter, appends the byte to the
// message buffer and restarts the inter-byte/gap countdown.
func (b *Bus) rxByteDone(value byte) {
	if !b.rxFirstSeen {
		if value == 0 {
			// Leading zero before the real first byte: resynchronize,
			// discard it silently (spec section 4.2, address filter).
			b.rxArmGap()
			return
		}
		b.rxFirstSeen = true
		if value != b.address && value != Broadcast && b.address != Broadcast {
			b.rxIgnore = true
		}
	}
	if !b.rxIgnore {
		if b.rxPos >= MaxFrame {
			b.rxSetErr(TooBig)
		} else {
			b.rxSumPrev = b.rxSum
			b.rxSum = b.rxSum.add(value)
			b.rxBuf[b.rxPos] = value
			b.rxPos++
		}
	}
	b.rxArmGap()
}

// rxArmGap restarts the idle-gap countdown and switches to rxGap,
// watching for either the next byte's start bit or end-of-message.
func (b *Bus) rxArmGap() {
	b.rxGapTicks = b.gap
	b.subBit = oversample
	b.rxPhase = rxGap
}

// rxAbort handles a framing error that prevents byte assembly
// (spurious start-bit edge). If no byte of the current message has been
// seen yet, the attempt is discarded silently and the bus returns to
// true idle; mid-message, the error is latched onto the in-progress
// message and framing resumes watching for the next byte (spec section
// 9 Open Question (b): rxignore-style stickiness applies to latched
// errors too — the first error wins, see rxSetErr).
func (b *Bus) rxAbort(err Code) {
	if b.rxFirstSeen {
		b.rxSetErr(err)
		b.rxArmGap()
		return
	}
	b.rxPhase = rxIdle
}

// rxSetErr latches err unless an error is already latched for this
// message (spec section 4.2, error precedence: first error wins).
func (b *Bus) rxSetErr(err Code) {
	if b.rxErr == 0 {
		b.rxErr = err
	}
}

// rxEndOfMessage finalizes the message: validates the checksum,
// delivers it to the caller via rxSeq/rxDoneLen/rxDoneErr, and — for a
// slave with a tx frame pending — switches straight to tx mode.
func (b *Bus) rxEndOfMessage() {
	finalErr := b.rxErr
	if !b.rxIgnore && b.rxPos > 0 {
		last := b.rxBuf[b.rxPos-1]
		if byte(b.rxSumPrev) != last && finalErr == 0 {
			finalErr = Checksum
		}
	}
	if !b.rxIgnore {
		b.rxDoneLen = b.rxPos
		b.rxDoneErr = finalErr
		b.rxSeq.Add(1)
		b.events.set(evRxReady)
	}
	b.events.set(evRxIdle)
	b.rxPhase = rxIdle
	b.subBit = oversample

	// A slave only answers a message actually addressed to it: promote a
	// preloaded Tx (spec section 4.5) to due now that we know this.
	if b.cfg.Role == RoleSlave && b.rxFirstSeen && !b.rxIgnore && b.txQueued.Load() {
		b.txQueued.Store(false)
		b.txDue.Store(true)
	}
	if b.cfg.Role == RoleSlave && b.txDue.Load() && !b.txHold.Load() {
		b.beginTxMode()
	}
}
