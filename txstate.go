// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import "periph.io/x/conn/v3/gpio"

// txPhase is the tx state machine's state (spec section 4.4): a
// pre-transmission guard gap, then one start/data/stop cycle per
// buffered byte back to back, then a post-transmission guard gap
// before the bus releases the line and returns to rx mode.
type txPhase int

const (
	txPreGap txPhase = iota
	txStart
	txData
	txStop
	txPostGap
)

// beginTxMode switches the bus from rx to tx mode. It is invoked from
// the rx state machine, either because a master's pending frame found
// the bus idle (rxTick's rxIdle branch) or because a slave just
// finished receiving an addressed poll and has a response queued
// (rxEndOfMessage). Mode switches only ever happen from rx, never
// mid-receive (spec invariant 1: rx and tx are mutually exclusive).
func (b *Bus) beginTxMode() {
	b.mode = modeTx
	b.direction.toTx()
	b.txPos = 0
	if b.txLen == 0 {
		b.txEndMessage()
		return
	}
	b.txGapTicks = b.txpre
	b.subBit = oversample
	b.txPhase = txPreGap
}

// txTick advances the tx state machine by one sub-bit tick.
func (b *Bus) txTick() {
	switch b.txPhase {
	case txPreGap:
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.txGapTicks--
		if b.txGapTicks <= 0 {
			b.txBeginByte()
		}
	case txStart:
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.txPhase = txData
		b.txOutputDataBit()
	case txData:
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.txBitsLeft--
		if b.txBitsLeft == 0 {
			_ = b.cfg.Line.Out(gpio.High) // stop bit
			b.txPhase = txStop
		} else {
			b.txOutputDataBit()
		}
	case txStop:
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.txPos++
		if b.txPos < b.txLen {
			b.txBeginByte()
		} else {
			b.txGapTicks = b.txpost
			b.txPhase = txPostGap
		}
	case txPostGap:
		b.subBit--
		if b.subBit > 0 {
			return
		}
		b.subBit = oversample
		b.txGapTicks--
		if b.txGapTicks <= 0 {
			b.txEndMessage()
		}
	}
}

// txBeginByte loads the next buffered byte into the shift register and
// drives the start bit.
func (b *Bus) txBeginByte() {
	b.txShift = b.txBuf[b.txPos]
	b.txBitsLeft = 8
	_ = b.cfg.Line.Out(gpio.Low) // start bit
	b.subBit = oversample
	b.txPhase = txStart
}

// txOutputDataBit drives the next data bit, LSB first, and shifts the
// register.
func (b *Bus) txOutputDataBit() {
	bit := b.txShift & 1
	b.txShift >>= 1
	if bit != 0 {
		_ = b.cfg.Line.Out(gpio.High)
	} else {
		_ = b.cfg.Line.Out(gpio.Low)
	}
}

// txEndMessage releases the bus back to rx mode and wakes any caller
// blocked in Tx waiting on TX_IDLE.
func (b *Bus) txEndMessage() {
	b.direction.toRx()
	b.mode = modeRx
	b.rxPhase = rxIdle
	b.subBit = oversample
	b.txDue.Store(false)
	b.events.set(evTxIdle)
}
