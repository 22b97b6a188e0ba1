// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Protocol-fixed constants (spec section 6).
const (
	// MaxFrame is the fixed frame capacity: payload bytes plus the
	// trailing checksum byte.
	MaxFrame = 64

	// MasterAddress is the well-known address a master uses when no
	// explicit address is configured.
	MasterAddress byte = 0x11

	// Broadcast is the destination address meaning "every slave".
	Broadcast byte = 0xFF

	defaultTxPre  = 2
	defaultTxPost = 2
	defaultGap    = 10

	baud       = 9600
	oversample = 3 // sub-bit ticks per bit time
)

// Role selects master (polling) or slave (respond-when-addressed)
// behavior (spec section 3).
type Role int

const (
	RoleMaster Role = iota
	RoleSlave
)

type mode int

const (
	modeRx mode = iota
	modeTx
)

// Config configures a Bus. Line, DE are required; RE and Debug are
// optional. Timer defaults to a SoftTimer if nil.
type Config struct {
	Line  Line   // shared or dedicated tx/rx data line
	DE    OutPin // driver-enable
	RE    OutPin // receiver-enable; nil if tied to DE or unused
	Debug OutPin // optional debug clock, toggled once per sub-bit tick
	Timer Timer  // periodic alarm source; defaults to &SoftTimer{}

	Role    Role
	Address byte // 0 => MasterAddress for RoleMaster, else this device's address

	// TxPre, TxPost, Gap override the defaults (2, 2, 10 bit times)
	// when nonzero (spec section 4.6, SetTiming).
	TxPre, TxPost, Gap int
}

func (c *Config) validate() error {
	if c.Line == nil {
		return errors.New("galaxybus: Config.Line is required")
	}
	if c.DE == nil {
		return errors.New("galaxybus: Config.DE is required")
	}
	return nil
}

// Bus is the sole owned entity of this package: one RS485 bit-bang
// transceiver instance (spec section 3). Its fields fall into three
// single-writer zones — fields written only by the tick loop, fields
// written only by callers, and the event set written by both — per the
// concurrency model in spec section 5.
type Bus struct {
	cfg       Config
	address   byte
	txpre     int
	txpost    int
	gap       int
	timer     Timer
	direction *directionController
	events    *eventGroup

	started atomic.Bool
	mode    mode
	subBit  int

	// rx state: tick-loop-owned except where noted.
	rxPhase      rxPhase
	shiftReg     byte
	dataBitsLeft int
	rxBuf        [MaxFrame]byte
	rxPos        int
	rxSum        checksum
	rxSumPrev    checksum
	rxGapTicks   int
	rxErr        Code
	rxIgnore     bool
	rxFirstSeen  bool
	rxDoneLen    int
	rxDoneErr    Code
	rxSeq        atomic.Uint32

	// tx state: tick-loop-owned except txBuf/txLen (written by Tx under
	// txMu), txHold (written by Hold/Resume) and txDue/txQueued (set by
	// Tx; the tick loop clears txDue once the frame is sent and promotes
	// txQueued to txDue at the end of an addressed message).
	txPhase    txPhase
	txBuf      [MaxFrame]byte
	txLen      int
	txPos      int
	txShift    byte
	txBitsLeft int
	txGapTicks int
	txHold     atomic.Bool
	txDue      atomic.Bool
	txQueued   atomic.Bool // slave only: a frame is preloaded, awaiting an addressed poll

	txMu sync.Mutex
	rxMu sync.Mutex
	rxDue byte // caller-owned watermark, guarded by rxMu

	debugLevel gpio.Level
}

// New validates cfg and allocates a Bus. It does not touch any
// hardware: pins are only driven starting at Start (spec section 3,
// Lifecycle).
func New(cfg Config) (*Bus, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &Bus{cfg: cfg}
	b.txpre = firstNonZero(cfg.TxPre, defaultTxPre)
	b.txpost = firstNonZero(cfg.TxPost, defaultTxPost)
	b.gap = firstNonZero(cfg.Gap, defaultGap)
	if cfg.Address != 0 {
		b.address = cfg.Address
	} else {
		b.address = MasterAddress
	}
	b.timer = cfg.Timer
	if b.timer == nil {
		b.timer = &SoftTimer{}
	}
	b.events = newEventGroup()
	b.direction = &directionController{de: cfg.DE, re: cfg.RE, line: cfg.Line}
	return b, nil
}

func firstNonZero(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

// SetTiming overrides the nonzero timing fields (spec section 4.6).
// Zero values leave the current setting untouched.
func (b *Bus) SetTiming(pre, post, gap int) {
	if pre != 0 {
		b.txpre = pre
	}
	if post != 0 {
		b.txpost = post
	}
	if gap != 0 {
		b.gap = gap
	}
}

// Start arms the timer, enters rx mode and marks both TX_IDLE and
// RX_IDLE (spec section 4.6).
func (b *Bus) Start() error {
	if b.started.Swap(true) {
		return ErrAlreadyStarted
	}
	b.direction.toRx()
	b.mode = modeRx
	b.rxPhase = rxIdle
	b.subBit = oversample
	b.events.set(evTxIdle)
	b.events.set(evRxIdle)

	period := time.Second / time.Duration(baud*oversample)
	if err := b.timer.StartPeriodic(period, b.tick); err != nil {
		b.started.Store(false)
		return err
	}
	return nil
}

// End disables the timer. The Bus may not be reused after End.
func (b *Bus) End() {
	if !b.started.Swap(false) {
		return
	}
	b.timer.Stop()
}

// tick is the ISR-equivalent body: it advances exactly one of the rx or
// tx state machines, which are mutually exclusive at all times (spec
// invariant 1).
func (b *Bus) tick() {
	if b.cfg.Debug != nil {
		b.debugLevel = !b.debugLevel
		b.cfg.Debug.Out(b.debugLevel)
	}
	if b.mode == modeRx {
		b.rxTick()
	} else {
		b.txTick()
	}
}
