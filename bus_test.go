// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus_test

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/galaxybus/galaxybus"
	"github.com/galaxybus/galaxybus/platform/loopback"
)

const testSlaveAddress = 0x01

// pair is two Bus instances wired to one shared loopback.Wire, their
// clocks stepped together by advance. There is no single instance that
// can both transmit and receive its own signal (RS485 is half-duplex),
// so "loopback" here means two cooperating instances rather than one
// instance talking to itself.
type pair struct {
	master, slave       *galaxybus.Bus
	masterClk, slaveClk *loopback.ManualTimer
}

func newPair(t *testing.T) *pair {
	t.Helper()
	wire := loopback.NewWire()
	mTap := loopback.NewTap(wire)
	sTap := loopback.NewTap(wire)
	p := &pair{
		masterClk: &loopback.ManualTimer{},
		slaveClk:  &loopback.ManualTimer{},
	}
	var err error
	p.master, err = galaxybus.New(galaxybus.Config{
		Line:  mTap,
		DE:    mTap.DE(),
		Role:  galaxybus.RoleMaster,
		Timer: p.masterClk,
	})
	if err != nil {
		t.Fatalf("New(master): %s", err)
	}
	p.slave, err = galaxybus.New(galaxybus.Config{
		Line:    sTap,
		DE:      sTap.DE(),
		Role:    galaxybus.RoleSlave,
		Address: testSlaveAddress,
		Timer:   p.slaveClk,
	})
	if err != nil {
		t.Fatalf("New(slave): %s", err)
	}
	if err := p.master.Start(); err != nil {
		t.Fatalf("master.Start: %s", err)
	}
	if err := p.slave.Start(); err != nil {
		t.Fatalf("slave.Start: %s", err)
	}
	t.Cleanup(func() {
		p.master.End()
		p.slave.End()
	})
	return p
}

// advanceUntil steps both clocks together, up to maxTicks times, until
// ready reports true.
func (p *pair) advanceUntil(maxTicks int, ready func() bool) bool {
	for i := 0; i < maxTicks; i++ {
		p.masterClk.Tick()
		p.slaveClk.Tick()
		if ready() {
			return true
		}
	}
	return false
}

func TestRoundTripMasterToSlave(t *testing.T) {
	p := newPair(t)

	type result struct {
		n    int
		err  error
		buf  []byte
	}
	rxDone := make(chan result, 1)
	go func() {
		buf := make([]byte, galaxybus.MaxFrame)
		n, err := p.slave.Rx(buf, 5*time.Second)
		rxDone <- result{n, err, buf}
	}()

	// Give the Rx goroutine a moment to start blocking before driving
	// the clocks. RX_READY stays set until Rx collects the message, so a
	// later start would still see it.
	time.Sleep(5 * time.Millisecond)

	payload := []byte{testSlaveAddress, 0x10, 0x20, 0x30}
	if err := p.master.Tx(payload); err != nil {
		t.Fatalf("Tx: %s", err)
	}

	if !p.advanceUntil(5000, func() bool {
		select {
		case r := <-rxDone:
			rxDone <- r
			return true
		default:
			return false
		}
	}) {
		t.Fatal("slave never became ready within the tick budget")
	}

	r := <-rxDone
	if r.err != nil {
		t.Fatalf("Rx: %s", r.err)
	}
	got := r.buf[:r.n]
	if len(got) != len(payload) {
		t.Fatalf("Rx returned %d bytes, want %d (% x)", len(got), len(payload), got)
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("Rx payload = % x, want % x", got, payload)
		}
	}
}

func TestAddressMismatchIsNotDelivered(t *testing.T) {
	p := newPair(t)

	rxDone := make(chan struct{}, 1)
	go func() {
		buf := make([]byte, galaxybus.MaxFrame)
		_, _ = p.slave.Rx(buf, 300*time.Millisecond)
		rxDone <- struct{}{}
	}()
	time.Sleep(5 * time.Millisecond)

	other := byte(testSlaveAddress + 1)
	if err := p.master.Tx([]byte{other, 0xAA}); err != nil {
		t.Fatalf("Tx: %s", err)
	}

	// Drive enough ticks for the frame to be sent and ignored, then
	// confirm RX_READY never fired: Ready() stays false.
	p.advanceUntil(2000, func() bool { return false })
	if p.slave.Ready() {
		t.Fatal("Ready() reports a message after an address mismatch")
	}
	<-rxDone
}

func TestBroadcastIsDelivered(t *testing.T) {
	p := newPair(t)

	type result struct {
		n   int
		err error
		buf []byte
	}
	rxDone := make(chan result, 1)
	go func() {
		buf := make([]byte, galaxybus.MaxFrame)
		n, err := p.slave.Rx(buf, 2*time.Second)
		rxDone <- result{n, err, buf}
	}()
	time.Sleep(5 * time.Millisecond)

	payload := []byte{galaxybus.Broadcast, 0x7E}
	if err := p.master.Tx(payload); err != nil {
		t.Fatalf("Tx: %s", err)
	}

	p.advanceUntil(2000, func() bool { return false })
	r := <-rxDone
	if r.err != nil {
		t.Fatalf("Rx: %s", r.err)
	}
	if r.n != len(payload) || r.buf[0] != galaxybus.Broadcast {
		t.Fatalf("Rx = % x, want % x", r.buf[:r.n], payload)
	}
}

func TestTxRejectsOversizedPayload(t *testing.T) {
	p := newPair(t)
	big := make([]byte, galaxybus.MaxFrame) // one over the limit once the checksum byte is added
	if err := p.master.Tx(big); err != galaxybus.TooBig {
		t.Fatalf("Tx(oversized) = %v, want TooBig", err)
	}
}

func TestTxEmptyFrameIsValid(t *testing.T) {
	p := newPair(t)
	if err := p.master.Tx(nil); err != nil {
		t.Fatalf("Tx(nil) = %s, want nil", err)
	}
}

func TestPollRoundTrip(t *testing.T) {
	p := newPair(t)

	// The slave's reply, addressed to the master, is preloaded before the
	// poll: a slave Tx only goes out once an addressed message has ended
	// (see Bus.Tx), so it must be queued before the poll arrives.
	reply := []byte{galaxybus.MasterAddress, 0x01, 0x02}
	if err := p.slave.Tx(reply); err != nil {
		t.Fatalf("slave Tx: %s", err)
	}

	resp := make([]byte, galaxybus.MaxFrame)
	done := make(chan struct {
		n   int
		err error
	}, 1)
	go func() {
		n, err := p.master.Poll(testSlaveAddress, []byte{0x01, 0x02}, resp, 2*time.Second)
		done <- struct {
			n   int
			err error
		}{n, err}
	}()

	p.advanceUntil(8000, func() bool { return false })
	r := <-done
	if r.err != nil {
		t.Fatalf("Poll: %s", r.err)
	}
	want := []byte{galaxybus.MasterAddress, 0x01, 0x02}
	got := resp[:r.n]
	if len(got) != len(want) {
		t.Fatalf("Poll reply = % x, want % x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Poll reply = % x, want % x", got, want)
		}
	}
}

// oversampleTicksPerBit mirrors the bus's fixed 3x sub-bit sampling
// rate (spec section 4.1): a level held on the wire for this many
// clock ticks is what the receiver considers one stable bit.
const oversampleTicksPerBit = 3

// errFramePair wires a real slave Bus to a bare loopback.Tap that the
// test drives directly, bit by bit, instead of through Tx/txBuf. It
// exists to hand the rx state machine byte sequences no well-formed Tx
// call could ever produce: a corrupt checksum byte, a stop bit held
// low, a start-bit edge that doesn't hold, or a frame longer than
// MaxFrame.
type errFramePair struct {
	slave  *galaxybus.Bus
	clk    *loopback.ManualTimer
	sender *loopback.Tap
}

func newErrFramePair(t *testing.T) *errFramePair {
	t.Helper()
	wire := loopback.NewWire()
	sTap := loopback.NewTap(wire)
	senderTap := loopback.NewTap(wire)
	clk := &loopback.ManualTimer{}

	slave, err := galaxybus.New(galaxybus.Config{
		Line:    sTap,
		DE:      sTap.DE(),
		Role:    galaxybus.RoleSlave,
		Address: testSlaveAddress,
		Timer:   clk,
	})
	if err != nil {
		t.Fatalf("New(slave): %s", err)
	}
	if err := slave.Start(); err != nil {
		t.Fatalf("slave.Start: %s", err)
	}
	if err := senderTap.DE().Out(gpio.High); err != nil {
		t.Fatalf("sender DE: %s", err)
	}
	t.Cleanup(func() { slave.End() })
	return &errFramePair{slave: slave, clk: clk, sender: senderTap}
}

// driveBit holds level on the wire for one full bit period, ticking
// the shared clock once per sub-bit so the slave samples it.
func (p *errFramePair) driveBit(level gpio.Level) {
	_ = p.sender.Out(level)
	for i := 0; i < oversampleTicksPerBit; i++ {
		p.clk.Tick()
	}
}

// driveByte bit-bangs one well-formed LSB-first 8-N-1 byte: an
// active-low start bit, 8 data bits, an active-high stop bit.
func (p *errFramePair) driveByte(value byte) {
	p.driveBit(gpio.Low)
	for i := uint(0); i < 8; i++ {
		level := gpio.Low
		if value&(1<<i) != 0 {
			level = gpio.High
		}
		p.driveBit(level)
	}
	p.driveBit(gpio.High)
}

// driveByteBadStop is driveByte with the stop bit held low instead of
// high: a zero value produces a Break condition, a nonzero value a
// StopBit error (spec section 4.2).
func (p *errFramePair) driveByteBadStop(value byte) {
	p.driveBit(gpio.Low)
	for i := uint(0); i < 8; i++ {
		level := gpio.Low
		if value&(1<<i) != 0 {
			level = gpio.High
		}
		p.driveBit(level)
	}
	p.driveBit(gpio.Low)
}

// driveSpuriousEdge pulls the wire low for a single tick and releases
// it, short of a full start-bit period, so the rx state machine reads
// its sample point high and reports StartBit instead of framing a byte.
func (p *errFramePair) driveSpuriousEdge() {
	_ = p.sender.Out(gpio.Low)
	p.clk.Tick()
	_ = p.sender.Out(gpio.High)
	p.clk.Tick()
}

// settle releases the wire to idle high and ticks the clock through an
// inter-message gap well past the default (10 bit times), letting a
// pending message's end-of-message processing complete.
func (p *errFramePair) settle() {
	_ = p.sender.Out(gpio.High)
	for i := 0; i < 20*oversampleTicksPerBit; i++ {
		p.clk.Tick()
	}
}

func TestRxReportsChecksumMismatch(t *testing.T) {
	p := newErrFramePair(t)
	payload := []byte{testSlaveAddress, 0x42}
	good := galaxybus.FrameChecksum(payload)

	p.driveByte(payload[0])
	p.driveByte(payload[1])
	p.driveByte(good + 1) // deliberately wrong
	p.settle()

	buf := make([]byte, galaxybus.MaxFrame)
	if _, err := p.slave.Rx(buf, time.Millisecond); err != galaxybus.Checksum {
		t.Fatalf("Rx = %v, want Checksum", err)
	}
}

func TestRxReportsStopBitError(t *testing.T) {
	p := newErrFramePair(t)
	p.driveByte(testSlaveAddress)
	p.driveByteBadStop(0xAB) // nonzero byte, stop bit held low
	p.settle()

	buf := make([]byte, galaxybus.MaxFrame)
	if _, err := p.slave.Rx(buf, time.Millisecond); err != galaxybus.StopBit {
		t.Fatalf("Rx = %v, want StopBit", err)
	}
}

func TestRxReportsBreak(t *testing.T) {
	p := newErrFramePair(t)
	p.driveByte(testSlaveAddress)
	p.driveByteBadStop(0x00) // zero byte, stop bit held low
	p.settle()

	buf := make([]byte, galaxybus.MaxFrame)
	if _, err := p.slave.Rx(buf, time.Millisecond); err != galaxybus.Break {
		t.Fatalf("Rx = %v, want Break", err)
	}
}

func TestRxReportsStartBitOnSpuriousEdge(t *testing.T) {
	p := newErrFramePair(t)
	p.driveByte(testSlaveAddress)
	p.driveSpuriousEdge()
	p.settle()

	buf := make([]byte, galaxybus.MaxFrame)
	if _, err := p.slave.Rx(buf, time.Millisecond); err != galaxybus.StartBit {
		t.Fatalf("Rx = %v, want StartBit", err)
	}
}

func TestRxReportsTooBig(t *testing.T) {
	p := newErrFramePair(t)
	p.driveByte(testSlaveAddress)
	for i := 0; i < 70; i++ {
		p.driveByte(0x01) // well past MaxFrame, never reachable through Tx
	}
	p.settle()

	buf := make([]byte, galaxybus.MaxFrame)
	if _, err := p.slave.Rx(buf, time.Millisecond); err != galaxybus.TooBig {
		t.Fatalf("Rx = %v, want TooBig", err)
	}
}
