// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package uartassist is an experimental, deliberately incomplete
// alternative to the bit-bang galaxybus.Bus: it frames and sends Galaxy
// bus messages over a real hardware UART, using the kernel's own RS485
// direction control (Linux's TIOCSRS485 ioctl, through
// github.com/daedaluz/goserial) instead of toggling a DE pin by hand.
//
// It does not implement the bus's polling/slave-turnaround semantics
// or its bit-level timing (spec's open question on whether a future
// revision should move to hardware UART assistance) — only single
// frame send and single frame receive, each a standalone operation.
// Hosts with a spare hardware UART and an RS485 transceiver wired to
// its RTS-controlled direction pin can use this instead of dedicating
// a GPIO pin pair and a software timer to galaxybus.Bus.
package uartassist

import (
	"errors"
	"fmt"
	"time"

	serial "github.com/daedaluz/goserial"
	"github.com/galaxybus/galaxybus"
)

// Port is an open hardware UART configured for Galaxy bus framing (8-N-1)
// with RS485 auto-direction enabled.
type Port struct {
	port *serial.Port
}

// Open opens path (e.g. "/dev/ttyS1") at baud with the kernel's RS485
// transceiver-direction control enabled, so the hardware toggles the
// line driver around each transmission instead of galaxybus.Bus's
// directionController doing it from a GPIO pin.
func Open(path string, baud uint32) (*Port, error) {
	opts := serial.NewOptions()
	p, err := serial.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("uartassist: open %s: %w", path, err)
	}

	attrs, err := p.GetAttr2()
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("uartassist: get attrs: %w", err)
	}
	attrs.MakeRaw()
	attrs.SetCustomSpeed(baud)
	if err := p.SetAttr2(serial.TCSANOW, attrs); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("uartassist: set attrs: %w", err)
	}

	if err := p.SetRS485(&serial.RS485{
		Flags: serial.RS485Enabled | serial.RS485RTSOnSend,
	}); err != nil {
		// Not every UART exposes RS485 direction control; Open fails on
		// those rather than returning a port without it.
		_ = p.Close()
		return nil, fmt.Errorf("uartassist: enable rs485: %w", err)
	}

	return &Port{port: p}, nil
}

// Close closes the underlying UART.
func (p *Port) Close() error { return p.port.Close() }

// ErrFrameTooBig mirrors galaxybus.TooBig: SendFrame returns it for an
// oversized frame before any byte has reached the wire, and
// ReceiveFrame returns it when an incoming frame runs past the limit.
var ErrFrameTooBig = errors.New("uartassist: frame exceeds the 64-byte frame limit")

// SendFrame writes addr followed by payload followed by the Galaxy bus
// checksum byte, in one Write call so the kernel driver asserts RS485
// transmit-direction for the whole frame.
func (p *Port) SendFrame(addr byte, payload []byte) error {
	if len(payload)+2 > galaxybus.MaxFrame {
		return ErrFrameTooBig
	}
	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, addr)
	frame = append(frame, payload...)
	frame = append(frame, galaxybus.FrameChecksum(frame))
	_, err := p.port.Write(frame)
	return err
}

// ReceiveFrame reads one frame, using read-call inactivity as the
// frame boundary: each Read blocks up to gap for the next byte, and the
// frame is considered complete once a read times out with at least one
// byte already collected. It returns the payload (address and trailing
// checksum stripped) and validates the checksum.
func (p *Port) ReceiveFrame(buf []byte, gap time.Duration) (int, error) {
	p.port.SetReadTimeout(gap)
	var frame []byte
	one := make([]byte, 1)
	for {
		n, err := p.port.Read(one)
		if n == 0 || err != nil {
			if len(frame) == 0 {
				if err != nil {
					return 0, err
				}
				continue
			}
			break
		}
		frame = append(frame, one[0])
		if len(frame) > galaxybus.MaxFrame {
			return 0, ErrFrameTooBig
		}
	}

	if len(frame) < 2 {
		return 0, galaxybus.TooBig
	}
	payload, want := frame[1:len(frame)-1], frame[len(frame)-1]
	if galaxybus.FrameChecksum(frame[:len(frame)-1]) != want {
		return 0, galaxybus.Checksum
	}
	n := copy(buf, payload)
	return n, nil
}
