// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package allwinnergpio drives Allwinner sunxi-family SoC GPIO pins
// directly through their memory-mapped PIO controller registers,
// avoiding the per-toggle syscall cost of sysfs (platform/sysfsgpio).
// It is the fastest of this repository's galaxybus.Line backends and
// the one recommended for bit-bang timing on NanoPi/OrangePi boards
// (platform/boardpins).
package allwinnergpio

import (
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Each PIO bank (PA, PB, PC, ...) owns a 0x24-byte register block: four
// config registers (8 pins each, 4 bits/pin), one data register, and
// pull registers that this backend does not touch.
const (
	bankStride   = 0x24
	dataRegister = 0x10
	pinsPerBank  = 32
)

// Pin is one memory-mapped GPIO line, addressed as bank*32+offset (PA0
// is number 0, PB0 is 32, and so on — the convention platform/boardpins
// assumes when resolving header names to Pin numbers).
type Pin struct {
	number int
	name   string

	mu   sync.Mutex
	bank *mappedBank
	bit  uint32
}

// String implements conn.Resource.
func (p *Pin) String() string { return p.name }

// Halt implements conn.Resource; nothing to release.
func (p *Pin) Halt() error { return nil }

// Name implements pin.Pin.
func (p *Pin) Name() string { return p.name }

// Number implements pin.Pin.
func (p *Pin) Number() int { return p.number }

// Function implements pin.Pin. Config register readback is not
// implemented; galaxybus always knows which direction it set a pin to.
func (p *Pin) Function() string { return "IN/OUT" }

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.IN, gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (p *Pin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	default:
		return fmt.Errorf("allwinnergpio: %s: unsupported function", p.name)
	}
}

// In implements gpio.PinIn. This backend has no interrupt path: the
// bus samples Read() every sub-bit tick, so edge must be gpio.NoEdge.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("allwinnergpio: %s: edge detection not supported", p.name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bank.setFunction(p.bit, pinFuncInput)
	if pull == gpio.PullDown || pull == gpio.PullUp {
		p.bank.setPull(p.bit, pull)
	}
	return nil
}

// Read implements gpio.PinIn.
func (p *Pin) Read() gpio.Level {
	return p.bank.read(p.bit)
}

// WaitForEdge implements gpio.PinIn by polling Read in a tight loop;
// this backend never configures interrupt-capable registers.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return pollForEdge(p, timeout)
}

// Pull implements gpio.PinIn. Reading back the pull configuration is
// not implemented; galaxybus never needs it.
func (p *Pin) Pull() gpio.Pull { return gpio.PullNoChange }

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull { return gpio.PullNoChange }

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bank.setFunction(p.bit, pinFuncOutput)
	p.bank.write(p.bit, l)
	return nil
}

// PWM implements gpio.PinOut. Not supported by this backend.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return fmt.Errorf("allwinnergpio: %s: pwm not supported", p.name)
}

const (
	pinFuncInput  = 0
	pinFuncOutput = 1
)

// mappedBank is one PIO bank's mmap'd register window.
type mappedBank struct {
	regs []uint32 // 32-bit register view over the mmap'd page
}

func (m *mappedBank) configRegisterIndex(bit uint32) (regIdx int, shift uint32) {
	regIdx = int(bit / 8)
	shift = (bit % 8) * 4
	return
}

func (m *mappedBank) setFunction(bit uint32, fn uint32) {
	idx, shift := m.configRegisterIndex(bit)
	v := m.regs[idx]
	v &^= 0xF << shift
	v |= (fn & 0xF) << shift
	m.regs[idx] = v
}

func (m *mappedBank) setPull(bit uint32, pull gpio.Pull) {
	// Pull registers sit after the four config and one data register;
	// left unimplemented since galaxybus drives both DE and the data
	// line as push-pull outputs and never relies on an internal pull.
	_ = bit
	_ = pull
}

func (m *mappedBank) read(bit uint32) gpio.Level {
	dataIdx := dataRegister / 4
	return gpio.Level(m.regs[dataIdx]&(1<<bit) != 0)
}

func (m *mappedBank) write(bit uint32, l gpio.Level) {
	dataIdx := dataRegister / 4
	if l {
		m.regs[dataIdx] |= 1 << bit
	} else {
		m.regs[dataIdx] &^= 1 << bit
	}
}

// Pins is every bank*32+offset pin this driver has mapped, keyed by
// number. Populated once by driver Init.
var Pins map[int]*Pin

type driverGPIO struct {
	mu    sync.Mutex
	mem   []byte
	banks map[int]*mappedBank
}

func (d *driverGPIO) String() string          { return "allwinner-gpio" }
func (d *driverGPIO) Prerequisites() []string { return nil }
func (d *driverGPIO) After() []string         { return nil }

// Init mmaps /dev/mem over the PIO controller's register window and
// populates Pins for banks PA through PL (the range every sunxi SoC in
// this family implements, even if a given board only bonds out a
// subset of pins on its header — platform/boardpins filters those).
func (d *driverGPIO) Init() (bool, error) {
	base, err := pioBaseAddress()
	if err != nil {
		return false, err
	}
	const bankCount = 12 // PA..PL
	const mapSize = bankCount * bankStride

	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return false, fmt.Errorf("allwinnergpio: open /dev/mem: %w", err)
	}
	defer f.Close()

	// mmap offsets must be page aligned; the PIO window usually is not
	// (e.g. 0x01C20800), so map from the enclosing page.
	pageBase := base &^ uint64(os.Getpagesize()-1)
	delta := int(base - pageBase)
	mem, err := unix.Mmap(int(f.Fd()), int64(pageBase), delta+mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return false, fmt.Errorf("allwinnergpio: mmap: %w", err)
	}
	d.mem = mem
	d.banks = map[int]*mappedBank{}
	Pins = map[int]*Pin{}

	for bank := 0; bank < bankCount; bank++ {
		offset := delta + bank*bankStride
		regs := bytesToUint32Slice(mem[offset : offset+bankStride])
		mb := &mappedBank{regs: regs}
		d.banks[bank] = mb
		for line := 0; line < pinsPerBank; line++ {
			number := bank*pinsPerBank + line
			Pins[number] = &Pin{
				number: number,
				name:   fmt.Sprintf("P%c%d", rune('A'+bank), line),
				bank:   mb,
				bit:    uint32(line),
			}
		}
	}
	return true, nil
}

func init() {
	driverreg.MustRegister(&drvGPIO)
}

var drvGPIO driverGPIO

// bytesToUint32Slice reinterprets an mmap'd byte window as a slice of
// 32-bit registers, the layout every sunxi PIO bank uses.
func bytesToUint32Slice(b []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// pollForEdge busy-polls p.Read until it changes or timeout elapses. A
// negative timeout polls forever.
func pollForEdge(p *Pin, timeout time.Duration) bool {
	const pollPeriod = 50 * time.Microsecond
	start := time.Now()
	prev := p.Read()
	for {
		if cur := p.Read(); cur != prev {
			return true
		}
		if timeout >= 0 && time.Since(start) >= timeout {
			return false
		}
		time.Sleep(pollPeriod)
	}
}

var _ conn.Resource = &Pin{}
var _ gpio.PinIn = &Pin{}
var _ gpio.PinOut = &Pin{}
var _ gpio.PinIO = &Pin{}
var _ pin.PinFunc = &Pin{}
