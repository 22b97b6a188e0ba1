// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfsgpio implements a galaxybus.Line/galaxybus.OutPin backend
// over the legacy /sys/class/gpio interface, for boards with no
// register-mapped Allwinner SoC backend (platform/allwinnergpio).
package sysfsgpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pins is all the pins exported by GPIO sysfs, keyed by Linux GPIO
// number. Populated once by driver Init, read-only afterward.
var Pins map[int]*Pin

// Pin represents one GPIO pin as found by sysfs. It satisfies
// galaxybus.Pin and galaxybus.OutPin; wrapped in galaxybus.TriPin it
// serves as Config.Line on boards without a gpiochip character device.
type Pin struct {
	number int
	name   string
	root   string // e.g. /sys/class/gpio/gpio17/

	mu         sync.Mutex
	err        error // If open() failed
	direction  direction
	fDirection *os.File
	fValue     *os.File
	buf        [4]byte
}

// String implements conn.Resource.
func (p *Pin) String() string { return p.name }

// Halt implements conn.Resource. sysfs GPIO has no edge detection in
// this backend (the bus polls Read, it never waits on an edge), so
// there is nothing to stop.
func (p *Pin) Halt() error { return nil }

// Name implements pin.Pin.
func (p *Pin) Name() string { return p.name }

// Number implements pin.Pin.
func (p *Pin) Number() int { return p.number }

// Function implements pin.Pin.
func (p *Pin) Function() string { return string(p.Func()) }

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return pin.FuncNone
	}
	if _, err := seekRead(p.fDirection, p.buf[:]); err != nil {
		return pin.FuncNone
	}
	if p.buf[0] == 'i' && p.buf[1] == 'n' {
		p.direction = dIn
	} else if p.buf[0] == 'o' && p.buf[1] == 'u' && p.buf[2] == 't' {
		p.direction = dOut
	}
	switch p.direction {
	case dIn:
		if p.Read() {
			return gpio.IN_HIGH
		}
		return gpio.IN_LOW
	case dOut:
		if p.Read() {
			return gpio.OUT_HIGH
		}
		return gpio.OUT_LOW
	}
	return pin.FuncNone
}

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
		return p.wrap(errors.New("unsupported function"))
	}
}

// In implements gpio.PinIn. edge must be gpio.NoEdge: the bus samples
// Read() every sub-bit tick and never waits on a kernel edge
// notification (galaxybus.TriPin.ReleaseToInput, the bus's only caller
// of In, always passes gpio.NoEdge).
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return p.wrap(errors.New("doesn't support pull-up/pull-down"))
	}
	if edge != gpio.NoEdge {
		return p.wrap(errors.New("edge detection not supported by this backend"))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.direction == dIn {
		return nil
	}
	if err := p.open(); err != nil {
		return p.wrap(err)
	}
	if err := seekWrite(p.fDirection, bIn); err != nil {
		return p.wrap(err)
	}
	p.direction = dIn
	return nil
}

// Read implements gpio.PinIn.
func (p *Pin) Read() gpio.Level {
	if p.fValue == nil {
		return gpio.Low
	}
	if _, err := seekRead(p.fValue, p.buf[:]); err != nil {
		return gpio.Low
	}
	switch p.buf[0] {
	case '0':
		return gpio.Low
	case '1':
		return gpio.High
	}
	return gpio.Low
}

// WaitForEdge implements gpio.PinIn as a plain poll loop: this backend
// never uses kernel edge notification (see In), so it busy-polls Read
// at a fixed rate until level changes or timeout elapses.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
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

// Pull implements gpio.PinIn. sysfs GPIO exposes no pull resistor
// control.
func (p *Pin) Pull() gpio.Pull { return gpio.PullNoChange }

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull { return gpio.PullNoChange }

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.direction != dOut {
		if err := p.open(); err != nil {
			return p.wrap(err)
		}
		// "To ensure glitch free operation, values "low" and "high" may be
		// written to configure the GPIO as an output with that initial
		// value."
		d := bLow
		if l != gpio.Low {
			d = bHigh
		}
		if err := seekWrite(p.fDirection, d); err != nil {
			return p.wrap(err)
		}
		p.direction = dOut
		return nil
	}
	if l == gpio.Low {
		p.buf[0] = '0'
	} else {
		p.buf[0] = '1'
	}
	if err := seekWrite(p.fValue, p.buf[:1]); err != nil {
		return p.wrap(err)
	}
	return nil
}

// PWM implements gpio.PinOut. Not supported on sysfs.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return p.wrap(errors.New("pwm is not supported via sysfs"))
}

// open opens the gpio sysfs handles to value and direction. lock must
// be held.
func (p *Pin) open() error {
	if p.fDirection != nil || p.err != nil {
		return p.err
	}
	if drvGPIO.exportHandle == nil {
		return errors.New("sysfs gpio is not initialized")
	}
	if p.fValue, p.err = os.OpenFile(p.root+"value", os.O_RDWR, 0); p.err == nil {
		goto direction
	} else if !os.IsNotExist(p.err) {
		p.err = fmt.Errorf("need more access, try as root or setup udev rules: %w", p.err)
		return p.err
	}
	if _, p.err = drvGPIO.exportHandle.WriteString(strconv.Itoa(p.number)); p.err != nil && !isErrBusy(p.err) {
		if os.IsPermission(p.err) {
			p.err = fmt.Errorf("need more access, try as root or setup udev rules: %w", p.err)
		}
		return p.err
	}
	for start := time.Now(); time.Since(start) < 5*time.Second; {
		if p.fValue, p.err = os.OpenFile(p.root+"value", os.O_RDWR, 0); p.err == nil || !os.IsPermission(p.err) {
			break
		}
	}
	if p.err != nil {
		return p.err
	}
direction:
	if p.fDirection, p.err = os.OpenFile(p.root+"direction", os.O_RDWR, 0); p.err != nil {
		_ = p.fValue.Close()
		p.fValue = nil
	}
	return p.err
}

func (p *Pin) wrap(err error) error {
	return fmt.Errorf("sysfs-gpio (%s): %w", p, err)
}

func isErrBusy(err error) bool {
	return err != nil && os.IsExist(err)
}

func seekRead(f *os.File, b []byte) (int, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return 0, err
	}
	return f.Read(b)
}

func seekWrite(f *os.File, b []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := f.Write(b)
	return err
}

type direction int

const (
	dUnknown direction = 0
	dIn      direction = 1
	dOut     direction = 2
)

var (
	bIn   = []byte("in")
	bLow  = []byte("low")
	bHigh = []byte("high")
)

// readInt reads a pseudo-file (sysfs) known to contain an integer.
func readInt(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var b [24]byte
	n, err := f.Read(b[:])
	if err != nil {
		return 0, err
	}
	raw := b[:n]
	if len(raw) == 0 || raw[len(raw)-1] != '\n' {
		return 0, errors.New("invalid value")
	}
	return strconv.Atoi(string(raw[:len(raw)-1]))
}

// driverGPIO implements periph.Driver.
type driverGPIO struct {
	exportHandle *os.File
}

func (d *driverGPIO) String() string     { return "sysfs-gpio" }
func (d *driverGPIO) Prerequisites() []string { return nil }
func (d *driverGPIO) After() []string     { return nil }

// Init discovers every gpiochip exposed under /sys/class/gpio and
// registers one Pin per line with periph's global gpioreg, exactly as
// it does for any other periph consumer; galaxybus itself never reads
// Pins or gpioreg directly; it is handed a *Pin through
// galaxybus.Config.Line/DE/RE by the caller (typically cmd/galaxyctl).
func (d *driverGPIO) Init() (bool, error) {
	items, err := filepath.Glob("/sys/class/gpio/gpiochip*")
	if err != nil {
		return true, err
	}
	if len(items) == 0 {
		return false, errors.New("no GPIO pin found")
	}
	Pins = map[int]*Pin{}
	for _, item := range items {
		if err = d.parseGPIOChip(item + "/"); err != nil {
			return true, err
		}
	}
	drvGPIO.exportHandle, err = os.OpenFile("/sys/class/gpio/export", os.O_WRONLY, 0)
	if os.IsPermission(err) {
		return true, fmt.Errorf("need more access, try as root or setup udev rules: %w", err)
	}
	return true, err
}

func (d *driverGPIO) parseGPIOChip(path string) error {
	base, err := readInt(path + "base")
	if err != nil {
		return err
	}
	number, err := readInt(path + "ngpio")
	if err != nil {
		return err
	}
	for i := base; i < base+number; i++ {
		if _, ok := Pins[i]; ok {
			return fmt.Errorf("found two pins with number %d", i)
		}
		p := &Pin{
			number: i,
			name:   fmt.Sprintf("GPIO%d", i),
			root:   fmt.Sprintf("/sys/class/gpio/gpio%d/", i),
		}
		Pins[i] = p
		if err := gpioreg.Register(p); err != nil {
			return err
		}
		if err := gpioreg.RegisterAlias(strconv.Itoa(i), p.name); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	driverreg.MustRegister(&drvGPIO)
}

var drvGPIO driverGPIO

var _ conn.Resource = &Pin{}
var _ gpio.PinIn = &Pin{}
var _ gpio.PinOut = &Pin{}
var _ gpio.PinIO = &Pin{}
var _ pin.PinFunc = &Pin{}
