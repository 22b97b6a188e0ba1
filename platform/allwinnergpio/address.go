// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package allwinnergpio

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// platformDriverDir is where the kernel exposes which driver bound to
// which platform device, used to locate the PIO controller without
// hardcoding a base address per board.
const platformDriverDir = "/sys/bus/platform/drivers"

// defaultPIOBase is the PA-bank base address documented for every sunxi
// SoC this backend targets, used when the driver-binding symlink can't
// be read (no kernel pinctrl driver bound, or a stripped-down rootfs
// without /sys).
const defaultPIOBase = 0x01C20800

// h6PinctrlDirPattern matches an Allwinner H6-family pinctrl driver
// directory. Unlike every earlier sunxi generation, H6 numbers its
// pinctrl driver by sub-revision ("sun50i-h6-pinctrl",
// "sun50i-h616-pinctrl", ...) rather than exposing one fixed name.
var h6PinctrlDirPattern = regexp.MustCompile(`^sun50i-h6\d*-pinctrl$`)

// pioBaseAddress returns the PIO controller's physical base address for
// the running board, consulting the kernel's own driver-binding
// metadata so this backend doesn't need a per-board table.
func pioBaseAddress() (uint64, error) {
	if IsH6() {
		return h6PIOBaseAddress(platformDriverDir)
	}
	return defaultPIOBaseAddress(platformDriverDir), nil
}

// defaultPIOBaseAddress reads the sun50i-pinctrl driver's symlink
// target, whose directory name encodes the base address
// ("<hex address>.pinctrl"), falling back to defaultPIOBase if the
// driver isn't bound or the link can't be parsed.
func defaultPIOBaseAddress(driverDir string) uint64 {
	link, err := os.Readlink(filepath.Join(driverDir, "sun50i-pinctrl/driver"))
	if err != nil {
		return defaultPIOBase
	}
	if addr, ok := parsePinctrlDeviceName(filepath.Base(link)); ok {
		return addr
	}
	return defaultPIOBase
}

// h6PIOBaseAddress scans driverDir for a bound H6-family pinctrl driver
// directory and extracts the base address from its device file.
func h6PIOBaseAddress(driverDir string) (uint64, error) {
	entries, err := os.ReadDir(driverDir)
	if err != nil {
		return 0, fmt.Errorf("allwinnergpio: read %s: %w", driverDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || !h6PinctrlDirPattern.MatchString(entry.Name()) {
			continue
		}
		if addr, ok := scanPinctrlDeviceFile(filepath.Join(driverDir, entry.Name())); ok {
			return addr, nil
		}
	}
	return 0, fmt.Errorf("allwinnergpio: no bound H6 pinctrl driver under %s", driverDir)
}

// scanPinctrlDeviceFile looks inside a pinctrl driver directory for its
// bound device file, named "<hex base address>.pinctrl".
func scanPinctrlDeviceFile(dir string) (uint64, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, false
	}
	for _, entry := range entries {
		if addr, ok := parsePinctrlDeviceName(entry.Name()); ok {
			return addr, true
		}
	}
	return 0, false
}

// parsePinctrlDeviceName extracts the hex base address from a device
// file name like "300b000.pinctrl".
func parsePinctrlDeviceName(name string) (uint64, bool) {
	const suffix = ".pinctrl"
	if !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	addr, err := strconv.ParseUint(strings.TrimSuffix(name, suffix), 16, 64)
	return addr, err == nil
}
