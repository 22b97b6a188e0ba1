// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package allwinnergpio

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEmptyFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestDefaultPIOBaseAddressFallsBackWithoutDriverSymlink(t *testing.T) {
	if got, want := defaultPIOBaseAddress(t.TempDir()), uint64(defaultPIOBase); got != want {
		t.Errorf("defaultPIOBaseAddress = 0x%x, want 0x%x", got, want)
	}
}

func TestDefaultPIOBaseAddressFollowsDriverSymlink(t *testing.T) {
	root := t.TempDir()
	writeEmptyFile(t, filepath.Join(root, "foo/300b000.pinctrl"))
	if err := os.MkdirAll(filepath.Join(root, "sun50i-pinctrl"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "foo/300b000.pinctrl"), filepath.Join(root, "sun50i-pinctrl/driver")); err != nil {
		t.Fatal(err)
	}
	if got, want := defaultPIOBaseAddress(root), uint64(0x300b000); got != want {
		t.Errorf("defaultPIOBaseAddress = 0x%x, want 0x%x", got, want)
	}
}

func TestH6PIOBaseAddressScansSubRevisionDirectories(t *testing.T) {
	root := t.TempDir()
	writeEmptyFile(t, filepath.Join(root, "sun50i-h6-pinctrl/uevent"))
	writeEmptyFile(t, filepath.Join(root, "sun50i-h616-pinctrl/300b000.pinctrl"))

	got, err := h6PIOBaseAddress(root)
	if err != nil {
		t.Fatal(err)
	}
	if want := uint64(0x300b000); got != want {
		t.Errorf("h6PIOBaseAddress = 0x%x, want 0x%x", got, want)
	}
}

func TestH6PIOBaseAddressErrorsWithoutBoundDevice(t *testing.T) {
	root := t.TempDir()
	writeEmptyFile(t, filepath.Join(root, "sun50i-h6-pinctrl/uevent"))

	if _, err := h6PIOBaseAddress(root); err == nil {
		t.Fatal("expected an error with no bound pinctrl device file")
	}
}
