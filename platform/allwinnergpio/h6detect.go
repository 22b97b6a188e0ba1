// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package allwinnergpio

import (
	"os"
	"strings"
)

// IsH6 reports whether the running board's device tree compatible
// string names an Allwinner H6-family SoC, which numbers its pinctrl
// driver directories differently from every earlier sunxi generation
// (see h6PIOBaseAddress).
func IsH6() bool {
	data, err := os.ReadFile("/proc/device-tree/compatible")
	if err != nil {
		return false
	}
	for _, model := range strings.Split(string(data), "\x00") {
		if strings.Contains(model, "sun50i-h6") {
			return true
		}
	}
	return false
}
