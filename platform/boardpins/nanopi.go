// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// NanoPi pin out.

package boardpins

// NeoAir is the NanoPi NEO Air (LTS shares the same pinout).
const NeoAir Board = "NanoPi NEO Air"

func init() {
	boardModelPrefix[NeoAir] = "FriendlyARM"

	// 24-pin expansion header. "" marks a ground/power position Pin
	// reports as not found rather than resolving.
	headers[NeoAir] = []string{
		"", "", "PA12", "", "PA11", "",
		"PG11", "PG6", "", "PG7", "PA0", "PA6",
		"PA2", "", "PA3", "PA8", "", "PG9",
		"PC0", "", "PC1", "PA1", "PC2", "PC3",
	}
}
