// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Orange Pi pin out.

package boardpins

// OrangePiZero is the Orange Pi Zero (LTS shares the same pinout).
const OrangePiZero Board = "Orange Pi Zero"

func init() {
	boardModelPrefix[OrangePiZero] = "OrangePi"

	// 26-pin expansion header, per
	// http://www.orangepi.org/html/hardWare/computerAndMicrocontrollers/details/Orange-Pi-Zero.html
	headers[OrangePiZero] = []string{
		"", "", "PA12", "", "PA11", "",
		"PA6", "PG6", "", "PG7", "PA1", "PA7",
		"PA0", "", "PA3", "PA19", "", "PA18",
		"PA15", "", "PA16", "PA2", "PA14", "PA13",
		"", "PA10",
	}
}
