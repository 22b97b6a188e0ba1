// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package auto blank-imports every platform/* backend this repository
// ships for the host it is built for, so a caller only needs
// auto.Init() to get all of them registered with driverreg, instead of
// importing platform/sysfsgpio and platform/allwinnergpio by hand.
package auto

import "periph.io/x/conn/v3/driver/driverreg"

// Init calls driverreg.Init() and returns it as-is; calling it
// guarantees every backend blank-imported by this package's
// build-tagged files has had a chance to register.
func Init() (*driverreg.State, error) {
	return driverreg.Init()
}
