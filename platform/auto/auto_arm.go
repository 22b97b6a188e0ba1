// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package auto

import (
	// Make sure the Allwinner sunxi register-mapped backend is
	// registered on the CPU family it targets.
	_ "github.com/galaxybus/galaxybus/platform/allwinnergpio"
)
