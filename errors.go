// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import (
	"errors"
	"fmt"
)

// Code is the tagged-result error code returned by Tx and Rx on the
// data path (spec section 6). It is a signed value so the external
// interface can keep the exact negative numeric codes the protocol
// family documents, while still satisfying the error interface for
// idiomatic Go callers.
type Code int

// Data-path error codes, values fixed by spec section 6.
const (
	Missed   Code = -1 // one or more frames lost between poll intervals
	TooBig   Code = -2 // message exceeds the 64-byte frame limit
	StartBit Code = -3 // start bit not low at sample point
	StopBit  Code = -4 // stop bit not high with nonzero byte
	Checksum Code = -5 // trailing checksum byte mismatch
	Break    Code = -6 // stop bit low with zero byte (line break)
	Busy     Code = -7 // tx could not acquire the transmitter within 100ms
)

func (c Code) Error() string {
	switch c {
	case Missed:
		return "galaxybus: one or more frames lost"
	case TooBig:
		return "galaxybus: message exceeds the 64-byte frame limit"
	case StartBit:
		return "galaxybus: start bit not low at sample point"
	case StopBit:
		return "galaxybus: stop bit not high with nonzero byte"
	case Checksum:
		return "galaxybus: checksum mismatch"
	case Break:
		return "galaxybus: line break"
	case Busy:
		return "galaxybus: transmitter busy"
	}
	return fmt.Sprintf("galaxybus: error code %d", int(c))
}

// ErrAlreadyStarted is returned by Start when called on a running Bus.
var ErrAlreadyStarted = errors.New("galaxybus: already started")
