// Copyright 2026 The Galaxybus Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package galaxybus

import (
	"testing"
	"time"
)

func TestEventGroupSetClearIsSet(t *testing.T) {
	g := newEventGroup()
	if g.isSet(evRxIdle) {
		t.Fatal("evRxIdle set before being set")
	}
	g.set(evRxIdle)
	if !g.isSet(evRxIdle) {
		t.Fatal("evRxIdle not set after set()")
	}
	if g.isSet(evTxIdle) {
		t.Fatal("evTxIdle unexpectedly set")
	}
	g.clear(evRxIdle)
	if g.isSet(evRxIdle) {
		t.Fatal("evRxIdle still set after clear()")
	}
}

func TestEventGroupWaitSetAlreadySet(t *testing.T) {
	g := newEventGroup()
	g.set(evRxReady)
	if !g.waitSet(evRxReady, time.Millisecond) {
		t.Fatal("waitSet returned false for an already-set bit")
	}
}

func TestEventGroupWaitSetBlocksUntilSet(t *testing.T) {
	g := newEventGroup()
	done := make(chan bool, 1)
	go func() {
		done <- g.waitSet(evTxIdle, 2*time.Second)
	}()
	time.Sleep(20 * time.Millisecond)
	g.set(evTxIdle)
	select {
	case ok := <-done:
		if !ok {
			t.Fatal("waitSet reported timeout despite the bit being set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitSet never returned")
	}
}

func TestEventGroupWaitSetTimeout(t *testing.T) {
	g := newEventGroup()
	start := time.Now()
	if g.waitSet(evRxReady, 20*time.Millisecond) {
		t.Fatal("waitSet returned true for a bit that was never set")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("waitSet returned before its timeout elapsed")
	}
}
