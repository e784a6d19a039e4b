// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package hwbus

import (
	"testing"
)

// These tests exercise the SerialBus paths that are safe without hardware.
// Open against a nonexistent device fails, and that failure path plus the
// handle bookkeeping around it is worth pinning down.

func TestSerialBus_OpenMissingDevice(t *testing.T) {
	b := NewSerialBus(115200)

	h, st := b.Open("/dev/does-not-exist-busbench", 0)
	if st != StatusNoDevice {
		t.Errorf("Open returned %s, want no-device", st)
	}
	if h != InvalidHandle {
		t.Errorf("failed Open returned handle %d, want invalid", h)
	}
}

func TestSerialBus_UnknownHandle(t *testing.T) {
	b := NewSerialBus(115200)

	if st := b.Close(42); st != StatusInvalid {
		t.Errorf("Close(42) = %s, want invalid-argument", st)
	}
	if st := b.Write(42, 0x01, []byte{1}); st != StatusInvalid {
		t.Errorf("Write on unknown handle = %s, want invalid-argument", st)
	}
	if st := b.Read(42, 0x01, make([]byte, 1)); st != StatusInvalid {
		t.Errorf("Read on unknown handle = %s, want invalid-argument", st)
	}
	if st := b.Transfer(42, []byte{1}, make([]byte, 1)); st != StatusInvalid {
		t.Errorf("Transfer on unknown handle = %s, want invalid-argument", st)
	}
}
