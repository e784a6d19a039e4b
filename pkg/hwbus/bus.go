// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

// Package hwbus defines the bus capability set that driver code depends on.
//
// A driver never touches hardware directly: it is handed a Bus and reaches
// the outside world only through the five primitives below. Production code
// injects a SerialBus or a Bridge; test code injects the verifying mock from
// the mockbus package. Because the capability set is closed, the substitution
// is complete - there is no side channel for a driver to bypass.
package hwbus

// Handle identifies an open bus endpoint, as returned by Open.
type Handle int32

// InvalidHandle is returned by Open when the open fails.
const InvalidHandle Handle = -1

// PrimitiveID identifies one bus primitive. The set is closed; dispatch on
// it is compile-time checked rather than matched by name at runtime.
type PrimitiveID uint8

const (
	PrimOpen PrimitiveID = iota
	PrimClose
	PrimRead
	PrimWrite
	PrimTransfer

	primitiveCount
)

// PrimitiveCount is the number of primitives in the capability set.
const PrimitiveCount = int(primitiveCount)

// Primitives returns every primitive in dispatch order.
func Primitives() []PrimitiveID {
	return []PrimitiveID{PrimOpen, PrimClose, PrimRead, PrimWrite, PrimTransfer}
}

// String returns the canonical primitive name
func (p PrimitiveID) String() string {
	switch p {
	case PrimOpen:
		return "open"
	case PrimClose:
		return "close"
	case PrimRead:
		return "read"
	case PrimWrite:
		return "write"
	case PrimTransfer:
		return "transfer"
	}
	return "unknown"
}

// ParsePrimitive maps a canonical primitive name back to its PrimitiveID.
func ParsePrimitive(name string) (PrimitiveID, bool) {
	for _, p := range Primitives() {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

// Bus is the capability set a driver uses to reach hardware.
//
// Read fills buf with up to len(buf) bytes; the requested length is always
// the buffer length. Transfer clocks tx out while filling rx, SPI style.
// Implementations are for sequential use only - drivers are verified
// single-threaded.
type Bus interface {
	Open(bus string, addr uint16) (Handle, Status)
	Close(h Handle) Status
	Write(h Handle, cmd uint8, data []byte) Status
	Read(h Handle, cmd uint8, buf []byte) Status
	Transfer(h Handle, tx, rx []byte) Status
}
