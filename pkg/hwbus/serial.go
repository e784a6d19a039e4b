// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package hwbus

import (
	"go.bug.st/serial"
)

// SerialBus implements Bus over local serial ports. The bus identifier
// passed to Open is the port device path (e.g. /dev/ttyUSB0); the address
// parameter is ignored since a serial link is point to point.
//
// The command byte of Write and Read is transmitted ahead of the payload,
// matching the register-style convention of the I2C primitives, so a device
// on the far end sees the same framing regardless of transport.
type SerialBus struct {
	mode  *serial.Mode
	ports map[Handle]serial.Port
	next  Handle
}

var _ Bus = (*SerialBus)(nil)

// NewSerialBus creates a serial-backed bus. All ports opened through it use
// the given baud rate with 8N1 framing.
func NewSerialBus(baudRate int) *SerialBus {
	return &SerialBus{
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		ports: make(map[Handle]serial.Port),
		next:  1,
	}
}

// Open opens the serial device named by bus. addr is ignored.
func (b *SerialBus) Open(bus string, addr uint16) (Handle, Status) {
	port, err := serial.Open(bus, b.mode)
	if err != nil {
		return InvalidHandle, StatusNoDevice
	}
	h := b.next
	b.next++
	b.ports[h] = port
	return h, StatusOK
}

// Close releases the port behind h.
func (b *SerialBus) Close(h Handle) Status {
	port, ok := b.ports[h]
	if !ok {
		return StatusInvalid
	}
	delete(b.ports, h)
	if err := port.Close(); err != nil {
		return StatusIO
	}
	return StatusOK
}

// Write sends the command byte followed by data.
func (b *SerialBus) Write(h Handle, cmd uint8, data []byte) Status {
	port, ok := b.ports[h]
	if !ok {
		return StatusInvalid
	}
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, cmd)
	frame = append(frame, data...)
	if _, err := port.Write(frame); err != nil {
		return StatusIO
	}
	return StatusOK
}

// Read sends the command byte, then fills buf completely from the port.
func (b *SerialBus) Read(h Handle, cmd uint8, buf []byte) Status {
	port, ok := b.ports[h]
	if !ok {
		return StatusInvalid
	}
	if _, err := port.Write([]byte{cmd}); err != nil {
		return StatusIO
	}
	return readFull(port, buf)
}

// Transfer writes tx, then fills rx. A serial link cannot clock both
// directions at once, so the exchange is sequential.
func (b *SerialBus) Transfer(h Handle, tx, rx []byte) Status {
	port, ok := b.ports[h]
	if !ok {
		return StatusInvalid
	}
	if len(tx) > 0 {
		if _, err := port.Write(tx); err != nil {
			return StatusIO
		}
	}
	if len(rx) > 0 {
		return readFull(port, rx)
	}
	return StatusOK
}

// readFull loops until buf is filled. Port reads may return short counts.
func readFull(port serial.Port, buf []byte) Status {
	for off := 0; off < len(buf); {
		n, err := port.Read(buf[off:])
		if err != nil {
			return StatusIO
		}
		if n == 0 {
			return StatusTimeout
		}
		off += n
	}
	return StatusOK
}
