// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

// Package emag drives an electromagnet controller over a bus handle. It is
// the reference consumer of the hwbus capability set: production code hands
// it a SerialBus or Bridge, tests hand it the verifying mock.
package emag

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// Controller command set
const (
	cmdSystemStatus  = 0x01
	cmdSetChargeVolt = 0x02
	cmdActuate       = 0x03
	cmdWipe          = 0x04
)

// Axis selects one electromagnet coil. The low bit carries polarity.
type Axis uint8

const (
	AxisXPlus  Axis = 0b00_00
	AxisYPlus  Axis = 0b01_00
	AxisZPlus  Axis = 0b10_00
	AxisXMinus Axis = 0b00_01
	AxisYMinus Axis = 0b01_01
	AxisZMinus Axis = 0b10_01
)

// Status is the controller's telemetry block: five little-endian float32
// fields in command 0x01's 20-byte response.
type Status struct {
	SystemCurrent float32
	XHall         float32
	YHall         float32
	ZHall         float32
	CapVoltage    float32
}

// Device is an open electromagnet controller.
type Device struct {
	bus hwbus.Bus
	h   hwbus.Handle
}

// Open claims the controller at addr on the named bus.
func Open(bus hwbus.Bus, busName string, addr uint16) (*Device, error) {
	h, st := bus.Open(busName, addr)
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", busName, err)
	}
	return &Device{bus: bus, h: h}, nil
}

// Close releases the bus handle.
func (d *Device) Close() error {
	return d.bus.Close(d.h).Err()
}

// exchange sends one command frame and reads back n response bytes.
func (d *Device) exchange(cmd uint8, data []byte, n int) ([]byte, error) {
	tx := make([]byte, 0, len(data)+1)
	tx = append(tx, cmd)
	tx = append(tx, data...)
	rx := make([]byte, n)
	if err := d.bus.Transfer(d.h, tx, rx).Err(); err != nil {
		return nil, fmt.Errorf("command 0x%02X failed: %w", cmd, err)
	}
	return rx, nil
}

// SystemStatus reads the telemetry block.
func (d *Device) SystemStatus() (Status, error) {
	rx, err := d.exchange(cmdSystemStatus, []byte{0x00}, 20)
	if err != nil {
		return Status{}, err
	}
	return Status{
		SystemCurrent: math.Float32frombits(binary.LittleEndian.Uint32(rx[0:4])),
		XHall:         math.Float32frombits(binary.LittleEndian.Uint32(rx[4:8])),
		YHall:         math.Float32frombits(binary.LittleEndian.Uint32(rx[8:12])),
		ZHall:         math.Float32frombits(binary.LittleEndian.Uint32(rx[12:16])),
		CapVoltage:    math.Float32frombits(binary.LittleEndian.Uint32(rx[16:20])),
	}, nil
}

// SetChargeVoltage sets the capacitor charge target as a percentage and
// returns the controller's readback value.
func (d *Device) SetChargeVoltage(percent uint8) (uint16, error) {
	rx, err := d.exchange(cmdSetChargeVolt, []byte{percent}, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(rx), nil
}

// Actuate fires one coil.
func (d *Device) Actuate(axis Axis) error {
	return d.ack(cmdActuate, axis)
}

// Wipe degausses one coil.
func (d *Device) Wipe(axis Axis) error {
	return d.ack(cmdWipe, axis)
}

// ack runs a command whose only response is a single 0x01 acknowledge byte.
func (d *Device) ack(cmd uint8, axis Axis) error {
	rx, err := d.exchange(cmd, []byte{uint8(axis)}, 1)
	if err != nil {
		return err
	}
	if rx[0] != 0x01 {
		return fmt.Errorf("command 0x%02X not acknowledged (got 0x%02X)", cmd, rx[0])
	}
	return nil
}
