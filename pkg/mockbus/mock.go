// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// Mock is the substitute hwbus.Bus handed to the driver under test. Every
// primitive forwards, in order, to the ledger (record), the expectation
// queue (verify) and the injector (respond); it has no other side effects.
type Mock struct {
	h *Harness
}

var _ hwbus.Bus = (*Mock)(nil)

// Bus returns the verifying bus implementation backed by this harness.
func (h *Harness) Bus() *Mock {
	return &Mock{h: h}
}

// intercept is the single entry point behind all five primitives. buf is
// the caller's receive buffer for data-producing primitives, nil otherwise.
func (m *Mock) intercept(p hwbus.PrimitiveID, params Params, buf []byte) hwbus.Status {
	h := m.h
	if h.failure != nil {
		// The test case already failed; suppress further driver calls
		return hwbus.StatusAborted
	}
	if h.state == StateArmed {
		h.state = StateConsumed
	}

	seq := h.ledger.record(p, params)
	if err := h.queue.consumeAndVerify(p, seq, params); err != nil {
		h.fail(err)
		return hwbus.StatusAborted
	}
	return h.injector.respond(p, buf)
}

// Open intercepts the open primitive. The injected status doubles as the
// handle value: queue a non-negative status (or use InjectOpen) to make the
// open succeed. With nothing queued the default status applies and the open
// fails, matching a mock that was never configured.
func (m *Mock) Open(bus string, addr uint16) (hwbus.Handle, hwbus.Status) {
	st := m.intercept(hwbus.PrimOpen, Params{
		"bus":  bus,
		"addr": uint64(addr),
	}, nil)
	if !st.Ok() {
		return hwbus.InvalidHandle, st
	}
	return hwbus.Handle(st), hwbus.StatusOK
}

// Close intercepts the close primitive.
func (m *Mock) Close(h hwbus.Handle) hwbus.Status {
	return m.intercept(hwbus.PrimClose, Params{
		"handle": uint64(h),
	}, nil)
}

// Write intercepts the write primitive. The data buffer is snapshotted
// before verification so matchers and the call log see the bytes as they
// were at call time.
func (m *Mock) Write(h hwbus.Handle, cmd uint8, data []byte) hwbus.Status {
	return m.intercept(hwbus.PrimWrite, Params{
		"handle": uint64(h),
		"cmd":    uint64(cmd),
		"data":   data,
		"len":    uint64(len(data)),
	}, nil)
}

// Read intercepts the read primitive. The requested length is len(buf);
// a queued payload is copied in truncated to that length, and bytes beyond
// the payload are left untouched.
func (m *Mock) Read(h hwbus.Handle, cmd uint8, buf []byte) hwbus.Status {
	return m.intercept(hwbus.PrimRead, Params{
		"handle": uint64(h),
		"cmd":    uint64(cmd),
		"len":    uint64(len(buf)),
	}, buf)
}

// Transfer intercepts the combined send/receive primitive.
func (m *Mock) Transfer(h hwbus.Handle, tx, rx []byte) hwbus.Status {
	return m.intercept(hwbus.PrimTransfer, Params{
		"handle": uint64(h),
		"tx":     tx,
		"len":    uint64(len(tx)),
	}, rx)
}
