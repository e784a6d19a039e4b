// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// newArmed returns a harness ready for a test case body.
func newArmed(t *testing.T, opts ...Option) *Harness {
	t.Helper()
	h := New(opts...)
	if err := h.Arm(); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	return h
}

// ============================================================
// Record / verify / respond sequencing
// ============================================================

func TestWrite_MatchingExpectation(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01).Uint("len", 4)
	h.InjectStatus(hwbus.PrimWrite, hwbus.StatusOK)

	st := bus.Write(3, 0x01, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	if st != hwbus.StatusOK {
		t.Errorf("Write returned %s, want ok", st)
	}
	if !h.Called(hwbus.PrimWrite, 1) {
		t.Errorf("write count = %d, want 1", h.CountOf(hwbus.PrimWrite))
	}
	if h.Failed() {
		t.Errorf("unexpected failure: %v", h.Failure())
	}
}

func TestWrite_CommandMismatch(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01)

	st := bus.Write(3, 0x02, nil)
	if st != hwbus.StatusAborted {
		t.Errorf("mismatched Write returned %s, want aborted", st)
	}

	var mismatch *MismatchError
	if !errors.As(h.Failure(), &mismatch) {
		t.Fatalf("Failure() = %v, want MismatchError", h.Failure())
	}
	if mismatch.Param != "cmd" {
		t.Errorf("mismatch param = %q, want cmd", mismatch.Param)
	}
	if mismatch.Expected != "0x01" || mismatch.Actual != "0x02" {
		t.Errorf("mismatch detail = %s vs %s, want 0x01 vs 0x02", mismatch.Expected, mismatch.Actual)
	}
	if !strings.Contains(mismatch.Error(), "write") {
		t.Errorf("diagnostic does not name the primitive: %q", mismatch.Error())
	}
}

func TestAbort_SuppressesLaterCalls(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01)
	bus.Write(3, 0x02, nil) // fails verification

	// Later driver activity must not execute: not recorded, not verified
	if st := bus.Close(3); st != hwbus.StatusAborted {
		t.Errorf("Close after abort returned %s, want aborted", st)
	}
	if h.CountOf(hwbus.PrimClose) != 0 {
		t.Errorf("close was recorded after abort")
	}
}

func TestVerification_FailFastOnFirstMismatch(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	// Both cmd and len are wrong; only cmd (checked first) may be reported
	h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01).Uint("len", 8)
	bus.Write(3, 0x02, []byte{1, 2})

	var mismatch *MismatchError
	if !errors.As(h.Failure(), &mismatch) {
		t.Fatalf("Failure() = %v, want MismatchError", h.Failure())
	}
	if mismatch.Param != "cmd" {
		t.Errorf("first mismatch reported for %q, want cmd", mismatch.Param)
	}
}

func TestExpectations_ConsumedInOrder(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	const n = 5
	for i := 0; i < n; i++ {
		h.Expect(hwbus.PrimWrite).Uint("cmd", uint64(i))
		h.InjectStatus(hwbus.PrimWrite, hwbus.StatusOK)
	}
	for i := 0; i < n; i++ {
		if st := bus.Write(1, uint8(i), nil); st != hwbus.StatusOK {
			t.Fatalf("Write #%d returned %s, want ok", i, st)
		}
	}
	if !h.Called(hwbus.PrimWrite, n) {
		t.Errorf("write count = %d, want %d", h.CountOf(hwbus.PrimWrite), n)
	}
	if h.Failed() {
		t.Errorf("unexpected failure: %v", h.Failure())
	}
}

func TestBytesMatcher(t *testing.T) {
	tests := []struct {
		name     string
		expected []byte
		actual   []byte
		wantPass bool
	}{
		{"equal buffers", []byte{1, 2, 3}, []byte{1, 2, 3}, true},
		{"different content", []byte{1, 2, 3}, []byte{1, 2, 4}, false},
		{"different length", []byte{1, 2, 3}, []byte{1, 2}, false},
		{"both empty", []byte{}, []byte{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newArmed(t)
			h.Expect(hwbus.PrimWrite).Bytes("data", tt.expected)
			h.Bus().Write(1, 0x00, tt.actual)
			if passed := !h.Failed(); passed != tt.wantPass {
				t.Errorf("pass = %v, want %v (failure: %v)", passed, tt.wantPass, h.Failure())
			}
		})
	}
}

func TestWildcardMatcher(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimWrite).Any("cmd").Uint("len", 2)
	if st := bus.Write(1, 0x7F, []byte{1, 2}); h.Failed() {
		t.Errorf("wildcard cmd failed verification: %v (status %s)", h.Failure(), st)
	}
}

func TestStringMatcher_OpenBusName(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimOpen).String("bus", "i2c-1").Uint("addr", 0x50)
	h.InjectOpen(7)

	handle, st := bus.Open("i2c-1", 0x50)
	if st != hwbus.StatusOK {
		t.Fatalf("Open returned %s, want ok", st)
	}
	if handle != 7 {
		t.Errorf("Open handle = %d, want 7", handle)
	}
}

// ============================================================
// Strict vs lenient mode
// ============================================================

func TestLenientMode_UnexpectedCallPasses(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	if st := bus.Write(1, 0x01, nil); st == hwbus.StatusAborted {
		t.Errorf("lenient unexpected call aborted")
	}
	if h.Failed() {
		t.Errorf("lenient unexpected call latched failure: %v", h.Failure())
	}
	if !h.Called(hwbus.PrimWrite, 1) {
		t.Errorf("call was not recorded")
	}
}

func TestStrictMode_UnexpectedCallFails(t *testing.T) {
	h := newArmed(t, WithStrict())
	bus := h.Bus()

	if st := bus.Write(1, 0x01, nil); st != hwbus.StatusAborted {
		t.Errorf("strict unexpected call returned %s, want aborted", st)
	}
	var unexpected *UnexpectedCallError
	if !errors.As(h.Failure(), &unexpected) {
		t.Fatalf("Failure() = %v, want UnexpectedCallError", h.Failure())
	}
	if unexpected.Primitive != hwbus.PrimWrite || unexpected.Seq != 1 {
		t.Errorf("diagnostic = %v, want write call #1", unexpected)
	}
}

// ============================================================
// Injection
// ============================================================

func TestRead_PayloadTruncation(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		bufLen     int
		wantCopied int
	}{
		{"payload shorter than buffer", []byte{1, 2}, 4, 2},
		{"payload longer than buffer", []byte{1, 2, 3, 4}, 2, 2},
		{"equal lengths", []byte{1, 2, 3}, 3, 3},
		{"empty payload", []byte{}, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newArmed(t)
			h.InjectRead(hwbus.PrimRead, hwbus.StatusOK, tt.payload)

			// Sentinel fill shows exactly which bytes were written
			buf := bytes.Repeat([]byte{0xEE}, tt.bufLen)
			if st := h.Bus().Read(1, 0x00, buf); st != hwbus.StatusOK {
				t.Fatalf("Read returned %s, want ok", st)
			}

			if !bytes.Equal(buf[:tt.wantCopied], tt.payload[:tt.wantCopied]) {
				t.Errorf("copied bytes = % X, want % X", buf[:tt.wantCopied], tt.payload[:tt.wantCopied])
			}
			for i := tt.wantCopied; i < tt.bufLen; i++ {
				if buf[i] != 0xEE {
					t.Errorf("byte %d beyond payload was modified: 0x%02X", i, buf[i])
				}
			}
		})
	}
}

func TestRead_EmptyQueueDefaultStatus(t *testing.T) {
	h := newArmed(t)
	buf := []byte{0xEE, 0xEE}

	st := h.Bus().Read(1, 0x02, buf)
	if st != hwbus.StatusNotConfigured {
		t.Errorf("Read returned %s, want not-configured", st)
	}
	if !bytes.Equal(buf, []byte{0xEE, 0xEE}) {
		t.Errorf("buffer modified on unconfigured read: % X", buf)
	}
	if h.Failed() {
		t.Errorf("exhausted response queue latched failure: %v", h.Failure())
	}
}

func TestConfigurableDefaultStatus(t *testing.T) {
	h := newArmed(t, WithDefaultStatus(hwbus.StatusTimeout))
	if st := h.Bus().Write(1, 0x01, nil); st != hwbus.StatusTimeout {
		t.Errorf("default status = %s, want timeout", st)
	}
}

func TestResponses_ConsumedInOrder(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.InjectStatus(hwbus.PrimWrite, hwbus.StatusOK)
	h.InjectStatus(hwbus.PrimWrite, hwbus.StatusIO)

	if st := bus.Write(1, 0x01, nil); st != hwbus.StatusOK {
		t.Errorf("first Write returned %s, want ok", st)
	}
	if st := bus.Write(1, 0x01, nil); st != hwbus.StatusIO {
		t.Errorf("second Write returned %s, want io-error", st)
	}
	// FIFO exhausted, default applies
	if st := bus.Write(1, 0x01, nil); st != hwbus.StatusNotConfigured {
		t.Errorf("third Write returned %s, want not-configured", st)
	}
}

func TestOpen_FailureStatusPassedThrough(t *testing.T) {
	h := newArmed(t)
	h.InjectStatus(hwbus.PrimOpen, hwbus.StatusNoDevice)

	handle, st := h.Bus().Open("i2c-9", 0x50)
	if handle != hwbus.InvalidHandle {
		t.Errorf("failed Open returned handle %d, want invalid", handle)
	}
	if st != hwbus.StatusNoDevice {
		t.Errorf("failed Open returned %s, want no-device", st)
	}
}

func TestTransfer_FillsReceiveBuffer(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.Expect(hwbus.PrimTransfer).Bytes("tx", []byte{0xAA, 0xBB}).Uint("len", 2)
	h.InjectRead(hwbus.PrimTransfer, hwbus.StatusOK, []byte{0x11, 0x22})

	rx := make([]byte, 2)
	if st := bus.Transfer(1, []byte{0xAA, 0xBB}, rx); st != hwbus.StatusOK {
		t.Fatalf("Transfer returned %s, want ok", st)
	}
	if !bytes.Equal(rx, []byte{0x11, 0x22}) {
		t.Errorf("rx = % X, want 11 22", rx)
	}
}

// ============================================================
// Call log
// ============================================================

func TestCallLog_SnapshotsParameters(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	data := []byte{1, 2, 3}
	bus.Write(1, 0x10, data)

	// Caller reuses its buffer after the primitive returns
	data[0] = 0xFF

	calls := h.Calls()
	if len(calls) != 1 {
		t.Fatalf("call log has %d entries, want 1", len(calls))
	}
	logged, ok := calls[0].Params["data"].([]byte)
	if !ok {
		t.Fatalf("data param missing from snapshot")
	}
	if !bytes.Equal(logged, []byte{1, 2, 3}) {
		t.Errorf("snapshot = % X, want the bytes as captured at call time", logged)
	}
}

func TestCallLog_OrdinalsSpanPrimitives(t *testing.T) {
	h := newArmed(t)
	bus := h.Bus()

	h.InjectOpen(1)
	bus.Open("i2c-1", 0x50)
	bus.Write(1, 0x01, nil)
	bus.Close(1)

	calls := h.Calls()
	if len(calls) != 3 {
		t.Fatalf("call log has %d entries, want 3", len(calls))
	}
	for i, c := range calls {
		if c.Seq != i+1 {
			t.Errorf("call %d has ordinal %d, want %d", i, c.Seq, i+1)
		}
	}
	want := []hwbus.PrimitiveID{hwbus.PrimOpen, hwbus.PrimWrite, hwbus.PrimClose}
	for i, c := range calls {
		if c.Primitive != want[i] {
			t.Errorf("call %d is %s, want %s", i, c.Primitive, want[i])
		}
	}
}

// ============================================================
// N-for-N property
// ============================================================

func TestNExpectationsNCalls(t *testing.T) {
	for _, n := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := newArmed(t, WithStrict())
			bus := h.Bus()

			for i := 0; i < n; i++ {
				h.Expect(hwbus.PrimRead).Uint("cmd", uint64(i)).Uint("len", 1)
				h.InjectRead(hwbus.PrimRead, hwbus.StatusOK, []byte{byte(i)})
			}
			for i := 0; i < n; i++ {
				buf := make([]byte, 1)
				if st := bus.Read(2, uint8(i), buf); st != hwbus.StatusOK {
					t.Fatalf("Read #%d returned %s", i, st)
				}
				if buf[0] != byte(i) {
					t.Fatalf("Read #%d payload = 0x%02X, want 0x%02X", i, buf[0], i)
				}
			}
			if !h.Called(hwbus.PrimRead, n) {
				t.Errorf("read count = %d, want %d", h.CountOf(hwbus.PrimRead), n)
			}
			if err := h.Teardown(); err != nil {
				t.Errorf("Teardown reported leftovers: %v", err)
			}
		})
	}
}
