// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

// Package mockbus is the verifying hwbus.Bus implementation used to exercise
// driver logic without hardware.
//
// A Harness owns three lifecycle-scoped structures: the call ledger
// (invocation counters plus an ordered call log), the expectation queue
// (per-primitive FIFOs of parameter assertions), and the injector
// (per-primitive FIFOs of canned status codes and receive payloads). The
// Mock returned by Bus drives them in strict sequence on every intercepted
// call: record, verify, respond.
//
// Test cases follow the arm/teardown protocol:
//
//	h := mockbus.New(mockbus.WithTB(t))
//	h.Arm()
//	h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01).Uint("len", 4)
//	h.InjectStatus(hwbus.PrimWrite, hwbus.StatusOK)
//	driver.Run(h.Bus())
//	h.Teardown()
package mockbus

import (
	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// State is the harness lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateArmed
	StateConsumed
)

// String returns the lifecycle state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateArmed:
		return "Armed"
	case StateConsumed:
		return "Consumed"
	}
	return "unknown"
}

// TB is the subset of testing.TB the harness uses to abort a test case.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Option configures a Harness.
type Option func(*Harness)

// WithStrict makes calls with no queued expectation fail the test case.
// The default is lenient: such calls pass as "don't care".
func WithStrict() Option {
	return func(h *Harness) { h.queue.mode = Strict }
}

// WithDefaultStatus sets the status returned when a primitive's response
// FIFO is exhausted. The default is hwbus.StatusNotConfigured.
func WithDefaultStatus(s hwbus.Status) Option {
	return func(h *Harness) { h.injector.defaultStatus = s }
}

// WithTB binds the harness to a test: verification failures abort the test
// case immediately through Fatalf.
func WithTB(tb TB) Option {
	return func(h *Harness) { h.tb = tb }
}

// WithFailureHandler installs a callback invoked on verification failure.
// Used by runners that are not testing.TB based; the failure is still
// latched either way.
func WithFailureHandler(fn func(error)) Option {
	return func(h *Harness) { h.onFail = fn }
}

// Harness owns all mock state for one test binary. Exactly one test case
// owns it at a time, enforced by the arm/teardown protocol rather than by
// locking - the engine is single-threaded by contract.
type Harness struct {
	state    State
	ledger   ledger
	queue    expectationQueue
	injector injector

	tb      TB
	onFail  func(error)
	failure error
}

// New creates a harness in the Ready state.
func New(opts ...Option) *Harness {
	h := &Harness{
		state: StateReady,
	}
	h.injector.defaultStatus = hwbus.StatusNotConfigured
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the current lifecycle state.
func (h *Harness) State() State {
	return h.state
}

// Arm prepares the harness for one test case: counters are zeroed, the
// call log, expectation queue and response FIFOs are cleared, and any
// latched failure is dropped.
//
// Arm must be called exactly once before each test case body. Arming while
// the previous case was never torn down still clears everything but returns
// a StateError with Leak set, so the defect in test discipline is surfaced
// rather than silently absorbed.
func (h *Harness) Arm() error {
	if h.state == StateUninitialized {
		return &StateError{Op: "arm", State: h.state}
	}
	leaked := h.state != StateReady

	h.ledger.reset()
	h.queue.clear()
	h.injector.clear()
	h.failure = nil

	prev := h.state
	h.state = StateArmed
	if leaked {
		return &StateError{Op: "arm", State: prev, Leak: true}
	}
	return nil
}

// Teardown closes the current test case and returns the harness to Ready.
// Queued state is left in place (the next Arm clears it), but unconsumed
// expectations are reported so over-specified test cases do not pass
// silently.
func (h *Harness) Teardown() error {
	if h.state != StateArmed && h.state != StateConsumed {
		return &StateError{Op: "teardown", State: h.state}
	}
	h.state = StateReady

	if pending := h.queue.pending(); len(pending) > 0 {
		return &UnusedExpectationError{Pending: pending}
	}
	return nil
}

// Shutdown releases all state. Only valid from Ready.
func (h *Harness) Shutdown() error {
	if h.state != StateReady {
		return &StateError{Op: "shutdown", State: h.state}
	}
	h.ledger.reset()
	h.queue.clear()
	h.injector.clear()
	h.failure = nil
	h.state = StateUninitialized
	return nil
}

// Expect queues an expectation for the next call to the primitive and
// returns it for matcher chaining.
func (h *Harness) Expect(p hwbus.PrimitiveID) *Expectation {
	e := &Expectation{primitive: p}
	h.queue.push(e)
	return e
}

// InjectStatus queues a canned status for the next call to the primitive.
func (h *Harness) InjectStatus(p hwbus.PrimitiveID, status hwbus.Status) {
	h.injector.push(p, response{status: status})
}

// InjectRead queues a canned status plus receive payload. The payload is
// copied here; at call time it is truncated to the caller's buffer length.
func (h *Harness) InjectRead(p hwbus.PrimitiveID, status hwbus.Status, payload []byte) {
	h.injector.push(p, response{
		status:     status,
		payload:    append([]byte(nil), payload...),
		hasPayload: true,
	})
}

// InjectOpen queues a successful open yielding the given handle. Open
// statuses double as handle values, fd style.
func (h *Harness) InjectOpen(handle hwbus.Handle) {
	h.injector.push(hwbus.PrimOpen, response{status: hwbus.Status(handle)})
}

// CountOf returns the invocation count for one primitive in the current
// test case.
func (h *Harness) CountOf(p hwbus.PrimitiveID) int {
	return h.ledger.countOf(p)
}

// Called reports whether the primitive was invoked exactly n times.
func (h *Harness) Called(p hwbus.PrimitiveID, n int) bool {
	return h.ledger.countOf(p) == n
}

// Calls returns a copy of the ordered call log.
func (h *Harness) Calls() []Call {
	return h.ledger.snapshot()
}

// Failed reports whether a verification failure was latched in the current
// test case.
func (h *Harness) Failed() bool {
	return h.failure != nil
}

// Failure returns the first latched verification failure, or nil.
func (h *Harness) Failure() error {
	return h.failure
}

// fail latches the first verification failure and dispatches it. With a
// bound TB the test case unwinds immediately via Fatalf; otherwise the mock
// short-circuits every later primitive call with StatusAborted.
func (h *Harness) fail(err error) {
	if h.failure == nil {
		h.failure = err
	}
	if h.onFail != nil {
		h.onFail(err)
	}
	if h.tb != nil {
		h.tb.Helper()
		h.tb.Fatalf("%v", err)
	}
}
