// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"fmt"
	"strings"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// UnexpectedCallError reports a primitive invoked with no queued expectation
// while the harness runs in strict mode.
type UnexpectedCallError struct {
	Primitive hwbus.PrimitiveID
	Seq       int // call ordinal within the test case, 1-based
}

// Error implements the error interface
func (e *UnexpectedCallError) Error() string {
	return fmt.Sprintf("unexpected call: %s (call #%d) with no queued expectation", e.Primitive, e.Seq)
}

// MismatchError reports the first parameter that failed its matcher.
// Verification is fail-fast: parameters after the offending one were not
// checked.
type MismatchError struct {
	Primitive hwbus.PrimitiveID
	Seq       int
	Param     string
	Expected  string
	Actual    string
}

// Error implements the error interface
func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s (call #%d): parameter %q mismatch: expected %s, actual %s",
		e.Primitive, e.Seq, e.Param, e.Expected, e.Actual)
}

// StateError reports a lifecycle protocol violation. Leak marks the
// state-leak case: a new test case was armed while the previous one was
// never torn down. That is a harness defect, not a driver failure.
type StateError struct {
	Op    string
	State State
	Leak  bool
}

// Error implements the error interface
func (e *StateError) Error() string {
	if e.Leak {
		return fmt.Sprintf("%s: state leak: previous test case was not torn down (state %s)", e.Op, e.State)
	}
	return fmt.Sprintf("%s: invalid in state %s", e.Op, e.State)
}

// UnusedExpectationError reports expectations still queued at teardown,
// surfacing test cases that configure more calls than the driver makes.
type UnusedExpectationError struct {
	Pending map[hwbus.PrimitiveID]int
}

// Error implements the error interface
func (e *UnusedExpectationError) Error() string {
	total := 0
	parts := []string{}
	for _, p := range hwbus.Primitives() {
		if n := e.Pending[p]; n > 0 {
			total += n
			parts = append(parts, fmt.Sprintf("%s: %d", p, n))
		}
	}
	return fmt.Sprintf("teardown: %d unconsumed expectations (%s)", total, strings.Join(parts, ", "))
}
