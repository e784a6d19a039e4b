// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"bytes"
	"fmt"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// Mode selects the empty-queue policy of the expectation queue.
type Mode uint8

const (
	// Lenient treats a call with no queued expectation as "don't care".
	Lenient Mode = iota
	// Strict fails the test case on any call with no queued expectation.
	Strict
)

type matcherKind uint8

const (
	matchAny matcherKind = iota
	matchUint
	matchString
	matchBytes
)

// matcher is one parameter assertion: exact scalar equality, byte-wise
// buffer equality, or wildcard.
type matcher struct {
	kind   matcherKind
	scalar uint64
	str    string
	buf    []byte
}

// check compares the captured value against the matcher. It returns
// expected/actual strings on mismatch, empty strings on match.
func (m matcher) check(actual any) (expected, got string, ok bool) {
	switch m.kind {
	case matchAny:
		return "", "", true
	case matchUint:
		v, isUint := actual.(uint64)
		if !isUint || v != m.scalar {
			return formatScalar(m.scalar), formatValue(actual), false
		}
	case matchString:
		v, isStr := actual.(string)
		if !isStr || v != m.str {
			return fmt.Sprintf("%q", m.str), formatValue(actual), false
		}
	case matchBytes:
		v, isBytes := actual.([]byte)
		if !isBytes || !bytes.Equal(v, m.buf) {
			return formatBytes(m.buf), formatValue(actual), false
		}
	}
	return "", "", true
}

func formatScalar(v uint64) string {
	return fmt.Sprintf("0x%02X", v)
}

func formatBytes(b []byte) string {
	return fmt.Sprintf("[% 02X]", b)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<absent>"
	case uint64:
		return formatScalar(val)
	case string:
		return fmt.Sprintf("%q", val)
	case []byte:
		return formatBytes(val)
	}
	return fmt.Sprintf("%v", v)
}

type paramCheck struct {
	name    string
	matcher matcher
}

// Expectation is one queued parameter assertion set for the next call to a
// primitive. Checks run in the order they were added and verification stops
// at the first mismatch.
type Expectation struct {
	primitive hwbus.PrimitiveID
	checks    []paramCheck
}

// Uint asserts exact scalar equality for a named parameter.
func (e *Expectation) Uint(name string, want uint64) *Expectation {
	e.checks = append(e.checks, paramCheck{name, matcher{kind: matchUint, scalar: want}})
	return e
}

// String asserts exact string equality for a named parameter.
func (e *Expectation) String(name string, want string) *Expectation {
	e.checks = append(e.checks, paramCheck{name, matcher{kind: matchString, str: want}})
	return e
}

// Bytes asserts byte-wise buffer equality for a named parameter. The
// expected bytes are copied.
func (e *Expectation) Bytes(name string, want []byte) *Expectation {
	e.checks = append(e.checks, paramCheck{name, matcher{kind: matchBytes, buf: append([]byte(nil), want...)}})
	return e
}

// Any records a wildcard check for a named parameter. It always passes and
// exists so a test can document which parameters it deliberately ignores.
func (e *Expectation) Any(name string) *Expectation {
	e.checks = append(e.checks, paramCheck{name, matcher{kind: matchAny}})
	return e
}

// expectationQueue holds a FIFO of expectations per primitive, consumed
// strictly in enqueue order.
type expectationQueue struct {
	mode  Mode
	fifos [hwbus.PrimitiveCount][]*Expectation
}

// push appends an expectation to its primitive's FIFO.
func (q *expectationQueue) push(e *Expectation) {
	q.fifos[e.primitive] = append(q.fifos[e.primitive], e)
}

// consumeAndVerify pops the head expectation for the primitive and checks
// the captured parameters against it, fail-fast. A nil return is a pass.
func (q *expectationQueue) consumeAndVerify(p hwbus.PrimitiveID, seq int, params Params) error {
	fifo := q.fifos[p]
	if len(fifo) == 0 {
		if q.mode == Strict {
			return &UnexpectedCallError{Primitive: p, Seq: seq}
		}
		return nil
	}
	head := fifo[0]
	q.fifos[p] = fifo[1:]

	for _, c := range head.checks {
		expected, got, ok := c.matcher.check(params[c.name])
		if !ok {
			return &MismatchError{
				Primitive: p,
				Seq:       seq,
				Param:     c.name,
				Expected:  expected,
				Actual:    got,
			}
		}
	}
	return nil
}

// pending returns per-primitive counts of unconsumed expectations.
func (q *expectationQueue) pending() map[hwbus.PrimitiveID]int {
	out := map[hwbus.PrimitiveID]int{}
	for _, p := range hwbus.Primitives() {
		if n := len(q.fifos[p]); n > 0 {
			out[p] = n
		}
	}
	return out
}

// clear drops every queued expectation.
func (q *expectationQueue) clear() {
	q.fifos = [hwbus.PrimitiveCount][]*Expectation{}
}
