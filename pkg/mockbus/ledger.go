// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// Params is the captured argument snapshot for one call. Scalars are
// normalized to uint64, strings stay strings, and byte slices are copied at
// capture time - the caller may reuse or free its buffer after the
// primitive returns.
type Params map[string]any

// clone deep-copies the snapshot, duplicating byte slices.
func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if b, ok := v.([]byte); ok {
			out[k] = append([]byte(nil), b...)
			continue
		}
		out[k] = v
	}
	return out
}

// Call records one intercepted invocation.
type Call struct {
	Primitive hwbus.PrimitiveID
	Seq       int // 1-based ordinal across all primitives in the test case
	Params    Params
}

// ledger tracks per-primitive invocation counters and the ordered call log
// for one test case. Counters only grow between resets; reset happens
// exactly once per case, at arm time.
type ledger struct {
	counts [hwbus.PrimitiveCount]int
	calls  []Call
}

// record appends a call and returns its ordinal.
func (l *ledger) record(p hwbus.PrimitiveID, params Params) int {
	l.counts[p]++
	seq := len(l.calls) + 1
	l.calls = append(l.calls, Call{
		Primitive: p,
		Seq:       seq,
		Params:    params.clone(),
	})
	return seq
}

// countOf returns the invocation count for one primitive.
func (l *ledger) countOf(p hwbus.PrimitiveID) int {
	if int(p) >= hwbus.PrimitiveCount {
		return 0
	}
	return l.counts[p]
}

// snapshot returns a copy of the ordered call log.
func (l *ledger) snapshot() []Call {
	return append([]Call(nil), l.calls...)
}

// reset zeroes all counters and clears the log.
func (l *ledger) reset() {
	l.counts = [hwbus.PrimitiveCount]int{}
	l.calls = nil
}
