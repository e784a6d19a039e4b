// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package mockbus

import (
	"github.com/tidewater-embedded/busbench/pkg/hwbus"
)

// response is one canned reply: a status code and, for data-producing
// primitives, the bytes to place in the caller's receive buffer.
type response struct {
	status     hwbus.Status
	payload    []byte
	hasPayload bool
}

// injector holds a FIFO of canned responses per primitive. An exhausted
// FIFO is not an error: respond falls back to the configured default status
// so a test can leave primitives it does not care about unspecified.
type injector struct {
	fifos         [hwbus.PrimitiveCount][]response
	defaultStatus hwbus.Status
}

// push appends a canned response to the primitive's FIFO.
func (i *injector) push(p hwbus.PrimitiveID, r response) {
	i.fifos[p] = append(i.fifos[p], r)
}

// respond pops the next canned response. When the response carries a
// payload and buf is non-nil, min(len(buf), len(payload)) bytes are copied;
// the rest of buf is left untouched - callers must not assume zero-fill.
func (i *injector) respond(p hwbus.PrimitiveID, buf []byte) hwbus.Status {
	fifo := i.fifos[p]
	if len(fifo) == 0 {
		return i.defaultStatus
	}
	head := fifo[0]
	i.fifos[p] = fifo[1:]

	if head.hasPayload && buf != nil {
		copy(buf, head.payload)
	}
	return head.status
}

// clear drops every queued response.
func (i *injector) clear() {
	i.fifos = [hwbus.PrimitiveCount][]response{}
}
