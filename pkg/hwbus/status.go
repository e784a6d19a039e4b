// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package hwbus

import "fmt"

// Status is the driver-visible result of a bus primitive. Zero and positive
// values indicate success (Open additionally uses the positive range for
// handle values, fd style); negative values are error codes.
//
// Primitives return Status rather than error so that canned status codes can
// be injected through the same boundary the driver observes. Err bridges to
// a Go error where one is wanted.
type Status int32

const (
	StatusOK            Status = 0
	StatusNotConfigured Status = -1 // no canned response was queued for this call
	StatusNoDevice      Status = -2
	StatusIO            Status = -3
	StatusTimeout       Status = -4
	StatusInvalid       Status = -5
	StatusAborted       Status = -6 // test case already failed; call suppressed
)

// Ok reports whether the status indicates success.
func (s Status) Ok() bool {
	return s >= 0
}

// String returns a short name for the status code
func (s Status) String() string {
	if s > 0 {
		return fmt.Sprintf("ok(%d)", int32(s))
	}
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotConfigured:
		return "not-configured"
	case StatusNoDevice:
		return "no-device"
	case StatusIO:
		return "io-error"
	case StatusTimeout:
		return "timeout"
	case StatusInvalid:
		return "invalid-argument"
	case StatusAborted:
		return "aborted"
	}
	return fmt.Sprintf("error(%d)", int32(s))
}

// Err returns nil for success statuses and a descriptive error otherwise.
func (s Status) Err() error {
	if s.Ok() {
		return nil
	}
	return fmt.Errorf("bus error: %s", s)
}
