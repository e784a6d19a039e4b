// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

// Package report collects per-test-case outcomes and writes the results
// artifact consumed by external orchestration. Aggregation across runs and
// report formats beyond this artifact are the orchestration layer's problem.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Result is the outcome of one test case: passed, or failed with a
// diagnostic naming the offending primitive, call ordinal and
// expected-vs-actual detail.
type Result struct {
	Name       string         `cbor:"0,keyasint"`
	Passed     bool           `cbor:"1,keyasint"`
	Diagnostic string         `cbor:"2,keyasint,omitempty"`
	Calls      map[string]int `cbor:"3,keyasint,omitempty"`
	Duration   time.Duration  `cbor:"4,keyasint,omitempty"`
}

// Report is one harness run: an ordered list of test case results.
type Report struct {
	Started time.Time `cbor:"0,keyasint"`
	Results []Result  `cbor:"1,keyasint"`
}

// New creates an empty report stamped with the current time.
func New() *Report {
	return &Report{Started: time.Now()}
}

// Add appends one result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Passed returns the number of passing test cases.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of failing test cases.
func (r *Report) Failed() int {
	return len(r.Results) - r.Passed()
}

// EncodeCBOR writes the results artifact.
func (r *Report) EncodeCBOR(w io.Writer) error {
	data, err := cbor.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// DecodeCBOR reads a results artifact written by EncodeCBOR.
func DecodeCBOR(rd io.Reader) (*Report, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
