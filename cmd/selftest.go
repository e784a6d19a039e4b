// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidewater-embedded/busbench/pkg/hwbus"
	"github.com/tidewater-embedded/busbench/pkg/mockbus"
	"github.com/tidewater-embedded/busbench/pkg/report"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Exercise the mock engine with built-in checks",
	Long: `Run built-in checks against the mock engine itself: expectation
matching, canned response injection, mismatch diagnostics and cross-case
isolation. Useful as an installation smoke test.

Exit codes:
  0 - All checks passed
  1 - At least one check failed`,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

// selfCheck is one built-in check: it drives the harness and returns an
// error describing the first deviation it sees.
type selfCheck struct {
	name string
	run  func(h *mockbus.Harness, bus *mockbus.Mock) error
}

var selfChecks = []selfCheck{
	{
		name: "write with matching command and length",
		run: func(h *mockbus.Harness, bus *mockbus.Mock) error {
			h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01).Uint("len", 4)
			h.InjectStatus(hwbus.PrimWrite, hwbus.StatusOK)
			if st := bus.Write(3, 0x01, []byte{1, 2, 3, 4}); st != hwbus.StatusOK {
				return fmt.Errorf("write returned %s, want ok", st)
			}
			if !h.Called(hwbus.PrimWrite, 1) {
				return fmt.Errorf("write count = %d, want 1", h.CountOf(hwbus.PrimWrite))
			}
			return nil
		},
	},
	{
		name: "read with no canned response",
		run: func(h *mockbus.Harness, bus *mockbus.Mock) error {
			buf := []byte{0xEE, 0xEE}
			if st := bus.Read(3, 0x02, buf); st != hwbus.StatusNotConfigured {
				return fmt.Errorf("read returned %s, want not-configured", st)
			}
			if !bytes.Equal(buf, []byte{0xEE, 0xEE}) {
				return fmt.Errorf("caller buffer was modified: % X", buf)
			}
			return nil
		},
	},
	{
		name: "write command mismatch is diagnosed and aborts",
		run: func(h *mockbus.Harness, bus *mockbus.Mock) error {
			h.Expect(hwbus.PrimWrite).Uint("cmd", 0x01)
			if st := bus.Write(3, 0x02, nil); st != hwbus.StatusAborted {
				return fmt.Errorf("mismatched write returned %s, want aborted", st)
			}
			if h.Failure() == nil {
				return fmt.Errorf("no failure latched for mismatched write")
			}
			// Later driver calls must be suppressed, not recorded
			bus.Close(3)
			if h.CountOf(hwbus.PrimClose) != 0 {
				return fmt.Errorf("close executed after abort")
			}
			return nil
		},
	},
	{
		name: "canned payload truncated to caller buffer",
		run: func(h *mockbus.Harness, bus *mockbus.Mock) error {
			h.InjectRead(hwbus.PrimRead, hwbus.StatusOK, []byte{0xDE, 0xAD, 0xBE, 0xEF})
			buf := make([]byte, 2)
			if st := bus.Read(3, 0x10, buf); st != hwbus.StatusOK {
				return fmt.Errorf("read returned %s, want ok", st)
			}
			if !bytes.Equal(buf, []byte{0xDE, 0xAD}) {
				return fmt.Errorf("buffer = % X, want DE AD", buf)
			}
			return nil
		},
	},
}

func runSelftest(cmd *cobra.Command, args []string) error {
	h := mockbus.New()
	bus := h.Bus()
	rep := report.New()

	for _, check := range selfChecks {
		start := time.Now()
		res := report.Result{Name: check.name}

		if err := h.Arm(); err != nil {
			res.Diagnostic = err.Error()
			rep.Add(res)
			continue
		}
		err := check.run(h, bus)
		h.Teardown()

		res.Duration = time.Since(start)
		if err != nil {
			res.Diagnostic = err.Error()
		} else {
			res.Passed = true
		}
		rep.Add(res)
	}

	// Cross-case isolation: the mismatch check above left a failed case
	// behind; a fresh arm must start from zero counters and empty queues.
	res := report.Result{Name: "sequential cases are isolated"}
	h.Arm()
	clean := true
	for _, p := range hwbus.Primitives() {
		if h.CountOf(p) != 0 {
			clean = false
		}
	}
	if err := h.Teardown(); err != nil {
		clean = false
	}
	if clean {
		res.Passed = true
	} else {
		res.Diagnostic = "state leaked across arm boundary"
	}
	rep.Add(res)

	fmt.Print(report.Summary(rep))
	if rep.Failed() > 0 {
		os.Exit(1)
	}
	return nil
}
