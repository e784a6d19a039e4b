// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	probeBus  string
	probeAddr uint16
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Open and close a real bus endpoint to check connectivity",
	Long: `Open a bus endpoint through the configured connection (serial port or
WebSocket bridge), then close it again. Verifies that the transport and the
far end are reachable before pointing real driver runs at them.

Exit codes:
  0 - Open and close succeeded
  1 - A primitive returned an error status
  2 - Connection error`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&probeBus, "bus", "", "Bus identifier to open (defaults to --port for serial)")
	probeCmd.Flags().Uint16Var(&probeAddr, "addr", 0, "Device address (bridge targets only)")
}

func runProbe(cmd *cobra.Command, args []string) error {
	bus, info, cleanup, err := OpenBus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer cleanup()

	target := probeBus
	if target == "" {
		target = portName
	}

	fmt.Printf("Busbench - Probe\n")
	fmt.Printf("Connection: %s\n", info)
	fmt.Printf("Opening %s (addr 0x%02X)...\n", target, probeAddr)

	h, st := bus.Open(target, probeAddr)
	if !st.Ok() {
		fmt.Fprintf(os.Stderr, "FAIL: open returned %s\n", st)
		os.Exit(1)
	}
	fmt.Printf("Open OK (handle %d)\n", h)

	if st := bus.Close(h); !st.Ok() {
		fmt.Fprintf(os.Stderr, "FAIL: close returned %s\n", st)
		os.Exit(1)
	}
	fmt.Printf("Close OK\n")
	return nil
}
