// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidewater-embedded/busbench/pkg/mockbus"
	"github.com/tidewater-embedded/busbench/pkg/report"
	"github.com/tidewater-embedded/busbench/pkg/scenario"
)

var (
	runOutPath string
	runStrict  bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.lua> [more.lua...]",
	Short: "Run scenario scripts against the mock bus",
	Long: `Run one or more Lua scenario scripts against the verifying mock bus.

Each script is one test case: the harness is armed before the script runs
and torn down after it, so no state leaks between scenarios. The summary is
printed to stdout; pass --out to also write the CBOR results artifact
consumed by orchestration tooling.

Exit codes:
  0 - All scenarios passed
  1 - At least one scenario failed`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutPath, "out", "o", "", "Write CBOR results artifact to this path")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Fail on calls with no queued expectation")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	var opts []mockbus.Option
	if runStrict {
		opts = append(opts, mockbus.WithStrict())
	}
	runner := scenario.NewRunner(opts...)

	rep := report.New()
	for _, path := range args {
		rep.Add(runner.RunFile(path))
	}

	fmt.Print(report.Summary(rep))

	if runOutPath != "" {
		f, err := os.Create(runOutPath)
		if err != nil {
			return fmt.Errorf("failed to create results artifact: %v", err)
		}
		defer f.Close()
		if err := rep.EncodeCBOR(f); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", runOutPath)
	}

	if rep.Failed() > 0 {
		os.Exit(1)
	}
	return nil
}
