// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded
//
// Busbench - black-box verification harness for bus-level hardware drivers.

package main

import (
	"os"

	"github.com/tidewater-embedded/busbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
