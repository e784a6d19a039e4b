// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tidewater Embedded

package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Summary renders a terminal summary of the report: one line per test case
// plus pass/fail totals.
func Summary(r *Report) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("busbench results"))
	b.WriteString("\n\n")

	for _, res := range r.Results {
		if res.Passed {
			b.WriteString(passStyle.Render("PASS"))
		} else {
			b.WriteString(failStyle.Render("FAIL"))
		}
		b.WriteString("  ")
		b.WriteString(res.Name)
		if res.Duration > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s)", res.Duration.Round(100*time.Microsecond))))
		}
		b.WriteString("\n")
		if !res.Passed && res.Diagnostic != "" {
			b.WriteString("      " + res.Diagnostic + "\n")
		}
		if len(res.Calls) > 0 {
			b.WriteString(dimStyle.Render("      calls: "+formatCalls(res.Calls)) + "\n")
		}
	}

	b.WriteString("\n")
	total := len(r.Results)
	line := fmt.Sprintf("%d test cases: %d passed, %d failed", total, r.Passed(), r.Failed())
	if r.Failed() > 0 {
		b.WriteString(failStyle.Render(line))
	} else {
		b.WriteString(passStyle.Render(line))
	}
	b.WriteString("\n")

	return b.String()
}

// formatCalls renders per-primitive counts in a stable order.
func formatCalls(calls map[string]int) string {
	names := make([]string, 0, len(calls))
	for name := range calls {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, calls[name]))
	}
	return strings.Join(parts, " ")
}
