// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tidewater Embedded

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tidewater-embedded/busbench/pkg/mockbus"
	"github.com/tidewater-embedded/busbench/pkg/report"
	"github.com/tidewater-embedded/busbench/pkg/scenario"
)

var tuiStrict bool

var tuiCmd = &cobra.Command{
	Use:   "tui <scenario.lua> [more.lua...]",
	Short: "Run scenarios and browse the call ledger interactively",
	Long: `Run scenario scripts and open an interactive browser over the
results and the recorded call ledger. Arrow keys / PgUp / PgDn scroll,
q quits.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().BoolVar(&tuiStrict, "strict", false, "Fail on calls with no queued expectation")
}

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tuiPassStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tuiFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	tuiDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7"))
)

// ledgerModel is a read-only browser over scenario results and call logs.
type ledgerModel struct {
	content  string
	viewport viewport.Model
	ready    bool
	quitting bool
}

func (m ledgerModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func (m ledgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ledgerModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}
	header := tuiTitleStyle.Render("busbench ledger") + "\n" +
		tuiDimStyle.Render(strings.Repeat("-", m.viewport.Width)) + "\n"
	footer := tuiStatusStyle.Render(fmt.Sprintf(" %3.0f%% | q: quit ", m.viewport.ScrollPercent()*100))
	return header + m.viewport.View() + "\n" + footer
}

// formatCall renders one ledger entry with its captured parameters.
func formatCall(c mockbus.Call) string {
	names := make([]string, 0, len(c.Params))
	for name := range c.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		switch v := c.Params[name].(type) {
		case uint64:
			parts = append(parts, fmt.Sprintf("%s=0x%02X", name, v))
		case []byte:
			parts = append(parts, fmt.Sprintf("%s=[% 02X]", name, v))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", name, v))
		}
	}
	return fmt.Sprintf("#%-3d %-8s %s", c.Seq, c.Primitive, strings.Join(parts, " "))
}

func runTUI(cmd *cobra.Command, args []string) error {
	var opts []mockbus.Option
	if tuiStrict {
		opts = append(opts, mockbus.WithStrict())
	}
	runner := scenario.NewRunner(opts...)

	var b strings.Builder
	rep := report.New()
	for _, path := range args {
		res := runner.RunFile(path)
		rep.Add(res)

		if res.Passed {
			b.WriteString(tuiPassStyle.Render("PASS") + "  " + res.Name + "\n")
		} else {
			b.WriteString(tuiFailStyle.Render("FAIL") + "  " + res.Name + "\n")
			if res.Diagnostic != "" {
				b.WriteString("      " + res.Diagnostic + "\n")
			}
		}
		for _, call := range runner.Calls() {
			b.WriteString("  " + formatCall(call) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("%d test cases: %d passed, %d failed\n",
		len(rep.Results), rep.Passed(), rep.Failed()))

	m := ledgerModel{content: b.String()}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
