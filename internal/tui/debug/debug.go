// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// Package debug holds a development-only smoke screen for the TUI stack. It
// renders a scrollable pane with mixed-width content so terminal, font and
// escape-sequence problems surface before they are blamed on a real view.
package debug

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Launch runs the development-only test screen. It returns immediately if the
// environment variable QEFDATA_TUI_TEST is not set to "1".
func Launch() {
	if os.Getenv("QEFDATA_TUI_TEST") != "1" {
		return
	}
	if _, err := tea.NewProgram(newTestModel()).Run(); err != nil {
		// On failure, print to stderr and exit non-zero to aid debugging.
		os.Stderr.WriteString("test screen error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

type testModel struct {
	vp     viewport.Model
	width  int
	height int
}

func newTestModel() testModel {
	m := testModel{
		vp: viewport.New(20, 5),
	}
	// Populate the viewport with sample multi-line content including unicode.
	sample := "This is a TUI framework test screen.\n"
	sample += "It shows a header, a scrollable body and a footer.\n"
	sample += "Unicode test: ✓ ✅ ✨ — 漢字 — テスト\n"
	sample += "Emoji column test: 🧪 🗂 🌐 ⬇️ 📜\n\n"
	for i := 0; i < 40; i++ {
		sample += fmt.Sprintf("io/sample_%02d.nxs  nexus  %6d KiB  sha256: %016x…\n", i, (i+1)*137, uint64(i)*0x9e3779b97f4a7c15)
	}
	m.vp.SetContent(sample)
	return m
}

func (m testModel) Init() tea.Cmd { return nil }

func (m testModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			m.vp.LineDown(1)
		case "k", "up":
			m.vp.LineUp(1)
		}
	case tea.WindowSizeMsg:
		// Reserve lines for the header, border and footer.
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - 6
		if bodyHeight < 3 {
			bodyHeight = 3
		}
		m.vp.Height = bodyHeight
		m.vp.Width = msg.Width - 4
	}
	return m, nil
}

func (m testModel) View() string {
	title := "🧪 qefdata — TUI framework test screen"
	subtitle := "Scroll with j/k, quit with q."

	titleStyle := lipgloss.NewStyle().Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	paneStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)

	body := paneStyle.Render(m.vp.View())

	footerLeft := fmt.Sprintf("%3.0f%%", m.vp.ScrollPercent()*100)
	footerWidth := m.width
	if footerWidth <= 0 {
		footerWidth = lipgloss.Width(body)
	}
	gap := footerWidth - lipgloss.Width(footerLeft) - len("q Quit") - 2
	if gap < 1 {
		gap = 1
	}
	footer := footerStyle.Render(footerLeft + strings.Repeat(" ", gap) + "q Quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		subtitleStyle.Render(subtitle),
		body,
		footer,
	)
}
