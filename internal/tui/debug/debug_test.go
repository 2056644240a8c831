// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package debug

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func resized(t *testing.T, width, height int) testModel {
	t.Helper()
	m := newTestModel()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(testModel)
}

func TestDebugScreen_FooterWidth80(t *testing.T) {
	m := resized(t, 80, 24)
	v := m.View()
	lines := strings.Split(v, "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpectedly short view: %d lines", len(lines))
	}
	footer := lines[len(lines)-1]
	if got := lipgloss.Width(footer); got != 80 {
		t.Fatalf("footer width mismatch: want=80 got=%d footer=%q", got, footer)
	}
}

func TestDebugScreen_FooterWidth120(t *testing.T) {
	m := resized(t, 120, 40)
	v := m.View()
	lines := strings.Split(v, "\n")
	footer := lines[len(lines)-1]
	if got := lipgloss.Width(footer); got != 120 {
		t.Fatalf("footer width mismatch: want=120 got=%d footer=%q", got, footer)
	}
}

func TestDebugScreen_ScrollAndQuit(t *testing.T) {
	m := resized(t, 80, 24)

	before := m.vp.YOffset
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = updated.(testModel)
	if m.vp.YOffset != before+1 {
		t.Fatalf("expected viewport to scroll down one line, offset %d -> %d", before, m.vp.YOffset)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command on q")
	}
	if msg := cmd(); msg == nil {
		t.Fatal("expected a quit message")
	}
}
