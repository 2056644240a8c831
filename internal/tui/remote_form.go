// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
)

// A simple style for focused text inputs.
var focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
var disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

type remoteFormModel struct {
	focusIndex int
	inputs     []textinput.Model // 0: name, 1: kind, 2: url
	store      ui.Store
	err        error
}

func newRemoteFormModel(store ui.Store) remoteFormModel {
	m := remoteFormModel{
		store:  store,
		inputs: make([]textinput.Model, 3),
	}

	var t textinput.Model
	for i := range m.inputs {
		t = textinput.New()
		t.Cursor.Style = focusedStyle
		t.CharLimit = 128
		t.Width = 52

		switch i {
		case 0:
			t.Prompt = "Name: "
			t.Placeholder = "mirror"
		case 1:
			t.Prompt = "Kind: "
			t.Placeholder = "index | git | archive | raw | sftp"
		case 2:
			t.Prompt = "URL:  "
			t.Placeholder = "https://github.com/jmborr/qef/raw/master"
		}
		m.inputs[i] = t
	}

	m.inputs[0].Focus()
	m.inputs[0].TextStyle = focusedStyle

	return m
}

func (m remoteFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m remoteFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		// Go back to the remotes list.
		case "esc":
			return m, func() tea.Msg { return backToListMsg{} }

		// Set focus to next input
		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			// Did the user press enter while the submit button was focused?
			// If so, register the remote.
			if s == "enter" && m.focusIndex == len(m.inputs) {
				name := strings.TrimSpace(m.inputs[0].Value())
				url := strings.TrimSpace(m.inputs[2].Value())

				if name == "" || url == "" {
					m.err = fmt.Errorf("name and URL cannot be empty")
					return m, nil
				}
				kind, err := model.ParseRemoteKind(m.inputs[1].Value())
				if err != nil {
					m.err = err
					return m, nil
				}

				if _, err := m.store.AddRemote(name, kind, url); err != nil {
					m.err = err
					return m, nil
				}
				// Signal that we're done.
				return m, func() tea.Msg { return remoteModifiedMsg{name: name} }
			}

			// Cycle focus
			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := 0; i <= len(m.inputs)-1; i++ {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].TextStyle = focusedStyle
					continue
				}
				m.inputs[i].Blur()
				m.inputs[i].TextStyle = lipgloss.NewStyle()
			}

			return m, tea.Batch(cmds...)
		}
	}

	// Handle character input and blinking
	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *remoteFormModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m remoteFormModel) View() string {
	var viewItems []string

	viewItems = append(viewItems, titleStyle.Render("✨ Add New Remote"))

	// The title's padding adds a newline, so we add one more for a blank line.
	viewItems = append(viewItems, "")
	for i := range m.inputs {
		viewItems = append(viewItems, m.inputs[i].View())
	}

	button := formItemStyle.Render("[ Submit ]")
	if m.focusIndex == len(m.inputs) {
		button = formSelectedItemStyle.Render("[ Submit ]")
	}
	viewItems = append(viewItems, "", button) // Blank line before button

	if m.err != nil {
		viewItems = append(viewItems, "", helpStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	viewItems = append(viewItems, "", helpStyle.Render("(tab to navigate, enter to submit, esc to cancel)"))

	return lipgloss.JoinVertical(lipgloss.Left, viewItems...)
}
