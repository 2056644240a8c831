// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
)

// remotesViewState tracks whether the list or the add-form is showing.
type remotesViewState int

const (
	remotesListView remotesViewState = iota
	remotesFormView
)

// backToListMsg signals a sub-form to close and return to its parent list.
type backToListMsg struct{}

// remoteModifiedMsg signals that a remote was created through the form.
type remoteModifiedMsg struct {
	name string
}

type remotesModel struct {
	state remotesViewState
	table table.Model
	store ui.Store
	form  remoteFormModel

	remotes   []model.Remote // Master list
	displayed []model.Remote // Filtered list, parallel to table rows

	filter      string
	isFiltering bool
	status      string
	err         error

	// For delete confirmation
	isConfirmingDelete bool
	remoteToDelete     model.Remote
	confirmCursor      int // 0 for No, 1 for Yes

	width, height int
}

func newRemotesModel(store ui.Store) remotesModel {
	m := remotesModel{store: store}

	columns := []table.Column{
		{Title: i18n.T("remotes.header.name"), Width: 18},
		{Title: i18n.T("remotes.header.kind"), Width: 8},
		{Title: i18n.T("remotes.header.url"), Width: 52},
		{Title: i18n.T("remotes.header.active"), Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorWhite).
		Background(colorHighlight).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	m.refresh()
	return m
}

func (m *remotesModel) refresh() {
	remotes, err := m.store.GetAllRemotes()
	if err != nil {
		m.err = err
		return
	}
	m.remotes = remotes
	m.rebuildTableRows()
}

func (m *remotesModel) rebuildTableRows() {
	var rows []table.Row
	var shown []model.Remote
	lowerFilter := strings.ToLower(m.filter)

	for _, r := range m.remotes {
		if m.filter != "" {
			haystack := strings.ToLower(r.Name + " " + string(r.Kind) + " " + r.URL)
			if !strings.Contains(haystack, lowerFilter) {
				continue
			}
		}
		activeCell := successStyle.Render("✓")
		nameCell := r.Name
		if !r.IsActive {
			activeCell = helpStyle.Render("-")
			nameCell = inactiveItemStyle.Render(r.Name)
		}
		rows = append(rows, table.Row{nameCell, string(r.Kind), r.URL, activeCell})
		shown = append(shown, r)
	}
	m.displayed = shown
	m.table.SetRows(rows)

	if m.isFiltering {
		m.table.GotoTop()
	}
}

func (m *remotesModel) selectedRemote() (model.Remote, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.displayed) {
		return model.Remote{}, false
	}
	return m.displayed[idx], true
}

func (m remotesModel) Init() tea.Cmd {
	return nil
}

func (m remotesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Route everything to the form while it is open.
	if m.state == remotesFormView {
		switch msg.(type) {
		case backToListMsg:
			m.state = remotesListView
			return m, nil
		case remoteModifiedMsg:
			m.state = remotesListView
			m.status = i18n.T("remotes.added", msg.(remoteModifiedMsg).name)
			m.refresh()
			return m, nil
		}
		var formModel tea.Model
		formModel, cmd = m.form.Update(msg)
		m.form = formModel.(remoteFormModel)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(msg.Height - 7)
		m.table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		// Handle delete confirmation
		if m.isConfirmingDelete {
			switch msg.String() {
			case "n", "q", "esc":
				m.isConfirmingDelete = false
				m.status = i18n.T("remotes.delete_cancelled")
				return m, nil
			case "right", "tab", "l":
				m.confirmCursor = 1 // Yes
				return m, nil
			case "left", "shift+tab", "h":
				m.confirmCursor = 0 // No
				return m, nil
			case "y":
				m.confirmCursor = 1
				fallthrough
			case "enter":
				if m.confirmCursor == 1 { // Yes is selected
					if err := m.store.DeleteRemote(m.remoteToDelete.ID); err != nil {
						m.err = err
					} else {
						m.status = i18n.T("remotes.deleted", m.remoteToDelete.Name)
						m.refresh()
					}
				}
				m.isConfirmingDelete = false
				return m, nil
			}
			return m, nil
		}

		// If we are in filtering mode, capture all input for the filter.
		if m.isFiltering {
			switch msg.Type {
			case tea.KeyEsc:
				m.isFiltering = false
				m.filter = ""
				m.rebuildTableRows()
			case tea.KeyEnter:
				m.isFiltering = false
			case tea.KeyBackspace:
				if len(m.filter) > 0 {
					m.filter = m.filter[:len(m.filter)-1]
					m.rebuildTableRows()
				}
			case tea.KeyRunes:
				m.filter += string(msg.Runes)
				m.rebuildTableRows()
			}
			return m, nil
		}

		// Not filtering, handle commands.
		switch msg.String() {
		case "/":
			m.isFiltering = true
			m.filter = ""
			m.status = ""
			m.rebuildTableRows()
			return m, nil
		case "q", "esc":
			if m.filter != "" {
				m.filter = ""
				m.rebuildTableRows()
				return m, nil
			}
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "a":
			m.form = newRemoteFormModel(m.store)
			m.state = remotesFormView
			m.status = ""
			return m, m.form.Init()
		case "x":
			if r, ok := m.selectedRemote(); ok {
				if err := m.store.ToggleRemoteStatus(r.ID); err != nil {
					m.err = err
				} else {
					m.status = i18n.T("remotes.toggled", r.Name)
					m.refresh()
				}
			}
			return m, nil
		case "c":
			if r, ok := m.selectedRemote(); ok {
				if err := clipboard.WriteAll(r.URL); err != nil {
					m.err = err
				} else {
					m.status = i18n.T("remotes.url_copied", r.Name)
				}
			}
			return m, nil
		case "d", "delete":
			if r, ok := m.selectedRemote(); ok {
				m.remoteToDelete = r
				m.isConfirmingDelete = true
				m.confirmCursor = 0 // Default to No
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m remotesModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.state == remotesFormView {
		return m.form.View()
	}

	if m.isConfirmingDelete {
		return m.viewConfirmation()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🌐 "+i18n.T("remotes.title")) + "\n\n")

	if len(m.remotes) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("remotes.empty")))
		b.WriteString(m.footerView())
		return b.String()
	}

	b.WriteString(m.table.View())
	if m.status != "" {
		b.WriteString("\n" + statusMessageStyle.Render(m.status))
	}
	b.WriteString(m.footerView())
	return b.String()
}

// viewConfirmation renders the modal dialog for confirming a remote removal.
func (m remotesModel) viewConfirmation() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🗑️ Confirm Deletion"))

	question := fmt.Sprintf("Are you sure you want to delete the remote\n\n%s?", m.remoteToDelete.String())
	b.WriteString(question)
	b.WriteString("\n\nDatasets already fetched through it stay in the catalog.")
	b.WriteString("\n\n")

	var yesButton, noButton string
	if m.confirmCursor == 1 { // Yes
		yesButton = activeButtonStyle.Render("Yes, Delete")
		noButton = buttonStyle.Render("No, Cancel")
	} else { // No
		yesButton = buttonStyle.Render("Yes, Delete")
		noButton = activeButtonStyle.Render("No, Cancel")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, noButton, "  ", yesButton)
	b.WriteString(buttons)

	b.WriteString("\n" + helpStyle.Render("\n(left/right to navigate, enter to confirm, esc to cancel)"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(b.String()),
	)
}

func (m remotesModel) footerView() string {
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)
	filterStatus := getFilterStatusLine(m.isFiltering, m.filter, FilterI18nKeys{
		Filtering:    "remotes.filtering",
		FilterActive: "remotes.filter_active",
		FilterHint:   "remotes.filter_hint",
	})

	width := m.width
	if width <= 0 {
		width = 100
	}
	left := i18n.T("remotes.footer")
	return "\n" + footerStyle.Render(AlignFooter(left, filterStatus, width-2))
}
