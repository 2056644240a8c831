// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
)

// datasetsViewState tracks which sub-screen of the dataset view is showing.
type datasetsViewState int

const (
	datasetsListView datasetsViewState = iota
	datasetsTagEditView
)

type datasetsModel struct {
	state     datasetsViewState
	table     table.Model
	store     ui.Store
	searcher  ui.DatasetSearcher
	suggester ui.TagSuggester

	allDatasets []model.Dataset // Master list
	displayed   []model.Dataset // Filtered list, parallel to the table rows

	filter      string
	filterCol   int // 0=all, 1=name, 2=kind, 3=source, 4=tags
	isFiltering bool
	status      string
	err         error

	// For delete confirmation
	isConfirmingDelete bool
	datasetToDelete    model.Dataset
	confirmCursor      int // 0 for No, 1 for Yes

	// For tag editing
	tagInput       textinput.Model
	editingDataset model.Dataset

	width, height int
}

// newDatasetsModel creates the dataset view against the default catalog store.
func newDatasetsModel(store ui.Store, searcher ui.DatasetSearcher) datasetsModel {
	m := datasetsModel{
		store:     store,
		searcher:  searcher,
		suggester: ui.DefaultTagSuggester(),
	}

	columns := []table.Column{
		{Title: i18n.T("datasets.header.name"), Width: 38},
		{Title: i18n.T("datasets.header.kind"), Width: 8},
		{Title: i18n.T("datasets.header.size"), Width: 10},
		{Title: i18n.T("datasets.header.source"), Width: 8},
		{Title: i18n.T("datasets.header.tags"), Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
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

// refresh reloads the master list from the catalog and rebuilds the rows.
func (m *datasetsModel) refresh() {
	datasets, err := m.store.GetAllDatasets()
	if err != nil {
		m.err = err
		return
	}
	m.allDatasets = datasets
	m.rebuildTableRows()
}

// rebuildTableRows applies the current filter and repopulates the table.
// An unqualified filter goes through the searcher so it matches the same
// way `qefdata list --search` does; per-column filters match in memory.
func (m *datasetsModel) rebuildTableRows() {
	var source []model.Dataset
	switch {
	case m.filter == "":
		source = m.allDatasets
	case m.filterCol == 0 && m.searcher != nil:
		results, err := m.searcher.SearchDatasets(m.filter)
		if err != nil {
			m.err = err
			return
		}
		source = results
	default:
		lowerFilter := strings.ToLower(m.filter)
		for _, ds := range m.allDatasets {
			var field string
			switch m.filterCol {
			case 1:
				field = ds.Name
			case 2:
				field = string(ds.Kind)
			case 3:
				field = string(ds.Source)
			case 4:
				field = ds.Tags
			default:
				field = ds.Name + " " + string(ds.Kind) + " " + string(ds.Source) + " " + ds.Tags
			}
			if strings.Contains(strings.ToLower(field), lowerFilter) {
				source = append(source, ds)
			}
		}
	}

	rows := make([]table.Row, 0, len(source))
	for _, ds := range source {
		nameCell := ds.Name
		if !ds.IsActive {
			nameCell = inactiveItemStyle.Render(ds.Name)
		}
		sizeCell := "-"
		if ds.Size > 0 {
			sizeCell = ui.FormatSize(ds.Size)
		}
		sourceCell := "-"
		if ds.Fetched() {
			sourceCell = string(ds.Source)
		}
		rows = append(rows, table.Row{nameCell, string(ds.Kind), sizeCell, sourceCell, ds.Tags})
	}
	m.displayed = source
	m.table.SetRows(rows)

	if m.isFiltering {
		m.table.GotoTop()
	}
}

// selectedDataset returns the dataset under the table cursor, if any.
func (m *datasetsModel) selectedDataset() (model.Dataset, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.displayed) {
		return model.Dataset{}, false
	}
	return m.displayed[idx], true
}

func (m datasetsModel) Init() tea.Cmd {
	return nil
}

func (m datasetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header(3) + detail(2) + filter/help(3)
		m.table.SetHeight(msg.Height - 8)
		m.table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		// Tag editor captures all input while open.
		if m.state == datasetsTagEditView {
			switch msg.Type {
			case tea.KeyEsc:
				m.state = datasetsListView
				m.status = i18n.T("datasets.tags_cancelled")
				return m, nil
			case tea.KeyEnter:
				tags := model.NormalizeTags(m.tagInput.Value())
				if err := m.store.UpdateDatasetTags(m.editingDataset.ID, tags); err != nil {
					m.err = err
				} else {
					m.status = i18n.T("datasets.tags_updated", m.editingDataset.Name)
					m.refresh()
				}
				m.state = datasetsListView
				return m, nil
			}
			m.tagInput, cmd = m.tagInput.Update(msg)
			return m, cmd
		}

		// Handle delete confirmation
		if m.isConfirmingDelete {
			switch msg.String() {
			case "n", "q", "esc":
				m.isConfirmingDelete = false
				m.status = i18n.T("datasets.delete_cancelled")
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
					if err := m.store.DeleteDataset(m.datasetToDelete.ID); err != nil {
						m.err = err
					} else {
						m.status = i18n.T("datasets.deleted", m.datasetToDelete.Name)
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
			case tea.KeyTab:
				m.filterCol = (m.filterCol + 1) % 5
				m.rebuildTableRows()
			case tea.KeyShiftTab:
				m.filterCol = (m.filterCol + 4) % 5
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
		case "x":
			if ds, ok := m.selectedDataset(); ok {
				if err := m.store.ToggleDatasetStatus(ds.ID); err != nil {
					m.err = err
				} else {
					m.status = i18n.T("datasets.toggled", ds.Name)
					m.refresh()
				}
			}
			return m, nil
		case "t":
			if ds, ok := m.selectedDataset(); ok {
				ti := textinput.New()
				ti.Placeholder = i18n.T("datasets.tags_placeholder")
				ti.SetValue(ds.Tags)
				ti.CharLimit = 120
				ti.Width = 48
				ti.PromptStyle = focusedStyle
				ti.TextStyle = focusedStyle
				ti.Focus()
				m.tagInput = ti
				m.editingDataset = ds
				m.state = datasetsTagEditView
				m.status = ""
				return m, textinput.Blink
			}
			return m, nil
		case "c":
			if ds, ok := m.selectedDataset(); ok {
				if ds.SHA256 == "" {
					m.status = i18n.T("datasets.no_checksum", ds.Name)
				} else if err := clipboard.WriteAll(ds.SHA256); err != nil {
					m.err = err
				} else {
					m.status = i18n.T("datasets.checksum_copied", ui.ShortChecksum(ds.SHA256))
				}
			}
			return m, nil
		case "d", "delete":
			if ds, ok := m.selectedDataset(); ok {
				m.datasetToDelete = ds
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

func (m datasetsModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.isConfirmingDelete {
		return m.viewConfirmation()
	}

	if m.state == datasetsTagEditView {
		return m.viewTagEditor()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🗂  "+i18n.T("datasets.title")) + "\n\n")

	if len(m.allDatasets) == 0 {
		b.WriteString(helpStyle.Render(i18n.T("datasets.empty")))
		b.WriteString(m.footerView())
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n" + m.detailLine())
	if m.status != "" {
		b.WriteString("\n" + statusMessageStyle.Render(m.status))
	}
	b.WriteString(m.footerView())
	return b.String()
}

// detailLine shows checksum and local path for the highlighted dataset.
func (m datasetsModel) detailLine() string {
	ds, ok := m.selectedDataset()
	if !ok {
		return ""
	}
	sum := ui.ShortChecksum(ds.SHA256)
	if sum == "" {
		sum = "-"
	}
	location := i18n.T("datasets.not_fetched")
	if ds.Fetched() {
		location = ds.LocalPath
	}
	return helpStyle.Render(fmt.Sprintf("sha256: %s  •  %s", sum, location))
}

// viewConfirmation renders the modal dialog for confirming a dataset removal.
func (m datasetsModel) viewConfirmation() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🗑️ Confirm Deletion"))

	question := fmt.Sprintf("Are you sure you want to remove the dataset\n\n%s from the catalog?", m.datasetToDelete.Name)
	b.WriteString(question)
	b.WriteString("\n\nThe file on disk is left untouched.")
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

	// Center the whole dialog
	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(b.String()),
	)
}

// viewTagEditor renders the inline tag editing form with suggestions.
func (m datasetsModel) viewTagEditor() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🏷️  "+i18n.T("datasets.edit_tags_title")) + "\n\n")
	b.WriteString(m.editingDataset.Name + "\n\n")
	b.WriteString(m.tagInput.View())

	if m.suggester != nil {
		if suggestions := m.suggester.Suggest(m.tagInput.Value()); len(suggestions) > 0 {
			if len(suggestions) > 5 {
				suggestions = suggestions[:5]
			}
			b.WriteString("\n" + helpStyle.Render(i18n.T("datasets.tag_suggestions", strings.Join(suggestions, ", "))))
		}
	}

	b.WriteString("\n\n" + helpStyle.Render(i18n.T("datasets.tags_help")))
	return b.String()
}

func (m datasetsModel) footerView() string {
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)
	colNames := []string{
		i18n.T("all"),
		i18n.T("datasets.header.name"),
		i18n.T("datasets.header.kind"),
		i18n.T("datasets.header.source"),
		i18n.T("datasets.header.tags"),
	}
	filterStatus := getFilterStatusLine(m.isFiltering, m.filter, FilterI18nKeys{
		Filtering:    "datasets.filtering",
		FilterActive: "datasets.filter_active",
		FilterHint:   "datasets.filter_hint",
	}, colNames[m.filterCol])

	width := m.width
	if width <= 0 {
		width = 100
	}
	left := i18n.T("datasets.footer")
	return "\n" + footerStyle.Render(AlignFooter(left, filterStatus, width-2))
}
