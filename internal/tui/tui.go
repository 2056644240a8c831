// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for qefdata.
// This file, tui.go, is the main entry point for the TUI, containing the
// top-level model that acts as a router to all other sub-views.
package tui // import "github.com/jmborr/qefdata/internal/tui"

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
	"github.com/jmborr/qefdata/internal/core"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/logging"
	"github.com/jmborr/qefdata/internal/model"
	tuidbg "github.com/jmborr/qefdata/internal/tui/debug"
	"github.com/jmborr/qefdata/internal/ui"
	"github.com/jmborr/qefdata/internal/uiadapters"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// menuView is the main dashboard and navigation menu.
	menuView viewState = iota
	datasetsView
	remotesView
	fetchView
	auditLogView
	languageView
)

// backToMenuMsg signals a sub-view to hand control back to the main menu.
type backToMenuMsg struct{}

// dashboardDataMsg is a message containing the data for the main menu dashboard.
type dashboardDataMsg struct {
	data dashboardData
}

// languageChangedMsg is a message to signal that the language has changed and the UI should be re-initialized.
type languageChangedMsg struct{}

// dashboardData holds the summary information for the main menu view.
type dashboardData struct {
	datasetCount    int
	activeDatasets  int
	fetchedDatasets int
	fetchedBytes    int64
	kindBreakdown   string
	remoteCount     int
	activeRemotes   int
	snapshotCount   int
	lastSnapshotTag string
	recentLogs      []model.AuditLogEntry
	err             error
}

// mainModel is the top-level model for the TUI. It acts as a state machine
// and router, delegating updates and view rendering to the currently active sub-model.
type mainModel struct {
	state     viewState
	menu      menuModel
	datasets  datasetsModel
	remotes   remotesModel
	fetcher   fetchModel
	auditLog  auditLogModel
	language  languageModel
	dashboard dashboardData
	width     int
	height    int
	err       error
	// Injected store and searchers propagated to sub-models.
	store           ui.Store
	datasetSearcher ui.DatasetSearcher
	auditSearcher   ui.AuditSearcher
	dataDir         string
}

// menuModel holds the state for the main menu.
type menuModel struct {
	choices []string // The menu items to show.
	cursor  int      // Which menu item our cursor is pointing at.
}

// languageModel holds the state for the language selection menu.
type languageModel struct {
	choices     map[string]string // map of lang code to display name
	orderedKeys []string          // for stable iteration
	cursor      int
}

// configPersister saves the active configuration. The TUI swaps it for a
// stub in tests so a language change does not write a real file.
type configPersister interface {
	Save() error
}

type viperConfigSaver struct{}

func (viperConfigSaver) Save() error {
	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return viper.SafeWriteConfig()
		}
		return err
	}
	return nil
}

var configSaver configPersister = viperConfigSaver{}

// initialModelWithSearchers creates the starting state of the TUI while
// allowing injection of the store and searchers used by sub-models.
func initialModelWithSearchers(store ui.Store, ds ui.DatasetSearcher, au ui.AuditSearcher) mainModel {
	return mainModel{
		state: menuView,
		menu: menuModel{
			choices: []string{
				i18n.T("menu.manage_datasets"),
				i18n.T("menu.manage_remotes"),
				i18n.T("menu.fetch_datasets"),
				i18n.T("menu.view_audit_log"),
				i18n.T("menu.language"),
			},
		},
		store:           store,
		datasetSearcher: ds,
		auditSearcher:   au,
		dataDir:         viper.GetString("data_dir"),
	}
}

// initialModel creates the starting state of the TUI, beginning at the main menu.
func initialModel() mainModel {
	return initialModelWithSearchers(uiadapters.NewStoreAdapter(), ui.DefaultDatasetSearcher(), ui.DefaultAuditSearcher())
}

// Init is the first function that will be called by the Bubble Tea runtime.
// It kicks off the initial command to load data for the dashboard.
func (m mainModel) Init() tea.Cmd {
	return refreshDashboardCmd(m.store)
}

// Update is the main message loop. It handles all events (like key presses and
// window size changes) and delegates them to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings that work everywhere.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case dashboardDataMsg:
		m.dashboard = msg.data
		if msg.data.err != nil {
			m.err = msg.data.err
		}
		return m, nil

	case languageChangedMsg:
		// The language has changed. Re-initialize the entire model to apply new translations everywhere.
		// Preserve the injected store and searchers so injected fakes remain in effect.
		newModel := initialModelWithSearchers(m.store, m.datasetSearcher, m.auditSearcher)
		// Preserve the current window dimensions so the layout remains correct.
		newModel.width = m.width
		newModel.height = m.height
		return newModel, newModel.Init()
	}

	// Delegate updates to the currently active view.
	switch m.state {
	case datasetsView:
		// If we received a "back" message, switch the state.
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, refreshDashboardCmd(m.store)
		}
		var newDatasetsModel tea.Model
		newDatasetsModel, cmd = m.datasets.Update(msg)
		m.datasets = newDatasetsModel.(datasetsModel)

	case remotesView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, refreshDashboardCmd(m.store)
		}
		var newRemotesModel tea.Model
		newRemotesModel, cmd = m.remotes.Update(msg)
		m.remotes = newRemotesModel.(remotesModel)

	case fetchView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, refreshDashboardCmd(m.store)
		}
		var newFetchModel tea.Model
		newFetchModel, cmd = m.fetcher.Update(msg)
		m.fetcher = newFetchModel.(fetchModel)

	case auditLogView:
		if _, ok := msg.(backToMenuMsg); ok {
			m.state = menuView
			return m, refreshDashboardCmd(m.store)
		}
		var newAuditLogModel tea.Model
		newAuditLogModel, cmd = m.auditLog.Update(msg)
		m.auditLog = newAuditLogModel.(auditLogModel)

	case languageView:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q", "esc":
				m.state = menuView
				return m, refreshDashboardCmd(m.store)
			case "up", "k":
				if m.language.cursor > 0 {
					m.language.cursor--
				}
			case "down", "j":
				if m.language.cursor < len(m.language.orderedKeys)-1 {
					m.language.cursor++
				}
			case "enter":
				langCode := m.language.orderedKeys[m.language.cursor]
				i18n.SetLang(langCode)
				viper.Set("language", langCode)
				if err := configSaver.Save(); err != nil {
					m.err = fmt.Errorf("failed to save config: %w", err)
				}

				// Signal that the language has changed so the entire UI can be re-initialized.
				return m, func() tea.Msg { return languageChangedMsg{} }
			}
		}
		var newLangModel tea.Model
		newLangModel, cmd = m.language.Update(msg)
		m.language = newLangModel.(languageModel)

	default: // menuView
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q":
				return m, tea.Quit
			case "up", "k":
				if m.menu.cursor > 0 {
					m.menu.cursor--
				}
			case "down", "j":
				if m.menu.cursor < len(m.menu.choices)-1 {
					m.menu.cursor++
				}
			case "enter":
				switch m.menu.cursor {
				case 0: // Manage Datasets
					m.state = datasetsView
					m.datasets = newDatasetsModel(m.store, m.datasetSearcher)
					// Manually update the new sub-model with the current window size
					// to ensure the table is initialized correctly.
					var updatedModel tea.Model
					updatedModel, cmd = m.datasets.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.datasets = updatedModel.(datasetsModel)
					return m, cmd
				case 1: // Manage Remotes
					m.state = remotesView
					m.remotes = newRemotesModel(m.store)
					var updatedModel tea.Model
					updatedModel, cmd = m.remotes.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.remotes = updatedModel.(remotesModel)
					return m, cmd
				case 2: // Fetch Datasets
					m.state = fetchView
					m.fetcher = newFetchModel(m.store, m.dataDir)
					var updatedModel tea.Model
					updatedModel, cmd = m.fetcher.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.fetcher = updatedModel.(fetchModel)
					return m, cmd
				case 3: // View Audit Log
					m.state = auditLogView
					m.auditLog = newAuditLogModelWithSearcher(m.auditSearcher)
					var updatedModel tea.Model
					updatedModel, cmd = m.auditLog.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
					m.auditLog = updatedModel.(auditLogModel)
					return m, cmd
				case 4: // Language
					m.state = languageView
					m.language = newLanguageModel()
					return m, nil
				}
			case "L":
				// "L" opens the language menu from anywhere on the dashboard.
				m.state = languageView
				m.language = newLanguageModel()
				return m, nil
			}
		}
	}

	return m, cmd
}

// View renders the TUI. It's called after every Update and delegates rendering
// to the currently active sub-model.
func (m mainModel) View() string {
	if m.err != nil {
		// A simple error view
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1, 2)
		return errorStyle.Render(fmt.Sprintf("An error occurred: %v", m.err))
	}

	// Delegate rendering to the currently active view.
	switch m.state {
	case datasetsView:
		return m.datasets.View()
	case remotesView:
		return m.remotes.View()
	case fetchView:
		return m.fetcher.View()
	case auditLogView:
		return m.auditLog.View()
	case languageView:
		return m.language.View()
	default: // menuView
		return m.menu.View(m.dashboard, m.width, m.height)
	}
}

// formatLabelPadding formats a label/value pair locally to avoid depending on `internal/ui`.
func formatLabelPadding(label, value string, labelWidth int) string {
	if labelWidth <= 0 {
		return label + " " + value
	}
	if len(label) >= labelWidth {
		return label + " " + value
	}
	return label + strings.Repeat(" ", labelWidth-len(label)) + " " + value
}

// View renders the main menu and dashboard.
func (m menuModel) View(data dashboardData, width, height int) string {
	// Title (i18n)
	title := mainTitleStyle.Render("🧪 " + i18n.T("dashboard.title"))
	subTitle := helpStyle.Render(i18n.T("dashboard.subtitle"))
	header := lipgloss.JoinVertical(lipgloss.Left, title, subTitle)

	// --- Panes ---
	paneTitleStyle := lipgloss.NewStyle().Bold(true)

	// Menu List (Left Pane)
	var menuItems []string
	menuItems = append(menuItems, paneTitleStyle.Render(i18n.T("menu.navigation")), "") // Add title and a blank line for spacing
	for i, choice := range m.choices {
		if m.cursor == i {
			menuItems = append(menuItems, selectedItemStyle.Render("▸ "+choice))
		} else {
			menuItems = append(menuItems, itemStyle.Render("  "+choice))
		}
	}
	menuContent := lipgloss.JoinVertical(lipgloss.Left, menuItems...)

	// Dashboard (Right Pane)
	var dashboardItems []string
	dashboardItems = append(dashboardItems, paneTitleStyle.Render(i18n.T("dashboard.catalog_status")), "")

	// Snapshot status line
	snapshotStatus := helpStyle.Render(i18n.T("dashboard.snapshots.none"))
	if data.snapshotCount > 0 {
		snapshotStatus = successStyle.Render(i18n.T("dashboard.snapshots.latest", data.snapshotCount, data.lastSnapshotTag))
	}

	// Status items with dynamic padding: labels and values are kept apart so
	// the values line up in a column.
	statusItems := []struct {
		label string
		value string
	}{
		{i18n.T("dashboard.datasets"), fmt.Sprintf("%d (%d active)", data.datasetCount, data.activeDatasets)},
		{i18n.T("dashboard.remotes"), fmt.Sprintf("%d (%d active)", data.remoteCount, data.activeRemotes)},
		{i18n.T("dashboard.snapshots"), snapshotStatus},
		{i18n.T("dashboard.disk_usage"), ui.FormatSize(data.fetchedBytes)},
	}

	var labelsOnly []string
	for _, item := range statusItems {
		labelPart := item.label
		if idx := strings.Index(labelPart, "%"); idx != -1 {
			labelPart = labelPart[:idx]
		}
		labelsOnly = append(labelsOnly, labelPart)
	}

	maxLabelLen := 0
	for _, label := range labelsOnly {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}

	for i, label := range labelsOnly {
		dashboardItems = append(dashboardItems, formatLabelPadding(label, statusItems[i].value, maxLabelLen))
	}

	// Disk status
	dashboardItems = append(dashboardItems, "", "", paneTitleStyle.Render(i18n.T("dashboard.disk_status")), "")
	fetchedLine := i18n.T("dashboard.datasets_fetched", data.fetchedDatasets)
	pending := data.datasetCount - data.fetchedDatasets
	pendingLine := i18n.T("dashboard.datasets_pending", pending)

	styledFetchedLine := successStyle.Render(fetchedLine)
	if pending > 0 {
		pendingLine = specialStyle.Render(pendingLine)
	}
	maxDiskLen := lipgloss.Width(styledFetchedLine)
	diskPadding := ""
	if maxDiskLen > lipgloss.Width(pendingLine) {
		diskPadding = strings.Repeat(" ", maxDiskLen-lipgloss.Width(pendingLine))
	}
	dashboardItems = append(dashboardItems, styledFetchedLine, diskPadding+pendingLine)

	// Kind spread
	dashboardItems = append(dashboardItems, "", "", paneTitleStyle.Render(i18n.T("dashboard.kind_spread_title")), "")
	kindLabel := i18n.T("dashboard.kind_spread", "")
	dashboardItems = append(dashboardItems, lipgloss.JoinHorizontal(lipgloss.Left, kindLabel, data.kindBreakdown))

	// Recent Activity
	dashboardItems = append(dashboardItems, "", "", paneTitleStyle.Render(i18n.T("dashboard.recent_activity")), "")

	// --- Layout ---
	paneStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	// Calculate height for the panes to fill the screen
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true).Render(""))
	paneHeight := height - headerHeight - footerHeight - 2 // -2 for newlines around mainArea

	menuWidth := 38
	dashboardWidth := width - 4 - menuWidth - 2

	if len(data.recentLogs) == 0 {
		dashboardItems = append(dashboardItems, helpStyle.Render(i18n.T("dashboard.no_recent_activity")))
	} else {
		for _, log := range data.recentLogs {
			ts := log.Timestamp
			if len(ts) >= 16 {
				ts = ts[5:16] // Format as MM-DD HH:MM
			}

			// Calculate available space inside the pane for the log line content.
			innerDashboardWidth := dashboardWidth - 4 - 2
			availableWidth := innerDashboardWidth - len(ts) - 1 // Subtract timestamp and a space

			styledAction := auditActionStyle(log.Action).Render(log.Action)
			actionLen := len(log.Action)

			// Calculate the remaining space for the details string.
			detailsWidth := availableWidth - actionLen - 1 // -1 for space after action
			if detailsWidth < 10 {
				detailsWidth = 10 // Ensure we show at least a little detail.
			}
			details := truncateCell(log.Details, detailsWidth)

			// Use lipgloss.JoinHorizontal to correctly lay out the styled and unstyled parts.
			logLine := lipgloss.JoinHorizontal(lipgloss.Left,
				helpStyle.Render(ts), " ", styledAction, " ", helpStyle.Render(details))

			dashboardItems = append(dashboardItems, logLine)
		}
	}
	dashboardContent := lipgloss.JoinVertical(lipgloss.Left, dashboardItems...)

	leftPane := paneStyle.Width(menuWidth).Height(paneHeight).Render(menuContent)
	rightPane := paneStyle.Width(dashboardWidth).Height(paneHeight).MarginLeft(2).Render(dashboardContent)

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	// Styled footer/help line
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)
	left := i18n.T("dashboard.footer")
	// Use AlignFooter to keep any right-side token consistently right-aligned.
	footer := footerStyle.Render(AlignFooter(left, "", width))

	return lipgloss.JoinVertical(lipgloss.Top, header, mainArea, footer)
}

// newLanguageModel creates a new model for the language selection view.
func newLanguageModel() languageModel {
	// Get the dynamically discovered locales from the i18n package.
	choices := i18n.GetAvailableLocales()

	// Create a sorted list of keys for stable iteration and display order.
	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return languageModel{
		choices:     choices,
		orderedKeys: keys,
		cursor:      0,
	}
}

// Init for languageModel.
func (m languageModel) Init() tea.Cmd { return nil }

// Update for languageModel.
func (m languageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

// View for languageModel.
func (m languageModel) View() string {
	title := mainTitleStyle.Render("🌐 " + i18n.T("menu.language"))

	var listItems []string
	listItems = append(listItems, titleStyle.Render(i18n.T("language.select")), "")

	for i, langCode := range m.orderedKeys {
		displayName := m.choices[langCode]
		line := "  " + displayName
		if m.cursor == i {
			line = "▸ " + displayName
			listItems = append(listItems, selectedItemStyle.Render(line))
		} else {
			listItems = append(listItems, itemStyle.Render(line))
		}
	}

	paneStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
	listPane := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, listItems...))

	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236")).Padding(0, 1).Italic(true)
	// Render the language help line using AlignFooter for consistent layout.
	helpLine := footerStyle.Render(AlignFooter(i18n.T("language.help"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, "", listPane, "", helpLine)
}

// Run is the main entrypoint for the TUI. It initializes and runs the Bubble Tea program.
func Run() {
	// If the developer sets QEFDATA_TUI_TEST=1, launch the dedicated
	// framework test screen instead of the real TUI. This is strictly a
	// development aid and is gated behind the environment variable.
	if os.Getenv("QEFDATA_TUI_TEST") == "1" {
		tuidbg.Launch()
		return
	}

	if _, err := tea.NewProgram(initialModel()).Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		os.Exit(1)
	}
}

// refreshDashboardCmd is a tea.Cmd that fetches summary data for the main menu.
// The ui.Store surface covers everything the dashboard reads.
func refreshDashboardCmd(store ui.Store) tea.Cmd {
	return func() tea.Msg {
		coreData, err := core.BuildDashboardData(store)
		if err != nil {
			return dashboardDataMsg{data: dashboardData{err: err}}
		}

		// Map core.DashboardData into the tui.dashboardData and apply view-side styling
		data := dashboardData{}
		data.datasetCount = coreData.DatasetCount
		data.activeDatasets = coreData.ActiveDatasets
		data.fetchedDatasets = coreData.FetchedDatasets
		data.fetchedBytes = coreData.FetchedBytes
		data.remoteCount = coreData.RemoteCount
		data.activeRemotes = coreData.ActiveRemotes
		data.snapshotCount = coreData.SnapshotCount
		data.lastSnapshotTag = coreData.LastSnapshotTag
		data.recentLogs = coreData.RecentLogs

		// Format the kind breakdown with UI styles
		var sortedKinds []string
		for kind := range coreData.KindCounts {
			sortedKinds = append(sortedKinds, kind)
		}
		sort.Strings(sortedKinds)
		var kindParts []string
		for _, kind := range sortedKinds {
			count := coreData.KindCounts[kind]
			style := successStyle
			if kind == string(model.KindOther) {
				style = specialStyle
			}
			kindParts = append(kindParts, style.Render(fmt.Sprintf("%s: %d", kind, count)))
		}
		data.kindBreakdown = strings.Join(kindParts, ", ")

		return dashboardDataMsg{data: data}
	}
}
