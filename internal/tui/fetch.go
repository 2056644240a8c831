// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/session"
	"github.com/jmborr/qefdata/internal/state"
	"github.com/jmborr/qefdata/internal/ui"
)

type fetchState int

const (
	fetchStateSelect fetchState = iota
	fetchStateInProgress
	fetchStateComplete
)

// fetchProgressMsg reports transfer progress. total is -1 when the remote
// did not announce a length.
type fetchProgressMsg struct {
	done, total int64
}

// fetchDoneMsg signals the retrieval finished, one way or the other.
type fetchDoneMsg struct {
	result *fetch.Result
	err    error
	hint   string
}

type fetchModel struct {
	state   fetchState
	store   ui.Store
	dataDir string

	cursor   int
	datasets []model.Dataset
	selected model.Dataset

	spinner     spinner.Model
	progressBar progress.Model
	done, total int64
	events      chan tea.Msg

	result *fetch.Result
	err    error
	hint   string

	width, height int
}

func newFetchModel(store ui.Store, dataDir string) fetchModel {
	m := fetchModel{
		state:   fetchStateSelect,
		store:   store,
		dataDir: dataDir,
	}

	datasets, err := store.GetActiveDatasets()
	if err != nil {
		m.err = err
		m.state = fetchStateComplete
		return m
	}
	m.datasets = datasets

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = specialStyle
	m.spinner = s

	m.progressBar = progress.New(progress.WithDefaultGradient())

	return m
}

func (m fetchModel) Init() tea.Cmd {
	return nil
}

func (m fetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Transfer events can arrive regardless of the current state.
	switch msg := msg.(type) {
	case fetchProgressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, waitForFetchEvent(m.events)
	case fetchDoneMsg:
		m.state = fetchStateComplete
		m.result = msg.result
		m.err = msg.err
		m.hint = msg.hint
		return m, nil
	case spinner.TickMsg:
		if m.state == fetchStateInProgress {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 12
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.progressBar.Width = w
		}
		return m, nil
	}

	switch m.state {
	case fetchStateSelect:
		return m.updateSelect(msg)
	case fetchStateInProgress:
		return m, nil // Don't process input while a transfer is running
	case fetchStateComplete:
		return m.updateComplete(msg)
	}
	return m, nil
}

func (m fetchModel) updateSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.datasets)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.datasets) == 0 {
				return m, nil
			}
			m.selected = m.datasets[m.cursor]
			m.state = fetchStateInProgress
			m.done, m.total = 0, -1
			m.err = nil
			m.hint = ""
			m.result = nil
			m.events = make(chan tea.Msg, 16)
			return m, tea.Batch(m.spinner.Tick, waitForFetchEvent(m.events), m.startFetch())
		}
	}
	return m, nil
}

func (m fetchModel) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return backToMenuMsg{} }
		case "enter":
			// Back to the selection list with a fresh catalog read.
			m.state = fetchStateSelect
			m.err = nil
			m.hint = ""
			m.result = nil
			if datasets, err := m.store.GetActiveDatasets(); err == nil {
				m.datasets = datasets
				if m.cursor >= len(datasets) {
					m.cursor = 0
				}
			}
			return m, nil
		}
	}
	return m, nil
}

// waitForFetchEvent relays the next transfer event into the update loop. The
// channel is closed when the transfer goroutine exits; the resulting nil
// message is discarded by bubbletea.
func waitForFetchEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// startFetch returns the command that performs the whole retrieval: session
// bookkeeping, remote selection, transfer, and catalog update. Progress is
// streamed through m.events; the returned message is the final outcome.
func (m fetchModel) startFetch() tea.Cmd {
	store, dataDir, ds, events := m.store, m.dataDir, m.selected, m.events
	return func() tea.Msg {
		defer close(events)

		remote, err := store.GetActiveRemoteByKind(model.RemoteRaw)
		if err == nil && remote == nil {
			remote, err = store.GetActiveRemoteByKind(model.RemoteSFTP)
		}
		if err != nil {
			return fetchDoneMsg{err: err}
		}
		if remote == nil {
			return fetchDoneMsg{err: fmt.Errorf("no active raw or sftp remote configured")}
		}

		sess, err := session.Begin(ds.Name, remote.Name)
		if err != nil {
			return fetchDoneMsg{err: err}
		}
		if err := sess.Start(); err != nil {
			return fetchDoneMsg{err: err}
		}

		fetcher, err := fetch.NewFetcher(remote, fetch.Options{Token: string(state.TokenCache.Get())})
		if err != nil {
			_ = sess.Fail(err)
			return fetchDoneMsg{err: err, hint: fetch.SuggestAction(err)}
		}

		res, err := fetcher.Fetch(context.Background(), fetch.Request{
			Dataset:    ds.Name,
			DestDir:    dataDir,
			WantSHA256: ds.SHA256,
			Progress: func(done, total int64) {
				select {
				case events <- fetchProgressMsg{done: done, total: total}:
				default: // Drop updates rather than stall the transfer
				}
			},
		})
		if err != nil {
			_ = sess.Fail(err)
			return fetchDoneMsg{err: err, hint: fetch.SuggestAction(err)}
		}

		if err := store.MarkDatasetFetched(ds.Name, res.LocalPath, res.SHA256, res.Size, res.Source); err != nil {
			_ = sess.Fail(err)
			return fetchDoneMsg{err: err}
		}
		if err := sess.Complete(); err != nil {
			return fetchDoneMsg{result: res, err: err}
		}
		return fetchDoneMsg{result: res}
	}
}

func (m fetchModel) View() string {
	var b strings.Builder

	switch m.state {
	case fetchStateSelect:
		b.WriteString(titleStyle.Render("⬇️  " + i18n.T("fetch.title")))
		b.WriteString("\n\n")
		if len(m.datasets) == 0 {
			b.WriteString(helpStyle.Render(i18n.T("fetch.empty")))
			b.WriteString(helpStyle.Render("\n\n(q to go back)"))
			return b.String()
		}
		maxNameLen := 0
		for _, ds := range m.datasets {
			if len(ds.Name) > maxNameLen {
				maxNameLen = len(ds.Name)
			}
		}
		for i, ds := range m.datasets {
			line := fmt.Sprintf("%-*s", maxNameLen, ds.Name)
			if ds.Fetched() {
				line += helpStyle.Render("  ✓ " + ui.FormatSize(ds.Size))
			}
			if m.cursor == i {
				b.WriteString(selectedItemStyle.Render("» " + line))
			} else {
				b.WriteString(itemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("\n(j/k or up/down, enter to fetch, q to quit)"))

	case fetchStateInProgress:
		b.WriteString(titleStyle.Render("⬇️  Fetching..."))
		b.WriteString("\n\n")
		b.WriteString(m.selected.Name + "\n\n")
		if m.total > 0 {
			percent := float64(m.done) / float64(m.total)
			b.WriteString(m.progressBar.ViewAs(percent))
			b.WriteString(fmt.Sprintf("\n\n%s / %s", ui.FormatSize(m.done), ui.FormatSize(m.total)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s received", m.spinner.View(), ui.FormatSize(m.done)))
		}

	case fetchStateComplete:
		if m.err != nil {
			b.WriteString(titleStyle.Render("💥 " + i18n.T("fetch.failed")))
			b.WriteString("\n\n")
			b.WriteString(renderResultBlock("", nil, m.err, m.hint))
		} else {
			b.WriteString(titleStyle.Render("✅ " + i18n.T("fetch.complete")))
			b.WriteString("\n\n")
			primary := i18n.T("fetch.fetched", m.result.LocalPath)
			if m.result.Skipped {
				primary = i18n.T("fetch.skipped", m.selected.Name)
			}
			details := []string{
				"sha256: " + ui.ShortChecksum(m.result.SHA256),
				"size:   " + ui.FormatSize(m.result.Size),
				"source: " + string(m.result.Source),
			}
			b.WriteString(renderResultBlock(primary, details, nil, ""))
		}
		b.WriteString(helpStyle.Render("\n\n(enter to fetch another, esc to go back)"))
	}

	return b.String()
}
