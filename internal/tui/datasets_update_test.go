// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/testutil"
	"github.com/jmborr/qefdata/internal/ui"
	"github.com/jmborr/qefdata/internal/uiadapters"
)

// seedDatasets registers a few datasets; names sort in insertion order.
func seedDatasets(t *testing.T, store ui.Store) {
	t.Helper()
	for _, d := range []model.Dataset{
		{Name: "io/a.nxs", Kind: model.KindNexus, Tags: "qens"},
		{Name: "io/b.dat", Kind: model.KindAscii},
		{Name: "io/c.nxs", Kind: model.KindNexus},
	} {
		if _, err := store.AddDataset(d); err != nil {
			t.Fatalf("AddDataset(%s): %v", d.Name, err)
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDatasets_Update_NavigationAndDelete(t *testing.T) {
	i18n.Init("en")
	testutil.WithCatalog(t, func() {
		store := uiadapters.NewStoreAdapter()
		seedDatasets(t, store)

		m := newDatasetsModel(store, nil)
		if len(m.allDatasets) != 3 {
			t.Fatalf("expected 3 datasets loaded, got %d", len(m.allDatasets))
		}

		// Move the table cursor down one row.
		mi, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m1 := mi.(datasetsModel)
		if m1.table.Cursor() != 1 {
			t.Fatalf("expected cursor 1 after down, got %d", m1.table.Cursor())
		}

		// 'd' opens the confirmation for the highlighted dataset.
		mi, _ = m1.Update(keyRunes("d"))
		m2 := mi.(datasetsModel)
		if !m2.isConfirmingDelete {
			t.Fatalf("expected isConfirmingDelete true after 'd'")
		}
		if m2.datasetToDelete.Name != "io/b.dat" {
			t.Fatalf("expected io/b.dat queued for deletion, got %q", m2.datasetToDelete.Name)
		}
		if m2.confirmCursor != 0 {
			t.Fatalf("expected confirmation to default to No")
		}

		// 'n' cancels without touching the catalog.
		mi, _ = m2.Update(keyRunes("n"))
		m3 := mi.(datasetsModel)
		if m3.isConfirmingDelete {
			t.Fatalf("expected confirmation dismissed after 'n'")
		}
		if len(m3.allDatasets) != 3 {
			t.Fatalf("expected no deletion on cancel")
		}

		// 'd' then 'y' removes the dataset.
		mi, _ = m3.Update(keyRunes("d"))
		mi, _ = mi.(datasetsModel).Update(keyRunes("y"))
		m4 := mi.(datasetsModel)
		if len(m4.allDatasets) != 2 {
			t.Fatalf("expected 2 datasets after delete, got %d", len(m4.allDatasets))
		}
		if !strings.Contains(m4.status, "io/b.dat") {
			t.Fatalf("expected status to mention the deleted dataset, got %q", m4.status)
		}
		if left, _ := store.GetAllDatasets(); len(left) != 2 {
			t.Fatalf("expected catalog to hold 2 datasets, got %d", len(left))
		}
	})
}

func TestDatasets_Update_ToggleAndTags(t *testing.T) {
	i18n.Init("en")
	testutil.WithCatalog(t, func() {
		store := uiadapters.NewStoreAdapter()
		seedDatasets(t, store)

		m := newDatasetsModel(store, nil)

		// 'x' flips the active flag of the first dataset.
		mi, _ := m.Update(keyRunes("x"))
		m1 := mi.(datasetsModel)
		if m1.allDatasets[0].IsActive {
			t.Fatalf("expected io/a.nxs inactive after toggle")
		}
		if !strings.Contains(m1.status, "io/a.nxs") {
			t.Fatalf("expected toggle status message, got %q", m1.status)
		}

		// 't' opens the tag editor prefilled with the current tags.
		mi, _ = m1.Update(keyRunes("t"))
		m2 := mi.(datasetsModel)
		if m2.state != datasetsTagEditView {
			t.Fatalf("expected tag edit view after 't'")
		}
		if m2.tagInput.Value() != "qens" {
			t.Fatalf("expected tag input prefilled with 'qens', got %q", m2.tagInput.Value())
		}

		// Type more tags and commit; the stored value is normalized.
		mi, _ = m2.Update(keyRunes(", Raw, QENS "))
		mi, _ = mi.(datasetsModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
		m3 := mi.(datasetsModel)
		if m3.state != datasetsListView {
			t.Fatalf("expected list view after committing tags")
		}
		ds, err := store.GetDatasetByName("io/a.nxs")
		if err != nil || ds == nil {
			t.Fatalf("GetDatasetByName: %v", err)
		}
		if ds.Tags != "qens,raw" {
			t.Fatalf("expected normalized tags 'qens,raw', got %q", ds.Tags)
		}

		// Esc cancels the editor without writing.
		mi, _ = m3.Update(keyRunes("t"))
		mi, _ = mi.(datasetsModel).Update(keyRunes("zzz"))
		mi, _ = mi.(datasetsModel).Update(tea.KeyMsg{Type: tea.KeyEsc})
		m4 := mi.(datasetsModel)
		if m4.state != datasetsListView {
			t.Fatalf("expected list view after esc")
		}
		ds, _ = store.GetDatasetByName("io/a.nxs")
		if ds.Tags != "qens,raw" {
			t.Fatalf("expected tags unchanged after cancel, got %q", ds.Tags)
		}
	})
}

func TestDatasets_Update_FilterFlow(t *testing.T) {
	i18n.Init("en")
	testutil.WithCatalog(t, func() {
		store := uiadapters.NewStoreAdapter()
		seedDatasets(t, store)

		m := newDatasetsModel(store, nil)

		// '/' enters filter mode.
		mi, _ := m.Update(keyRunes("/"))
		m1 := mi.(datasetsModel)
		if !m1.isFiltering {
			t.Fatalf("expected isFiltering true after '/'")
		}

		// With no searcher the unqualified filter matches in memory.
		mi, _ = m1.Update(keyRunes("nxs"))
		m2 := mi.(datasetsModel)
		if len(m2.displayed) != 2 {
			t.Fatalf("expected 2 rows for 'nxs', got %d", len(m2.displayed))
		}

		// Tab narrows to the kind column, where 'nxs' matches nothing.
		mi, _ = m2.Update(tea.KeyMsg{Type: tea.KeyTab})
		mi, _ = mi.(datasetsModel).Update(tea.KeyMsg{Type: tea.KeyTab})
		m3 := mi.(datasetsModel)
		if m3.filterCol != 2 {
			t.Fatalf("expected filter column 2, got %d", m3.filterCol)
		}
		if len(m3.displayed) != 0 {
			t.Fatalf("expected no kind matches for 'nxs', got %d", len(m3.displayed))
		}

		// Esc clears the filter and leaves filter mode.
		mi, _ = m3.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m4 := mi.(datasetsModel)
		if m4.isFiltering || m4.filter != "" {
			t.Fatalf("expected filter cleared after esc")
		}
		if len(m4.displayed) != 3 {
			t.Fatalf("expected full list restored, got %d", len(m4.displayed))
		}

		// 'q' with no filter hands control back to the menu.
		_, cmd := m4.Update(keyRunes("q"))
		if cmd == nil {
			t.Fatalf("expected back-to-menu command")
		}
		if _, ok := cmd().(backToMenuMsg); !ok {
			t.Fatalf("expected backToMenuMsg")
		}
	})
}

// fakeDatasetSearcher returns a canned result set for any query.
type fakeDatasetSearcher struct {
	results []model.Dataset
	lastQ   string
}

func (f *fakeDatasetSearcher) SearchDatasets(q string) ([]model.Dataset, error) {
	f.lastQ = q
	return f.results, nil
}

func TestDatasets_UnqualifiedFilterUsesSearcher(t *testing.T) {
	i18n.Init("en")
	testutil.WithCatalog(t, func() {
		store := uiadapters.NewStoreAdapter()
		seedDatasets(t, store)

		searcher := &fakeDatasetSearcher{results: []model.Dataset{{ID: 42, Name: "io/served.nxs", Kind: model.KindNexus, IsActive: true}}}
		m := newDatasetsModel(store, searcher)

		mi, _ := m.Update(keyRunes("/"))
		mi, _ = mi.(datasetsModel).Update(keyRunes("served"))
		m1 := mi.(datasetsModel)

		if searcher.lastQ != "served" {
			t.Fatalf("expected searcher query 'served', got %q", searcher.lastQ)
		}
		if len(m1.displayed) != 1 || m1.displayed[0].Name != "io/served.nxs" {
			t.Fatalf("expected searcher results displayed, got %v", m1.displayed)
		}
	})
}

func TestDatasets_CopyWithoutChecksum(t *testing.T) {
	i18n.Init("en")
	testutil.WithCatalog(t, func() {
		store := uiadapters.NewStoreAdapter()
		seedDatasets(t, store)

		m := newDatasetsModel(store, nil)
		// The seeded datasets have no checksum; 'c' must not touch the
		// clipboard (which is unavailable headless) and explain why.
		mi, _ := m.Update(keyRunes("c"))
		m1 := mi.(datasetsModel)
		if m1.err != nil {
			t.Fatalf("unexpected error: %v", m1.err)
		}
		if !strings.Contains(m1.status, "io/a.nxs") {
			t.Fatalf("expected no-checksum notice for io/a.nxs, got %q", m1.status)
		}
	})
}
