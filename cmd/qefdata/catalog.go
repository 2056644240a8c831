// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// catalog.go holds the commands that read and edit the catalog: list,
// show, register, remotes, audit, and the file inspector.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/inspect"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
	"github.com/jmborr/qefdata/internal/verify"
)

// listCmd lists catalog datasets with optional filtering.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the datasets in the catalog",
	Long: `Display all cataloged datasets in table format with their kind, size,
and fetch status. You can filter by kind or search by name/tag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kindFilter, _ := cmd.Flags().GetString("kind")
		searchTerm, _ := cmd.Flags().GetString("search")

		datasets, err := db.GetAllDatasets()
		if err != nil {
			return fmt.Errorf("failed to list datasets: %w", err)
		}

		if kindFilter != "" {
			filtered := []model.Dataset{}
			for _, ds := range datasets {
				if string(ds.Kind) == kindFilter {
					filtered = append(filtered, ds)
				}
			}
			datasets = filtered
		}

		if searchTerm != "" {
			searchLower := strings.ToLower(searchTerm)
			filtered := []model.Dataset{}
			for _, ds := range datasets {
				if strings.Contains(strings.ToLower(ds.Name), searchLower) ||
					strings.Contains(strings.ToLower(ds.Tags), searchLower) {
					filtered = append(filtered, ds)
				}
			}
			datasets = filtered
		}

		if len(datasets) == 0 {
			fmt.Println("No datasets found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tSIZE\tFETCHED\tACTIVE\tTAGS")
		for _, ds := range datasets {
			size := "-"
			if ds.Size > 0 {
				size = ui.FormatSize(ds.Size)
			}
			fetched := "-"
			if ds.Fetched() {
				fetched = ds.FetchedAt.Format("2006-01-02")
			}
			active := "no"
			if ds.IsActive {
				active = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				ds.ID, ds.Name, ds.Kind, size, fetched, active, ds.Tags)
		}
		w.Flush()

		return nil
	},
}

// showCmd displays detailed information about a single dataset.
var showCmd = &cobra.Command{
	Use:   "show <dataset>",
	Short: "Show detailed dataset information",
	Long:  `Display full details of a cataloged dataset including its checksum and local copy.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := db.GetDatasetByName(args[0])
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		if ds == nil {
			return fmt.Errorf("dataset not found: %s", args[0])
		}

		status := "disabled"
		if ds.IsActive {
			status = "active"
		}
		sum := "not recorded"
		if ds.SHA256 != "" {
			sum = ds.SHA256
		}
		tags := "-"
		if ds.Tags != "" {
			tags = ds.Tags
		}

		fmt.Printf("Name:       %s\n", ds.Name)
		fmt.Printf("Kind:       %s\n", ds.Kind)
		fmt.Printf("Status:     %s\n", status)
		fmt.Printf("Tags:       %s\n", tags)
		fmt.Printf("SHA256:     %s\n", sum)
		if ds.Size > 0 {
			fmt.Printf("Size:       %s\n", ui.FormatSize(ds.Size))
		}
		if !ds.Fetched() {
			fmt.Printf("Local copy: not fetched yet\n")
			return nil
		}
		fmt.Printf("Local copy: %s\n", ds.LocalPath)
		fmt.Printf("Source:     %s\n", ds.Source)
		fmt.Printf("Fetched at: %s\n", ds.FetchedAt.Format("2006-01-02 15:04:05"))
		if _, err := os.Stat(ds.LocalPath); os.IsNotExist(err) {
			fmt.Printf("\nThe local file is missing; re-run 'qefdata get %s'.\n", ds.Name)
		}
		return nil
	},
}

// registerCmd adds datasets to the catalog without fetching them, either by
// name or in bulk from a manifest file.
var registerCmd = &cobra.Command{
	Use:   "register [dataset...]",
	Short: "Register datasets in the catalog without fetching",
	Long: `Adds dataset entries (repository-relative paths) to the catalog so that
'qefdata get --all' and the TUI know about them. With --from-manifest the
entries of a manifest file are imported in bulk, carrying their recorded
checksums and sizes. Duplicates are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, _ := cmd.Flags().GetString("from-manifest")
		tagsFlag, _ := cmd.Flags().GetString("tags")
		tags := model.NormalizeTags(tagsFlag)

		if len(args) == 0 && manifestPath == "" {
			return fmt.Errorf("nothing to register: give dataset names or --from-manifest")
		}

		registered, skipped := 0, 0
		add := func(d model.Dataset) {
			_, err := db.AddDataset(d)
			switch {
			case err == nil:
				fmt.Println(i18n.T("register.imported_dataset", d.Name))
				registered++
			case errors.Is(err, db.ErrDuplicate):
				fmt.Println(i18n.T("register.skip_duplicate", d.Name))
				skipped++
			default:
				fmt.Println(i18n.T("register.error_adding_dataset", d.Name, err))
				skipped++
			}
		}

		for _, name := range args {
			add(model.Dataset{Name: name, Kind: kindForName(name), Tags: tags})
		}

		if manifestPath != "" {
			fmt.Println(i18n.T("register.start", manifestPath))
			m, err := verify.LoadManifest(manifestPath)
			if err != nil {
				return fmt.Errorf("%s", i18n.T("register.error_opening_file", err))
			}
			for _, entry := range m.Files {
				if err := validManifestEntry(entry); err != nil {
					fmt.Println(i18n.T("register.skip_invalid_entry", entry.Name, err))
					skipped++
					continue
				}
				add(model.Dataset{
					Name:   entry.Name,
					Kind:   kindForName(entry.Name),
					SHA256: entry.SHA256,
					Size:   entry.Size,
					Tags:   tags,
				})
			}
		}

		fmt.Println(i18n.T("register.summary", registered, skipped))
		return nil
	},
}

// validManifestEntry rejects manifest rows that cannot become catalog
// entries.
func validManifestEntry(e verify.ManifestEntry) error {
	if e.Name == "" {
		return fmt.Errorf("missing file name")
	}
	if strings.Contains(e.Name, "..") {
		return fmt.Errorf("path escapes the data directory")
	}
	if e.SHA256 != "" && len(e.SHA256) != 64 {
		return fmt.Errorf("malformed sha256 %q", e.SHA256)
	}
	return nil
}

// remotesCmd is the root command for managing distribution endpoints.
var remotesCmd = &cobra.Command{
	Use:   "remotes",
	Short: "Manage distribution endpoints (list, add, enable, disable)",
	Long: `The 'remotes' command group manages the endpoints datasets are obtained
from: the package index, git remotes, release-archive templates, the raw
interface, and the SFTP mirror. Fetches use the first active remote of a
kind; the configured URLs only serve as doctor probes.`,
}

// remotesListCmd lists all remotes.
var remotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all remotes",
	RunE: func(cmd *cobra.Command, args []string) error {
		remotes, err := db.GetAllRemotes()
		if err != nil {
			return fmt.Errorf("failed to list remotes: %w", err)
		}
		if len(remotes) == 0 {
			fmt.Println("No remotes configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKIND\tURL\tACTIVE")
		for _, r := range remotes {
			active := "no"
			if r.IsActive {
				active = "yes"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Kind, r.URL, active)
		}
		w.Flush()

		return nil
	},
}

// remotesAddCmd registers a new remote endpoint.
var remotesAddCmd = &cobra.Command{
	Use:   "add <name> <kind> <url>",
	Short: "Add a remote endpoint",
	Long: `Register a new endpoint in the catalog. Kind is one of: index, git,
archive, raw, sftp. Archive URLs may carry a %s placeholder that receives
the requested tag.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseRemoteKind(args[1])
		if err != nil {
			return err
		}
		id, err := db.AddRemote(args[0], kind, args[2])
		if err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return fmt.Errorf("remote already exists: %s", args[0])
			}
			return fmt.Errorf("failed to add remote: %w", err)
		}
		fmt.Printf("Remote added with ID: %d\n", id)
		return nil
	},
}

// remotesEnableCmd activates a remote.
var remotesEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRemoteActive(args[0], true)
	},
}

// remotesDisableCmd deactivates a remote.
var remotesDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRemoteActive(args[0], false)
	},
}

// setRemoteActive flips a remote's active flag to the requested state.
func setRemoteActive(name string, active bool) error {
	remotes, err := db.GetAllRemotes()
	if err != nil {
		return fmt.Errorf("failed to load remotes: %w", err)
	}
	for _, r := range remotes {
		if r.Name != name {
			continue
		}
		if r.IsActive == active {
			fmt.Printf("Remote %s is already %s\n", name, remoteStateWord(active))
			return nil
		}
		if err := db.ToggleRemoteStatus(r.ID); err != nil {
			return fmt.Errorf("failed to update remote: %w", err)
		}
		fmt.Printf("Remote %s %s\n", name, remoteStateWord(active))
		return nil
	}
	return fmt.Errorf("remote not found: %s", name)
}

func remoteStateWord(active bool) string {
	if active {
		return "enabled"
	}
	return "disabled"
}

// auditCmd prints the catalog's audit trail, newest first.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit trail",
	Long:  `Every mutation of the catalog leaves an audit entry: who did what, when.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			return fmt.Errorf("failed to load audit log: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries yet.")
			return nil
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tUSER\tACTION\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		w.Flush()

		return nil
	},
}

// inspectCmd classifies local files and summarizes grouped ASCII spectra.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file...>",
	Short: "Classify local data files",
	Long: `Sniffs each file's format (HDF5/NeXus, grouped ASCII, gzip, zip, zstd),
hashes it, and for grouped ASCII files parses the spectra and reports the
group count and axis ranges.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failures := 0
		for i, path := range args {
			if i > 0 {
				fmt.Println()
			}
			info, err := inspect.Describe(path)
			if err != nil {
				fmt.Printf("Path:       %s\n", path)
				fmt.Printf("Error:      %v\n", err)
				failures++
				continue
			}
			printInspectInfo(info)
		}
		if failures > 0 {
			return fmt.Errorf("%d file(s) could not be inspected", failures)
		}
		return nil
	},
}

func printInspectInfo(info *inspect.Info) {
	fmt.Printf("Path:       %s\n", info.Path)
	fmt.Printf("Format:     %s\n", info.Format)
	fmt.Printf("Size:       %s\n", ui.FormatSize(info.Size))
	fmt.Printf("SHA256:     %s\n", info.SHA256)
	if info.ParseError != "" {
		fmt.Printf("Parse:      %s\n", info.ParseError)
	}
	if g := info.Grouped; g != nil {
		qLo, qHi := g.QRange()
		xLo, xHi := g.XRange()
		fmt.Printf("Groups:     %d\n", g.NumGroups())
		fmt.Printf("Q range:    %g to %g 1/Angstrom\n", qLo, qHi)
		fmt.Printf("E range:    %g to %g %s\n", xLo, xHi, g.XUnit)
	}
}

func init() {
	remotesCmd.AddCommand(remotesListCmd)
	remotesCmd.AddCommand(remotesAddCmd)
	remotesCmd.AddCommand(remotesEnableCmd)
	remotesCmd.AddCommand(remotesDisableCmd)

	listCmd.Flags().String("kind", "", "Filter by dataset kind (nexus, ascii, archive, other)")
	listCmd.Flags().String("search", "", "Search by name or tag")

	registerCmd.Flags().String("from-manifest", "", "Import entries from a manifest file")
	registerCmd.Flags().String("tags", "", "Comma-separated tags applied to every registered dataset")

	auditCmd.Flags().Int("limit", 50, "Maximum number of entries to show (0 shows everything)")
}
