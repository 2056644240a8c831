// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// verify.go holds the integrity commands: 'verify' checks local files
// against a manifest or the catalog, 'doctor' probes the documented
// retrieval channels.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/verify"
)

// verifyCmd checks the data directory against a manifest, or the catalog
// records against the files on disk.
var verifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Verify local datasets against a manifest or the catalog",
	Long: `Without flags, reads ` + verify.ManifestName + ` in the data directory and
compares every listed file's checksum against disk; files present on disk
but absent from the manifest are reported as extra.

With --catalog, fetched catalog entries are rechecked against their
recorded checksums instead (--mark-inactive deactivates drifted ones).
With --write, a fresh manifest of the directory is written.

Exits non-zero when any file is missing or modified.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		writeManifest, _ := cmd.Flags().GetBool("write")
		useCatalog, _ := cmd.Flags().GetBool("catalog")
		markInactive, _ := cmd.Flags().GetBool("mark-inactive")
		manifestPath, _ := cmd.Flags().GetString("manifest")

		dir := viper.GetString("data_dir")
		if len(args) > 0 {
			dir = args[0]
		}

		if writeManifest {
			m, err := verify.BuildManifest(dir)
			if err != nil {
				log.Fatalf("Error building manifest: %v", err)
			}
			path := filepath.Join(dir, verify.ManifestName)
			if err := m.Write(path); err != nil {
				log.Fatalf("Error writing manifest: %v", err)
			}
			fmt.Printf("Manifest written: %s (%d files)\n", path, len(m.Files))
			return
		}

		var report *model.VerifyReport
		if useCatalog {
			var err error
			report, err = verify.Catalog(verify.CatalogOptions{MarkInactive: markInactive})
			if err != nil {
				log.Fatalf("Error verifying catalog: %v", err)
			}
		} else {
			if manifestPath == "" {
				manifestPath = filepath.Join(dir, verify.ManifestName)
			}
			m, err := verify.LoadManifest(manifestPath)
			if err != nil {
				log.Fatalf("Error reading manifest: %v", err)
			}
			report, err = m.Verify(dir)
			if err != nil {
				log.Fatalf("Error verifying %s: %v", dir, err)
			}
		}

		for _, f := range report.Files {
			if f.Status == model.FileOK {
				continue
			}
			fmt.Printf("%-9s %s\n", f.Status, f.Name)
		}
		fmt.Println(report.Summary())
		if !report.Clean() {
			os.Exit(1)
		}
	},
}

// doctorCmd probes every documented retrieval channel and reports which are
// reachable. Catalog remotes take precedence over configured URLs, matching
// what an actual fetch would use.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Probe the documented retrieval channels",
	Long: `Checks, without touching local state, that the package index resolves
the package, the git remote advertises refs, the release-archive and raw
endpoints answer, and the SFTP mirror (when configured) accepts a
connection. Unconfigured optional channels are skipped.

Exits non-zero when a configured channel fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		keyPath, _ := cmd.Flags().GetString("ssh-key")

		opts := verify.DoctorOptions{
			IndexURL:   channelURL(model.RemoteIndex, "index.url"),
			Package:    viper.GetString("index.package"),
			GitURL:     channelURL(model.RemoteGit, "git.data_url"),
			ArchiveURL: channelURL(model.RemoteArchive, "archive.url"),
			RawURL:     channelURL(model.RemoteRaw, "raw.url"),
			SFTPHost:   viper.GetString("sftp.host"),
			SFTPUser:   viper.GetString("sftp.user"),
			SFTPPath:   viper.GetString("sftp.path"),
			Timeout:    timeout,
		}
		if opts.Package == "" {
			opts.Package = "qef"
		}
		if opts.GitURL == "" {
			opts.GitURL = viper.GetString("git.url")
		}
		if remote, err := db.GetActiveRemoteByKind(model.RemoteSFTP); err == nil && remote != nil {
			if host, user, base, err := fetch.ParseSFTPURL(remote.URL); err == nil {
				opts.SFTPHost, opts.SFTPUser, opts.SFTPPath = host, user, base
			}
		}
		if keyPath != "" {
			pem, err := os.ReadFile(keyPath)
			if err != nil {
				log.Fatalf("Error reading %s: %v", keyPath, err)
			}
			opts.SFTPPrivateKey = string(pem)
		}

		report := verify.Doctor(cmd.Context(), opts)
		for _, c := range report.Checks {
			switch {
			case c.Skipped:
				fmt.Printf("- %s: %s\n", c.Name, c.Detail)
			case c.OK:
				fmt.Printf("✓ %s: %s (%s)\n", c.Name, c.Detail, c.Elapsed.Round(time.Millisecond))
			default:
				fmt.Printf("✗ %s: %s (%s)\n", c.Name, c.Detail, c.Elapsed.Round(time.Millisecond))
			}
		}
		if n := report.Failed(); n > 0 {
			fmt.Printf("\n%d of %d checks failed.\n", n, len(report.Checks))
			os.Exit(1)
		}
		fmt.Println("\nAll configured channels are healthy.")
	},
}

// channelURL returns the URL an actual fetch would use for a channel: the
// first active catalog remote of the kind, falling back to the config key.
func channelURL(kind model.RemoteKind, viperKey string) string {
	if remote, err := db.GetActiveRemoteByKind(kind); err == nil && remote != nil {
		return remote.URL
	}
	return viper.GetString(viperKey)
}

func init() {
	verifyCmd.Flags().Bool("write", false, "Write a fresh manifest of the directory instead of verifying")
	verifyCmd.Flags().Bool("catalog", false, "Verify fetched catalog entries instead of a manifest")
	verifyCmd.Flags().Bool("mark-inactive", false, "Deactivate catalog entries that fail verification (with --catalog)")
	verifyCmd.Flags().String("manifest", "", "Manifest file to verify against (default: "+verify.ManifestName+" in the directory)")

	doctorCmd.Flags().Duration("timeout", 10*time.Second, "Per-probe timeout")
	doctorCmd.Flags().String("ssh-key", "", "Private key file for the SFTP probe (default: SSH agent)")
}
