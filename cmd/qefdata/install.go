// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// install.go holds the commands that obtain the package and the
// repositories: 'install' (package index), 'clone' (git), and
// 'snapshot' (release archives).

package main

import (
	"fmt"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/index"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/ui"
)

// installCmd resolves a distribution on the package index, downloads it,
// verifies the published checksum, and unpacks it under the prefix.
var installCmd = &cobra.Command{
	Use:   "install [package]",
	Short: "Install a distribution from the package index",
	Long: `Resolves the requested package on the configured index (latest stable
release unless --version pins one), downloads the source distribution,
verifies the checksum the index publishes, and unpacks it under --prefix.

With --from-source the documented build step runs inside the unpacked
tree afterwards. Each command is shown before it executes, and failures
come with a suggested remedy where one is known.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pkg := viper.GetString("index.package")
		if len(args) > 0 {
			pkg = args[0]
		}
		if pkg == "" {
			pkg = "qef"
		}
		version, _ := cmd.Flags().GetString("version")
		prefix, _ := cmd.Flags().GetString("prefix")
		fromSource, _ := cmd.Flags().GetBool("from-source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		baseURL := ""
		if remote, err := db.GetActiveRemoteByKind(model.RemoteIndex); err == nil && remote != nil {
			baseURL = remote.URL
		}
		if baseURL == "" {
			baseURL = viper.GetString("index.url")
		}
		if baseURL == "" {
			log.Fatalf("No package index configured. Add an index remote or set index.url.")
		}

		opts := index.InstallOptions{
			Package: pkg,
			Version: version,
			Prefix:  prefix,
			DryRun:  dryRun,
		}
		if fromSource {
			opts.BuildSteps = []string{"python -m pip install --user ."}
		}

		client := index.NewClient(baseURL, nil)
		res, err := client.Install(cmd.Context(), opts)
		if err != nil {
			if hint := fetch.SuggestAction(err); hint != "" {
				fmt.Println("TAKE ACTION: " + hint)
			}
			log.Fatalf("Error installing %s: %v", pkg, err)
		}

		if dryRun {
			fmt.Printf("Dry run: %s %s would be unpacked into %s.\n", pkg, res.Version, res.Dir)
			return
		}
		fmt.Printf("Installed %s %s (%d files, %s) into %s.\n",
			pkg, res.Version, res.Files, ui.FormatSize(res.Size), res.Dir)
	},
}

// cloneCmd creates a git working copy of the project or, with --data, of
// the data repository.
var cloneCmd = &cobra.Command{
	Use:   "clone [dir]",
	Short: "Clone the project repository (or the data repository with --data)",
	Long: `Clones the configured git remote into a new working tree. The default
target directory is derived from the repository name. With --data the
data repository is cloned instead, preferring an active git remote from
the catalog over the configured URL.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, _ := cmd.Flags().GetBool("data")
		depth, _ := cmd.Flags().GetInt("depth")

		url := ""
		if data {
			if remote, err := db.GetActiveRemoteByKind(model.RemoteGit); err == nil && remote != nil {
				url = remote.URL
			}
			if url == "" {
				url = viper.GetString("git.data_url")
			}
		} else {
			url = viper.GetString("git.url")
		}
		if url == "" {
			log.Fatalf("No git URL configured. Set git.url (or git.data_url) or add a git remote.")
		}

		dir := repoDirName(url)
		if len(args) > 0 {
			dir = args[0]
		}

		fmt.Printf("Cloning %s into %s...\n", url, dir)
		err := fetch.Clone(cmd.Context(), fetch.CloneOptions{
			URL:      url,
			Dir:      dir,
			Depth:    depth,
			Progress: os.Stdout,
		})
		if err != nil {
			if hint := fetch.SuggestAction(err); hint != "" {
				fmt.Println("TAKE ACTION: " + hint)
			}
			log.Fatalf("Error cloning %s: %v", url, err)
		}

		_ = db.LogAction("CLONE_REPO", fmt.Sprintf("url: %s, dir: %s", url, dir))
		fmt.Printf("Cloned %s into %s.\n", url, dir)
	},
}

// snapshotCmd downloads a release archive (tar.gz or zip) of a tag and
// unpacks it. With --data the data repository's archive is fetched into the
// data directory and the snapshot is recorded in the catalog.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [tag]",
	Short: "Download and unpack a release archive",
	Long: `Downloads the compressed archive of the given tag (default "master")
and unpacks it, stripping the top-level wrapper directory release
archives carry. Without --data the project's archive URL is derived from
git.url; with --data the catalog's archive remote (or archive.url) is
used, the files land under the data directory, and the snapshot is
recorded so repeated runs are skipped until --force.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, _ := cmd.Flags().GetBool("data")
		dest, _ := cmd.Flags().GetString("dest")
		force, _ := cmd.Flags().GetBool("force")
		keepRoot, _ := cmd.Flags().GetBool("keep-root")
		urlOverride, _ := cmd.Flags().GetString("url")

		tag := "master"
		if len(args) > 0 {
			tag = args[0]
		}

		template := urlOverride
		if template == "" && data {
			if remote, err := db.GetActiveRemoteByKind(model.RemoteArchive); err == nil && remote != nil {
				template = remote.URL
			}
			if template == "" {
				template = viper.GetString("archive.url")
			}
		}
		if template == "" && !data {
			template = sourceArchiveTemplate(viper.GetString("git.url"))
		}
		if template == "" {
			log.Fatalf("No release archive URL configured. Add an archive remote or set archive.url.")
		}
		url := fetch.ExpandArchiveURL(template, tag)

		if data && !force {
			if snap, err := db.GetSnapshotByTag(tag); err == nil && snap != nil {
				fmt.Println(i18n.T("snapshot.cli_already_present", tag))
				return
			}
		}

		if dest == "" {
			if data {
				dest = viper.GetString("data_dir")
			} else {
				dest = "."
			}
		}

		fmt.Println(i18n.T("snapshot.cli_downloading", tag))
		res, err := fetch.DownloadSnapshot(cmd.Context(), fetch.SnapshotOptions{
			URL:      url,
			DestDir:  dest,
			KeepRoot: keepRoot,
			Token:    indexToken(),
		})
		if err != nil {
			if hint := fetch.SuggestAction(err); hint != "" {
				fmt.Println("TAKE ACTION: " + hint)
			}
			log.Fatalf("%s", i18n.T("snapshot.cli_error_download", err))
		}

		if data {
			_, err := db.AddSnapshot(model.Snapshot{
				Tag:          tag,
				URL:          url,
				SHA256:       res.ArchiveSHA256,
				Size:         res.ArchiveSize,
				DatasetCount: len(res.Files),
				UnpackedAt:   time.Now(),
			})
			if err != nil {
				log.Fatalf("Error recording snapshot %s: %v", tag, err)
			}
		}

		fmt.Println(i18n.T("snapshot.cli_unpacked_success", tag, dest))
	},
}

func init() {
	installCmd.Flags().String("version", "", "Release version to install (default: latest stable)")
	installCmd.Flags().String("prefix", ".", "Directory the distribution is unpacked under")
	installCmd.Flags().Bool("from-source", false, "Run the documented build step after unpacking")
	installCmd.Flags().Bool("dry-run", false, "Resolve and report without downloading")

	cloneCmd.Flags().Bool("data", false, "Clone the data repository instead of the project")
	cloneCmd.Flags().Int("depth", 0, "Limit history to this many commits (0 clones everything)")

	snapshotCmd.Flags().Bool("data", false, "Fetch the data repository's archive into the data directory")
	snapshotCmd.Flags().String("dest", "", "Directory to unpack into (default: data directory with --data, else .)")
	snapshotCmd.Flags().Bool("force", false, "Re-download even when the tag is already recorded")
	snapshotCmd.Flags().Bool("keep-root", false, "Keep the archive's top-level wrapper directory")
	snapshotCmd.Flags().String("url", "", "Archive URL or template overriding the configured one")
}

// repoDirName derives a working-tree name from a git URL.
func repoDirName(url string) string {
	base := path.Base(strings.TrimSuffix(url, "/"))
	if i := strings.LastIndex(base, ":"); i >= 0 {
		// scp-like syntax without a path separator, e.g. host:repo.git
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".git")
}

// sourceArchiveTemplate derives a forge archive URL from an https clone URL.
// GitHub and GitLab both serve archives under <repo>/archive/<ref>.tar.gz.
func sourceArchiveTemplate(gitURL string) string {
	if !strings.HasPrefix(gitURL, "http://") && !strings.HasPrefix(gitURL, "https://") {
		return ""
	}
	return strings.TrimSuffix(gitURL, ".git") + "/archive/%s.tar.gz"
}
