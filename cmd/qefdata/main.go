// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the qefdata
// application using the Cobra library. It defines the root command,
// subcommands (like get, snapshot, trust-host), flags, and the main
// entry point for execution.

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"

	"github.com/jmborr/qefdata/buildvars"
	"github.com/jmborr/qefdata/internal/config"
	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/session"
	"github.com/jmborr/qefdata/internal/state"
	"github.com/jmborr/qefdata/internal/tui"
	"github.com/jmborr/qefdata/internal/ui"
)

var version = "dev" // this will be set by the linker
var cfgFile string

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()

	// Set defaults in viper. These are used if not set in the config file or by flags.
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.dsn", "./qefdata.db")
	viper.SetDefault("language", "en")
	viper.SetDefault("data_dir", "./qef-data")
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qefdata",
		Short: "qefdata curates the qef distribution and its test-data repository.",
		Long: `qefdata keeps the documented ways of obtaining qef and its test data
honest and reproducible: install from the package index, clone or snapshot
the repositories, fetch single datasets through the raw interface or the
SFTP mirror, and verify everything against checksums. A catalog database
records what is installed, fetched, and trusted.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize the database for all commands.
			// Viper has already read the config by this point.
			dbType := viper.GetString("database.type")
			i18n.Init(viper.GetString("language")) // Initialize i18n here
			dsn := viper.GetString("database.dsn")
			if err := db.InitDB(dbType, dsn); err != nil {
				return fmt.Errorf("%s", i18n.T("config.error_init_db", err))
			}
			// A token given by flag or QEFDATA_INDEX_TOKEN is cached for the
			// transports; it never touches the config file.
			if tok := viper.GetString("index.token"); tok != "" {
				state.TokenCache.Set([]byte(tok))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			// The database is already initialized by PersistentPreRunE.
			tui.Run()
		},
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(getCmd)
	cmd.AddCommand(updateCmd)
	cmd.AddCommand(installCmd)
	cmd.AddCommand(cloneCmd)
	cmd.AddCommand(snapshotCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)
	cmd.AddCommand(registerCmd)
	cmd.AddCommand(remotesCmd)
	cmd.AddCommand(inspectCmd)
	cmd.AddCommand(verifyCmd)
	cmd.AddCommand(doctorCmd)
	cmd.AddCommand(auditCmd)
	cmd.AddCommand(trustHostCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(restoreCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(maintenanceCmd)
	cmd.AddCommand(tokenCmd)
	cmd.AddCommand(debugCmd)
	cmd.AddCommand(versionCmd)

	// Set version
	cmd.Version = buildvars.VersionOrDefault(version)

	// Define flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the user config dir or ./qefdata.yaml)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (e.g., sqlite, postgres)")
	cmd.PersistentFlags().String("db-dsn", "./qefdata.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `TUI language ("en", "de")`)
	cmd.PersistentFlags().String("data-dir", "./qef-data", "Directory fetched datasets land under")
	cmd.PersistentFlags().String("token", "", "Bearer token for the package index (also QEFDATA_INDEX_TOKEN)")

	// Bind flags to viper
	viper.BindPFlag("database.type", cmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("database.dsn", cmd.PersistentFlags().Lookup("db-dsn"))
	viper.BindPFlag("language", cmd.PersistentFlags().Lookup("lang"))
	viper.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("index.token", cmd.PersistentFlags().Lookup("token"))

	// Note: Flags are configured in the init() function on the global rootCmd.
	// Cobra automatically handles making these flags available on new command
	// instances created for tests, so we don't need to re-declare them here.

	return cmd
}

// initConfig reads in a configuration file and environment variables.
// It uses Viper to search for qefdata.yaml in the user and system config
// directories and the current directory. If no config file is found, it
// attempts to create a default one. It also binds environment variables
// prefixed with "QEFDATA".
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("qefdata")
		viper.SetConfigType("yaml")
		if userPath, err := config.GetConfigPath(false); err == nil {
			viper.AddConfigPath(filepath.Dir(userPath))
		}
		if systemPath, err := config.GetConfigPath(true); err == nil {
			viper.AddConfigPath(filepath.Dir(systemPath))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("QEFDATA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can create one with default values
		// to make configuration discoverable for the user.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			writeDefaultConfig()
		}
	}
}

// writeDefaultConfig writes a commented qefdata.yaml to the user config
// directory. If writing fails (e.g. due to permissions), we don't treat it
// as a fatal error; the app simply runs with the in-memory defaults.
func writeDefaultConfig() {
	path, err := config.GetConfigPath(false)
	if err != nil {
		return
	}
	defaultContent := `# qefdata configuration file.
# This file is automatically generated with default values.

database:
  # The type of database to use. Supported values: "sqlite", "postgres", "mysql".
  # Note: PostgreSQL and MySQL support is experimental.
  type: sqlite

  # The Data Source Name (DSN) for the database connection.
  # For SQLite, this is the path to the database file.
  dsn: ./qefdata.db

# The default language for the TUI. Supported: "en", "de".
language: en

# Fetched datasets land here, laid out as in the data repository.
data_dir: ./qef-data

# Endpoints for the doctor probes. Remotes added to the catalog take
# precedence for actual fetches.
index:
  url: https://pypi.org/pypi
  package: qef
git:
  url: https://github.com/jmborr/qef.git
  data_url: https://github.com/jmborr/qef_data.git
archive:
  url: https://github.com/jmborr/qef_data/archive/%s.tar.gz
raw:
  url: https://raw.githubusercontent.com/jmborr/qef_data/master
sftp:
  host: ""
  user: ""
  path: ""
`
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, []byte(defaultContent), 0o600); err == nil {
		fmt.Printf("No config file found. Created a default one at %s.\n", path)
	}
}

// getCmd represents the 'get' command. It fetches single datasets through
// the raw interface, falling back to the SFTP mirror, and records the
// retrieval in the catalog. Unknown names are registered on the fly; the
// raw channel needs no prior metadata.
var getCmd = &cobra.Command{
	Use:   "get [dataset...]",
	Short: "Fetch datasets into the local data directory",
	Long: `Downloads the named datasets (repository-relative paths, e.g.
"io/irs26176_graphite002_red.nxs") through the first active raw remote,
falling back to the SFTP mirror. Checksums on record are verified; a local
copy that already matches is skipped. With --all, every active dataset in
the catalog is fetched concurrently.`,
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		force, _ := cmd.Flags().GetBool("force")
		destDir := viper.GetString("data_dir")

		// An interrupted run must not leave running session rows behind.
		session.InstallSignalHandler()

		if all {
			datasets, err := db.GetActiveDatasets()
			if err != nil {
				log.Fatalf("Error getting datasets: %v", err)
			}
			runParallelFetch(cmd.Context(), datasets, destDir, force)
			return
		}

		if len(args) == 0 {
			fmt.Println(i18n.T("fetch_all.no_datasets"))
			_ = cmd.Usage()
			os.Exit(1)
		}

		failMsg := i18n.T("fetch_all.fail_message")
		failed := 0
		for _, name := range args {
			ds, err := db.GetDatasetByName(name)
			if err != nil {
				log.Fatalf("Error reading catalog: %v", err)
			}
			if ds == nil {
				if _, err := db.AddDataset(model.Dataset{Name: name, Kind: kindForName(name)}); err != nil {
					log.Fatalf("%s", i18n.T("register.error_adding_dataset", name, err))
				}
				fmt.Println(i18n.T("register.imported_dataset", name))
				if ds, err = db.GetDatasetByName(name); err != nil || ds == nil {
					log.Fatalf("Error reading catalog: %v", err)
				}
			}

			res, err := fetchDataset(cmd.Context(), *ds, destDir, force)
			if err != nil {
				fmt.Println(fmt.Sprintf(failMsg, ds.Name, err))
				if hint := fetch.SuggestAction(err); hint != "" {
					fmt.Println("TAKE ACTION: " + hint)
				}
				failed++
				continue
			}
			if res.Skipped {
				fmt.Println(i18n.T("fetch.skipped", ds.Name))
			} else {
				fmt.Println(i18n.T("fetch.fetched", res.LocalPath))
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	getCmd.Flags().Bool("all", false, "Fetch every active dataset in the catalog")
	getCmd.Flags().Bool("force", false, "Re-download even when the local copy matches the recorded checksum")
}

// fetchDataset performs one catalog-recorded retrieval: session bookkeeping,
// remote selection, transfer, and catalog update. The same flow drives the
// TUI fetch view.
func fetchDataset(ctx context.Context, ds model.Dataset, destDir string, force bool) (*fetch.Result, error) {
	remote, err := db.GetActiveRemoteByKind(model.RemoteRaw)
	if err == nil && remote == nil {
		remote, err = db.GetActiveRemoteByKind(model.RemoteSFTP)
	}
	if err != nil {
		return nil, err
	}
	if remote == nil {
		return nil, fmt.Errorf("no active raw or sftp remote configured")
	}

	sess, err := session.Begin(ds.Name, remote.Name)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(); err != nil {
		return nil, err
	}

	fetcher, err := fetch.NewFetcher(remote, fetch.Options{Token: indexToken()})
	if err != nil {
		_ = sess.Fail(err)
		return nil, err
	}

	res, err := fetcher.Fetch(ctx, fetch.Request{
		Dataset:    ds.Name,
		DestDir:    destDir,
		WantSHA256: ds.SHA256,
		Force:      force,
	})
	if err != nil {
		_ = sess.Fail(err)
		return nil, err
	}

	if err := db.UpdateDatasetFetched(ds.Name, res.LocalPath, res.SHA256, res.Size, res.Source, time.Now()); err != nil {
		_ = sess.Fail(err)
		return nil, err
	}
	if err := sess.Complete(); err != nil {
		return res, err
	}
	return res, nil
}

// indexToken returns the cached bearer token, if one was provided this run.
func indexToken() string {
	if tok := state.TokenCache.Get(); tok != nil {
		defer func() {
			for i := range tok {
				tok[i] = 0
			}
		}()
		return string(tok)
	}
	return ""
}

// runParallelFetch downloads the given datasets concurrently, printing one
// result line per dataset as transfers complete.
func runParallelFetch(ctx context.Context, datasets []model.Dataset, destDir string, force bool) {
	if len(datasets) == 0 {
		fmt.Println(i18n.T("fetch_all.no_datasets"))
		return
	}
	fmt.Println(i18n.T("fetch_all.start_message", len(datasets)))

	// The per-result messages are looked up once and formatted as results
	// arrive, so the workers never touch the localizer.
	successMsg := i18n.T("fetch_all.success_message")
	failMsg := i18n.T("fetch_all.fail_message")

	type outcome struct {
		line string
		ok   bool
	}
	var wg sync.WaitGroup
	results := make(chan outcome, len(datasets))

	for _, ds := range datasets {
		wg.Add(1)
		go func(ds model.Dataset) {
			defer wg.Done()
			res, err := fetchDataset(ctx, ds, destDir, force)
			if err != nil {
				results <- outcome{line: fmt.Sprintf(failMsg, ds.Name, err), ok: false}
				return
			}
			results <- outcome{line: fmt.Sprintf(successMsg, ds.Name, ui.FormatSize(res.Size)), ok: true}
		}(ds)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	fetched, failed := 0, 0
	for res := range results {
		fmt.Println(res.line)
		if res.ok {
			fetched++
		} else {
			failed++
		}
	}
	fmt.Println("\n" + i18n.T("fetch_all.complete_message", fetched, failed))
	if failed > 0 {
		os.Exit(1)
	}
}

// updateCmd represents the 'update' command. It pulls the latest changes
// into a cloned data repository working tree.
var updateCmd = &cobra.Command{
	Use:   "update [dir]",
	Short: "Pull the latest changes into a cloned repository",
	Long: `Runs the equivalent of "git pull" on a working tree created by
'qefdata clone'. Without an argument the configured data directory is
updated.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := viper.GetString("data_dir")
		if len(args) > 0 {
			dir = args[0]
		}
		updated, err := fetch.Pull(cmd.Context(), dir, os.Stdout)
		if err != nil {
			if hint := fetch.SuggestAction(err); hint != "" {
				fmt.Println("TAKE ACTION: " + hint)
			}
			log.Fatalf("Error updating %s: %v", dir, err)
		}
		if updated {
			fmt.Printf("Updated %s to the latest revision.\n", dir)
		} else {
			fmt.Printf("%s is already up to date.\n", dir)
		}
	},
}

// trustHostCmd represents the 'trust-host' command.
// It facilitates the initial trust of the SFTP mirror by fetching its public
// SSH key, displaying its fingerprint, and prompting the user to pin it in
// the catalog. Subsequent SFTP fetches verify against the pinned key.
var trustHostCmd = &cobra.Command{
	Use:   "trust-host <host[:port] | sftp://user@host/path>",
	Short: "Pin the SFTP mirror's host key",
	Long: `Connects to the mirror for the first time, retrieves its public key,
and prompts the user to save it to the catalog. This is a required step
before qefdata will fetch datasets over SFTP from that host.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// DB is initialized in PersistentPreRunE.
		target := args[0]
		hostname := target
		if strings.Contains(target, "://") {
			h, _, _, err := fetch.ParseSFTPURL(target)
			if err != nil {
				log.Fatalf("%v", err)
			}
			hostname = h
		}

		fmt.Println(i18n.T("trust_host.retrieving_key", hostname))
		key, err := fetch.GetRemoteHostKey(hostname)
		if err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_get_key", err))
		}

		fingerprint := ssh.FingerprintSHA256(key)
		fmt.Printf("\n"+i18n.T("trust_host.authenticity_warning_1")+"\n", hostname)
		fmt.Printf(i18n.T("trust_host.authenticity_warning_2")+"\n", key.Type(), fingerprint)

		answer := promptForConfirmation(i18n.T("trust_host.confirm_prompt"))
		if answer != "yes" {
			fmt.Println(i18n.T("trust_host.not_trusted_abort"))
			os.Exit(1)
		}

		keyStr := string(ssh.MarshalAuthorizedKey(key))
		if err := db.AddKnownHostKey(hostname, keyStr); err != nil {
			log.Fatalf("%s", i18n.T("trust_host.error_save_key", err))
		}

		fmt.Println(i18n.T("trust_host.added_success", hostname, key.Type()))
	},
}

// kindForName classifies a dataset by its file name. Content-based
// classification happens later, when 'qefdata inspect' sees actual bytes.
func kindForName(name string) model.DatasetKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".nxs", ".h5", ".hdf5":
		return model.KindNexus
	case ".dat", ".txt", ".grp", ".csv":
		return model.KindAscii
	case ".gz", ".tgz", ".zip", ".zst", ".tar":
		return model.KindArchive
	default:
		return model.KindOther
	}
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}
