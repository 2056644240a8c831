// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/charmbracelet/log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jmborr/qefdata/buildvars"
	"github.com/jmborr/qefdata/internal/config"
	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/index"
	"github.com/jmborr/qefdata/internal/model"
	"github.com/jmborr/qefdata/internal/state"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dump debug information about config, env, flags and settings",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("--- QEFDATA DEBUG ---")
		// Config file used
		used := viper.ConfigFileUsed()
		fmt.Printf("Config file used: %s\n", used)

		// Viper settings
		settings := viper.AllSettings()
		redactToken(settings)
		b, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			log.Errorf("could not marshal viper settings: %v", err)
		} else {
			fmt.Println("-- viper.AllSettings() --")
			fmt.Println(string(b))
		}

		// Typed view: what the standalone loader would hand to the app.
		cfg, err := config.LoadConfig[config.Config](cmd, nil, nil)
		if err != nil {
			log.Errorf("could not load typed config: %v", err)
		} else {
			fmt.Println("-- typed config --")
			fmt.Printf("%+v\n", cfg)
		}

		// Flags
		fmt.Println("-- flags --")
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			val := f.Value.String()
			if f.Name == "token" && val != "" {
				val = "(redacted)"
			}
			fmt.Printf("%s = %s\n", f.Name, val)
		})

		// Environment variables of interest
		fmt.Println("-- environment (QEFDATA_*, CONFIG*) --")
		for _, e := range os.Environ() {
			if strings.HasPrefix(e, "QEFDATA") || strings.HasPrefix(e, "CONFIG") {
				if strings.HasPrefix(e, "QEFDATA_INDEX_TOKEN=") {
					e = "QEFDATA_INDEX_TOKEN=(redacted)"
				}
				fmt.Println(e)
			}
		}

		// Print GO env hints
		fmt.Printf("PWD=%s\n", os.Getenv("PWD"))
		fmt.Println("--- END DEBUG ---")
	},
}

// redactToken blanks the index token in a settings dump. Secrets stay out of
// terminal scrollback and pasted bug reports.
func redactToken(settings map[string]any) {
	idx, ok := settings["index"].(map[string]any)
	if !ok {
		return
	}
	if tok, ok := idx["token"].(string); ok && tok != "" {
		idx["token"] = "(redacted)"
	}
}

// maintenanceCmd purges expired fetch sessions and compacts the database.
var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run catalog database maintenance",
	Long: `Purges fetch sessions whose lease has expired (crashed or interrupted
transfers) and reports how many rows were removed.`,
	Run: func(cmd *cobra.Command, args []string) {
		purged, err := db.RunDBMaintenance(viper.GetString("database.type"), viper.GetString("database.dsn"))
		if err != nil {
			log.Fatalf("Error running maintenance: %v", err)
		}
		fmt.Printf("Maintenance complete: purged %d expired fetch session(s).\n", purged)
	},
}

// tokenCmd prompts for a package-index bearer token and verifies it.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Check a package-index bearer token",
	Long: `Prompts for a bearer token (input stays hidden) and verifies it against
the configured package index by requesting the project metadata.

Tokens are held in memory only and never written to the config file.
Export QEFDATA_INDEX_TOKEN or pass --token to make one available to
later runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print("Token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			log.Fatalf("Error reading token: %v", err)
		}
		if len(raw) == 0 {
			log.Fatalf("No token given.")
		}
		state.TokenCache.Set(raw)
		for i := range raw {
			raw[i] = 0
		}

		baseURL := channelURL(model.RemoteIndex, "index.url")
		if baseURL == "" {
			log.Fatalf("No package index configured. Add an index remote or set index.url.")
		}
		pkg := viper.GetString("index.package")
		if pkg == "" {
			pkg = "qef"
		}

		client := index.NewClient(baseURL, nil)
		p, err := client.Project(cmd.Context(), pkg)
		if err != nil {
			log.Fatalf("Token check failed: %v", err)
		}
		fmt.Printf("Token accepted by %s (%s %s available).\n", baseURL, p.Info.Name, p.Info.Version)
	},
}

// versionCmd prints the version injected at build time.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the qefdata version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qefdata %s\n", buildvars.VersionOrDefault(version))
	},
}
