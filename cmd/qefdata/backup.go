// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// backup.go holds the catalog portability commands: backup, restore, and
// migrate.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
)

// backupCmd dumps the catalog into a single compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the catalog",
	Long: `Dumps the entire contents of the catalog (datasets, remotes, snapshots,
trusted host keys, audit log) into a single, Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. If no output file is specified, a default filename
'qefdata-backup-YYYY-MM-DD.json.zst' is used.

This file can be used for disaster recovery or for migrating to a different
database backend.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("qefdata-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		data, err := db.ExportDataForBackup()
		if err != nil {
			log.Fatalf("Error exporting catalog: %v", err)
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			log.Fatalf("Error writing backup: %v", err)
		}
		fmt.Printf("Backup written to %s (%d datasets, %d remotes).\n",
			outputFile, len(data.Datasets), len(data.Remotes))
	},
}

// restoreCmd loads a compressed JSON backup back into the catalog.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file.zst>",
	Short: "Restore the catalog from a compressed JSON backup",
	Long: `Restores the catalog from a Zstandard-compressed JSON backup file.
By default, this command performs a non-destructive "integration" restore,
only adding data that does not already exist.

To perform a full, destructive restore that WIPES all existing data before
importing, use the --full flag.
WARNING: The --full flag is destructive and not reversible.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		full, _ := cmd.Flags().GetBool("full")

		data, err := readCompressedBackup(args[0])
		if err != nil {
			log.Fatalf("Error reading backup: %v", err)
		}

		if full {
			answer := promptForConfirmation("This will WIPE the current catalog before importing. Continue? (yes/no): ")
			if answer != "yes" {
				fmt.Println("Restore cancelled.")
				return
			}
			err = db.ImportDataFromBackup(data)
		} else {
			err = db.IntegrateDataFromBackup(data)
		}
		if err != nil {
			log.Fatalf("Error restoring backup: %v", err)
		}
		fmt.Println("Restore complete.")
	},
}

// migrateCmd moves the catalog to a different database backend.
var migrateCmd = &cobra.Command{
	Use:   "migrate --type <db-type> --dsn <target-dsn>",
	Short: "Migrate the catalog to a new database backend",
	Long: `Exports all data from the current catalog database and imports it into a
new target database.

This command automates the following steps:
1. Exports data from the source database in-memory.
2. Connects to the target database specified by --type and --dsn.
3. Applies the schema migrations to the target.
4. Performs a full restore into the target database.

Example:
  qefdata migrate --type postgres --dsn "host=localhost user=qefdata dbname=qefdata"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetType, _ := cmd.Flags().GetString("type")
		targetDSN, _ := cmd.Flags().GetString("dsn")
		if targetType == "" || targetDSN == "" {
			return fmt.Errorf("--type and --dsn are required")
		}

		fmt.Println("Exporting the current catalog...")
		data, err := db.ExportDataForBackup()
		if err != nil {
			return fmt.Errorf("failed to export catalog: %w", err)
		}

		fmt.Printf("Importing into %s target...\n", targetType)
		if err := db.InitDB(targetType, targetDSN); err != nil {
			return fmt.Errorf("failed to connect to target database: %w", err)
		}
		if err := db.ImportDataFromBackup(data); err != nil {
			return fmt.Errorf("failed to import into target: %w", err)
		}

		fmt.Println("Migration complete.")
		fmt.Println("Update database.type and database.dsn in your config to use the new backend.")
		return nil
	},
}

// readCompressedBackup handles reading and decoding a zstd-compressed JSON backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}

	return &backupData, nil
}

// writeCompressedBackup handles the process of writing the backup data to a
// zstd-compressed file. The JSON encoding streams directly into the
// compressor.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}

	return nil
}

func init() {
	restoreCmd.Flags().Bool("full", false, "Wipe the catalog before importing (destructive)")

	migrateCmd.Flags().String("type", "", "Target database type (sqlite, postgres, mysql)")
	migrateCmd.Flags().String("dsn", "", "Target database connection string")
}
