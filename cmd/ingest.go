package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryzhao/cmbill/ingest"
	"github.com/ryzhao/cmbill/integrations/sqlite"
)

var (
	ingestPath    string
	ingestDBPath  string
	ingestTimeout int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest statement mails into the local database",
	Long: `Ingests .eml statement mails into the SQLite database.

Supports both single file and directory ingestion. Every mail is ingested at
most once: the message id (file name) is the idempotency key, and mails seen
before are skipped. Mails matching the statement heuristics but carrying no
bill data are marked processed without creating a bill.

Examples:
  cmbill ingest -f bill.eml
  cmbill ingest -f /path/to/mails/ --db cmb_cc_bills.db`,
	Run: func(cmd *cobra.Command, args []string) {
		if ingestPath == "" {
			logger.Fatal("error: --file/-f is required")
		}
		dbPath := ingestDBPath
		if dbPath == "" {
			dbPath = viper.GetString("db")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(ingestTimeout)*time.Second)
		defer cancel()

		db, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			logger.Fatal("database open failed", "path", dbPath, "error", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema creation failed", "error", err)
		}

		coordinator := ingest.New(db, categoryClassifier(), extractOptions(), mailMatcher(), logger)

		summary, err := coordinator.IngestPath(ctx, ingestPath)
		if err != nil {
			logger.Fatal("ingest failed", "error", err)
		}

		fmt.Printf("\nComplete: %d ingested, %d empty, %d skipped, %d failed\n",
			summary.Ingested, summary.NoBill, summary.Skipped, summary.Failed)

		if len(summary.Errors) > 0 && verbose {
			fmt.Println("\nErrors:")
			for _, e := range summary.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestPath, "file", "f", "", "Path to .eml file or directory (required)")
	ingestCmd.Flags().StringVar(&ingestDBPath, "db", "", "SQLite database path (default from config)")
	ingestCmd.Flags().IntVar(&ingestTimeout, "timeout", 300, "Operation timeout in seconds")

	ingestCmd.MarkFlagRequired("file")
}
