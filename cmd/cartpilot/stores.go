package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/infrastructure/storage/memory"
	"github.com/cartpilot/backend/internal/infrastructure/storage/sqlite"
)

func newStoresCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Manage the SQLite store database",
	}
	cmd.AddCommand(newStoresImportCmd(c))
	return cmd
}

func newStoresImportCmd(c *cli) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert stores from a YAML file into the SQLite database",
		Long: `Reads a stores YAML file and upserts every valid record by id.
Records without an id or name are skipped and reported.

Example:
  cartpilot stores import data/stores.yaml --db stores.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = c.cfg.Stores.SQLitePath
			}
			if dbPath == "" {
				return fmt.Errorf("no database path: pass --db or set CARTPILOT_STORES_SQLITE_PATH")
			}

			stores, skipped, err := memory.LoadStoresFile(args[0], c.logger.Named("stores"))
			if err != nil {
				return err
			}

			repo, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.UpsertStores(cmd.Context(), stores)
			if err != nil {
				return err
			}
			total, err := repo.Count(cmd.Context())
			if err != nil {
				return err
			}

			c.logger.Debug("stores imported",
				zap.String("file", args[0]),
				zap.String("db", dbPath),
				zap.Int("upserted", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d stores (%d skipped), %d in database\n", n, skipped, total)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}
