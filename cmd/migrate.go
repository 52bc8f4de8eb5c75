package cmd

import (
	"github.com/satheeshds/invoicing/db"
	"github.com/spf13/cobra"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migrateStatus {
			return db.MigrationStatus(pool)
		}
		return db.Migrate(pool)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print migration status instead of migrating")
}
