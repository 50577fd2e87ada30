package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Open the database and run schema migration, then exit.

Serve migrates on startup as well; this command exists for provisioning
a database ahead of deploy and for verifying connectivity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		fmt.Println("Schema up to date.")
		return nil
	},
}
