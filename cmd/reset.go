package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sohta/kotoba/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's data",
	Long: `Delete a learner's profiles, cards, placement tests and view history.

Shared generated content and the event log are kept. Scope the deletion
to one language with --language; the default removes every language.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		language, _ := cmd.Flags().GetString("language")
		yes, _ := cmd.Flags().GetBool("yes")

		scope := "all languages"
		if language != "" {
			scope = language
		}
		if !yes {
			fmt.Printf("Delete all data for %s (%s)? [y/N] ", userID, scope)
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		res, err := s.PurgeUser(context.Background(), userID, language)
		if err != nil {
			return fmt.Errorf("purge learner data: %w", err)
		}

		fmt.Printf("Deleted %d profiles, %d cards, %d placement tests, %d views.\n",
			res.Profiles, res.Cards, res.Placements, res.Views)
		return nil
	},
}

func init() {
	resetCmd.Flags().StringP("user", "u", "", "User ID (required)")
	resetCmd.Flags().StringP("language", "l", "", "Limit deletion to one language")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	_ = resetCmd.MarkFlagRequired("user")
}
