package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adam-Grimes/CINEMA/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the documents table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := database.Migrate(ctx, store); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "documents table is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
