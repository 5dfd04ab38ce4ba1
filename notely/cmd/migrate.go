package main

import (
	"context"
	"fmt"

	"notely/notely/sources/psql/schema"
	"notely/notely/utils/color"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Long:  `Apply every pending schema migration. Safe to run repeatedly and alongside a running server.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := schema.Ensure(ctx, db.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println(color.ColorSuccess(fmt.Sprintf("Schema is at version %d", len(schema.Migrations()))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
