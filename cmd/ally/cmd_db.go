package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artisansally/ally/pkg/app"
)

// ally migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running migrations…")
		return app.Migrate(cmd.OutOrStdout())
	},
}

// ally migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Rolling back last batch…")
		return app.Rollback(cmd.OutOrStdout())
	},
}

// ally migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		return app.MigrateStatus(cmd.OutOrStdout())
	},
}

// ally seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the demo workshop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return app.Seed(cmd.OutOrStdout())
	},
}
