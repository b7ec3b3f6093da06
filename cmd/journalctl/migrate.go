package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rc *rootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database to the current schema generation",
		Long: `Run pending schema migrations. Legacy flat-list data is moved into the
accounts and trades collections; an empty database is seeded with the default
account and example trades.

Examples:
  journalctl migrate
  journalctl migrate status --db journal.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, false)
			if err != nil {
				return err
			}
			report, err := core.RunMigrations(cmd.Context())
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			switch {
			case report.Fresh:
				fmt.Fprintf(out, "initialized generation %d (seeded: %t)\n", report.To, report.Seeded)
			case report.From == report.To:
				fmt.Fprintf(out, "already at generation %d\n", report.To)
			default:
				fmt.Fprintf(out, "migrated from generation %d to %d (applied: %s)\n", report.From, report.To, joinInts(report.Applied))
			}
			return nil
		},
	}
	cmd.AddCommand(newMigrateStatusCmd(rc))
	return cmd
}

func newMigrateStatusCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored schema generation without changing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := rc.open(cmd, false)
			if err != nil {
				return err
			}
			status, err := core.Migrator().Status(cmd.Context())
			if err != nil {
				return err
			}
			if rc.jsonOut {
				return printJSON(cmd.OutOrStdout(), status)
			}
			out := cmd.OutOrStdout()
			stored := "none"
			if status.MarkerPresent {
				stored = fmt.Sprint(status.StoredVersion)
			}
			fmt.Fprintf(out, "stored generation:  %s\n", stored)
			fmt.Fprintf(out, "current generation: %d\n", status.CurrentVersion)
			fmt.Fprintf(out, "legacy data:        %t\n", status.LegacyPresent)
			fmt.Fprintf(out, "pending steps:      %s\n", joinInts(status.Pending))
			return nil
		},
	}
}
