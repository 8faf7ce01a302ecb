package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
)

// NewMigrateCmd returns the leadtrack migrate subcommand covering the schema
// lifecycle: apply, roll back, inspect, and force a version after a failed
// run left the schema dirty.
func NewMigrateCmd() *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  "Apply, roll back, and inspect golang-migrate migrations against the configured database.",
	}

	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "migrations directory or source URL")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			if err := postgres.RunMigrations(postgres.MigrationURL(cfg.Database), migrationSourceURL(migrationsPath)); err != nil {
				return err
			}
			PrintSuccess(cmd, "migrations applied")
			return nil
		},
	}

	var downSteps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			if err := postgres.RollbackMigration(postgres.MigrationURL(cfg.Database), migrationSourceURL(migrationsPath), downSteps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", downSteps))
			return nil
		},
	}
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			version, dirty, err := postgres.MigrationStatus(postgres.MigrationURL(cfg.Database), migrationSourceURL(migrationsPath))
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
			return nil
		},
	}

	var forceVersion int
	forceCmd := &cobra.Command{
		Use:   "force",
		Short: "Force the recorded schema version without running migrations",
		Long:  "Overwrite the schema version after a failed migration has been repaired by hand, clearing the dirty flag.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			if err := postgres.ForceMigrationVersion(postgres.MigrationURL(cfg.Database), migrationSourceURL(migrationsPath), forceVersion); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("schema version forced to %d", forceVersion))
			return nil
		},
	}
	forceCmd.Flags().IntVar(&forceVersion, "version", 0, "version to record (required)")
	_ = forceCmd.MarkFlagRequired("version")

	cmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
	return cmd
}

// migrationSourceURL accepts either a plain directory path or a full source
// URL and returns the source URL golang-migrate expects.
func migrationSourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
