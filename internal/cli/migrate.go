package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"referral-tracker-backend/internal/common/config"
	"referral-tracker-backend/internal/common/logger"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema",
		Long: `Create or update the users, referrals and milestones tables together
with the partial unique index on active emails.

Only the postgres and sqlite drivers have a schema; other drivers are a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := rootOpts.cfg.Storage.Driver
			if driver != config.DriverPostgres && driver != config.DriverSQLite {
				fmt.Fprintf(cmd.OutOrStdout(), "Driver %s has no schema, nothing to migrate.\n", driver)
				return nil
			}

			res, err := rootOpts.open(cmd.Context(), rootOpts.cfg, true)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			res.Close()

			logger.Info().Str("driver", driver).Msg("Schema migrated")
			fmt.Fprintln(cmd.OutOrStdout(), "Schema migrated.")
			return nil
		},
	}
}
