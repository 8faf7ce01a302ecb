package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appactivity "github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// NewActivityCmd returns the leadtrack activity subcommand.
func NewActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Maintain the activity log",
	}

	var (
		beforeDate string
		retention  time.Duration
	)

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete activity records older than a cutoff",
		Long: "Delete activity records that occurred before a cutoff. The cutoff comes\n" +
			"from --before (a date) or --retention (an age, e.g. 2160h for 90 days).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			cutoff, err := purgeCutoff(beforeDate, retention, time.Now().UTC())
			if err != nil {
				return err
			}

			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			conn, err := postgres.NewConnection(ctx, cfg.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := appactivity.NewService(repositories.NewActivityRepository(conn.Pool(), cliCtx.Logger), cliCtx.Logger)
			deleted, err := svc.Purge(ctx, cutoff)
			if err != nil {
				return err
			}

			PrintSuccess(cmd, fmt.Sprintf("purged %d activity record(s) before %s", deleted, cutoff.Format(time.RFC3339)))
			return nil
		},
	}

	purgeCmd.Flags().StringVar(&beforeDate, "before", "", "cutoff date, YYYY-MM-DD")
	purgeCmd.Flags().DurationVar(&retention, "retention", 0, "age to keep, e.g. 2160h")

	cmd.AddCommand(purgeCmd)
	return cmd
}

// purgeCutoff resolves exactly one of the two cutoff flags into a time.
func purgeCutoff(beforeDate string, retention time.Duration, now time.Time) (time.Time, error) {
	switch {
	case beforeDate != "" && retention != 0:
		return time.Time{}, errors.Validation("--before and --retention are mutually exclusive")
	case beforeDate != "":
		d, err := common.ParseDate(beforeDate)
		if err != nil {
			return time.Time{}, err
		}
		return d.Time(), nil
	case retention > 0:
		return now.Add(-retention), nil
	default:
		return time.Time{}, errors.Validation("a cutoff is required; pass --before or --retention")
	}
}
