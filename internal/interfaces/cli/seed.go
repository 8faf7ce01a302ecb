package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/pkg/errors"
)

// NewSeedCmd returns the leadtrack seed subcommand. Seeding is how the first
// manager account gets into a fresh database; every later account is created
// through the API by that manager.
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed bootstrap data",
	}

	var (
		email    string
		username string
		fullName string
		password string
	)

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Create the first manager account",
		Long: "Create a manager account directly in the database. Safe to re-run: an\n" +
			"existing account with the same email is left untouched. The password is\n" +
			"taken from --password or, when empty, from LEADTRACK_SEED_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg, err := requireConfig(cliCtx)
			if err != nil {
				return err
			}

			if password == "" {
				password = os.Getenv("LEADTRACK_SEED_PASSWORD")
			}
			if password == "" {
				return errors.Validation("password required; pass --password or set LEADTRACK_SEED_PASSWORD")
			}

			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			conn, err := postgres.NewConnection(ctx, cfg.Database, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			users := repositories.NewUserRepository(conn.Pool(), cliCtx.Logger)

			existing, err := users.GetByEmail(ctx, email)
			if err != nil && !errors.IsCode(err, errors.ErrCodeUserNotFound) {
				return err
			}
			if existing != nil {
				PrintSuccess(cmd, fmt.Sprintf("account %s already present, nothing to do", existing.Email))
				return nil
			}

			admin, err := user.New(email, username, fullName, user.RoleManager)
			if err != nil {
				return err
			}

			hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost, cfg.Auth.MinPasswordLen)
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			if err := admin.SetPasswordHash(hash); err != nil {
				return err
			}

			if err := users.Create(ctx, admin); err != nil {
				return err
			}

			PrintSuccess(cmd, fmt.Sprintf("manager account %s created (%s)", admin.Email, admin.ID))
			return nil
		},
	}

	adminCmd.Flags().StringVar(&email, "email", "", "account email (required)")
	adminCmd.Flags().StringVar(&username, "username", "", "account username (required)")
	adminCmd.Flags().StringVar(&fullName, "full-name", "Administrator", "display name")
	adminCmd.Flags().StringVar(&password, "password", "", "initial password (or LEADTRACK_SEED_PASSWORD)")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("username")

	cmd.AddCommand(adminCmd)
	return cmd
}
