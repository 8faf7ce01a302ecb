package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/relayops/leadtrack/internal/application/reporting"
	"github.com/relayops/leadtrack/internal/config"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// reportFlags is the flag set shared by the weekly and daily subcommands.
type reportFlags struct {
	date      string
	format    string
	userID    string
	profileID string
	outPath   string
	asEmail   string
}

// NewReportCmd returns the leadtrack report subcommand. With --out the
// document is rendered straight to a local file; without it the document is
// stored in object storage and recorded as an artifact, exactly as the API
// endpoint does.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate performance reports",
		Long: "Assemble weekly or daily performance documents from recorded progress,\n" +
			"targets, and pipeline leads. Formats: csv, docx, html.",
	}

	cmd.AddCommand(
		newReportPeriodCmd(report.KindWeekly, "weekly", "Generate a weekly report (the ISO week containing --date)"),
		newReportPeriodCmd(report.KindDaily, "daily", "Generate a daily report for --date"),
	)

	return cmd
}

func newReportPeriodCmd(kind report.Kind, use, short string) *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportGenerate(cmd, kind, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.date, "date", "", "any date inside the wanted period, YYYY-MM-DD (default: today)")
	f.StringVar(&flags.format, "format", "csv", "document format (csv, docx, html)")
	f.StringVar(&flags.userID, "user", "", "restrict to one user ID")
	f.StringVar(&flags.profileID, "profile", "", "restrict to one profile ID")
	f.StringVar(&flags.outPath, "out", "", "write the document to this path instead of object storage")
	f.StringVar(&flags.asEmail, "as", "", "email of the requesting account (required without --out)")

	return cmd
}

func runReportGenerate(cmd *cobra.Command, kind report.Kind, flags *reportFlags) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg, err := requireConfig(cliCtx)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	day := common.Today()
	if flags.date != "" {
		if day, err = common.ParseDate(flags.date); err != nil {
			return err
		}
	}

	if flags.outPath == "" && flags.asEmail == "" {
		return errors.Validation("either --out (local file) or --as (store as artifact) is required")
	}

	ctx, cancel := opContext(cmd, cliCtx)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, cfg.Database, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	pool := conn.Pool()
	engine := reporting.NewEngine(
		repositories.NewProgressRepository(pool, cliCtx.Logger),
		repositories.NewTargetRepository(pool, cliCtx.Logger),
		repositories.NewLeadRepository(pool, cliCtx.Logger),
		repositories.NewUserRepository(pool, cliCtx.Logger),
		repositories.NewProfileRepository(pool, cliCtx.Logger),
		cliCtx.Logger,
	)

	renderer, err := buildRenderer(format, cfg, cliCtx.Logger)
	if err != nil {
		return err
	}

	input := &reporting.GenerateInput{
		Date:            day,
		Format:          format,
		FilterUserID:    common.ID(flags.userID),
		FilterProfileID: common.ID(flags.profileID),
	}

	if flags.outPath != "" {
		return renderToFile(cmd, ctx, engine, renderer, kind, input, flags.outPath)
	}
	return storeArtifact(cmd, ctx, cfg, cliCtx.Logger, pool, engine, renderer, kind, input, flags.asEmail)
}

// buildRenderer returns the renderer for one format. The HTML renderer loads
// any configured template directory but never starts the watcher; CLI runs
// are one-shot.
func buildRenderer(format report.Format, cfg *config.Config, logger logging.Logger) (reporting.Renderer, error) {
	switch format {
	case report.FormatCSV:
		return reporting.NewCSVRenderer(), nil
	case report.FormatDOCX:
		return reporting.NewDOCXRenderer(), nil
	case report.FormatHTML:
		r, err := reporting.NewHTMLRenderer(cfg.Reporting.TemplateDir, false, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, errors.Newf(errors.ErrCodeReportBadFormat, "unsupported report format %q", string(format))
	}
}

// renderToFile builds the document and writes it to a local path, touching
// neither object storage nor the artifact table.
func renderToFile(cmd *cobra.Command, ctx context.Context, engine *reporting.Engine, renderer reporting.Renderer, kind report.Kind, input *reporting.GenerateInput, outPath string) error {
	var data []byte
	var err error

	if kind == report.KindWeekly {
		var doc *report.WeeklyReport
		if doc, err = engine.BuildWeekly(ctx, input.Date, input.FilterUserID, input.FilterProfileID); err != nil {
			return err
		}
		if data, err = renderer.RenderWeekly(doc); err != nil {
			return err
		}
	} else {
		var doc *report.DailyReport
		if doc, err = engine.BuildDaily(ctx, input.Date, input.FilterUserID, input.FilterProfileID); err != nil {
			return err
		}
		if data, err = renderer.RenderDaily(doc); err != nil {
			return err
		}
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write report file")
	}

	PrintSuccess(cmd, fmt.Sprintf("%s report written to %s (%d bytes)", kind, outPath, len(data)))
	return nil
}

// storeArtifact runs the full reporting service path: the document lands in
// the report bucket and an artifact row records the run under the --as
// account.
func storeArtifact(cmd *cobra.Command, ctx context.Context, cfg *config.Config, logger logging.Logger, pool *pgxpool.Pool, engine *reporting.Engine, renderer reporting.Renderer, kind report.Kind, input *reporting.GenerateInput, asEmail string) error {
	users := repositories.NewUserRepository(pool, logger)
	actor, err := users.GetByEmail(ctx, asEmail)
	if err != nil {
		return err
	}
	if !actor.IsManager() {
		return errors.Newf(errors.ErrCodeForbidden, "account %s is not a manager", actor.Email)
	}

	store, err := minio.NewClient(cfg.MinIO, logger)
	if err != nil {
		return err
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		return err
	}

	svc, err := reporting.NewService(reporting.Config{
		Artifacts:    repositories.NewReportRepository(pool, logger),
		Engine:       engine,
		Renderers:    []reporting.Renderer{renderer},
		Storage:      minio.NewMinIORepository(store, logger),
		ReportBucket: store.ReportBucket(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	claims := &auth.Claims{UserID: actor.ID, Username: actor.Username, Role: actor.Role}

	var artifact *report.Artifact
	if kind == report.KindWeekly {
		artifact, err = svc.GenerateWeekly(ctx, claims, input)
	} else {
		artifact, err = svc.GenerateDaily(ctx, claims, input)
	}
	if err != nil {
		return err
	}

	PrintSuccess(cmd, fmt.Sprintf("%s report stored as %s (%d bytes, artifact %s)",
		kind, artifact.ObjectKey, artifact.SizeBytes, artifact.ID))
	return PrintResult(cmd, artifact)
}
