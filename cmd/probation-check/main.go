package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-hrm/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"github.com/ogurasousui/codex-hrm/internal/platform/config"
	pg "github.com/ogurasousui/codex-hrm/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-hrm/internal/platform/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		dryRun     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "probation-check",
		Short:        "Promote employees whose probation period has ended",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}

			cfg, err := config.Load(effectiveConfigPath(configPath))
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			dbPool, err := pg.NewPool(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("initialize database pool: %w", err)
			}
			defer dbPool.Close()

			auditSvc := audit.NewService(postgres.NewAuditRepository(dbPool), nil, logger)
			svc := probation.NewService(postgres.NewProbationStore(dbPool), auditSvc, nil, logger)

			if dryRun {
				return runDry(ctx, svc, cmd.OutOrStdout())
			}
			return runOnce(ctx, svc, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list employees that would be promoted without updating them")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the run after this duration (0 disables)")

	return cmd
}

type dryRunner interface {
	DryRun(ctx context.Context) ([]*employee.Employee, error)
}

func runDry(ctx context.Context, svc dryRunner, out io.Writer) error {
	due, err := svc.DryRun(ctx)
	if err != nil {
		return err
	}
	for _, emp := range due {
		fmt.Fprintf(out, "%s\t%s\t%s\n", emp.EmployeeID, emp.FullName(), emp.EmploymentStatus.ProbationEndDate.UTC().Format("2006-01-02"))
	}
	fmt.Fprintf(out, "%d employees would be promoted\n", len(due))
	return nil
}

func runOnce(ctx context.Context, svc probation.Runner, out io.Writer, logger *zap.Logger) error {
	result, err := svc.Run(ctx)
	if result != nil {
		fmt.Fprintf(out, "promoted=%d skipped=%d failed=%d\n", result.Promoted, result.Skipped, result.Failed)
	}
	if err != nil {
		logger.Error("probation check failed", zap.Error(err))
		return err
	}
	return nil
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}
