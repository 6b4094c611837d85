package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	httphandler "github.com/ogurasousui/codex-hrm/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-hrm/internal/adapters/identity/jwtauth"
	"github.com/ogurasousui/codex-hrm/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-hrm/internal/adapters/storage/localfs"
	"github.com/ogurasousui/codex-hrm/internal/core/audit"
	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/probation"
	"github.com/ogurasousui/codex-hrm/internal/platform/config"
	pg "github.com/ogurasousui/codex-hrm/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-hrm/internal/platform/logging"
	"github.com/ogurasousui/codex-hrm/internal/platform/scheduler"
	"github.com/ogurasousui/codex-hrm/internal/platform/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)

	auditSvc := audit.NewService(postgres.NewAuditRepository(dbPool), nil, logger)
	employeeSvc := employee.NewService(
		postgres.NewEmployeeRepository(dbPool),
		auditSvc,
		nil,
		txManager,
		employee.WithProbationWindow(cfg.Scheduler.ProbationWindow),
	)
	probationSvc := probation.NewService(postgres.NewProbationStore(dbPool), auditSvc, nil, logger)

	verifier, err := jwtauth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("initialize token verifier: %w", err)
	}

	uploads, err := localfs.New(cfg.HTTP.UploadDir)
	if err != nil {
		return fmt.Errorf("initialize upload storage: %w", err)
	}

	router := httphandler.NewRouter(httphandler.RouterConfig{
		Employees:      httphandler.NewEmployeeHandler(employeeSvc, uploads, cfg.HTTP.MaxUploadBytes, logger),
		Audit:          httphandler.NewAuditHandler(auditSvc),
		Probation:      httphandler.NewProbationHandler(probationSvc),
		Verifier:       verifier,
		CronSecret:     cfg.Auth.CronSecret,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	})
	httpServer := server.NewHTTP(cfg.HTTP.ListenAddr, router, cfg.HTTP.ShutdownTimeout, logger)
	grpcServer := server.New(cfg.Server.ListenAddr, probationSvc, verifier, logger)

	var job *scheduler.Handle
	if cfg.Scheduler.InProcessSchedule() {
		job, err = scheduler.Start(scheduler.Options{
			Name:       "probation-check",
			Spec:       cfg.Scheduler.Spec,
			Location:   cfg.Scheduler.Location,
			RunOnStart: cfg.Scheduler.RunOnStart,
		}, func(ctx context.Context) error {
			_, err := probationSvc.Run(ctx)
			return err
		}, logger)
		if err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		logger.Info("probation scheduler started",
			zap.String("spec", cfg.Scheduler.Spec),
			zap.String("timezone", cfg.Scheduler.Location.String()),
			zap.Time("next", job.Next()),
		)
	} else {
		logger.Info("in-process probation scheduler disabled", zap.String("mode", cfg.Scheduler.Mode))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error { return grpcServer.Run(gctx) })
	serveErr := g.Wait()

	if job != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := job.Stop(stopCtx); err != nil {
			logger.Warn("scheduler did not stop cleanly", zap.Error(err))
		}
	}

	logger.Info("server stopped")
	return serveErr
}
