package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/liability"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/project"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salarylist"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/messaging/kafka"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	employeeService "github.com/cmlabs-hris/payroll-engine/internal/service/employee"
	liabilityService "github.com/cmlabs-hris/payroll-engine/internal/service/liability"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	salaryListService "github.com/cmlabs-hris/payroll-engine/internal/service/salarylist"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	tx          database.Transactor
	employees   employee.EmployeeRepository
	projects    project.ProjectRepository
	liabilities liability.LiabilityRepository
	payrolls    payroll.PayrollRepository
	salaryLists salarylist.SalaryListRepository
	close       func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("payroll engine stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, cache and idempotency degrade to pass-through", "error", err)
		}
	}

	publisher := payroll.NoopEventPublisher()
	if cfg.Kafka.Brokers != "" {
		writer := kafka.NewWriter(cfg.Kafka.Brokers)
		defer writer.Close()
		publisher = kafka.NewPayrollEventPublisher(writer, cfg.Kafka.PayrollTopic)
	}

	directory := employeeService.NewDirectory(repos.employees, rdb)
	ledger := liabilityService.NewLiabilityService(repos.tx, repos.liabilities, directory)
	sheets := salaryListService.NewSalaryListService(repos.salaryLists, repos.payrolls, repos.projects)
	payrolls := payrollService.NewPayrollService(
		repos.tx,
		repos.payrolls,
		ledger,
		directory,
		repos.projects,
		repos.salaryLists,
		sheets,
		publisher,
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
			Redis:          rdb,
		},
		appHTTP.NewPayrollHandler(payrolls),
		appHTTP.NewLiabilityHandler(ledger),
		appHTTP.NewSalaryListHandler(sheets),
	)

	scheduler := cron.NewScheduler()
	cron.NewSheetSyncJobs(sheets, cfg.Jobs.SheetSyncInterval).RegisterJobs(scheduler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "storage", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		if cfg.Database.SeedFile != "" {
			n, err := memory.LoadSeedFile(store, cfg.Database.SeedFile)
			if err != nil {
				return nil, err
			}
			slog.Info("memory store seeded", "rows", n)
		}
		return &repositories{
			tx:          store,
			employees:   memory.NewEmployeeRepository(store),
			projects:    memory.NewProjectRepository(store),
			liabilities: memory.NewLiabilityRepository(store),
			payrolls:    memory.NewPayrollRepository(store),
			salaryLists: memory.NewSalaryListRepository(store),
			close:       func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return &repositories{
			tx:          postgresql.NewTransactor(db),
			employees:   postgresql.NewEmployeeRepository(db),
			projects:    postgresql.NewProjectRepository(db),
			liabilities: postgresql.NewLiabilityRepository(db),
			payrolls:    postgresql.NewPayrollRepository(db),
			salaryLists: postgresql.NewSalaryListRepository(db),
			close:       db.Close,
		}, nil
	}
}
