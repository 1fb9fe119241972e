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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/course-catalog/cmd/catalog/cli"
	"github.com/odyssey-erp/course-catalog/internal/app"
	"github.com/odyssey-erp/course-catalog/internal/auth"
	"github.com/odyssey-erp/course-catalog/internal/catalog"
	"github.com/odyssey-erp/course-catalog/internal/messages"
	"github.com/odyssey-erp/course-catalog/internal/observability"
	"github.com/odyssey-erp/course-catalog/internal/orders"
	"github.com/odyssey-erp/course-catalog/internal/platform/cache"
	"github.com/odyssey-erp/course-catalog/internal/platform/db"
	"github.com/odyssey-erp/course-catalog/internal/rbac"
	"github.com/odyssey-erp/course-catalog/internal/users"
	"github.com/odyssey-erp/course-catalog/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := runJobsCommand(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.DBMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, catalog cache disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	tokens, err := auth.NewTokenCodec([]byte(cfg.JWTSecretKey), cfg.JWTTTL)
	if err != nil {
		return err
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts, cfg.AdminNotifyEmail)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.NewBcryptHasher(cfg.BcryptCost), tokens)
	authHandler := auth.NewHandler(logger, authService, jobsClient, metrics)
	gate := auth.NewGate(tokens, authRepo, logger, metrics)

	policy, err := rbac.NewPolicy(rbac.DefaultRules())
	if err != nil {
		return err
	}
	rbacMiddleware := rbac.Middleware{Policy: policy, Logger: logger, Recorder: metrics}

	usersRepo := users.NewRepository(pool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo), rbacMiddleware)

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL, logger, metrics)
	prices := catalog.NewPriceFormatter(cfg.PriceLanguage())
	catalogService := catalog.NewService(catalog.NewRepository(pool), catalogCache, logger).WithPriceFormatter(prices)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	ordersService := orders.NewService(orders.NewRepository(pool), usersRepo, catalogService, prices, logger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	messagesService := messages.NewService(messages.NewRepository(pool), jobsClient, logger)
	messagesHandler := messages.NewHandler(logger, messagesService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Gate:            gate,
		RBACMiddleware:  rbacMiddleware,
		Metrics:         metrics,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		CatalogHandler:  catalogHandler,
		MessagesHandler: messagesHandler,
		OrdersHandler:   ordersHandler,
		JobHandler:      jobs.NewHandler(inspector, logger),
		CourseImageDir:  cfg.CourseImageDir,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) error {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() { _ = jobsCLI.Close() }()

	if len(args) == 0 {
		return errors.New("usage: catalog jobs <stats|trigger NAME|scheduled>")
	}
	switch args[0] {
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: catalog jobs trigger NAME")
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "scheduled":
		tasks, err := jobsCLI.ListScheduled(ctx, 10)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			fmt.Printf("%s %s next=%s\n", task.ID, task.Type, task.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown jobs command %q", args[0])
	}
	return nil
}
