package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/scan-track-service/internal/api/http"
	"github.com/spec-kit/scan-track-service/internal/api/http/handlers"
	"github.com/spec-kit/scan-track-service/internal/auth"
	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/config"
	"github.com/spec-kit/scan-track-service/internal/events"
	"github.com/spec-kit/scan-track-service/internal/observability"
	"github.com/spec-kit/scan-track-service/internal/persistence"
	"github.com/spec-kit/scan-track-service/internal/repository"
	"github.com/spec-kit/scan-track-service/internal/service"
	"github.com/spec-kit/scan-track-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	boardRepo := repository.NewBoardRepository(pool)
	scanRepo := repository.NewScanRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	stateRepo := repository.NewScanStateRepository(redis.Client, cfg.Scan.PendingTTL())

	policy := authz.NewPolicy(cfg.Policy.CommentDepartments)
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg.Auth, userRepo)
	identityService := service.NewIdentityService(service.IdentityDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
	}, policy, cfg.Auth.BcryptCost)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:  orderRepo,
		BoardRepo:  boardRepo,
		ScanRepo:   scanRepo,
		Dispatcher: dispatcher,
	}, policy)
	scanService := service.NewScanService(service.ScanDependencies{
		OrderRepo:  orderRepo,
		BoardRepo:  boardRepo,
		ScanRepo:   scanRepo,
		StateRepo:  stateRepo,
		Dispatcher: dispatcher,
	}, policy, cfg.Scan)
	commentService := service.NewCommentService(boardRepo, commentRepo, policy, dispatcher)

	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth, logger); err != nil {
		logger.Fatal("failed to ensure bootstrap admin", zap.Error(err))
	}

	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, departmentRepo)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Orders:         handlers.NewOrdersHandler(orderService),
		Scans:          handlers.NewScansHandler(scanService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Admin:          handlers.NewAdminHandler(identityService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
