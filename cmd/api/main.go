package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/amarinov1974/cmms-system-sub002/internal/api/http"
	"github.com/amarinov1974/cmms-system-sub002/internal/api/http/handlers"
	"github.com/amarinov1974/cmms-system-sub002/internal/approval"
	"github.com/amarinov1974/cmms-system-sub002/internal/auth"
	"github.com/amarinov1974/cmms-system-sub002/internal/cache"
	"github.com/amarinov1974/cmms-system-sub002/internal/config"
	"github.com/amarinov1974/cmms-system-sub002/internal/events"
	"github.com/amarinov1974/cmms-system-sub002/internal/observability"
	"github.com/amarinov1974/cmms-system-sub002/internal/persistence"
	"github.com/amarinov1974/cmms-system-sub002/internal/repository"
	"github.com/amarinov1974/cmms-system-sub002/internal/service"
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
	ticketRepo := repository.NewTicketRepository(pool)
	workOrderRepo := repository.NewWorkOrderRepository(pool)
	approvalRepo := repository.NewApprovalHistoryRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	resolver := approval.NewResolver(userRepo)
	gate := approval.NewGate(resolver)
	guard := cache.NewDecisionGuard(redis.ClientHandle(), cfg.Approval.DecisionGuardTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifications.RegisterHandlers()

	authService := service.NewAuthService(*cfg, userRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TxRunner:      repository.NewTxRunner(pool),
		TicketRepo:    ticketRepo,
		WorkOrderRepo: workOrderRepo,
		ApprovalRepo:  approvalRepo,
		HistoryRepo:   historyRepo,
		UserRepo:      userRepo,
		Resolver:      resolver,
		Gate:          gate,
		DecisionGuard: guard,
		Dispatcher:    dispatcher,
	})
	workOrderService := service.NewWorkOrderService(service.WorkOrderDependencies{
		WorkOrderRepo: workOrderRepo,
		TicketRepo:    ticketRepo,
		UserRepo:      userRepo,
		HistoryRepo:   historyRepo,
		Dispatcher:    dispatcher,
	})

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		WorkOrders:     handlers.NewWorkOrdersHandler(workOrderService),
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
