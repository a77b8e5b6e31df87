package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/cache"
	"github.com/agamariel/artisanmarket/internal/config"
	"github.com/agamariel/artisanmarket/internal/handlers"
	"github.com/agamariel/artisanmarket/internal/migrations"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/realtime"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/agamariel/artisanmarket/internal/storage"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	dbPool *pgxpool.Pool
	redis  *redis.Client
	hub    *realtime.Hub
	echo   *echo.Echo
	worker *services.DeliveryWorker
	done   <-chan struct{}

	// Handlers
	clientOrderHandler  *handlers.ClientOrderHandler
	artisanOrderHandler *handlers.ArtisanOrderHandler
	paymentHandler      *handlers.PaymentHandler
	ratingHandler       *handlers.RatingHandler
	projectHandler      *handlers.ProjectHandler
	notificationHandler *handlers.NotificationHandler
	dashboardHandler    *handlers.DashboardHandler
	wsHandler           *realtime.Handler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: log,
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initCache(ctx)

	if err := app.initDependencies(); err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app.initServer()

	return app, nil
}

// initDatabase выполняет миграции и открывает пул соединений.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		return errors.New("DATABASE_URI is required")
	}

	app.logger.Info("running database migrations")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB, app.logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	app.logger.Info("connected to database")
	return nil
}

// initCache подключает Redis. Без Redis сервис работает, просто без кэша сводок.
func (app *App) initCache(ctx context.Context) {
	if app.cfg.RedisAddress == "" {
		app.logger.Info("rating stats cache disabled: REDIS_ADDRESS is empty")
		return
	}

	client, err := cache.Connect(ctx, app.cfg.RedisAddress, app.cfg.RedisPassword, app.cfg.RedisDB)
	if err != nil {
		app.logger.Warn("redis unavailable, rating stats cache disabled",
			zap.String("address", app.cfg.RedisAddress), zap.Error(err))
		return
	}
	app.redis = client
	app.logger.Info("connected to redis", zap.String("address", app.cfg.RedisAddress))
}

// initDependencies собирает слои storage, services и handlers.
func (app *App) initDependencies() error {
	// Storage layer
	txManager := storage.NewTxManager(app.dbPool)
	userStorage := storage.NewPostgresUserStorage(app.dbPool)
	clientOrderStorage := storage.NewPostgresClientOrderStorage(app.dbPool)
	artisanOrderStorage := storage.NewPostgresArtisanOrderStorage(app.dbPool)
	historyStorage := storage.NewPostgresHistoryStorage(app.dbPool)
	paymentStorage := storage.NewPostgresPaymentStorage(app.dbPool)
	ratingStorage := storage.NewPostgresRatingStorage(app.dbPool)
	notificationStorage := storage.NewPostgresNotificationStorage(app.dbPool)
	projectStorage := storage.NewPostgresProjectStorage(app.dbPool)

	var statsCache services.RatingStatsCache = cache.Noop{}
	if app.redis != nil {
		statsCache = cache.NewRatingStatsCache(app.redis, app.cfg.RatingCacheTTL, app.logger.Named("cache"))
	}

	// Realtime и уведомления
	app.hub = realtime.NewHub(app.logger.Named("realtime"))
	dispatcher := notify.NewDispatcher(notificationStorage, userStorage, app.hub, app.logger.Named("notify"))

	// Service layer
	orderService := services.NewOrderService(txManager, userStorage, clientOrderStorage, artisanOrderStorage,
		historyStorage, paymentStorage, dispatcher, app.logger.Named("orders"))
	paymentService := services.NewPaymentService(txManager, clientOrderStorage, paymentStorage, dispatcher,
		app.logger.Named("payments"))
	ratingService := services.NewRatingService(userStorage, clientOrderStorage, artisanOrderStorage, ratingStorage,
		statsCache, dispatcher, app.logger.Named("ratings"))
	projectService := services.NewProjectService(txManager, userStorage, projectStorage, dispatcher,
		app.logger.Named("projects"))
	dashboardService := services.NewDashboardService(clientOrderStorage, artisanOrderStorage, ratingService)

	// Handler layer
	app.clientOrderHandler = handlers.NewClientOrderHandler(orderService, app.logger)
	app.artisanOrderHandler = handlers.NewArtisanOrderHandler(orderService, app.logger)
	app.paymentHandler = handlers.NewPaymentHandler(paymentService, app.logger)
	app.ratingHandler = handlers.NewRatingHandler(ratingService, app.logger)
	app.projectHandler = handlers.NewProjectHandler(projectService, app.logger)
	app.notificationHandler = handlers.NewNotificationHandler(dispatcher, app.logger)
	app.dashboardHandler = handlers.NewDashboardHandler(dashboardService, app.logger)
	app.wsHandler = realtime.NewHandler(app.hub, app.cfg.JWTSecret)

	// Воркер повторной доставки уведомлений
	app.worker = services.NewDeliveryWorker(dispatcher, app.cfg.DeliveryInterval, app.logger.Named("delivery"))

	return nil
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			app.logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/ws")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	// Публичный websocket, токен проверяется до апгрейда
	e.GET("/ws", app.wsHandler.ServeWS)

	// Защищённые маршруты
	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(app.cfg.JWTSecret))

	clientOrders := api.Group("/client-orders")
	clientOrders.POST("", app.clientOrderHandler.Create)
	clientOrders.GET("", app.clientOrderHandler.List)
	clientOrders.GET("/:id", app.clientOrderHandler.Get)
	clientOrders.PUT("/:id", app.clientOrderHandler.Update)
	clientOrders.DELETE("/:id", app.clientOrderHandler.Delete)
	clientOrders.PATCH("/:id/status", app.clientOrderHandler.ChangeStatus)
	clientOrders.GET("/:id/timeline", app.clientOrderHandler.Timeline)
	clientOrders.GET("/:id/ratings", app.ratingHandler.ClientOrderRatings)
	clientOrders.POST("/:id/payments", app.paymentHandler.Record)
	clientOrders.GET("/:id/payments", app.paymentHandler.List)

	artisanOrders := api.Group("/artisan-orders")
	artisanOrders.POST("", app.artisanOrderHandler.Create)
	artisanOrders.GET("", app.artisanOrderHandler.List)
	artisanOrders.GET("/:id", app.artisanOrderHandler.Get)
	artisanOrders.PUT("/:id", app.artisanOrderHandler.Update)
	artisanOrders.DELETE("/:id", app.artisanOrderHandler.Delete)
	artisanOrders.PATCH("/:id/status", app.artisanOrderHandler.ChangeStatus)
	artisanOrders.GET("/:id/timeline", app.artisanOrderHandler.Timeline)
	artisanOrders.GET("/:id/ratings", app.ratingHandler.ArtisanOrderRatings)

	projects := api.Group("/projects")
	projects.POST("", app.projectHandler.Create)
	projects.GET("", app.projectHandler.List)
	projects.GET("/:id", app.projectHandler.Get)
	projects.PUT("/:id", app.projectHandler.Update)
	projects.DELETE("/:id", app.projectHandler.Delete)

	api.POST("/ratings", app.ratingHandler.Create)
	api.PUT("/ratings/:id", app.ratingHandler.Update)
	api.DELETE("/ratings/:id", app.ratingHandler.Delete)
	api.GET("/users/:id/ratings", app.ratingHandler.ListForUser)
	api.GET("/users/:id/rating-stats", app.ratingHandler.Stats)

	api.GET("/notifications", app.notificationHandler.List)
	api.PATCH("/notifications/read-all", app.notificationHandler.MarkAllRead)
	api.PATCH("/notifications/:id/read", app.notificationHandler.MarkRead)

	api.GET("/dashboard/client", app.dashboardHandler.Client, auth.RequireRole(models.RoleClient))
	api.GET("/dashboard/artisan", app.dashboardHandler.Artisan, auth.RequireRole(models.RoleArtisan))

	admin := api.Group("/admin", auth.RequireRole(models.RoleAdmin))
	admin.POST("/notifications", app.notificationHandler.Publish)
	admin.POST("/users/:id/recompute-rating", app.ratingHandler.RecomputeAverage)

	app.echo = e
}

// StartWorker запускает воркер повторной доставки до отмены ctx.
func (app *App) StartWorker(ctx context.Context) {
	app.done = app.worker.Start(ctx)
}

// Start запускает HTTP-сервер и блокируется до его остановки.
func (app *App) Start() error {
	app.logger.Info("starting server", zap.String("address", app.cfg.RunAddress))
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down server")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	app.hub.Close()

	if app.done != nil {
		select {
		case <-app.done:
		case <-ctx.Done():
			app.logger.Warn("delivery worker did not stop in time")
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if app.dbPool != nil {
		app.dbPool.Close()
	}

	app.logger.Info("server gracefully stopped")
	return nil
}
