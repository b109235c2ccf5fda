package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskBoard/internal/auth"
	"taskBoard/internal/config"
	"taskBoard/internal/handlers"
	"taskBoard/internal/logger"
	"taskBoard/internal/repository/inmemory"
	"taskBoard/internal/repository/postgres"
	"taskBoard/internal/service"
	"taskBoard/internal/worker"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	handler   http.Handler
	store     service.Store
	worker    *worker.OverdueWorker
	shutdowns []func(context.Context) error
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context) error, 0),
	}
}

// Init собирает зависимости: хранилище, сервисы, роутер и воркер
func (a *App) Init(ctx context.Context) error {
	store, err := a.initStore(ctx)
	if err != nil {
		return err
	}
	a.store = store

	hasher := auth.NewBcryptHasher(a.config.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(a.config.Auth.Secret, a.config.Auth.TokenTTL)

	taskService := service.NewTaskService(store)
	boardService := service.NewBoardService(store)
	userService := service.NewUserService(store, hasher)
	adminService := service.NewAdminService(store, hasher)

	a.handler = handlers.NewRouter(handlers.Handlers{
		Auth:   handlers.NewAuthHandler(userService, tokens),
		Boards: handlers.NewBoardHandler(boardService),
		Tasks:  handlers.NewTaskHandler(taskService),
		Admin:  handlers.NewAdminHandler(adminService),
	}, handlers.RouterConfig{
		Tokens:         tokens,
		Users:          store,
		CORSOrigins:    a.config.CORS.Origins,
		RequestTimeout: a.config.Server.RequestTimeout,
		RateLimit:      a.config.Server.RateLimit,
	})

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.handler,
		ReadHeaderTimeout: a.config.Server.RequestTimeout,
	}
	a.shutdowns = append(a.shutdowns, a.server.Shutdown)

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(store,
			worker.WithInterval(a.config.Worker.Interval),
			worker.WithBatchSize(a.config.Worker.BatchSize))
	}

	logger.Info("App: Зависимости собраны",
		zap.String("repository", a.config.Repository.Type),
		zap.Bool("worker", a.worker != nil))
	return nil
}

func (a *App) initStore(ctx context.Context) (service.Store, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if a.config.Database.AutoMigrate {
			if err := postgres.Migrate(a.config.Database.URL); err != nil {
				return nil, fmt.Errorf("миграции: %w", err)
			}
		}
		storage, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func(context.Context) error {
			storage.Close()
			return nil
		})
		return storage, nil
	case config.RepositoryInMemory:
		logger.Warn("App: Данные хранятся в памяти и пропадут после перезапуска")
		return inmemory.NewStorage(), nil
	}
	return nil, fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
}

// Handler - собранный HTTP-обработчик, доступен после Init
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run обслуживает запросы и запускает воркер до отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown останавливает компоненты в обратном порядке и собирает все ошибки
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("App: Завершение работы...")
	var err error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.shutdowns[i](ctx))
	}
	a.shutdowns = nil
	return err
}
