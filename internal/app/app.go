package app

import (
	"context"
	"errors"
	"fmt"
	"listKeeper/internal/config"
	"listKeeper/internal/handlers"
	"listKeeper/internal/logger"
	"listKeeper/internal/middleware"
	"listKeeper/internal/repository/kv/inmemory"
	"listKeeper/internal/repository/kv/postgres"
	"listKeeper/internal/repository/kv/sqlkv"
	"listKeeper/internal/service"
	"listKeeper/internal/worker"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Storage - хранилище вместе с проверкой доступности
type Storage interface {
	service.Storage
	handlers.HealthChecker
}

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	storage   Storage
	store     *service.ListStore
	feed      *service.Feed
	worker    *worker.RecurringWorker
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	storage, err := a.initStorage(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.storage = storage

	a.feed = service.NewFeed(0)
	a.store = service.NewListStore(ctx, a.storage,
		service.WithNotifier(service.MultiNotifier(service.LogNotifier{}, a.feed)))

	if a.config.Scheduler.Enabled {
		interval := a.config.Scheduler.Interval
		a.worker = worker.NewRecurringWorker(a.store, &interval, nil)
	}

	a.router = a.initRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

func (a *App) initStorage(ctx context.Context) (Storage, error) {
	repoCfg := a.config.Repository
	logger.Info("App: Подключение хранилища", zap.String("type", repoCfg.Type))

	switch repoCfg.Type {
	case config.RepositoryInMemory:
		logger.Warn("App: Данные хранятся только в памяти и пропадут при перезапуске")
		return inmemory.NewKVStorage(), nil

	case config.RepositorySQLite, config.RepositoryMySQL:
		dialect, err := sqlkv.DialectByName(repoCfg.Type)
		if err != nil {
			return nil, err
		}
		dsn := repoCfg.DSN
		if repoCfg.Type == config.RepositorySQLite {
			dsn = repoCfg.Path
		}
		storage, err := sqlkv.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, err
		}
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("App: Ошибка закрытия хранилища", err)
			}
		})
		return storage, nil

	case config.RepositoryPostgres:
		dbCfg := a.config.Database
		storage, err := postgres.New(ctx, dbCfg.URL, postgres.PoolConfig{
			MaxConns:        int32(dbCfg.MaxConnections),
			MinConns:        int32(dbCfg.MinConnections),
			MaxConnIdleTime: dbCfg.IdleTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		if err := storage.Migrate(ctx); err != nil {
			return nil, err
		}
		return storage, nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", repoCfg.Type)
	}
}

func (a *App) initRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	handlers.NewListHandler(a.store, a.feed, a.storage).Register(r)
	return r
}

// Run блокируется до отмены ctx или падения одного из компонентов.
// На выходе дописывает несохранённые изменения.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.store.Run(gctx)
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Остановка сервера")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if flushErr := a.store.Flush(flushCtx); flushErr != nil {
		logger.Error("App: Не удалось сохранить изменения при остановке", flushErr)
		err = multierr.Append(err, flushErr)
	}
	return err
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

// Handler отдаёт роутер для тестов
func (a *App) Handler() http.Handler {
	return a.router
}
