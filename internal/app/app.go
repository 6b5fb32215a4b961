// Package app содержит основную структуру приложения и логику инициализации.
// Собирает клиент сервиса поиска номеров, обработчики, middleware и маршруты.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/InQaaaaGit/telefone-relay/internal/buildinfo"
	"github.com/InQaaaaGit/telefone-relay/internal/config"
	"github.com/InQaaaaGit/telefone-relay/internal/handler"
	"github.com/InQaaaaGit/telefone-relay/internal/lookup"
	"github.com/InQaaaaGit/telefone-relay/internal/middleware"
	"github.com/InQaaaaGit/telefone-relay/internal/server"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout  = 10 * time.Second
	idleTimeout  = 120 * time.Second
	writeReserve = 5 * time.Second
)

// App представляет ретранслятор запросов поиска номеров.
// Инкапсулирует конфигурацию, HTTP роутер, логгер и обработчики запросов.
type App struct {
	config  *config.Config   // Конфигурация приложения
	router  *chi.Mux         // HTTP роутер для обработки запросов
	logger  *zap.Logger      // Логгер для записи событий приложения
	handler *handler.Handler // Обработчики HTTP запросов
}

// NewApp создает приложение и регистрирует маршруты.
//
// Параметры:
//   - cfg: конфигурация с адресом сервера и сервиса поиска номеров
//   - logger: логгер приложения
//   - build: информация о сборке, отдается эндпоинтом состояния
func NewApp(cfg *config.Config, logger *zap.Logger, build *buildinfo.Info) *App {
	client := lookup.NewClient(cfg, logger)

	a := &App{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		handler: handler.NewHandler(client, cfg, logger, build),
	}
	a.setupRoutes()

	logger.Info("Relay configured",
		zap.String("downstream", client.BaseURL()),
		zap.Duration("downstream_timeout", cfg.DownstreamTimeout))

	return a
}

// setupRoutes регистрирует middleware и эндпоинты API
func (a *App) setupRoutes() {
	a.router.Use(middleware.WithRequestID)
	a.router.Use(middleware.LoggerMiddleware(a.logger))
	a.router.Use(chimiddleware.Recoverer)
	a.router.Use(middleware.GzipMiddleware)

	a.router.NotFound(a.handler.HandleNotFound)
	a.router.MethodNotAllowed(a.handler.HandleMethodNotAllowed)

	a.router.Get("/", a.handler.HandleStatus)
	a.router.Post("/telefone", a.handler.HandleLookup)
	a.router.Post("/telefone/lote", a.handler.HandleBatchLookup)
}

// Router возвращает HTTP обработчик приложения
func (a *App) Router() http.Handler {
	return a.router
}

// GetServer создает HTTP сервер. WriteTimeout превышает таймаут запроса к сервису
// поиска номеров, чтобы ответ с ошибкой успел дойти до клиента.
func (a *App) GetServer() *http.Server {
	return &http.Server{
		Addr:         a.config.ServerAddress,
		Handler:      a.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: a.config.DownstreamTimeout + writeReserve,
		IdleTimeout:  idleTimeout,
	}
}

// Run запускает сервер и блокируется до отмены ctx или ошибки запуска
func (a *App) Run(ctx context.Context) error {
	return server.NewHTTPServer(a.GetServer(), a.config, a.logger).Run(ctx)
}
