package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/InQaaaaGit/telefone-relay/internal/app"
	"github.com/InQaaaaGit/telefone-relay/internal/buildinfo"
	"github.com/InQaaaaGit/telefone-relay/internal/server"
	"go.uber.org/zap"
)

// Информация о сборке, задается через -ldflags "-X main.buildVersion=v1.0.0 ..."
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	// Инициализация логгера
	logger, cleanup := server.InitLogger()
	defer cleanup()

	build := buildinfo.NewInfo(buildVersion, buildDate, buildCommit)
	logger.Info("Telefone relay", build.Fields()...)

	// Инициализация конфигурации
	cfg := server.InitConfig(logger)

	// Остановка по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewApp(cfg, logger, build).Run(ctx); err != nil {
		stop()
		cleanup()
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
