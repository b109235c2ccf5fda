package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskBoard/internal/app"
	"taskBoard/internal/config"
	"taskBoard/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	path, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		logger.Error("App: Ошибка инициализации", err)
		_ = a.Shutdown()
		return err
	}
	if err := a.Run(ctx); err != nil {
		logger.Error("App: Аварийное завершение", err)
		return err
	}
	logger.Info("App: Работа завершена")
	return nil
}
