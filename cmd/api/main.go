package main

import (
	"context"
	"flag"
	"fmt"
	"listKeeper/internal/app"
	"listKeeper/internal/config"
	"listKeeper/internal/logger"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "путь к конфигу (.yml или .toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка загрузки конфига:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка инициализации:", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("Сервер завершился с ошибкой", err)
		logger.Sync()
		os.Exit(1)
	}
}
