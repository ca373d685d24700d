package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"signal-enginev1/internal/logger"
	"signal-enginev1/internal/sigengine"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger.Init("sigengine", level)

	cfg := sigengine.LoadConfig()
	log.Printf("[sigengine] symbols: %v, window: %d, policy: %s", cfg.Symbols, cfg.WindowSize, cfg.EnsemblePolicy)

	svc, err := sigengine.New(cfg)
	if err != nil {
		log.Fatalf("[sigengine] init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[sigengine] fatal: %v", err)
	}
}
