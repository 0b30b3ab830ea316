package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chessplatform/config"
	"chessplatform/puzzles"
	"chessplatform/server"
	"chessplatform/session"
	"chessplatform/storage"
)

func main() {
	var flags config.Flags
	flags.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	store, err := storage.Open(storage.Options{Dir: cfg.DataDir, Rules: cfg.Rating})
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := puzzles.DefaultCatalog()
	if err != nil {
		return err
	}

	mgr := session.NewManager(store, catalog, logger, session.Options{Seed: cfg.Seed})
	mux := http.NewServeMux()
	server.New(mgr, logger, cfg.Live.DefaultDifficulty).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.RequestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("data_dir", cfg.DataDir),
			zap.Int("puzzles", catalog.Len()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
