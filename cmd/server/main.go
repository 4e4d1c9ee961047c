package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/harpa/backend/config"
	"github.com/harpa/backend/internal/bootstrap"
	httpDelivery "github.com/harpa/backend/internal/delivery/http"
	"github.com/harpa/backend/internal/infrastructure/csvsource"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harpa: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := config.InitLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting harpa backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("data_source", cfg.Data.Source),
		zap.String("persistence", cfg.Persistence.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := bootstrap.OpenSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	report := session.Report
	logger.Info("data loaded",
		zap.Int("placements", report.Placements),
		zap.Int("stores", report.Stores),
		zap.Int("delete_entries", report.DeleteEntries),
		zap.Int("files", report.Files),
		zap.Int("rejected", len(report.Rejected)),
		zap.Strings("missing", report.Missing),
	)

	handler := httpDelivery.NewHandler(session.Service, logger)

	if cfg.Data.Watch {
		if err := startWatcher(ctx, cfg, session.Loader, handler, logger); err != nil {
			return err
		}
	}

	router := httpDelivery.SetupRouter(cfg, handler, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startWatcher reloads the data set whenever the local CSVs change. A failed
// reload keeps the previous data.
func startWatcher(ctx context.Context, cfg *config.Config, loader *csvsource.Loader, handler *httpDelivery.Handler, logger *zap.Logger) error {
	files := loader.Files()
	names := []string{files.Planogram, files.StoreMapping, files.FileIndex, files.DeleteList}

	reload := func(ctx context.Context) {
		ds, report, err := loader.Load(ctx)
		if err != nil {
			logger.Error("reload failed, keeping previous data", zap.Error(err))
			return
		}
		handler.ReplaceDataset(ds)
		logger.Info("data reloaded",
			zap.Int("placements", report.Placements),
			zap.Int("rejected", len(report.Rejected)))
	}

	w, err := csvsource.NewWatcher(cfg.Data.Dir, names, csvsource.DefaultSettleDelay, reload, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("watcher stopped", zap.Error(err))
		}
	}()
	return nil
}
