// Package bootstrap turns configuration into the collaborators shared by the
// server and the CLI.
package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/harpa/backend/config"
	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/infrastructure/cache"
	"github.com/harpa/backend/internal/infrastructure/csvsource"
	"github.com/harpa/backend/internal/infrastructure/kvstore"
	"github.com/harpa/backend/internal/layout"
	"github.com/harpa/backend/internal/usecase"
)

// Files maps the configured file names onto the loader's.
func Files(cfg config.FilesConfig) csvsource.Files {
	return csvsource.Files{
		Planogram:    cfg.Planogram,
		StoreMapping: cfg.StoreMapping,
		FileIndex:    cfg.FileIndex,
		DeleteList:   cfg.DeleteList,
	}
}

// Fetcher returns the data source named by cfg.Source.
func Fetcher(cfg config.DataConfig, logger *zap.Logger) domain.Fetcher {
	if cfg.Source == "http" {
		return csvsource.NewHTTPFetcher(cfg.BaseURL, csvsource.HTTPConfig{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}, logger)
	}
	return csvsource.NewDirFetcher(cfg.Dir)
}

// Loader builds the CSV loader for cfg.
func Loader(cfg config.DataConfig, logger *zap.Logger) *csvsource.Loader {
	return csvsource.NewLoader(Fetcher(cfg, logger), Files(cfg.Files), logger)
}

// SessionConfig maps configuration onto the session's settings.
func SessionConfig(cfg *config.Config) usecase.SessionConfig {
	return usecase.SessionConfig{
		Board: layout.Board{
			WidthInches:  cfg.Board.WidthInches,
			HeightInches: cfg.Board.HeightInches,
		},
		PaddingPx:          cfg.Board.PaddingPx,
		FuzzyMaxDigits:     cfg.Matching.FuzzyMaxDigits,
		AutoCompleteOnScan: cfg.Matching.AutoCompleteOnScan,
		ScanDebounce:       cfg.Scan.Debounce,
	}
}

// Session is a loaded session and the resources behind it.
type Session struct {
	Service *usecase.SessionService
	Report  *csvsource.LoadReport
	Loader  *csvsource.Loader

	store kvstore.Store
	cache *cache.MemoryCache
}

// Close releases the persistence store and the scan cache.
func (s *Session) Close() error {
	s.cache.Close()
	return s.store.Close()
}

// OpenSession loads the data set, opens persistence and restores the last
// session. The caller must Close the result.
func OpenSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	loader := Loader(cfg.Data, logger)
	ds, report, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	store, err := kvstore.Open(ctx, cfg.Persistence.Driver, cfg.Persistence.Path)
	if err != nil {
		return nil, err
	}

	scanCache := cache.NewMemoryCache(cache.DefaultSweepInterval)
	svc := usecase.NewSessionService(ds, store, scanCache, SessionConfig(cfg), logger)
	if _, err := svc.Restore(ctx); err != nil {
		scanCache.Close()
		store.Close()
		return nil, err
	}

	return &Session{
		Service: svc,
		Report:  report,
		Loader:  loader,
		store:   store,
		cache:   scanCache,
	}, nil
}
