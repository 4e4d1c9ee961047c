package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harpa/backend/config"
	"github.com/harpa/backend/internal/bootstrap"
	"github.com/harpa/backend/internal/infrastructure/cache"
	"github.com/harpa/backend/internal/infrastructure/csvsource"
	"github.com/harpa/backend/internal/infrastructure/kvstore"
	"github.com/harpa/backend/internal/usecase"
)

// app carries what PersistentPreRunE loads for the subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	format string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pogctl",
		Short:         "Inspect planogram data from the command line",
		Long:          "Looks up barcodes, lists bays and lays out placements using the same data and matching rules as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.format {
			case formatText, formatJSON, formatYAML:
			default:
				return eris.Errorf("unknown format %q (want text, json or yaml)", a.format)
			}

			c, err := config.Load()
			if err != nil {
				return eris.Wrap(err, "load config")
			}
			a.cfg = c

			// Keep stdout for command output.
			logCfg := c.Log
			if logCfg.Level == "info" {
				logCfg.Level = "warn"
			}
			logger, err := config.InitLogger(logCfg)
			if err != nil {
				return eris.Wrap(err, "init logger")
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.format, "format", formatText, "output format: text, json or yaml")

	root.AddCommand(
		newLookupCmd(a),
		newBaysCmd(a),
		newLayoutCmd(a),
		newValidateCmd(a),
	)
	return root
}

// openSession loads the data and selects storeID in a throwaway session, so
// the CLI never touches the server's saved progress.
func (a *app) openSession(ctx context.Context, storeID string) (*usecase.SessionService, func(), error) {
	ds, _, err := bootstrap.Loader(a.cfg.Data, a.logger).Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	scanCache := cache.NewMemoryCache(time.Minute)
	svc := usecase.NewSessionService(ds, kvstore.NewMemory(), scanCache, bootstrap.SessionConfig(a.cfg), a.logger)
	if _, err := svc.SelectStore(ctx, storeID); err != nil {
		scanCache.Close()
		return nil, nil, err
	}
	return svc, func() { scanCache.Close() }, nil
}

func (a *app) loader() *csvsource.Loader {
	return bootstrap.Loader(a.cfg.Data, a.logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pogctl: %v\n", err)
		os.Exit(1)
	}
}
