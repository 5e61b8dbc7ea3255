package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seatfinder/internal/browser"
	"seatfinder/internal/config"
	"seatfinder/internal/finder"
	"seatfinder/internal/report"
	"seatfinder/internal/runner"
	"seatfinder/internal/search"
	"seatfinder/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd resolves every query once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve every query of the config once",
	RunE:  runQueries,
}

func runQueries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runBatch(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d queries failed", summary.Failed, summary.Found+summary.Absent+summary.Failed)
	}
	return nil
}

// runBatch wires the pipeline from cfg, resolves every query and reports
// each outcome as it arrives.
func runBatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (runner.Summary, error) {
	queries, err := cfg.BuildQueries()
	if err != nil {
		return runner.Summary{}, err
	}

	mgr := browser.NewSessionManager(cfg.BrowserOptions(), browser.NewPortRegistry(browser.DefaultPort, browser.MaxPort))
	defer func() {
		if err := mgr.Shutdown(context.WithoutCancel(ctx)); err != nil {
			getLogger().Warn("Browser shutdown failed", zap.Error(err))
		}
	}()

	f := finder.New(
		cfg.TimetableURL(time.Now()),
		cfg.Locators.Finder(),
		search.NewController(search.NewExtractor(cfg.RetryPolicy())),
	)

	history := openHistory(cfg)
	if history != nil {
		defer history.Close()
	}

	printer := report.NewPrinter(cmd.OutOrStdout())
	runID := store.NewRunID()
	getLogger().Info("Resolving queries",
		zap.String("run", runID),
		zap.Int("queries", len(queries)),
		zap.String("url", f.URL()),
		zap.Bool("parallel", cfg.Parallel))

	r := runner.New(f, sessionFactory(mgr), runner.Options{
		Parallel:     cfg.Parallel,
		MaxParallel:  cfg.MaxParallel,
		QueryTimeout: cfg.GetQueryTimeout(),
		OnOutcome: func(o runner.Outcome) {
			printer.Outcome(o)
			if history == nil {
				return
			}
			if err := history.Record(context.WithoutCancel(ctx), runID, o); err != nil {
				getLogger().Warn("History not recorded", zap.Error(err))
			}
		},
	})

	summary := runner.Summarize(r.Run(ctx, queries))
	printer.Summary(summary)
	return summary, nil
}

// sessionFactory adapts the rod session manager to the runner.
func sessionFactory(mgr *browser.SessionManager) runner.SessionFactory {
	return func(ctx context.Context) (runner.Session, error) {
		s, err := mgr.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		info := s.Info()
		getLogger().Debug("Session opened",
			zap.String("id", info.ID),
			zap.Int("port", info.Port),
			zap.String("target", info.TargetID))
		return s, nil
	}
}

// openHistory opens the history store, or returns nil when history is
// disabled or unavailable.
func openHistory(cfg *config.Config) *store.HistoryStore {
	if !cfg.History.Enabled {
		return nil
	}
	path := cfg.HistoryPath(configDir())
	if path == "" {
		return nil
	}
	s, err := store.NewHistoryStore(path)
	if err != nil {
		getLogger().Warn("History disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return s
}
