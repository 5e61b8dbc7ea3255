package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seatfinder/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDebounce time.Duration

// watchCmd re-runs the queries whenever the config changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resolve every query, then again whenever the config file changes",
	RunE:  watchConfig,
}

func watchConfig(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func(ctx context.Context) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			// Keep watching; the next save may fix it
			getLogger().Error("Config rejected", zap.Error(err))
			return
		}
		if _, err := runBatch(ctx, cmd, cfg); err != nil {
			getLogger().Error("Run failed", zap.Error(err))
		}
	}

	cw, err := watch.NewConfigWatcher(configPath, watchDebounce, rerun)
	if err != nil {
		return err
	}

	// The first run finishes before watching starts, so runs never overlap.
	rerun(ctx)
	if err := cw.Start(ctx); err != nil {
		return err
	}
	getLogger().Info("Watching config", zap.String("path", configPath))

	<-ctx.Done()
	cw.Stop()
	st := cw.Stats()
	getLogger().Info("Stopped watching",
		zap.Int("changes", st.Events),
		zap.Int("reruns", st.Triggers),
		zap.Int("errors", st.Errors))
	return nil
}
