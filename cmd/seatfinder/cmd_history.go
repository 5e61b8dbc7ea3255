package main

import (
	"fmt"

	"seatfinder/internal/config"
	"seatfinder/internal/report"
	"seatfinder/internal/store"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyUnit  string
)

// historyCmd lists recorded outcomes
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent query outcomes",
	RunE:  showHistory,
}

func showHistory(cmd *cobra.Command, args []string) error {
	// History does not need valid queries, so skip full validation.
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.HistoryPath(configDir())
	if path == "" {
		return fmt.Errorf("history path is not configured")
	}

	s, err := store.NewHistoryStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.Recent(cmd.Context(), historyUnit, historyLimit)
	if err != nil {
		return err
	}
	p := report.NewPrinter(cmd.OutOrStdout())
	p.History(entries)
	if len(entries) == 0 {
		return nil
	}

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		return err
	}
	p.Totals(stats)
	return nil
}
