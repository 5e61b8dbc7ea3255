package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd validates the config without starting Chrome
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config and list the parsed queries",
	RunE:  checkConfig,
}

func checkConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	queries, err := cfg.BuildQueries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Timetable: %s\n", cfg.TimetableURL(time.Now()))
	mode := "sequential"
	if cfg.Parallel {
		mode = "parallel"
	}
	fmt.Fprintf(out, "Mode: %s\n", mode)
	for i, q := range queries {
		fmt.Fprintf(out, "%d. %s\n", i+1, q)
	}
	return nil
}
