/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the tutorboard project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"os"

	"tutorboard/internal/config"
	"tutorboard/internal/logging"
	"tutorboard/pkg/format"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const app_name = "tutorboard"

var (
	cfgPath  string
	logLevel string
)

func main() {
	root := &cobra.Command{
		Use:           app_name,
		Short:         "Step-by-step tutoring board with narrated playback",
		Version:       format.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.tutorboard/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newTUICommand(),
		newAskCommand(),
		newPlayCommand(),
		newForgeCommand(),
		newMetaCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger for a subcommand. logFile
// overrides log.file when set.
func setup(logFile string) (*config.Config, zerolog.Logger, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), func() {}, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	lc := logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}
	if logFile != "" {
		lc.File = logFile
	}
	log, closer, err := logging.Setup(lc, app_name)
	if err != nil {
		return nil, zerolog.Nop(), func() {}, err
	}
	return cfg, log, func() { closer.Close() }, nil
}
