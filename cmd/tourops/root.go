package main

import (
	"os"

	"github.com/spf13/cobra"

	"tour-ops-backend/config"
	"tour-ops-backend/internal/logger"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tourops",
		Short:         "Live day timeline and hour load for tour departures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML configuration")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(cfg.Log.Level, cfg.Log.Pretty)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newTimelineCmd(load))
	root.AddCommand(newVersionCmd())
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config/config.yaml"
}

type configLoader func() (*config.Config, error)
