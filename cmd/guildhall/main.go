// Package main is the entry point for the guildhall CLI.
//
//	@title			Guildhall API
//	@version		1.0
//	@description	Campaign manager for a tabletop game community
//	@host			localhost:8080
//	@BasePath		/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in				header
//	@name			Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberline/guildhall/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "guildhall",
		Short:         "Guildhall campaign manager",
		Long:          `Guildhall keeps characters, classes, the mission log, LFG posts, pages and rulebooks for a tabletop game community.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(serveCmd(&envFile))
	cmd.AddCommand(seedCmd(&envFile))
	cmd.AddCommand(importCmd(&envFile))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	if envFile != "" {
		if err := config.MustLoadDotEnv(envFile); err != nil {
			return config.AppConfig{}, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
