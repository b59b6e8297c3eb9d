package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/internal/log"
	"github.com/emberline/guildhall/internal/seed"
)

func seedCmd(envFile *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load content pages and the site menu from a YAML file",
		Long: `Load content pages and the site menu from a YAML file.

Pages match existing ones by slug and menu items match by label under the
same parent, so running the same file twice changes nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			return runSeed(cmd, *envFile, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Seed file to load")

	return cmd
}

func runSeed(cmd *cobra.Command, envFile, file string) error {
	f, err := seed.LoadFile(file)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	logger := log.Configure(cfg)

	client, err := guildhall.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create guildhall client: %w", err)
	}
	defer func() { _ = client.Close() }()

	ctx := client.SystemContext(context.Background())
	report, err := seed.New(client.Pages, client.Navigation, logger).Apply(ctx, f)
	if err != nil {
		return fmt.Errorf("apply %s: %w", file, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pages: %d created, %d updated\nnav items: %d created, %d updated\n",
		report.PagesCreated, report.PagesUpdated, report.NavCreated, report.NavUpdated)
	return nil
}
