package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberline/guildhall"
	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/internal/log"
)

func importCmd(envFile *string) *cobra.Command {
	var (
		profileID string
		file      string
	)

	cmd := &cobra.Command{
		Use:       "import mission|character",
		Short:     "Import mission notes or a character sheet as a member",
		Long:      `Run the import pipeline outside HTTP. Text is read from --file, or stdin when --file is "-" or unset.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"mission", "character"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if profileID == "" {
				return errors.New("--as is required")
			}
			text, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return runImport(cmd, *envFile, args[0], profileID, text)
		},
	}
	cmd.Flags().StringVar(&profileID, "as", "", "Profile id to import as")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File to read (default: stdin)")

	return cmd
}

func readInput(stdin io.Reader, file string) (string, error) {
	if file == "" || file == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(b), nil
}

func runImport(cmd *cobra.Command, envFile, kind, profileID, text string) error {
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

	if !client.ImportEnabled() {
		return guildhall.ErrExtractionDisabled
	}

	ctx, err := client.SessionFor(context.Background(), profileID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch kind {
	case "character":
		res, err := client.Import.ImportCharacter(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "character %s (%s)\n", res.Character.Name(), res.Character.ID())
		if res.ClassName != "" {
			fmt.Fprintf(out, "  class: %s\n", res.ClassName)
		}
		printUnresolved(out, res.Unresolved)
	default:
		res, err := client.Import.ImportMission(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "mission %s (%s)\n", res.Mission.Title(), res.Mission.ID())
		for _, r := range res.Linked {
			fmt.Fprintf(out, "  linked %s -> %s (%s, %.2f)\n", r.Name, r.CharacterID, r.Source, r.Score)
		}
		for _, r := range res.AlreadyLinked {
			fmt.Fprintf(out, "  duplicate %s -> %s\n", r.Name, r.CharacterID)
		}
		printUnresolved(out, res.Unresolved)
	}
	return nil
}

func printUnresolved(out io.Writer, unresolved []service.Resolution) {
	for _, r := range unresolved {
		fmt.Fprintf(out, "  unresolved %s (%s)\n", r.Name, r.Reason)
	}
}
