package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/statsbasket/internal/domain"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import the full data set as JSON",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every player, game and event as one JSON document",
	Example: `  statsctl backup export -o season.json
  statsctl backup export > season.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data in the store with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportOutput string

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(exportCmd)
	backupCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	backup, err := svc.Export(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}
	if err := encodeBackup(out, backup); err != nil {
		return err
	}

	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %d players, %d games, %d events to %s\n",
			len(backup.Players), len(backup.Games), len(backup.Events), exportOutput)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if backupPath != "" {
		return fmt.Errorf("import writes to the configured store and cannot be combined with --backup")
	}

	backup, err := readBackup(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.Import(ctx, backup); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d players, %d games, %d events\n",
		len(backup.Players), len(backup.Games), len(backup.Events))
	return nil
}

func encodeBackup(w io.Writer, backup *domain.Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

func decodeBackup(r io.Reader) (*domain.Backup, error) {
	var backup domain.Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
	}
	return &backup, nil
}
