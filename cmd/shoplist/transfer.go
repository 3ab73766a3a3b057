package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shoplist/internal/transfer"
)

func newExportCmd(a *app) *cobra.Command {
	var format, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the list to a JSON or CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := transfer.ParseFormat(format)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = "."
				if a.cfg != nil && a.cfg.ExportDir != "" {
					dir = a.cfg.ExportDir
				}
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}

			payload := a.store.ExportData()
			path := filepath.Join(dir, transfer.Filename(f, payload.ExportDate))
			out, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := transfer.Write(out, f, payload); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			a.render().OK(fmt.Sprintf("Exported %d item(s) to %s", len(payload.Items), path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or csv")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default EXPORT_DIR)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the list with a JSON export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer in.Close()

			payload, err := transfer.DecodeImport(in)
			if err != nil {
				if errors.Is(err, transfer.ErrInvalidImport) {
					return errors.New("invalid file format")
				}
				return err
			}
			if !a.store.ImportData(payload) {
				return errors.New("invalid file format")
			}
			a.render().OK(fmt.Sprintf("Imported %d item(s)", len(payload.Items)))
			return nil
		},
	}
}
