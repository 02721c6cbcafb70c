package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/storage"
	"github.com/statement-renamer/backend/internal/upload"
)

func newDateCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "date FILE.pdf",
		Short: "Compute the membership statement name from the statement period end date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !storage.IsPDFName(path) {
				return errors.New(upload.MsgNotPDF)
			}
			content, err := a.store.ReadFile(path)
			if err != nil {
				return err
			}
			strategy, err := a.strategy(parser.EndDateStrategyName)
			if err != nil {
				return err
			}

			result, err := upload.NewProcessor(a.extractor, strategy, a.logger).
				Process(cmd.Context(), filepath.Base(path), "application/pdf", content)
			if err != nil {
				return errors.New(result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Filename)

			if out == "" {
				return nil
			}
			return writeCopy(filepath.Join(out, result.Filename), content)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "also write a copy under the computed name into this directory")
	return cmd
}

// writeCopy creates dst exclusively so an existing file is never replaced.
func writeCopy(dst string, content []byte) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", storage.ErrDestinationExists, dst)
		}
		return fmt.Errorf("failed to create copy: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write copy: %w", err)
	}
	return f.Close()
}
