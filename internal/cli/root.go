// Package cli implements the renamer command line tool.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/logging"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/storage"
	"go.uber.org/zap"
)

// Version is printed by --version.
var Version = "dev"

type globalFlags struct {
	logLevel      string
	docTypesFile  string
	includeHidden bool
}

// app carries what every subcommand needs; tests swap the store and extractor.
type app struct {
	flags     globalFlags
	store     storage.Store
	extractor extract.Extractor
	logger    *zap.Logger
}

// NewRootCommand builds the command tree backed by the local filesystem.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "renamer",
		Short:         "Rename statement PDFs from the fields printed on them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.docTypesFile, "doc-types", os.Getenv("DOC_TYPES_FILE"), "YAML file replacing the built-in document type mapping")
	pf.BoolVar(&a.flags.includeHidden, "include-hidden", false, "also scan hidden files and directories")

	root.AddCommand(
		newScanCommand(a),
		newApplyCommand(a),
		newRunCommand(a),
		newDateCommand(a),
	)
	return root
}

func (a *app) init() error {
	if a.logger == nil {
		logger, err := logging.NewConsole(a.flags.logLevel)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	if a.store == nil {
		a.store = storage.NewLocalStore(!a.flags.includeHidden)
	}
	if a.extractor == nil {
		a.extractor = extract.NewPDFExtractor(a.logger)
	}
	return nil
}

func (a *app) registry() (*parser.Registry, error) {
	if a.flags.docTypesFile == "" {
		return parser.NewRegistry(nil), nil
	}
	mapping, err := parser.LoadDocTypeMapping(a.flags.docTypesFile)
	if err != nil {
		return nil, err
	}
	return parser.NewRegistry(mapping), nil
}

func (a *app) strategy(name string) (parser.Strategy, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	return reg.Get(name)
}

func printDecisions(w io.Writer, decisions []*models.RenameDecision) {
	for _, d := range decisions {
		mark := " "
		if d.Selected {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %-8s %s -> %s", mark, d.Status, d.Source.Path, d.TargetFilename)
		if d.Reason != "" {
			line += fmt.Sprintf(" (%s)", d.Reason)
		}
		fmt.Fprintln(w, line)
	}
}

func printSummary(w io.Writer, s models.RenameSummary) {
	fmt.Fprintf(w, "renamed: %d, skipped: %d, failed: %d\n", s.Renamed, s.Skipped, s.Failed)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
