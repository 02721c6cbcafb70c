// Package batch runs the parse phase over a list of PDFs and manages the
// operator-editable plan that feeds the rename phase.
package batch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/naming"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a non-positive worker count is configured.
const DefaultWorkers = 4

// ProgressCallback is called after each file's parse phase completes.
// Calls are serialized.
type ProgressCallback func(parsed, total int)

// Processor extracts, parses and names a list of files.
type Processor struct {
	store     storage.Store
	extractor extract.Extractor
	strategy  parser.Strategy
	workers   int
	logger    *zap.Logger
}

// NewProcessor creates a processor. workers bounds parallel parsing.
func NewProcessor(store storage.Store, extractor extract.Extractor, strategy parser.Strategy, workers int, logger *zap.Logger) *Processor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:     store,
		extractor: extractor,
		strategy:  strategy,
		workers:   workers,
		logger:    logger,
	}
}

// Strategy returns the name of the strategy in use.
func (p *Processor) Strategy() string {
	return p.strategy.Name()
}

// Process builds one RenameDecision per path, in input order. Files are parsed in
// parallel; a failure on one file never affects the others. The only error
// returned is context cancellation.
func (p *Processor) Process(ctx context.Context, paths []string, onProgress ProgressCallback) ([]*models.RenameDecision, error) {
	decisions := make([]*models.RenameDecision, len(paths))
	for i, path := range paths {
		decisions[i] = models.NewRenameDecision(models.SourceDocument{
			Path:     path,
			Filename: filepath.Base(path),
		})
	}

	var (
		mu     sync.Mutex
		parsed int
	)
	total := len(paths)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, d := range decisions {
		d := d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.processOne(gctx, d)

			mu.Lock()
			parsed++
			if onProgress != nil {
				onProgress(parsed, total)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("parse phase finished",
		zap.String("strategy", p.strategy.Name()),
		zap.Int("files", total),
		zap.Int("failed", countFailed(decisions)))
	return decisions, nil
}

func (p *Processor) processOne(ctx context.Context, d *models.RenameDecision) {
	log := p.logger.With(zap.String("file", d.Source.Path))

	content, err := p.store.ReadFile(d.Source.Path)
	if err != nil {
		log.Warn("read failed", zap.Error(err))
		d.MarkFailed(models.ReasonExtractionFailed)
		return
	}

	text, err := p.extractor.Extract(ctx, content, p.strategy.Scope())
	if err != nil {
		log.Warn("text extraction failed", zap.Error(err))
		d.MarkFailed(models.ReasonExtractionFailed)
		return
	}

	fields, err := p.strategy.Parse(text)
	d.Fields = fields
	if err != nil && !errors.Is(err, parser.ErrIncomplete) {
		log.Warn("parse failed", zap.Error(err))
		d.MarkFailed(models.ReasonParseIncomplete)
		return
	}
	if err != nil {
		log.Info("fields incomplete", zap.Error(err))
	}

	naming.Apply(p.strategy.Name(), d)
}

func countFailed(decisions []*models.RenameDecision) int {
	n := 0
	for _, d := range decisions {
		if d.Status == models.RenameStatusFailure {
			n++
		}
	}
	return n
}
