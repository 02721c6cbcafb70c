// Package rename applies batch rename decisions to the filesystem.
package rename

import (
	"errors"
	"path/filepath"

	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/storage"
	"go.uber.org/zap"
)

// Executor moves selected files to their target names, one at a time, in list order.
type Executor struct {
	store  storage.Store
	logger *zap.Logger
}

// NewExecutor creates an executor over store.
func NewExecutor(store storage.Store, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{store: store, logger: logger}
}

// Execute applies decisions and returns the aggregated counters.
//
//   - unselected decisions are left untouched and not counted
//   - decisions already failed at parse time count as failed, no filesystem action
//   - an occupied destination is skipped, never overwritten
//   - any move error fails that decision only
func (e *Executor) Execute(decisions []*models.RenameDecision) models.RenameSummary {
	var summary models.RenameSummary

	for _, d := range decisions {
		if !d.Selected {
			continue
		}
		if d.Status == models.RenameStatusFailure {
			summary.Failed++
			continue
		}
		if d.Status != models.RenameStatusPending {
			// already resolved by an earlier pass
			e.logger.Warn("decision already resolved, not renaming again",
				zap.String("id", d.ID), zap.String("status", string(d.Status)))
			continue
		}

		src := d.Source.Path
		dst := filepath.Join(filepath.Dir(src), d.TargetFilename)
		log := e.logger.With(zap.String("source", src), zap.String("destination", dst))

		exists, err := e.store.Exists(dst)
		if err != nil {
			d.Status = models.RenameStatusFailure
			summary.Failed++
			log.Warn("checking destination failed", zap.Error(err))
			continue
		}
		if exists {
			d.Status = models.RenameStatusSkipped
			summary.Skipped++
			log.Info("destination exists, skipped")
			continue
		}

		if err := e.store.Move(src, dst); err != nil {
			if errors.Is(err, storage.ErrDestinationExists) {
				// lost a race with another writer between Exists and Move
				d.Status = models.RenameStatusSkipped
				summary.Skipped++
				log.Info("destination appeared before move, skipped")
				continue
			}
			d.Status = models.RenameStatusFailure
			summary.Failed++
			log.Warn("rename failed", zap.Error(err))
			continue
		}

		d.Status = models.RenameStatusSuccess
		summary.Renamed++
		log.Debug("renamed")
	}

	e.logger.Info("rename pass finished",
		zap.Int("renamed", summary.Renamed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary
}
