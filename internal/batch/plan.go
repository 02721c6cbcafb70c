package batch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/naming"
	"gopkg.in/yaml.v3"
)

// ErrPlanApplied is returned when a plan that was already executed is loaded for execution.
var ErrPlanApplied = errors.New("plan has already been applied")

// Plan is the operator-editable review file written by "scan" and read by "apply".
// Operators may flip selected and edit targetFilename; everything else is informational.
type Plan struct {
	Strategy  string                   `yaml:"strategy"`
	Root      string                   `yaml:"root,omitempty"`
	CreatedAt time.Time                `yaml:"createdAt"`
	AppliedAt *time.Time               `yaml:"appliedAt,omitempty"`
	Summary   *models.RenameSummary    `yaml:"summary,omitempty"`
	Files     []*models.RenameDecision `yaml:"files"`
}

// NewPlan wraps freshly parsed decisions.
func NewPlan(strategy, root string, decisions []*models.RenameDecision) *Plan {
	return &Plan{
		Strategy:  strategy,
		Root:      root,
		CreatedAt: time.Now().UTC(),
		Files:     decisions,
	}
}

// Applied reports whether the plan has been executed.
func (p *Plan) Applied() bool {
	return p.AppliedAt != nil
}

// MarkApplied records the outcome of executing the plan.
func (p *Plan) MarkApplied(summary models.RenameSummary) {
	now := time.Now().UTC()
	p.AppliedAt = &now
	p.Summary = &summary
}

// Validate checks operator edits before execution.
func (p *Plan) Validate() error {
	if p.Applied() {
		return ErrPlanApplied
	}
	seen := make(map[string]bool, len(p.Files))
	for i, d := range p.Files {
		if d == nil {
			return fmt.Errorf("file %d: empty entry", i)
		}
		if d.Source.Path == "" {
			return fmt.Errorf("file %d: missing source path", i)
		}
		if seen[d.Source.Path] {
			return fmt.Errorf("file %d: duplicate source %q", i, d.Source.Path)
		}
		seen[d.Source.Path] = true
		if !d.Selected || d.Status != models.RenameStatusPending {
			continue
		}
		if err := naming.ValidateFilename(d.TargetFilename); err != nil {
			return fmt.Errorf("file %d (%s): %w", i, d.Source.Filename, err)
		}
	}
	return nil
}

// SavePlan writes the plan as YAML.
func SavePlan(path string, plan *Plan) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}

// LoadPlan reads a plan written by SavePlan, possibly edited by hand.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return &plan, nil
}
