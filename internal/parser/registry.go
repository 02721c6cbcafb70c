package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrStrategyNotFound is returned by Get for an unknown name.
var ErrStrategyNotFound = errors.New("strategy not found")

// Registry holds the available strategies by name.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry registers both built-in strategies. A nil mapping uses the defaults.
func NewRegistry(docTypes *DocTypeMapping) *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register(NewStatementStrategy(docTypes))
	r.Register(NewEndDateStrategy())
	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(s Strategy) {
	r.strategies[strings.ToLower(s.Name())] = s
}

// Get returns a strategy by its name.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, name)
	}
	return s, nil
}

// Names lists registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
