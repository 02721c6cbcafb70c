package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/statement-renamer/backend/internal/batch"
	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/naming"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/rename"
	"github.com/statement-renamer/backend/internal/storage"
	"go.uber.org/zap"
)

// MaxSessions limits concurrent batches held in memory
const MaxSessions = 10

// SessionMaxAge is how long to keep finished batches before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep batches that are actively being reviewed
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound  = errors.New("batch not found")
	ErrDecisionNotFound = errors.New("decision not found")
	ErrBatchBusy        = errors.New("batch is still parsing or renaming")
	ErrAlreadyExecuted  = errors.New("batch has already been renamed")
	ErrTooManySessions  = errors.New("too many active batches")
	ErrRootNotAllowed   = errors.New("root is outside the allowed directories")
	ErrNoInput          = errors.New("either root or paths is required")
)

// StartRequest describes a new batch: a root directory to scan, or an explicit file list.
type StartRequest struct {
	Root     string   `json:"root,omitempty"`
	Paths    []string `json:"paths,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
}

// DecisionPatch is an operator edit. Nil fields are left unchanged.
type DecisionPatch struct {
	Selected       *bool   `json:"selected,omitempty"`
	TargetFilename *string `json:"targetFilename,omitempty"`
}

// Config configures a Manager.
type Config struct {
	Workers      int
	AllowedRoots []string
	// DefaultStrategy is used when a request names none; empty means the statement strategy.
	DefaultStrategy string
}

// Manager holds batch sessions for the HTTP server.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex

	store     storage.Store
	extractor extract.Extractor
	registry  *parser.Registry
	executor  *rename.Executor
	cfg       Config
	logger    *zap.Logger
}

// SessionState holds a batch and its decisions.
type SessionState struct {
	Session      *models.BatchSession
	Decisions    []*models.RenameDecision
	LastAccessed time.Time
}

// NewManager creates a session manager.
func NewManager(store storage.Store, extractor extract.Extractor, registry *parser.Registry, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:  make(map[string]*SessionState),
		store:     store,
		extractor: extractor,
		registry:  registry,
		executor:  rename.NewExecutor(store, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// StartBatch resolves the file list and parses it in the background.
func (m *Manager) StartBatch(req StartRequest) (*models.BatchSession, error) {
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = m.cfg.DefaultStrategy
	}
	if strategyName == "" {
		strategyName = parser.StatementStrategyName
	}
	strategy, err := m.registry.Get(strategyName)
	if err != nil {
		return nil, err
	}

	paths, err := m.resolvePaths(req)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	session := models.NewBatchSession(id, req.Root, strategy.Name())
	session.Status = models.BatchStatusParsing
	session.FileCount = len(paths)

	m.mu.Lock()
	if err := m.makeRoomLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[id] = &SessionState{Session: session, LastAccessed: time.Now()}
	snap := m.snapshot(session)
	m.mu.Unlock()

	processor := batch.NewProcessor(m.store, m.extractor, strategy, m.cfg.Workers, m.logger.With(zap.String("batch", id[:8])))
	go m.runParse(id, processor, paths)

	return snap, nil
}

func (m *Manager) resolvePaths(req StartRequest) ([]string, error) {
	if req.Root != "" {
		if !m.rootAllowed(req.Root) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotAllowed, req.Root)
		}
		return m.store.ListPDFs(req.Root)
	}
	if len(req.Paths) == 0 {
		return nil, ErrNoInput
	}
	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		if !storage.IsPDFName(p) {
			return nil, fmt.Errorf("not a PDF: %s", p)
		}
		if !m.rootAllowed(filepath.Dir(p)) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotAllowed, p)
		}
		paths = append(paths, filepath.Clean(p))
	}
	return paths, nil
}

func (m *Manager) rootAllowed(dir string) bool {
	if len(m.cfg.AllowedRoots) == 0 {
		return true
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, allowed := range m.cfg.AllowedRoots {
		base, err := filepath.Abs(allowed)
		if err != nil {
			continue
		}
		if abs == base || strings.HasPrefix(abs, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (m *Manager) runParse(id string, processor *batch.Processor, paths []string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("batch parse panicked", zap.String("batch", id), zap.Any("panic", r))
			m.updateSessionError(id, fmt.Sprintf("parse panicked: %v", r))
		}
	}()

	start := time.Now()
	onProgress := func(parsed, total int) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if state, ok := m.sessions[id]; ok {
			state.Session.Parsed = parsed
			state.Session.Progress = float64(parsed) / float64(total)
		}
	}

	decisions, err := processor.Process(context.Background(), paths, onProgress)
	if err != nil {
		m.updateSessionError(id, fmt.Sprintf("parse failed: %v", err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[id]
	if !ok {
		return
	}
	state.Decisions = decisions
	state.Session.Status = models.BatchStatusReady
	state.Session.Progress = 1
	state.Session.Parsed = len(decisions)

	m.logger.Info("batch ready",
		zap.String("batch", id),
		zap.Int("files", len(decisions)),
		zap.Duration("elapsed", time.Since(start)))
}

func (m *Manager) updateSessionError(id, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return
	}
	state.Session.Status = models.BatchStatusError
	state.Session.Errors = append(state.Session.Errors, reason)
}

// GetSession returns a snapshot of the batch.
func (m *Manager) GetSession(id string) (*models.BatchSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return m.snapshot(state.Session), true
}

// Decisions returns copies of the batch's decisions in list order. The list is
// empty until parsing finishes.
func (m *Manager) Decisions(id string) ([]models.RenameDecision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]models.RenameDecision, len(state.Decisions))
	for i, d := range state.Decisions {
		out[i] = *d
	}
	return out, nil
}

// UpdateDecision applies an operator edit to one decision of a ready batch.
// Editing the target of a decision that failed at parse time does not revive it.
func (m *Manager) UpdateDecision(id, decisionID string, patch DecisionPatch) (*models.RenameDecision, error) {
	if patch.TargetFilename != nil {
		if err := naming.ValidateFilename(*patch.TargetFilename); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := editable(state.Session.Status); err != nil {
		return nil, err
	}

	for _, d := range state.Decisions {
		if d.ID != decisionID {
			continue
		}
		if patch.Selected != nil {
			d.Selected = *patch.Selected
		}
		if patch.TargetFilename != nil {
			d.TargetFilename = *patch.TargetFilename
		}
		state.LastAccessed = time.Now()
		c := *d
		return &c, nil
	}
	return nil, ErrDecisionNotFound
}

// Rename executes the batch once. All parsing has finished by the time this runs.
func (m *Manager) Rename(id string) (models.RenameSummary, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return models.RenameSummary{}, ErrSessionNotFound
	}
	if err := editable(state.Session.Status); err != nil {
		m.mu.Unlock()
		return models.RenameSummary{}, err
	}
	state.Session.Status = models.BatchStatusRenaming
	work := make([]*models.RenameDecision, len(state.Decisions))
	for i, d := range state.Decisions {
		c := *d
		work[i] = &c
	}
	m.mu.Unlock()

	summary := m.executor.Execute(work)

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		state.Decisions = work
		state.Session.Summary = &summary
		state.Session.Status = models.BatchStatusComplete
		state.LastAccessed = time.Now()
	}
	return summary, nil
}

func editable(status models.BatchStatus) error {
	switch status {
	case models.BatchStatusReady:
		return nil
	case models.BatchStatusComplete:
		return ErrAlreadyExecuted
	}
	return ErrBatchBusy
}

// TouchSession updates the LastAccessed timestamp for a batch.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// CleanupOldSessions removes finished batches idle for longer than maxAge,
// keeping any touched within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, state := range m.sessions {
		if !state.Session.Done() {
			continue
		}
		idle := now.Sub(state.LastAccessed)
		if idle < SessionKeepAliveWindow || idle < maxAge {
			continue
		}
		delete(m.sessions, id)
		removed++
		m.logger.Info("cleaned up idle batch", zap.String("batch", id), zap.Duration("idle", idle.Round(time.Second)))
	}
	return removed
}

// makeRoomLocked frees one slot when at capacity. Finished batches (complete or
// error) go first, least recently used; ready batches still under review only
// when nothing else is left. The caller holds m.mu.
func (m *Manager) makeRoomLocked() error {
	if len(m.sessions) < MaxSessions {
		return nil
	}

	victim := m.leastRecentlyUsed(func(s *models.BatchSession) bool {
		return s.Status == models.BatchStatusComplete || s.Status == models.BatchStatusError
	})
	if victim == "" {
		victim = m.leastRecentlyUsed(func(s *models.BatchSession) bool {
			return s.Status == models.BatchStatusReady
		})
	}
	if victim == "" {
		return ErrTooManySessions
	}
	delete(m.sessions, victim)
	m.logger.Info("evicted batch to free capacity", zap.String("batch", victim))
	return nil
}

func (m *Manager) leastRecentlyUsed(match func(*models.BatchSession) bool) string {
	var oldestID string
	var oldest time.Time
	for id, state := range m.sessions {
		if !match(state.Session) {
			continue
		}
		if oldestID == "" || state.LastAccessed.Before(oldest) {
			oldestID, oldest = id, state.LastAccessed
		}
	}
	return oldestID
}

func (m *Manager) snapshot(s *models.BatchSession) *models.BatchSession {
	c := *s
	c.Errors = append([]string(nil), s.Errors...)
	if s.Summary != nil {
		summary := *s.Summary
		c.Summary = &summary
	}
	return &c
}
