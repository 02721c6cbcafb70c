package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/naming"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/testutil"
)

func newTestManager(store *testutil.MockStorage, cfg Config) *Manager {
	return NewManager(store, &testutil.FakeExtractor{}, parser.NewRegistry(nil), cfg, nil)
}

func seedStore() *testutil.MockStorage {
	store := testutil.NewMockStorage()
	store.AddFile("/docs/a.pdf", []byte("Ann Lee i1\nStatement Period 01/01/2024 – 03/31/2024\nMember Statement"))
	store.AddFile("/docs/b.pdf", []byte("no fields here"))
	store.AddFile("/docs/notes.txt", []byte("ignored"))
	return store
}

func waitReady(t *testing.T, m *Manager, id string) *models.BatchSession {
	t.Helper()
	for i := 0; i < 100; i++ {
		s, ok := m.GetSession(id)
		if !ok {
			t.Fatalf("Session not found")
		}
		if s.Status == models.BatchStatusError {
			t.Fatalf("Session error: %v", s.Errors)
		}
		if s.Status == models.BatchStatusReady {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("batch %s never became ready", id)
	return nil
}

func TestManager_BatchLifecycle(t *testing.T) {
	store := seedStore()
	m := newTestManager(store, Config{Workers: 2})

	sess, err := m.StartBatch(StartRequest{Root: "/docs"})
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	if sess.FileCount != 2 {
		t.Errorf("Expected 2 files, got %d", sess.FileCount)
	}
	if sess.Strategy != parser.StatementStrategyName {
		t.Errorf("Expected default strategy, got %s", sess.Strategy)
	}

	ready := waitReady(t, m, sess.ID)
	if ready.Progress != 1 || ready.Parsed != 2 {
		t.Errorf("Expected full progress, got %.2f (%d parsed)", ready.Progress, ready.Parsed)
	}

	decisions, err := m.Decisions(sess.ID)
	if err != nil {
		t.Fatalf("Decisions failed: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].TargetFilename != "Ann Lee_i1_2024-03-31_MemberStatement.pdf" {
		t.Errorf("Unexpected target %s", decisions[0].TargetFilename)
	}
	if decisions[1].Status != models.RenameStatusFailure {
		t.Errorf("Expected failure for unparseable file, got %s", decisions[1].Status)
	}

	// snapshots are copies
	decisions[0].TargetFilename = "mutated.pdf"
	again, _ := m.Decisions(sess.ID)
	if again[0].TargetFilename == "mutated.pdf" {
		t.Error("Decisions returned shared state")
	}

	// operator edit
	name := "Ann Lee statement.pdf"
	updated, err := m.UpdateDecision(sess.ID, decisions[0].ID, DecisionPatch{TargetFilename: &name})
	if err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}
	if updated.TargetFilename != name {
		t.Errorf("Expected edited target, got %s", updated.TargetFilename)
	}

	summary, err := m.Rename(sess.ID)
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if summary != (models.RenameSummary{Renamed: 1, Failed: 1}) {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if !store.HasFile("/docs/Ann Lee statement.pdf") {
		t.Error("Expected file renamed to edited target")
	}

	final, _ := m.GetSession(sess.ID)
	if final.Status != models.BatchStatusComplete || final.Summary == nil || *final.Summary != summary {
		t.Errorf("Unexpected final session %+v", final)
	}

	// one-shot
	if _, err := m.Rename(sess.ID); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("Expected ErrAlreadyExecuted, got %v", err)
	}
	selected := false
	if _, err := m.UpdateDecision(sess.ID, decisions[0].ID, DecisionPatch{Selected: &selected}); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("Expected edits rejected after execution, got %v", err)
	}
}

func TestManager_UpdateDecisionErrors(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	sess, err := m.StartBatch(StartRequest{Paths: []string{"/docs/a.pdf"}})
	if err != nil {
		t.Fatal(err)
	}
	waitReady(t, m, sess.ID)
	decisions, _ := m.Decisions(sess.ID)

	bad := "../x.pdf"
	if _, err := m.UpdateDecision(sess.ID, decisions[0].ID, DecisionPatch{TargetFilename: &bad}); !errors.Is(err, naming.ErrInvalidFilename) {
		t.Errorf("Expected ErrInvalidFilename, got %v", err)
	}
	if _, err := m.UpdateDecision(sess.ID, "nope", DecisionPatch{}); !errors.Is(err, ErrDecisionNotFound) {
		t.Errorf("Expected ErrDecisionNotFound, got %v", err)
	}
	if _, err := m.UpdateDecision("nope", decisions[0].ID, DecisionPatch{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_StartBatchErrors(t *testing.T) {
	m := newTestManager(seedStore(), Config{AllowedRoots: []string{"/docs"}})

	tests := []struct {
		name string
		req  StartRequest
		want error
	}{
		{"no input", StartRequest{}, ErrNoInput},
		{"root outside allowed", StartRequest{Root: "/etc"}, ErrRootNotAllowed},
		{"path outside allowed", StartRequest{Paths: []string{"/etc/x.pdf"}}, ErrRootNotAllowed},
		{"unknown strategy", StartRequest{Root: "/docs", Strategy: "ocr"}, parser.ErrStrategyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.StartBatch(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := m.StartBatch(StartRequest{Paths: []string{"/docs/notes.txt"}}); err == nil {
		t.Error("Expected error for non-PDF path")
	}
}

func TestManager_KeepAliveAndCleanup(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	sess, err := m.StartBatch(StartRequest{Root: "/docs"})
	if err != nil {
		t.Fatal(err)
	}
	waitReady(t, m, sess.ID)

	if !m.TouchSession(sess.ID) {
		t.Error("TouchSession should find the batch")
	}
	if m.TouchSession("missing") {
		t.Error("TouchSession should not find unknown batch")
	}

	// recently touched batches survive
	if removed := m.CleanupOldSessions(0); removed != 0 {
		t.Errorf("Expected no cleanup inside keep-alive window, removed %d", removed)
	}

	m.mu.Lock()
	m.sessions[sess.ID].LastAccessed = time.Now().Add(-SessionMaxAge - time.Minute)
	m.mu.Unlock()

	if removed := m.CleanupOldSessions(SessionMaxAge); removed != 1 {
		t.Errorf("Expected 1 batch removed, got %d", removed)
	}
	if _, ok := m.GetSession(sess.ID); ok {
		t.Error("Expected batch to be gone")
	}
}

func TestManager_EvictsWhenFull(t *testing.T) {
	m := newTestManager(seedStore(), Config{})

	var first string
	for i := 0; i < MaxSessions; i++ {
		sess, err := m.StartBatch(StartRequest{Root: "/docs"})
		if err != nil {
			t.Fatalf("batch %d: %v", i, err)
		}
		waitReady(t, m, sess.ID)
		if i == 0 {
			first = sess.ID
			m.mu.Lock()
			m.sessions[first].LastAccessed = time.Now().Add(-time.Hour)
			m.mu.Unlock()
		}
	}

	if _, err := m.StartBatch(StartRequest{Root: "/docs"}); err != nil {
		t.Fatalf("Expected eviction to make room, got %v", err)
	}
	if _, ok := m.GetSession(first); ok {
		t.Error("Expected least recently used batch to be evicted")
	}
}

func TestManager_TooManyActiveBatches(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	m.mu.Lock()
	for i := 0; i < MaxSessions; i++ {
		id := fmt.Sprintf("busy-%d", i)
		s := models.NewBatchSession(id, "/docs", parser.StatementStrategyName)
		s.Status = models.BatchStatusParsing
		m.sessions[id] = &SessionState{Session: s, LastAccessed: time.Now()}
	}
	m.mu.Unlock()

	if _, err := m.StartBatch(StartRequest{Root: "/docs"}); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Expected ErrTooManySessions, got %v", err)
	}
}

func TestManager_RenameWhileParsing(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	m.mu.Lock()
	s := models.NewBatchSession("b1", "/docs", parser.StatementStrategyName)
	s.Status = models.BatchStatusParsing
	m.sessions["b1"] = &SessionState{Session: s, LastAccessed: time.Now()}
	m.mu.Unlock()

	if _, err := m.Rename("b1"); !errors.Is(err, ErrBatchBusy) {
		t.Errorf("Expected ErrBatchBusy, got %v", err)
	}
	if _, err := m.Rename("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_DefaultStrategyFromConfig(t *testing.T) {
	m := newTestManager(seedStore(), Config{DefaultStrategy: parser.EndDateStrategyName})

	sess, err := m.StartBatch(StartRequest{Root: "/docs"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Strategy != parser.EndDateStrategyName {
		t.Errorf("Expected configured default %q, got %q", parser.EndDateStrategyName, sess.Strategy)
	}

	sess, err = m.StartBatch(StartRequest{Root: "/docs", Strategy: parser.StatementStrategyName})
	if err != nil {
		t.Fatal(err)
	}
	if sess.Strategy != parser.StatementStrategyName {
		t.Errorf("Expected requested strategy to win, got %q", sess.Strategy)
	}

	bad := newTestManager(seedStore(), Config{DefaultStrategy: "ocr"})
	if _, err := bad.StartBatch(StartRequest{Root: "/docs"}); !errors.Is(err, parser.ErrStrategyNotFound) {
		t.Errorf("Expected ErrStrategyNotFound, got %v", err)
	}
}

func TestManager_EvictsFinishedBeforeReady(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	m.mu.Lock()
	for i := 0; i < MaxSessions; i++ {
		id := fmt.Sprintf("ready-%d", i)
		s := models.NewBatchSession(id, "/docs", parser.StatementStrategyName)
		s.Status = models.BatchStatusReady
		// ready batches are all older than the finished one
		m.sessions[id] = &SessionState{Session: s, LastAccessed: time.Now().Add(-time.Hour)}
	}
	done := m.sessions["ready-3"]
	done.Session.Status = models.BatchStatusComplete
	done.LastAccessed = time.Now()
	m.mu.Unlock()

	if _, err := m.StartBatch(StartRequest{Root: "/docs"}); err != nil {
		t.Fatalf("Expected eviction to make room, got %v", err)
	}
	if _, ok := m.GetSession("ready-3"); ok {
		t.Error("Expected the completed batch to be evicted first")
	}
	for _, id := range []string{"ready-0", "ready-9"} {
		if _, ok := m.GetSession(id); !ok {
			t.Errorf("Expected %s under review to survive", id)
		}
	}
}

func TestManager_ConcurrentStartsRespectCapacity(t *testing.T) {
	m := newTestManager(seedStore(), Config{})
	m.mu.Lock()
	for i := 0; i < MaxSessions-1; i++ {
		id := fmt.Sprintf("busy-%d", i)
		s := models.NewBatchSession(id, "/docs", parser.StatementStrategyName)
		s.Status = models.BatchStatusParsing
		m.sessions[id] = &SessionState{Session: s, LastAccessed: time.Now()}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.StartBatch(StartRequest{Root: "/docs"})
		}()
	}
	wg.Wait()

	m.mu.RLock()
	n := len(m.sessions)
	m.mu.RUnlock()
	if n > MaxSessions {
		t.Errorf("Expected at most %d batches, got %d", MaxSessions, n)
	}
}
