// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/session"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ProcessHandler handles the single-file upload-and-rename operation
type ProcessHandler interface {
	HandleProcessPDF(c echo.Context) error
}

// BatchHandler handles batch session operations
type BatchHandler interface {
	HandleStartBatch(c echo.Context) error
	HandleBatchStatus(c echo.Context) error
	HandleBatchProgressStream(c echo.Context) error
	HandleGetDecisions(c echo.Context) error
	HandleGetDecisionsMsgpack(c echo.Context) error
	HandleUpdateDecision(c echo.Context) error
	HandleRename(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// PDFProcessor turns one uploaded PDF into a ProcessResult
// This allows mocking in tests
type PDFProcessor interface {
	Process(ctx context.Context, filename, contentType string, content []byte) (*models.ProcessResult, error)
}

// BatchManager defines the interface for batch session management
// This allows mocking in tests
type BatchManager interface {
	StartBatch(req session.StartRequest) (*models.BatchSession, error)
	GetSession(id string) (*models.BatchSession, bool)
	Decisions(id string) ([]models.RenameDecision, error)
	UpdateDecision(id, decisionID string, patch session.DecisionPatch) (*models.RenameDecision, error)
	Rename(id string) (models.RenameSummary, error)
	TouchSession(id string) bool
}
