// handlers_batch.go - Batch session handlers
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/statement-renamer/backend/internal/naming"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	progressInterval = 100 * time.Millisecond
	progressTimeout  = 5 * time.Minute
	// progressWriteSlack covers the final timeout event after progressTimeout fires.
	progressWriteSlack = 10 * time.Second
)

// BatchHandlerImpl implements the BatchHandler interface
type BatchHandlerImpl struct {
	batchMgr BatchManager
}

// NewBatchHandler creates a new batch handler instance
func NewBatchHandler(batchMgr BatchManager) BatchHandler {
	return &BatchHandlerImpl{batchMgr: batchMgr}
}

// HandleStartBatch starts parsing a directory or an explicit file list
func (h *BatchHandlerImpl) HandleStartBatch(c echo.Context) error {
	var req session.StartRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Root == "" && len(req.Paths) == 0 {
		return NewValidationError("root or paths")
	}

	sess, err := h.batchMgr.StartBatch(req)
	if err != nil {
		return batchError(err, "")
	}

	return c.JSON(http.StatusAccepted, sess)
}

// HandleBatchStatus returns the current status of a batch
func (h *BatchHandlerImpl) HandleBatchStatus(c echo.Context) error {
	id := c.Param("batchId")
	if id == "" {
		return NewValidationError("batchId")
	}

	sess, ok := h.batchMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("batch", id)
	}

	// Touch batch to prevent cleanup while being reviewed
	h.batchMgr.TouchSession(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleSessionKeepAlive extends batch lifetime during review
func (h *BatchHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("batchId")
	if id == "" {
		return NewValidationError("batchId")
	}

	if ok := h.batchMgr.TouchSession(id); !ok {
		return NewNotFoundError("batch", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleBatchProgressStream streams batch progress via SSE until parsing or renaming settles
func (h *BatchHandlerImpl) HandleBatchProgressStream(c echo.Context) error {
	id := c.Param("batchId")
	if id == "" {
		return NewValidationError("batchId")
	}

	// the server-wide WriteTimeout would cut the stream short
	rc := http.NewResponseController(c.Response().Writer)
	_ = rc.SetWriteDeadline(time.Now().Add(progressTimeout + progressWriteSlack))

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	sess, ok := h.batchMgr.GetSession(id)
	if !ok {
		h.sendSSEError(c, "batch not found")
		return nil
	}
	h.sendSSEData(c, sess)
	if sess.Done() {
		return nil
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	timeout := time.NewTimer(progressTimeout)
	defer timeout.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ticker.C:
			sess, ok := h.batchMgr.GetSession(id)
			if !ok {
				h.sendSSEError(c, "batch not found")
				return nil
			}

			h.sendSSEData(c, sess)

			if sess.Done() {
				return nil
			}

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}

// HandleGetDecisions returns the batch's decisions in list order
func (h *BatchHandlerImpl) HandleGetDecisions(c echo.Context) error {
	id := c.Param("batchId")
	decisions, err := h.batchMgr.Decisions(id)
	if err != nil {
		return batchError(err, id)
	}
	h.batchMgr.TouchSession(id)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"decisions": decisions,
		"total":     len(decisions),
	})
}

// HandleGetDecisionsMsgpack returns the decisions msgpack-encoded, keyed like the JSON form
func (h *BatchHandlerImpl) HandleGetDecisionsMsgpack(c echo.Context) error {
	id := c.Param("batchId")
	decisions, err := h.batchMgr.Decisions(id)
	if err != nil {
		return batchError(err, id)
	}
	h.batchMgr.TouchSession(id)

	data, err := encodeMsgpack(map[string]interface{}{
		"decisions": decisions,
		"total":     len(decisions),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleUpdateDecision applies an operator edit to one decision
func (h *BatchHandlerImpl) HandleUpdateDecision(c echo.Context) error {
	id := c.Param("batchId")
	decisionID := c.Param("decisionId")
	if decisionID == "" {
		return NewValidationError("decisionId")
	}

	var patch session.DecisionPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if patch.Selected == nil && patch.TargetFilename == nil {
		return NewValidationError("selected or targetFilename")
	}

	d, err := h.batchMgr.UpdateDecision(id, decisionID, patch)
	if err != nil {
		return batchError(err, id)
	}
	return c.JSON(http.StatusOK, d)
}

// HandleRename executes the batch and returns the counters
func (h *BatchHandlerImpl) HandleRename(c echo.Context) error {
	id := c.Param("batchId")
	summary, err := h.batchMgr.Rename(id)
	if err != nil {
		return batchError(err, id)
	}
	return c.JSON(http.StatusOK, summary)
}

// batchError maps session manager errors onto API errors
func batchError(err error, id string) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return NewNotFoundError("batch", id)
	case errors.Is(err, session.ErrDecisionNotFound):
		return NewNotFoundError("decision", id)
	case errors.Is(err, session.ErrBatchBusy), errors.Is(err, session.ErrAlreadyExecuted):
		return NewConflictError(err.Error())
	case errors.Is(err, session.ErrTooManySessions):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, session.ErrRootNotAllowed),
		errors.Is(err, session.ErrNoInput),
		errors.Is(err, naming.ErrInvalidFilename),
		errors.Is(err, parser.ErrStrategyNotFound):
		return NewBadRequestError(err.Error(), nil)
	}
	// missing or non-directory root, non-PDF path
	return NewBadRequestError("cannot read batch input", err)
}

func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *BatchHandlerImpl) sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func (h *BatchHandlerImpl) sendSSEError(c echo.Context, message string) {
	h.sendSSEData(c, map[string]string{"error": message})
}
