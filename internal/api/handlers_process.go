// handlers_process.go - Single-file PDF processing handler
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/statement-renamer/backend/internal/upload"
)

// pdfFormField is the multipart field carrying the uploaded document
const pdfFormField = "pdf"

// ProcessHandlerImpl implements the ProcessHandler interface
type ProcessHandlerImpl struct {
	processor PDFProcessor
	maxSize   int64
}

// NewProcessHandler creates a new process handler. maxSize caps the bytes read
// from the uploaded part; zero means unlimited.
func NewProcessHandler(processor PDFProcessor, maxSize int64) ProcessHandler {
	return &ProcessHandlerImpl{
		processor: processor,
		maxSize:   maxSize,
	}
}

// HandleProcessPDF reads the uploaded PDF and answers with a ProcessResult.
// The body is a ProcessResult for every outcome; the status code carries the class.
func (h *ProcessHandlerImpl) HandleProcessPDF(c echo.Context) error {
	fh, err := c.FormFile(pdfFormField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &models.ProcessResult{Message: upload.MsgNoFile})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &models.ProcessResult{Message: upload.MsgUnexpected})
	}
	defer src.Close()

	var r io.Reader = src
	if h.maxSize > 0 {
		r = io.LimitReader(src, h.maxSize)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &models.ProcessResult{Message: upload.MsgUnexpected})
	}
	if content == nil {
		content = []byte{}
	}

	result, err := h.processor.Process(c.Request().Context(), fh.Filename, fh.Header.Get(echo.HeaderContentType), content)
	return c.JSON(processStatus(err), result)
}

func processStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, upload.ErrNoFile), errors.Is(err, upload.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrUnreadable), errors.Is(err, parser.ErrIncomplete):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
