// backend-go/internal/api/handlers/ingest_handler.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/andresuchdata/decision-intel/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultMaxUploadBytes = 20 << 20

type IngestHandler struct {
	decisionService *service.DecisionService
	maxUploadBytes  int64
}

func NewIngestHandler(decisionService *service.DecisionService, maxUploadBytes int64) *IngestHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &IngestHandler{decisionService: decisionService, maxUploadBytes: maxUploadBytes}
}

// IngestFile stores an uploaded transaction file as a new dataset.
func (h *IngestHandler) IngestFile(c *gin.Context) {
	req, found, err := h.ingestRequest(c)
	if err != nil {
		respondError(c, err, "Error processing file")
		return
	}
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	result, err := h.decisionService.Ingest(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error processing file")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Status reports whether ingestion is available.
func (h *IngestHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ready",
		"supported_formats": ingest.SupportedFormats(),
		"message":           "Data ingestion service is operational",
	})
}

// SetInitialStock replaces starting stock levels from a product_id,initial_stock
// CSV sent as the "file" form field or as the raw request body.
func (h *IngestHandler) SetInitialStock(c *gin.Context) {
	id := c.Param("id")

	_, body, found, err := h.formFile(c, "file")
	if err != nil {
		respondError(c, err, "Error reading initial stock")
		return
	}
	var r io.Reader
	if found {
		r = bytes.NewReader(body)
	} else {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	n, err := h.decisionService.SetInitialStock(c.Request.Context(), id, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = fmt.Errorf("%w: %v", errFileTooLarge, err)
		}
		respondError(c, err, "Error updating initial stock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dataset_id":            id,
		"initial_stock_entries": n,
	})
}

// ingestRequest reads the "file" field and the optional "initial_stock" field.
func (h *IngestHandler) ingestRequest(c *gin.Context) (service.IngestRequest, bool, error) {
	name, body, found, err := h.formFile(c, "file")
	if err != nil || !found {
		return service.IngestRequest{}, found, err
	}
	req := service.IngestRequest{Filename: name, Body: body}

	_, stock, _, err := h.formFile(c, "initial_stock")
	if err != nil {
		return service.IngestRequest{}, true, err
	}
	req.InitialStock = stock
	return req, true, nil
}

// formFile returns the named multipart file. A request without that field
// yields found == false and no error.
func (h *IngestHandler) formFile(c *gin.Context, field string) (string, []byte, bool, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("invalid form data: %w", err)
	}
	if header.Size > h.maxUploadBytes {
		return "", nil, false, fmt.Errorf("%w: %s is %d bytes, limit %d", errFileTooLarge, header.Filename, header.Size, h.maxUploadBytes)
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, body, true, nil
}
