package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/andresuchdata/decision-intel/backend-go/internal/repository"
	"github.com/andresuchdata/decision-intel/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errFileTooLarge = errors.New("uploaded file is too large")

const noDataMessage = "No data available. Please upload a CSV file first."

// respondError maps service errors to HTTP statuses. fallback describes the
// failed operation for unexpected errors.
func respondError(c *gin.Context, err error, fallback string) {
	status, message := http.StatusInternalServerError, fallback

	switch {
	case errors.Is(err, service.ErrNoData):
		status, message = http.StatusBadRequest, noDataMessage
	case errors.Is(err, repository.ErrDatasetNotFound):
		status, message = http.StatusNotFound, "dataset not found"
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		status, message = http.StatusBadRequest, "File must be a CSV or XLSX file"
	case errors.Is(err, ingest.ErrEmptyFile), errors.Is(err, ingest.ErrMissingColumn):
		status, message = http.StatusBadRequest, "invalid file"
	case errors.Is(err, errFileTooLarge):
		status, message = http.StatusRequestEntityTooLarge, "file too large"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
