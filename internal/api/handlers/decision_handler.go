// backend-go/internal/api/handlers/decision_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/andresuchdata/decision-intel/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultDatasetLimit = 50

type DecisionHandler struct {
	decisionService *service.DecisionService
	uploads         *IngestHandler
}

func NewDecisionHandler(decisionService *service.DecisionService, uploads *IngestHandler) *DecisionHandler {
	return &DecisionHandler{decisionService: decisionService, uploads: uploads}
}

// Generate ingests an optional uploaded file and returns ranked insights.
// Without a file the dataset_id form or query field selects the data.
func (h *DecisionHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	req, found, err := h.uploads.ingestRequest(c)
	if err != nil {
		respondError(c, err, "Error generating decisions")
		return
	}

	var datasetID string
	if found {
		result, err := h.decisionService.Ingest(ctx, req)
		if err != nil {
			respondError(c, err, "Error generating decisions")
			return
		}
		datasetID = result.DatasetID
	} else {
		datasetID = c.PostForm("dataset_id")
		if datasetID == "" {
			datasetID = c.Query("dataset_id")
		}
	}

	resp, err := h.decisionService.Generate(ctx, datasetID)
	if err != nil {
		respondError(c, err, "Error generating decisions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *DecisionHandler) GetDecisions(c *gin.Context) {
	resp, err := h.decisionService.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error generating decisions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DecisionHandler) GetInventoryRisks(c *gin.Context) {
	risks, err := h.decisionService.Risks(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching inventory risks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"risks": risks, "total": len(risks)})
}

func (h *DecisionHandler) GetSlowMovers(c *gin.Context) {
	slowMovers, err := h.decisionService.SlowMovers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching slow movers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slow_movers": slowMovers, "total": len(slowMovers)})
}

func (h *DecisionHandler) GetReorderRecommendations(c *gin.Context) {
	recommendations, err := h.decisionService.Reorders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error fetching reorder recommendations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations, "total": len(recommendations)})
}

func (h *DecisionHandler) GetSummary(c *gin.Context) {
	summary, err := h.decisionService.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Error building summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListDatasets returns dataset metadata, newest first.
func (h *DecisionHandler) ListDatasets(c *gin.Context) {
	limit := defaultDatasetLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	datasets, err := h.decisionService.Datasets(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "Error listing datasets")
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets, "total": len(datasets)})
}

func (h *DecisionHandler) DeleteDataset(c *gin.Context) {
	if err := h.decisionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Error deleting dataset")
		return
	}
	c.Status(http.StatusNoContent)
}
