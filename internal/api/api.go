// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/api/handlers"
	"github.com/andresuchdata/decision-intel/backend-go/internal/api/middleware"
	"github.com/andresuchdata/decision-intel/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type Services struct {
	DecisionService *service.DecisionService
}

// Options tunes the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Decision Intelligence Platform API",
			"version": Version,
			"status":  "operational",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.DecisionService != nil {
		ingestHandler := handlers.NewIngestHandler(services.DecisionService, opts.MaxUploadBytes)
		ingestGroup := apiGroup.Group("/ingest")
		{
			ingestGroup.POST("/csv", ingestHandler.IngestFile)
			ingestGroup.GET("/status", ingestHandler.Status)
		}

		decisionHandler := handlers.NewDecisionHandler(services.DecisionService, ingestHandler)
		apiGroup.POST("/decisions/generate", decisionHandler.Generate)

		datasetGroup := apiGroup.Group("/datasets")
		{
			datasetGroup.GET("", decisionHandler.ListDatasets)
			datasetGroup.DELETE("/:id", decisionHandler.DeleteDataset)
			datasetGroup.PUT("/:id/initial-stock", ingestHandler.SetInitialStock)
			datasetGroup.GET("/:id/decisions", decisionHandler.GetDecisions)
			datasetGroup.GET("/:id/inventory-risks", decisionHandler.GetInventoryRisks)
			datasetGroup.GET("/:id/slow-movers", decisionHandler.GetSlowMovers)
			datasetGroup.GET("/:id/reorder-recommendations", decisionHandler.GetReorderRecommendations)
			datasetGroup.GET("/:id/summary", decisionHandler.GetSummary)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
