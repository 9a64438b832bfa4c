package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smishguard/internal/bootstrap"
	"smishguard/internal/repository"
)

// DatasetHandler exposes corpus statistics and the bootstrap trigger.
type DatasetHandler struct {
	training repository.TrainingRecordRepository
	loader   *bootstrap.Loader
	logger   *zap.Logger
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(training repository.TrainingRecordRepository, loader *bootstrap.Loader, logger *zap.Logger) *DatasetHandler {
	return &DatasetHandler{training: training, loader: loader, logger: logger}
}

// GetStats handles GET /api/dataset/stats.
func (h *DatasetHandler) GetStats(c *gin.Context) {
	stats, err := h.training.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute dataset stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute dataset statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Bootstrap handles POST /api/dataset/bootstrap. It runs the provider
// chain and reports which source supplied the corpus.
func (h *DatasetHandler) Bootstrap(c *gin.Context) {
	result, err := h.loader.Ensure(c.Request.Context())
	if err != nil {
		h.logger.Error("Corpus bootstrap failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Corpus bootstrap failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
