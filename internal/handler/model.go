package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smishguard/internal/models"
	"smishguard/internal/pipeline"
	"smishguard/internal/repository"
	"smishguard/internal/service"
)

// ModelHandler exposes the registry state and the retraining trigger.
type ModelHandler struct {
	registry repository.ModelRegistry
	training *service.TrainingService
	logger   *zap.Logger
}

// NewModelHandler creates a new model handler.
func NewModelHandler(registry repository.ModelRegistry, training *service.TrainingService, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{registry: registry, training: training, logger: logger}
}

// GetModels handles GET /api/models. It reports the active generation per
// family and recommends the one with the highest held-out F1.
func (h *ModelHandler) GetModels(c *gin.Context) {
	active := make(map[string]*models.ModelArtifact, models.NumFamilies)
	var recommended string
	bestF1 := -1.0

	for _, family := range models.AllFamilies() {
		art, err := h.registry.GetActive(c.Request.Context(), family)
		if errors.Is(err, repository.ErrArtifactNotFound) {
			active[family.String()] = nil
			continue
		}
		if err != nil {
			h.logger.Error("Failed to load active artifact", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load model registry state"})
			return
		}
		art.Bundle = nil // metadata only
		active[family.String()] = art
		if art.F1Score > bestF1 {
			bestF1 = art.F1Score
			recommended = family.String()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"models":      active,
		"recommended": recommended,
	})
}

// GetHistory handles GET /api/models/history?family=<name>.
func (h *ModelHandler) GetHistory(c *gin.Context) {
	family, err := models.ParseFamily(c.Query("family"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "family must be naive_bayes or random_forest"})
		return
	}

	generations, err := h.registry.ListGenerations(c.Request.Context(), family)
	if err != nil {
		h.logger.Error("Failed to list generations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list model generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"family":      family.String(),
		"generations": generations,
		"count":       len(generations),
	})
}

// Retrain handles POST /api/retrain. The run is synchronous; the caller
// gets the per-family metrics of the freshly published generations.
func (h *ModelHandler) Retrain(c *gin.Context) {
	summary, err := h.training.Retrain(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrRetrainInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "A retraining run is already in progress"})
		case errors.Is(err, pipeline.ErrNoTrainingData):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "No original training data; bootstrap the corpus first"})
		case errors.Is(err, pipeline.ErrInsufficientClassBalance):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Training corpus is missing one of the classes"})
		default:
			h.logger.Error("Retraining failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Retraining failed; previous generations remain in service"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
