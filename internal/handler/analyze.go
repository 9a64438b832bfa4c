package handler

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smishguard/internal/classifier"
	"smishguard/internal/models"
	"smishguard/internal/service"
)

// AnalyzeHandler serves the classification endpoint.
type AnalyzeHandler struct {
	analysis service.AnalysisService
	logger   *zap.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analysis service.AnalysisService, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis, logger: logger}
}

// AnalyzeRequest is the classification request body. Messages outside the
// 1-500 character range are rejected before reaching the core.
type AnalyzeRequest struct {
	Message string `json:"message" binding:"required,min=1,max=500"`
	Model   string `json:"model"`
}

// AnalyzeResponse reports the verdict with confidence on a 0-100 scale.
type AnalyzeResponse struct {
	Verdict      string                  `json:"verdict"`
	Confidence   float64                 `json:"confidence"`
	Signals      []models.DetectedSignal `json:"signals"`
	Explanation  string                  `json:"explanation"`
	ModelUsed    string                  `json:"model_used"`
	GenerationID string                  `json:"generation_id"`
	Overridden   bool                    `json:"overridden"`
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must be between 1 and 500 characters"})
		return
	}

	family := models.FamilyRandomForest // serving default
	if req.Model != "" {
		parsed, err := models.ParseFamily(req.Model)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Model must be naive_bayes or random_forest"})
			return
		}
		family = parsed
	}

	result, err := h.analysis.Classify(c.Request.Context(), req.Message, family)
	if err != nil {
		if errors.Is(err, classifier.ErrModelUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No trained model is available yet; trigger a retraining run first"})
			return
		}
		h.logger.Error("Classification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze message"})
		return
	}

	signals := result.Signals
	if signals == nil {
		signals = []models.DetectedSignal{}
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		Verdict:      result.Verdict.Label.String(),
		Confidence:   roundPercent(result.Verdict.Confidence),
		Signals:      signals,
		Explanation:  result.Verdict.Explanation,
		ModelUsed:    result.Family.String(),
		GenerationID: result.GenerationID.String(),
		Overridden:   result.Overridden,
	})
}

// roundPercent converts a [0,1] confidence to a 0-100 scale with two
// decimal places.
func roundPercent(confidence float64) float64 {
	return math.Round(confidence*10000) / 100
}
