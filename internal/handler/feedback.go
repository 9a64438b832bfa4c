package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smishguard/internal/models"
	"smishguard/internal/service"
)

// FeedbackHandler records user corrections about served verdicts.
type FeedbackHandler struct {
	analysis service.AnalysisService
	logger   *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(analysis service.AnalysisService, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{analysis: analysis, logger: logger}
}

// FeedbackRequest is the feedback submission body.
type FeedbackRequest struct {
	Message         string  `json:"message" binding:"required,min=1,max=500"`
	OriginalVerdict string  `json:"original_verdict" binding:"required"`
	WasUseful       *bool   `json:"was_useful" binding:"required"`
	Comment         *string `json:"comment"`
	ModelUsed       string  `json:"model_used"`
}

// Submit handles POST /api/feedback.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback payload"})
		return
	}

	verdict, err := models.ParseLabel(req.OriginalVerdict)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "original_verdict must be legitimate or fraudulent"})
		return
	}

	fb := &models.FeedbackRecord{
		Message:         req.Message,
		OriginalVerdict: verdict,
		WasUseful:       *req.WasUseful,
		UserComment:     req.Comment,
		ModelUsed:       req.ModelUsed,
	}

	if err := h.analysis.SubmitFeedback(c.Request.Context(), fb); err != nil {
		if errors.Is(err, service.ErrMalformedFeedback) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to record feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Feedback recorded successfully",
	})
}
