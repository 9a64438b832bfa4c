package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smishguard/internal/classifier"
	"smishguard/internal/models"
	"smishguard/internal/verdict"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalysis struct {
	result       *verdict.Result
	classifyErr  error
	lastFamily   models.ModelFamily
	lastFeedback *models.FeedbackRecord
	feedbackErr  error
}

func (s *stubAnalysis) Classify(_ context.Context, _ string, family models.ModelFamily) (*verdict.Result, error) {
	s.lastFamily = family
	if s.classifyErr != nil {
		return nil, s.classifyErr
	}
	return s.result, nil
}

func (s *stubAnalysis) SubmitFeedback(_ context.Context, fb *models.FeedbackRecord) error {
	s.lastFeedback = fb
	return s.feedbackErr
}

func analyzeRouter(stub *stubAnalysis) *gin.Engine {
	router := gin.New()
	h := NewAnalyzeHandler(stub, zap.NewNop())
	router.POST("/api/analyze", h.Analyze)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func fraudulentResult() *verdict.Result {
	return &verdict.Result{
		Verdict: models.Verdict{
			Label:       models.LabelFraudulent,
			Confidence:  0.9273,
			Explanation: "This message was classified as fraudulent.",
		},
		Signals: []models.DetectedSignal{
			{Name: "urgency", Description: "pressure", Icon: "🚨", Confidence: 0.85},
		},
		Family:       models.FamilyRandomForest,
		GenerationID: uuid.New(),
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	stub := &stubAnalysis{result: fraudulentResult()}
	rec := postJSON(t, analyzeRouter(stub), "/api/analyze",
		`{"message": "Urgente! Confirme sua senha agora"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fraudulent", resp.Verdict)
	assert.InDelta(t, 92.73, resp.Confidence, 1e-9)
	assert.Equal(t, "random_forest", resp.ModelUsed)
	assert.Len(t, resp.Signals, 1)
	assert.NotEmpty(t, resp.Explanation)

	// No model field defaults to the random forest.
	assert.Equal(t, models.FamilyRandomForest, stub.lastFamily)
}

func TestAnalyzeExplicitModelSelection(t *testing.T) {
	stub := &stubAnalysis{result: fraudulentResult()}
	rec := postJSON(t, analyzeRouter(stub), "/api/analyze",
		`{"message": "qualquer texto", "model": "naive_bayes"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FamilyNaiveBayes, stub.lastFamily)
}

func TestAnalyzeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"empty message", `{"message": ""}`},
		{"too long", `{"message": "` + strings.Repeat("a", 501) + `"}`},
		{"unknown model", `{"message": "oi", "model": "gradient_boost"}`},
		{"not json", `message=oi`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalysis{result: fraudulentResult()}
			rec := postJSON(t, analyzeRouter(stub), "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyzeModelUnavailable(t *testing.T) {
	stub := &stubAnalysis{classifyErr: classifier.ErrModelUnavailable}
	rec := postJSON(t, analyzeRouter(stub), "/api/analyze", `{"message": "oi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeInternalError(t *testing.T) {
	stub := &stubAnalysis{classifyErr: assert.AnError}
	rec := postJSON(t, analyzeRouter(stub), "/api/analyze", `{"message": "oi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyzeNilSignalsSerializeAsEmptyArray(t *testing.T) {
	result := fraudulentResult()
	result.Signals = nil
	stub := &stubAnalysis{result: result}

	rec := postJSON(t, analyzeRouter(stub), "/api/analyze", `{"message": "oi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"signals":[]`)
}

func TestRoundPercent(t *testing.T) {
	assert.InDelta(t, 92.73, roundPercent(0.9273), 1e-9)
	assert.InDelta(t, 100.0, roundPercent(1.0), 1e-9)
	assert.InDelta(t, 0.0, roundPercent(0.0), 1e-9)
	assert.InDelta(t, 66.67, roundPercent(2.0/3.0), 1e-9)
}
