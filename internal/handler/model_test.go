package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smishguard/internal/models"
	"smishguard/internal/repository"
)

type fakeRegistry struct {
	active      map[models.ModelFamily]*models.ModelArtifact
	generations map[models.ModelFamily][]*models.ModelArtifact
}

func (f *fakeRegistry) Publish(_ context.Context, artifacts []*models.ModelArtifact) error {
	for _, art := range artifacts {
		f.active[art.Family] = art
	}
	return nil
}

func (f *fakeRegistry) GetActive(_ context.Context, family models.ModelFamily) (*models.ModelArtifact, error) {
	art, ok := f.active[family]
	if !ok {
		return nil, repository.ErrArtifactNotFound
	}
	return art, nil
}

func (f *fakeRegistry) ListGenerations(_ context.Context, family models.ModelFamily) ([]*models.ModelArtifact, error) {
	return f.generations[family], nil
}

func artifact(family models.ModelFamily, f1 float64) *models.ModelArtifact {
	return &models.ModelArtifact{
		GenerationID: uuid.New(),
		Family:       family,
		F1Score:      f1,
		IsActive:     true,
		Bundle:       []byte("opaque"),
	}
}

func modelRouter(registry repository.ModelRegistry) *gin.Engine {
	router := gin.New()
	h := NewModelHandler(registry, nil, zap.NewNop())
	router.GET("/api/models", h.GetModels)
	router.GET("/api/models/history", h.GetHistory)
	return router
}

func getJSON(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := map[string]json.RawMessage{}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestGetModelsRecommendsHighestF1(t *testing.T) {
	registry := &fakeRegistry{active: map[models.ModelFamily]*models.ModelArtifact{
		models.FamilyNaiveBayes:   artifact(models.FamilyNaiveBayes, 0.91),
		models.FamilyRandomForest: artifact(models.FamilyRandomForest, 0.88),
	}}

	rec, body := getJSON(t, modelRouter(registry), "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var recommended string
	require.NoError(t, json.Unmarshal(body["recommended"], &recommended))
	assert.Equal(t, "naive_bayes", recommended)

	// Bundle payloads never leave the server.
	assert.NotContains(t, rec.Body.String(), "opaque")
}

func TestGetModelsWithMissingFamily(t *testing.T) {
	registry := &fakeRegistry{active: map[models.ModelFamily]*models.ModelArtifact{
		models.FamilyRandomForest: artifact(models.FamilyRandomForest, 0.8),
	}}

	rec, body := getJSON(t, modelRouter(registry), "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var active map[string]*models.ModelArtifact
	require.NoError(t, json.Unmarshal(body["models"], &active))
	assert.Nil(t, active["naive_bayes"])
	require.NotNil(t, active["random_forest"])

	var recommended string
	require.NoError(t, json.Unmarshal(body["recommended"], &recommended))
	assert.Equal(t, "random_forest", recommended)
}

func TestGetModelsEmptyRegistry(t *testing.T) {
	registry := &fakeRegistry{active: map[models.ModelFamily]*models.ModelArtifact{}}

	rec, body := getJSON(t, modelRouter(registry), "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var recommended string
	require.NoError(t, json.Unmarshal(body["recommended"], &recommended))
	assert.Empty(t, recommended)
}

func TestGetHistory(t *testing.T) {
	registry := &fakeRegistry{
		active: map[models.ModelFamily]*models.ModelArtifact{},
		generations: map[models.ModelFamily][]*models.ModelArtifact{
			models.FamilyNaiveBayes: {
				artifact(models.FamilyNaiveBayes, 0.93),
				artifact(models.FamilyNaiveBayes, 0.90),
			},
		},
	}

	rec, body := getJSON(t, modelRouter(registry), "/api/models/history?family=naive_bayes")
	require.Equal(t, http.StatusOK, rec.Code)

	var count int
	require.NoError(t, json.Unmarshal(body["count"], &count))
	assert.Equal(t, 2, count)
}

func TestGetHistoryRequiresValidFamily(t *testing.T) {
	registry := &fakeRegistry{active: map[models.ModelFamily]*models.ModelArtifact{}}

	rec, _ := getJSON(t, modelRouter(registry), "/api/models/history?family=svm")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = getJSON(t, modelRouter(registry), "/api/models/history")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
