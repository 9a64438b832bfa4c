package verdict

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smishguard/internal/classifier"
	"smishguard/internal/models"
	"smishguard/internal/signals"
)

func sig(name string) models.DetectedSignal {
	return models.DetectedSignal{Name: name, Confidence: 0.9}
}

func TestReconcileOverridesLegitimateOnUrgentSensitive(t *testing.T) {
	pred := classifier.Prediction{
		Label:        models.LabelLegitimate,
		Confidence:   0.82,
		Family:       models.FamilyRandomForest,
		GenerationID: uuid.New(),
	}
	detected := []models.DetectedSignal{sig(signals.NameUrgency), sig(signals.NameSensitiveData)}

	res := Reconcile(pred, detected)

	assert.True(t, res.Overridden)
	assert.Equal(t, ReasonUrgentSensitive, res.OverrideReason)
	assert.Equal(t, models.LabelFraudulent, res.Verdict.Label)
	// The floor lifts a sub-floor statistical confidence.
	assert.InDelta(t, 0.90, res.Verdict.Confidence, 1e-9)
	// The original statistical outcome stays visible.
	assert.Equal(t, models.LabelLegitimate, res.MLLabel)
	assert.InDelta(t, 0.82, res.MLConfidence, 1e-9)
	assert.Contains(t, res.Verdict.Explanation, "heuristic override")
}

func TestReconcileOverridesLegitimateOnSuspiciousLink(t *testing.T) {
	pred := classifier.Prediction{Label: models.LabelLegitimate, Confidence: 0.95}
	res := Reconcile(pred, []models.DetectedSignal{sig(signals.NameSuspiciousLink)})

	require.True(t, res.Overridden)
	assert.Equal(t, ReasonSuspiciousLink, res.OverrideReason)
	assert.Equal(t, models.LabelFraudulent, res.Verdict.Label)
	// Confidence above the floor is preserved, not clamped down.
	assert.InDelta(t, 0.95, res.Verdict.Confidence, 1e-9)
}

func TestReconcileOverrideIsOneDirectional(t *testing.T) {
	// A fraudulent prediction never flips back, whatever the signals say.
	pred := classifier.Prediction{Label: models.LabelFraudulent, Confidence: 0.55}

	for _, detected := range [][]models.DetectedSignal{
		nil,
		{sig(signals.NameSuspiciousLink)},
		{sig(signals.NameUrgency), sig(signals.NameSensitiveData)},
	} {
		res := Reconcile(pred, detected)
		assert.False(t, res.Overridden)
		assert.Equal(t, models.LabelFraudulent, res.Verdict.Label)
		assert.InDelta(t, 0.55, res.Verdict.Confidence, 1e-9)
	}
}

func TestReconcileWeakSignalsDoNotOverride(t *testing.T) {
	pred := classifier.Prediction{Label: models.LabelLegitimate, Confidence: 0.88}

	tests := []struct {
		name     string
		detected []models.DetectedSignal
	}{
		{"no signals", nil},
		{"urgency alone", []models.DetectedSignal{sig(signals.NameUrgency)}},
		{"sensitive data alone", []models.DetectedSignal{sig(signals.NameSensitiveData)}},
		{"link present is not suspicious", []models.DetectedSignal{sig(signals.NameLinkPresent)}},
		{"money request alone", []models.DetectedSignal{sig(signals.NameMoneyRequest)}},
		{
			"urgency with money request",
			[]models.DetectedSignal{sig(signals.NameUrgency), sig(signals.NameMoneyRequest)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reconcile(pred, tt.detected)
			assert.False(t, res.Overridden)
			assert.Empty(t, res.OverrideReason)
			assert.Equal(t, models.LabelLegitimate, res.Verdict.Label)
			assert.InDelta(t, 0.88, res.Verdict.Confidence, 1e-9)
		})
	}
}

func TestReconcileOverrideMonotonicity(t *testing.T) {
	// Adding signals to an overriding set never removes the override.
	base := []models.DetectedSignal{sig(signals.NameSuspiciousLink)}
	extra := []string{
		signals.NameUrgency, signals.NameMoneyRequest,
		signals.NameMalformedText, signals.NameNumericRun,
	}

	pred := classifier.Prediction{Label: models.LabelLegitimate, Confidence: 0.6}
	require.True(t, Reconcile(pred, base).Overridden)

	detected := base
	for _, name := range extra {
		detected = append(detected, sig(name))
		res := Reconcile(pred, detected)
		assert.True(t, res.Overridden, "override lost after adding %s", name)
		assert.Equal(t, models.LabelFraudulent, res.Verdict.Label)
	}
}

func TestReconcileUrgentSensitiveTakesPrecedenceOverLink(t *testing.T) {
	pred := classifier.Prediction{Label: models.LabelLegitimate, Confidence: 0.7}
	detected := []models.DetectedSignal{
		sig(signals.NameUrgency),
		sig(signals.NameSensitiveData),
		sig(signals.NameSuspiciousLink),
	}
	res := Reconcile(pred, detected)
	require.True(t, res.Overridden)
	assert.Equal(t, ReasonUrgentSensitive, res.OverrideReason)
}

func TestReconcileLegitimateWithSignalsGetsCautionFooter(t *testing.T) {
	pred := classifier.Prediction{Label: models.LabelLegitimate, Confidence: 0.9}

	clean := Reconcile(pred, nil)
	assert.NotContains(t, clean.Verdict.Explanation, "Proceed with caution")

	warned := Reconcile(pred, []models.DetectedSignal{sig(signals.NameMoneyRequest)})
	assert.Equal(t, models.LabelLegitimate, warned.Verdict.Label)
	assert.Contains(t, warned.Verdict.Explanation, "Proceed with caution")
}

func TestReconcileLowConfidenceFraudulentGetsCaveat(t *testing.T) {
	low := Reconcile(classifier.Prediction{Label: models.LabelFraudulent, Confidence: 0.62}, nil)
	assert.Contains(t, low.Verdict.Explanation, "confidence in this classification is low")

	high := Reconcile(classifier.Prediction{Label: models.LabelFraudulent, Confidence: 0.93}, nil)
	assert.NotContains(t, high.Verdict.Explanation, "confidence in this classification is low")
}

func TestReconcileIsPure(t *testing.T) {
	pred := classifier.Prediction{
		Label:        models.LabelLegitimate,
		Confidence:   0.5,
		Family:       models.FamilyNaiveBayes,
		GenerationID: uuid.New(),
	}
	detected := []models.DetectedSignal{sig(signals.NameSuspiciousLink)}

	first := Reconcile(pred, detected)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Reconcile(pred, detected))
	}
}
