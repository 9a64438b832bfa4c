package verdict

import (
	"fmt"

	"github.com/google/uuid"

	"smishguard/internal/classifier"
	"smishguard/internal/models"
	"smishguard/internal/signals"
)

// Override reasons, also used as metric labels.
const (
	ReasonUrgentSensitive = "urgency_with_sensitive_data"
	ReasonSuspiciousLink  = "suspicious_link"
)

// Confidence floor applied when a heuristic override flips the verdict.
const overrideConfidenceFloor = 0.90

// Threshold below which a fraudulent statistical verdict gets a
// low-confidence caveat appended.
const lowConfidenceThreshold = 0.70

// Result is the reconciled outcome for one message.
type Result struct {
	Verdict        models.Verdict
	Signals        []models.DetectedSignal
	Family         models.ModelFamily
	GenerationID   uuid.UUID
	Overridden     bool
	OverrideReason string
	MLLabel        models.Label
	MLConfidence   float64
}

// Reconcile merges the heuristic signals with the statistical prediction
// into one final verdict. Heuristic evidence is security-biased: it can
// push a legitimate prediction to fraudulent, never the reverse, because a
// missed scam costs far more than a false alarm. The function is pure -
// same inputs, same result.
func Reconcile(pred classifier.Prediction, detected []models.DetectedSignal) Result {
	res := Result{
		Signals:      detected,
		Family:       pred.Family,
		GenerationID: pred.GenerationID,
		MLLabel:      pred.Label,
		MLConfidence: pred.Confidence,
	}

	reason, overrides := overridePredicate(detected)
	if pred.Label == models.LabelLegitimate && overrides {
		confidence := pred.Confidence
		if confidence < overrideConfidenceFloor {
			confidence = overrideConfidenceFloor
		}
		res.Overridden = true
		res.OverrideReason = reason
		res.Verdict = models.Verdict{
			Label:       models.LabelFraudulent,
			Confidence:  confidence,
			Explanation: overrideExplanation(reason, pred.Confidence),
		}
		return res
	}

	res.Verdict = models.Verdict{
		Label:       pred.Label,
		Confidence:  pred.Confidence,
		Explanation: statisticalExplanation(pred, detected),
	}
	return res
}

// overridePredicate evaluates the fixed predicate table over the signal
// set: urgency combined with a sensitive-data request, or a suspicious link
// on its own. The weaker link-present signal never triggers an override.
func overridePredicate(detected []models.DetectedSignal) (string, bool) {
	present := make(map[string]bool, len(detected))
	for _, sig := range detected {
		present[sig.Name] = true
	}

	if present[signals.NameUrgency] && present[signals.NameSensitiveData] {
		return ReasonUrgentSensitive, true
	}
	if present[signals.NameSuspiciousLink] {
		return ReasonSuspiciousLink, true
	}
	return "", false
}

func overrideExplanation(reason string, mlConfidence float64) string {
	var cause string
	switch reason {
	case ReasonUrgentSensitive:
		cause = "it combines pressure to act immediately with a request for sensitive data"
	case ReasonSuspiciousLink:
		cause = "it contains a suspicious link"
	}
	return fmt.Sprintf(
		"This message was flagged as fraudulent by a heuristic override: %s. "+
			"The statistical model had classified it as legitimate (confidence %.0f%%), "+
			"but heuristic evidence of this kind takes precedence. "+
			"Do not click links or share personal data.",
		cause, mlConfidence*100)
}

func statisticalExplanation(pred classifier.Prediction, detected []models.DetectedSignal) string {
	if pred.Label == models.LabelFraudulent {
		explanation := "This message was classified as fraudulent. " +
			"Be extremely cautious: do not click links, do not share personal data, " +
			"and contact the supposed institution through its official channels."
		if pred.Confidence < lowConfidenceThreshold {
			explanation += " Note: the model's confidence in this classification is low; " +
				"weigh the detected signals as well."
		}
		return explanation
	}

	explanation := "This message was classified as legitimate. " +
		"Still, stay careful with unexpected messages and confirm directly " +
		"with the institution if in doubt."
	if len(detected) > 0 {
		explanation += " Warning: although the model considers it legitimate, " +
			"patterns common in scams were detected. Proceed with caution."
	}
	return explanation
}
