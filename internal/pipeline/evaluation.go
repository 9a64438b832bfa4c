package pipeline

import "smishguard/internal/models"

// Evaluation holds held-out metrics for one trained classifier. The
// positive class is fraudulent. Every ratio treats division by zero as 0.0
// rather than an error, so a degenerate split (a class absent from the
// predictions) produces a well-defined score.
type Evaluation struct {
	F1        float64
	Precision float64
	Recall    float64
	Accuracy  float64
}

// Evaluate compares predictions against true labels.
func Evaluate(trueLabels, predicted []models.Label) Evaluation {
	var tp, fp, fn, correct int
	for i, truth := range trueLabels {
		pred := predicted[i]
		if pred == truth {
			correct++
		}
		switch {
		case pred == models.LabelFraudulent && truth == models.LabelFraudulent:
			tp++
		case pred == models.LabelFraudulent && truth == models.LabelLegitimate:
			fp++
		case pred == models.LabelLegitimate && truth == models.LabelFraudulent:
			fn++
		}
	}

	eval := Evaluation{
		Precision: safeRatio(float64(tp), float64(tp+fp)),
		Recall:    safeRatio(float64(tp), float64(tp+fn)),
		Accuracy:  safeRatio(float64(correct), float64(len(trueLabels))),
	}
	eval.F1 = safeRatio(2*eval.Precision*eval.Recall, eval.Precision+eval.Recall)
	return eval
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0.0
	}
	return num / den
}
