package textclf

import "math"

// NaiveBayes is a complement naive Bayes classifier over TF-IDF features.
// It tends to behave better than the multinomial variant on imbalanced
// corpora, which short-message fraud data almost always is.
type NaiveBayes struct {
	Alpha          float64
	NumFeatures    int
	FeatureWeights [numClasses][]float64
}

const numClasses = 2

// TrainNaiveBayes fits a complement naive Bayes model. Labels must be 0 or 1.
func TrainNaiveBayes(x []Vector, y []int, numFeatures int, alpha float64) *NaiveBayes {
	if alpha <= 0 {
		alpha = 1.0
	}
	nb := &NaiveBayes{Alpha: alpha, NumFeatures: numFeatures}

	var classTotals [numClasses][]float64
	for c := 0; c < numClasses; c++ {
		classTotals[c] = make([]float64, numFeatures)
	}
	for i, vec := range x {
		c := y[i]
		for j, idx := range vec.Indices {
			classTotals[c][idx] += vec.Values[j]
		}
	}

	// Each class is weighted by the feature mass of its complement: terms
	// rare outside a class become strong evidence for it.
	for c := 0; c < numClasses; c++ {
		comp := make([]float64, numFeatures)
		var compSum float64
		for i := 0; i < numFeatures; i++ {
			for other := 0; other < numClasses; other++ {
				if other != c {
					comp[i] += classTotals[other][i]
				}
			}
			comp[i] += alpha
			compSum += comp[i]
		}
		weights := make([]float64, numFeatures)
		for i := 0; i < numFeatures; i++ {
			weights[i] = -math.Log(comp[i] / compSum)
		}
		nb.FeatureWeights[c] = weights
	}
	return nb
}

// PredictProba returns the probability per class, index = label value.
func (nb *NaiveBayes) PredictProba(x Vector) []float64 {
	scores := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		var s float64
		for j, idx := range x.Indices {
			if idx < nb.NumFeatures {
				s += x.Values[j] * nb.FeatureWeights[c][idx]
			}
		}
		scores[c] = s
	}
	return softmax(scores)
}

func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
