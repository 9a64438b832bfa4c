package textclf

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Model is the black-box contract both classifier families expose.
type Model interface {
	// PredictProba returns one probability per class, indexed by label value.
	PredictProba(x Vector) []float64
}

func init() {
	gob.Register(&NaiveBayes{})
	gob.Register(&RandomForest{})
}

// Bundle pairs a fitted vectorizer with the classifier trained on its
// output. The two always travel together so a serving request can never mix
// a vectorizer and classifier from different generations.
type Bundle struct {
	Vectorizer *Vectorizer
	Model      Model
}

// Predict vectorizes the text with the bundled vectorizer and returns the
// predicted label together with the probability mass of that label.
func (b *Bundle) Predict(text string) (label int, confidence float64) {
	probs := b.Model.PredictProba(b.Vectorizer.Transform(text))
	for c := range probs {
		if probs[c] > probs[label] {
			label = c
		}
	}
	return label, probs[label]
}

// EncodeBundle serializes a bundle for registry storage.
func EncodeBundle(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode model bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBundle restores a bundle previously produced by EncodeBundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode model bundle: %w", err)
	}
	if b.Vectorizer == nil || b.Model == nil {
		return nil, fmt.Errorf("decoded model bundle is incomplete")
	}
	return &b, nil
}
