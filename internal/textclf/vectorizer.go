package textclf

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vector is a sparse feature vector. Indices are sorted ascending.
type Vector struct {
	Indices []int
	Values  []float64
}

// At returns the value stored for feature i, or 0 when absent.
func (v Vector) At(i int) float64 {
	idx := sort.SearchInts(v.Indices, i)
	if idx < len(v.Indices) && v.Indices[idx] == i {
		return v.Values[idx]
	}
	return 0
}

// Vectorizer maps text to TF-IDF weighted sparse vectors. Fit learns the
// vocabulary and document frequencies; Transform applies them. A fitted
// vectorizer is immutable and safe for concurrent Transform calls.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
	FeatureCap int
}

// NewVectorizer returns an unfitted vectorizer with the given vocabulary
// size cap. A cap of zero means unbounded.
func NewVectorizer(featureCap int) *Vectorizer {
	return &Vectorizer{FeatureCap: featureCap}
}

// NumFeatures returns the size of the learned vocabulary.
func (v *Vectorizer) NumFeatures() int {
	return len(v.Vocabulary)
}

// Fit learns the vocabulary and inverse document frequencies from docs.
// When the vocabulary exceeds the feature cap, the most frequent terms are
// kept, ties broken alphabetically so fitting stays deterministic.
func (v *Vectorizer) Fit(docs []string) {
	termTotals := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		tokens := Tokenize(doc)
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			termTotals[tok]++
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(termTotals))
	for term := range termTotals {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termTotals[terms[i]] != termTotals[terms[j]] {
			return termTotals[terms[i]] > termTotals[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.FeatureCap > 0 && len(terms) > v.FeatureCap {
		terms = terms[:v.FeatureCap]
	}
	// Vocabulary indices are assigned alphabetically over the kept terms.
	sort.Strings(terms)

	n := len(docs)
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}
}

// Transform converts a document into an L2-normalized TF-IDF vector using
// the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]int)
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		values[i] = float64(counts[idx]) * v.IDF[idx]
		norm += values[i] * values[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= norm
		}
	}
	return Vector{Indices: indices, Values: values}
}

// TransformAll vectorizes a batch of documents.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// Tokenize lowercases the text and splits it into terms of two or more
// letters/digits. Anything else is a separator.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
