package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Label is the binary classification outcome. The numeric values follow the
// training convention: 0 = legitimate, 1 = fraudulent.
type Label int

const (
	LabelLegitimate Label = 0
	LabelFraudulent Label = 1
)

func (l Label) String() string {
	if l == LabelFraudulent {
		return "fraudulent"
	}
	return "legitimate"
}

// Invert returns the logical complement of the label. Used when folding
// negative feedback into the training corpus.
func (l Label) Invert() Label {
	if l == LabelFraudulent {
		return LabelLegitimate
	}
	return LabelFraudulent
}

// ParseLabel converts a wire/storage representation into a Label.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "legitimate":
		return LabelLegitimate, nil
	case "fraudulent":
		return LabelFraudulent, nil
	default:
		return LabelLegitimate, fmt.Errorf("unknown label %q", s)
	}
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Label) Value() (driver.Value, error) {
	return int64(l), nil
}

func (l *Label) Scan(src interface{}) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("cannot scan %T into Label", src)
	}
	if v != 0 && v != 1 {
		return fmt.Errorf("label out of range: %d", v)
	}
	*l = Label(v)
	return nil
}

// ModelFamily identifies one of the two classifier algorithms. Keeping this
// a closed enum means an invalid family cannot travel past request parsing.
type ModelFamily int

const (
	FamilyNaiveBayes ModelFamily = iota
	FamilyRandomForest

	// NumFamilies is the number of classifier families served.
	NumFamilies = 2
)

func (f ModelFamily) String() string {
	if f == FamilyRandomForest {
		return "random_forest"
	}
	return "naive_bayes"
}

// Other returns the alternative family, used for serving fallback when the
// requested family has no active generation.
func (f ModelFamily) Other() ModelFamily {
	if f == FamilyRandomForest {
		return FamilyNaiveBayes
	}
	return FamilyRandomForest
}

// AllFamilies lists the families in a stable order.
func AllFamilies() []ModelFamily {
	return []ModelFamily{FamilyNaiveBayes, FamilyRandomForest}
}

// ParseFamily converts a wire/storage representation into a ModelFamily.
func ParseFamily(s string) (ModelFamily, error) {
	switch s {
	case "naive_bayes":
		return FamilyNaiveBayes, nil
	case "random_forest":
		return FamilyRandomForest, nil
	default:
		return FamilyNaiveBayes, fmt.Errorf("unknown model family %q", s)
	}
}

func (f ModelFamily) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *ModelFamily) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFamily(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f ModelFamily) Value() (driver.Value, error) {
	return f.String(), nil
}

func (f *ModelFamily) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into ModelFamily", src)
	}
	parsed, err := ParseFamily(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Origin records where a training record came from.
type Origin string

const (
	OriginOriginal Origin = "original"
	OriginFeedback Origin = "feedback"
)

// TrainingRecord is a single labeled example. Records are immutable once
// created and every retraining run consumes the full accumulated set.
type TrainingRecord struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Label     Label     `db:"label" json:"label"`
	Origin    Origin    `db:"origin" json:"origin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedbackRecord is an append-only user correction. WasUseful=false means
// the served verdict was wrong and its label must be inverted when the
// record is folded into training data.
type FeedbackRecord struct {
	ID              int64     `db:"id" json:"id"`
	Message         string    `db:"message" json:"message"`
	OriginalVerdict Label     `db:"original_verdict" json:"original_verdict"`
	WasUseful       bool      `db:"was_useful" json:"was_useful"`
	UserComment     *string   `db:"user_comment" json:"user_comment,omitempty"`
	ModelUsed       string    `db:"model_used" json:"model_used"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DetectedSignal is a heuristic fraud indicator found in a message. Signals
// are produced fresh per request and never persisted.
type DetectedSignal struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Confidence  float64 `json:"confidence"`
}

// Verdict is the final classification outcome for a message.
type Verdict struct {
	Label       Label   `json:"label"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// ModelArtifact is one trained, versioned generation of a classifier family.
// The Bundle bytes hold the serialized vectorizer+classifier pair; the two
// are never stored or swapped independently.
type ModelArtifact struct {
	ID                   int64       `db:"id" json:"id"`
	GenerationID         uuid.UUID   `db:"generation_id" json:"generation_id"`
	Family               ModelFamily `db:"family" json:"family"`
	F1Score              float64     `db:"f1_score" json:"f1_score"`
	Precision            float64     `db:"precision_score" json:"precision"`
	Recall               float64     `db:"recall_score" json:"recall"`
	Accuracy             float64     `db:"accuracy" json:"accuracy"`
	TrainingSetSize      int         `db:"training_set_size" json:"training_set_size"`
	FeedbackCount        int         `db:"feedback_count" json:"feedback_count"`
	VectorizerFeatureCap int         `db:"vectorizer_feature_cap" json:"vectorizer_feature_cap"`
	IsActive             bool        `db:"is_active" json:"is_active"`
	Bundle               []byte      `db:"bundle" json:"-"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
}

// DatasetStats summarizes the accumulated training corpus.
type DatasetStats struct {
	Total    int            `json:"total"`
	ByOrigin map[string]int `json:"by_origin"`
	ByLabel  map[string]int `json:"by_label"`
}
