package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smishguard/internal/models"
	"smishguard/internal/repository"
	"smishguard/internal/textclf"
)

var (
	// ErrNoTrainingData means the immutable bootstrap corpus is empty.
	ErrNoTrainingData = errors.New("no original training data available")

	// ErrInsufficientClassBalance means one of the two classes has no
	// examples, so a stratified split is impossible.
	ErrInsufficientClassBalance = errors.New("training corpus is missing one of the classes")

	// ErrRetrainInProgress means another retraining run holds the pipeline.
	ErrRetrainInProgress = errors.New("a retraining run is already in progress")
)

// Config holds the training hyper-parameters.
type Config struct {
	FeatureCap      int
	HoldoutFraction float64
	ForestTrees     int
	Seed            int64
}

// DefaultConfig mirrors the corpus-proven defaults: 5000 TF-IDF features,
// 20% held out for scoring, 100 trees, fixed seed.
func DefaultConfig() Config {
	return Config{FeatureCap: 5000, HoldoutFraction: 0.2, ForestTrees: 100, Seed: 42}
}

// FamilyReport is the published outcome for one classifier family.
type FamilyReport struct {
	Family       models.ModelFamily `json:"family"`
	GenerationID uuid.UUID          `json:"generation_id"`
	F1Score      float64            `json:"f1_score"`
	Precision    float64            `json:"precision"`
	Recall       float64            `json:"recall"`
	Accuracy     float64            `json:"accuracy"`
}

// Summary is returned to the retraining trigger on success.
type Summary struct {
	TrainingSetSize int            `json:"training_set_size"`
	FeedbackCount   int            `json:"feedback_count"`
	TrainSplitSize  int            `json:"train_split_size"`
	TestSplitSize   int            `json:"test_split_size"`
	Families        []FamilyReport `json:"families"`
	Duration        time.Duration  `json:"-"`
}

// Pipeline turns the accumulated corpus into fresh classifier generations
// for both families and publishes them atomically through the registry.
// Runs are serialized: an overlapping trigger is rejected rather than
// queued, and a failed run leaves the previous generations in service.
type Pipeline struct {
	training repository.TrainingRecordRepository
	feedback repository.FeedbackRepository
	registry repository.ModelRegistry
	logger   *zap.Logger
	cfg      Config
	running  atomic.Bool
}

// New creates a pipeline over the given stores.
func New(
	training repository.TrainingRecordRepository,
	feedback repository.FeedbackRepository,
	registry repository.ModelRegistry,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.FeatureCap <= 0 {
		cfg = DefaultConfig()
	}
	return &Pipeline{
		training: training,
		feedback: feedback,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}
}

// DeriveTrainingRecord folds one negative feedback record into a training
// record: the served verdict was wrong, so the derived label is its logical
// complement.
func DeriveTrainingRecord(fb models.FeedbackRecord) models.TrainingRecord {
	return models.TrainingRecord{
		Text:   fb.Message,
		Label:  fb.OriginalVerdict.Invert(),
		Origin: models.OriginFeedback,
	}
}

// Run executes one full retraining pass. It snapshots the corpus and the
// feedback log once at the start; records appended mid-run are picked up by
// the next run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrRetrainInProgress
	}
	defer p.running.Store(false)

	started := time.Now()
	p.logger.Info("Starting continual-learning pipeline run")

	original, err := p.training.ListByOrigin(ctx, models.OriginOriginal)
	if err != nil {
		return nil, fmt.Errorf("failed to load original corpus: %w", err)
	}
	if len(original) == 0 {
		return nil, ErrNoTrainingData
	}

	notUseful, err := p.feedback.ListNotUseful(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback: %w", err)
	}

	records := make([]models.TrainingRecord, 0, len(original)+len(notUseful))
	records = append(records, original...)
	for _, fb := range notUseful {
		records = append(records, DeriveTrainingRecord(fb))
	}

	// Case folding only. Anything more aggressive would diverge from the
	// raw-text analysis the signal extractor performs on the serving path.
	texts := make([]string, len(records))
	labels := make([]models.Label, len(records))
	for i, rec := range records {
		texts[i] = strings.ToLower(rec.Text)
		labels[i] = rec.Label
	}

	trainIdx, testIdx, err := stratifiedSplit(labels, p.cfg.HoldoutFraction, p.cfg.Seed)
	if err != nil {
		return nil, err
	}

	trainTexts := make([]string, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainTexts[i] = texts[idx]
		trainY[i] = int(labels[idx])
	}
	testTexts := make([]string, len(testIdx))
	testLabels := make([]models.Label, len(testIdx))
	for i, idx := range testIdx {
		testTexts[i] = texts[idx]
		testLabels[i] = labels[idx]
	}

	// The vectorizer is fit on the training split only and shared by both
	// families of this generation.
	vectorizer := textclf.NewVectorizer(p.cfg.FeatureCap)
	vectorizer.Fit(trainTexts)
	trainX := vectorizer.TransformAll(trainTexts)

	numFeatures := vectorizer.NumFeatures()
	nb := textclf.TrainNaiveBayes(trainX, trainY, numFeatures, 1.0)
	forestCfg := textclf.ForestConfig{
		Trees:           p.cfg.ForestTrees,
		MaxDepth:        32,
		MinSamplesSplit: 2,
		Seed:            p.cfg.Seed,
	}
	forest := textclf.TrainRandomForest(trainX, trainY, numFeatures, forestCfg)

	artifacts := make([]*models.ModelArtifact, 0, models.NumFamilies)
	reports := make([]FamilyReport, 0, models.NumFamilies)
	for _, fam := range models.AllFamilies() {
		var model textclf.Model
		if fam == models.FamilyNaiveBayes {
			model = nb
		} else {
			model = forest
		}

		bundle := &textclf.Bundle{Vectorizer: vectorizer, Model: model}
		eval := evaluateBundle(bundle, testTexts, testLabels)

		raw, err := textclf.EncodeBundle(bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s bundle: %w", fam, err)
		}

		art := &models.ModelArtifact{
			GenerationID:         uuid.New(),
			Family:               fam,
			F1Score:              eval.F1,
			Precision:            eval.Precision,
			Recall:               eval.Recall,
			Accuracy:             eval.Accuracy,
			TrainingSetSize:      len(records),
			FeedbackCount:        len(notUseful),
			VectorizerFeatureCap: p.cfg.FeatureCap,
			Bundle:               raw,
		}
		artifacts = append(artifacts, art)
		reports = append(reports, FamilyReport{
			Family:       fam,
			GenerationID: art.GenerationID,
			F1Score:      eval.F1,
			Precision:    eval.Precision,
			Recall:       eval.Recall,
			Accuracy:     eval.Accuracy,
		})

		p.logger.Info("Trained classifier family",
			zap.String("family", fam.String()),
			zap.Float64("f1_score", eval.F1),
			zap.Float64("accuracy", eval.Accuracy))
	}

	// Both families publish in one registry transaction, or neither does.
	if err := p.registry.Publish(ctx, artifacts); err != nil {
		return nil, fmt.Errorf("failed to publish generations: %w", err)
	}

	summary := &Summary{
		TrainingSetSize: len(records),
		FeedbackCount:   len(notUseful),
		TrainSplitSize:  len(trainIdx),
		TestSplitSize:   len(testIdx),
		Families:        reports,
		Duration:        time.Since(started),
	}
	p.logger.Info("Pipeline run finished",
		zap.Int("training_set_size", summary.TrainingSetSize),
		zap.Int("feedback_count", summary.FeedbackCount),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

func evaluateBundle(bundle *textclf.Bundle, testTexts []string, testLabels []models.Label) Evaluation {
	predicted := make([]models.Label, len(testTexts))
	for i, text := range testTexts {
		label, _ := bundle.Predict(text)
		predicted[i] = models.Label(label)
	}
	return Evaluate(testLabels, predicted)
}

// stratifiedSplit partitions indices into train and held-out sets while
// preserving the class ratio. Both classes must be present.
func stratifiedSplit(labels []models.Label, holdout float64, seed int64) (trainIdx, testIdx []int, err error) {
	byClass := make(map[models.Label][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	if len(byClass[models.LabelLegitimate]) == 0 || len(byClass[models.LabelFraudulent]) == 0 {
		return nil, nil, ErrInsufficientClassBalance
	}

	rng := rand.New(rand.NewSource(seed))
	for _, label := range []models.Label{models.LabelLegitimate, models.LabelFraudulent} {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		n := len(indices)
		held := int(float64(n)*holdout + 0.5)
		if n >= 2 && held == 0 {
			held = 1
		}
		if held >= n {
			held = n - 1
		}
		testIdx = append(testIdx, indices[:held]...)
		trainIdx = append(trainIdx, indices[held:]...)
	}
	return trainIdx, testIdx, nil
}
