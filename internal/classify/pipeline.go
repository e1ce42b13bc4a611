package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/abstractlab/internal/paper"
	"go.uber.org/zap"
)

// ErrNoDocuments is returned when either side of the split is empty.
var ErrNoDocuments = errors.New("no documents to classify")

// Options configures a classification run.
type Options struct {
	K       int
	Span    int
	Metric  Metric
	TFIDF   bool
	Workers int
}

// Result holds the vectors, predictions and evaluation of a run.
type Result struct {
	Vectorizer  *Vectorizer
	TrainData   []Vector
	TrainLabels []string
	TestData    []Vector
	TestLabels  []string
	Predictions []string
	Evaluation  *Evaluation
}

// Texts joins the leading span tokens of each paper and collects the labels.
func Texts(papers []paper.Paper, span int) ([]string, []string) {
	texts := make([]string, len(papers))
	labels := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = paper.JoinLead(p, span)
		labels[i] = p.Classification
	}
	return texts, labels
}

// Run vectorizes train and test abstracts, fits a KNN on train, predicts
// test, and evaluates the predictions.
func Run(ctx context.Context, train, test []paper.Paper, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(train) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("%w: %d train, %d test", ErrNoDocuments, len(train), len(test))
	}

	trainTexts, trainLabels := Texts(train, opts.Span)
	testTexts, testLabels := Texts(test, opts.Span)

	logger.Info("vectorizing", zap.Int("train", len(trainTexts)), zap.Int("test", len(testTexts)))
	vec := NewVectorizer()
	trainData := vec.FitTransform(trainTexts)
	testData := vec.TransformAll(testTexts)

	if opts.TFIDF {
		logger.Info("computing tf-idf")
		tf := FitTFIDF(trainData, vec.Features())
		trainData = tf.TransformAll(trainData)
		testData = tf.TransformAll(testData)
	}

	knn, err := NewKNN(opts.K, opts.Metric)
	if err != nil {
		return nil, err
	}

	logger.Info("fitting", zap.Int("k", opts.K), zap.Stringer("metric", opts.Metric))
	if err := knn.Fit(trainData, trainLabels); err != nil {
		return nil, fmt.Errorf("fitting classifier: %w", err)
	}

	logger.Info("predicting", zap.Int("documents", len(testData)))
	pred, err := knn.PredictAll(ctx, testData, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}

	eval, err := Evaluate(testLabels, pred, MetricLabels)
	if err != nil {
		return nil, fmt.Errorf("dimensions error: %w", err)
	}

	return &Result{
		Vectorizer:  vec,
		TrainData:   trainData,
		TrainLabels: trainLabels,
		TestData:    testData,
		TestLabels:  testLabels,
		Predictions: pred,
		Evaluation:  eval,
	}, nil
}
