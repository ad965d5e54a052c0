package model

import "github.com/pkg/errors"

// ErrTraining is returned when a model cannot be fitted, e.g. on an invalid
// hyperparameter combination or malformed training data.
var ErrTraining = errors.New("training error")

// Split criteria understood by the tree builders.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// Classifier is a supervised model over integer class labels.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
}

// ProbaClassifier optionally exposes per-class probabilities, aligned with Classes.
type ProbaClassifier interface {
	Classifier
	PredictProba(X [][]float64) [][]float64
	Classes() []int
}

// Transformer is for preprocessing steps (fit on train, transform both).
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
	FitTransform(X [][]float64) ([][]float64, error)
}

// Importancer reports per-feature importance scores summing to 1.
type Importancer interface {
	FeatureImportances() []float64
}

var (
	_ ProbaClassifier = (*DecisionTreeClassifier)(nil)
	_ ProbaClassifier = (*RandomForest)(nil)
	_ Importancer     = (*DecisionTreeClassifier)(nil)
	_ Importancer     = (*RandomForest)(nil)
)
