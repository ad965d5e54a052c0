package stats

import (
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned by Transform on a scaler that was never fitted.
	ErrNotFitted = errors.New("scaler not fitted")

	// ErrDegenerateFeature marks a zero-variance column. Such columns are
	// passed through unchanged instead of being divided by zero.
	ErrDegenerateFeature = errors.New("degenerate feature")
)

// StandardScaler standardizes each column to zero mean and unit variance
// using statistics learned from the data passed to Fit.
type StandardScaler struct {
	Mean []float64
	Std  []float64

	degenerate []int
	fit        bool
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit computes per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("scaler: empty X")
	}
	r, c := len(X), len(X[0])
	for i := range X {
		if len(X[i]) != c {
			return errors.Errorf("scaler: row %d has %d columns, want %d", i, len(X[i]), c)
		}
	}

	mean := make([]float64, c)
	std := make([]float64, c)
	var degenerate []int
	col := make([]float64, r)
	for j := range c {
		for i := range r {
			col[i] = X[i][j]
		}
		if floats.Min(col) == floats.Max(col) {
			mean[j], std[j] = 0, 1
			degenerate = append(degenerate, j)
			continue
		}
		mean[j], std[j] = stat.PopMeanStdDev(col, nil)
	}

	s.Mean, s.Std, s.degenerate = mean, std, degenerate
	s.fit = true
	return nil
}

// Transform returns a standardized copy of X. Fitted state is not modified.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.fit {
		return nil, ErrNotFitted
	}
	c := len(s.Mean)
	Y := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != c {
			return nil, errors.Errorf("scaler: row %d has %d columns, fitted on %d", i, len(X[i]), c)
		}
		row := make([]float64, c)
		for j := 0; j < c; j++ {
			row[j] = (X[i][j] - s.Mean[j]) / s.Std[j]
		}
		Y[i] = row
	}
	return Y, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// Degenerate returns the indices of zero-variance columns seen by Fit.
func (s *StandardScaler) Degenerate() []int {
	return append([]int(nil), s.degenerate...)
}

// DegenerateError describes the degenerate columns of a fitted scaler as an
// error wrapping ErrDegenerateFeature, or nil when every column varies.
func (s *StandardScaler) DegenerateError(names []string) error {
	if len(s.degenerate) == 0 {
		return nil
	}
	cols := make([]string, len(s.degenerate))
	for i, j := range s.degenerate {
		if j < len(names) {
			cols[i] = names[j]
		} else {
			cols[i] = "#" + strconv.Itoa(j)
		}
	}
	return errors.Wrapf(ErrDegenerateFeature, "zero variance in %v", cols)
}
