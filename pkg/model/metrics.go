package model

import "gonum.org/v1/gonum/floats"

// Accuracy returns the fraction of exact matches between yTrue and yPred.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// MeanConfidence averages the highest class probability of every row.
func MeanConfidence(proba [][]float64) float64 {
	if len(proba) == 0 {
		return 0
	}
	sum := 0.0
	for _, row := range proba {
		if len(row) > 0 {
			sum += floats.Max(row)
		}
	}
	return sum / float64(len(proba))
}

// ConfusionMatrix counts (true, predicted) pairs. Rows are true classes and
// columns predicted classes, both in the order of classes. Labels outside
// classes are ignored.
func ConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	cm := make([][]int, len(classes))
	for i := range cm {
		cm[i] = make([]int, len(classes))
	}
	for i := range yTrue {
		r, okT := pos[yTrue[i]]
		c, okP := pos[yPred[i]]
		if okT && okP {
			cm[r][c]++
		}
	}
	return cm
}

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Class     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ClassificationReport is the per-class breakdown of a prediction vector.
type ClassificationReport struct {
	Accuracy    float64
	Classes     []ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Confusion   [][]int
	Total       int
}

// NewClassificationReport derives every metric from the confusion matrix.
// A ratio whose denominator is zero is reported as 0.
func NewClassificationReport(yTrue, yPred []int, classes []int) ClassificationReport {
	cm := ConfusionMatrix(yTrue, yPred, classes)
	rep := ClassificationReport{
		Accuracy:  Accuracy(yTrue, yPred),
		Classes:   make([]ClassMetrics, len(classes)),
		Confusion: cm,
		Total:     len(yTrue),
	}

	totalSupport := 0
	for k, c := range classes {
		tp, fp, fn := cm[k][k], 0, 0
		for j := range classes {
			if j == k {
				continue
			}
			fp += cm[j][k]
			fn += cm[k][j]
		}
		m := ClassMetrics{Class: c, Support: tp + fn}
		m.Precision, m.Recall, m.F1 = precisionRecallF1(tp, fp, fn)
		rep.Classes[k] = m
		totalSupport += m.Support
	}

	if len(classes) > 0 {
		n := float64(len(classes))
		for _, m := range rep.Classes {
			rep.MacroAvg.Precision += m.Precision / n
			rep.MacroAvg.Recall += m.Recall / n
			rep.MacroAvg.F1 += m.F1 / n
			if totalSupport > 0 {
				w := float64(m.Support) / float64(totalSupport)
				rep.WeightedAvg.Precision += m.Precision * w
				rep.WeightedAvg.Recall += m.Recall * w
				rep.WeightedAvg.F1 += m.F1 * w
			}
		}
	}
	rep.MacroAvg.Support = totalSupport
	rep.WeightedAvg.Support = totalSupport
	return rep
}

func precisionRecallF1(tp, fp, fn int) (prec, rec, f1 float64) {
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}
