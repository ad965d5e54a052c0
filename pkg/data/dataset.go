package data

import "math"

// Dataset is an in-memory labeled table: one feature row and one class code
// per sample.
type Dataset struct {
	FeatureNames []string
	LabelName    string
	Classes      []Class

	X [][]float64
	Y []int
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.X) }

// Shape returns the number of rows and columns, the label column included.
func (d *Dataset) Shape() (rows, cols int) {
	return len(d.X), len(d.FeatureNames) + 1
}

// ClassCounts returns the number of rows per class, in class order.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, len(d.Classes))
	for _, y := range d.Y {
		for i, c := range d.Classes {
			if c.Code == y {
				counts[i]++
				break
			}
		}
	}
	return counts
}

// Missing counts NaN feature cells.
func (d *Dataset) Missing() int {
	n := 0
	for _, row := range d.X {
		for _, v := range row {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}

// Subset returns a dataset holding the rows at idx, in that order.
// Feature rows are shared with the receiver, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		FeatureNames: d.FeatureNames,
		LabelName:    d.LabelName,
		Classes:      d.Classes,
		X:            make([][]float64, len(idx)),
		Y:            make([]int, len(idx)),
	}
	for i, j := range idx {
		out.X[i] = d.X[j]
		out.Y[i] = d.Y[j]
	}
	return out
}
