package model

import "math/rand"

// blobs returns nPerClass rows for each class in classes. Only the first
// informative features carry signal, the rest is noise.
func blobs(seed int64, nPerClass, features, informative int, classes []int) ([][]float64, []int) {
	rnd := rand.New(rand.NewSource(seed))
	var X [][]float64
	var y []int
	for k, c := range classes {
		for i := 0; i < nPerClass; i++ {
			row := make([]float64, features)
			for j := range row {
				row[j] = rnd.NormFloat64()
				if j < informative {
					row[j] += float64(k) * 4
				}
			}
			X = append(X, row)
			y = append(y, c)
		}
	}
	return X, y
}
