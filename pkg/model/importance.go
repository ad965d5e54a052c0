package model

import "sort"

// FeatureImportance pairs a feature name with its importance score.
type FeatureImportance struct {
	Name  string
	Score float64
}

// RankFeatures sorts features by score, highest first, and keeps the top k.
// Equal scores keep column order. k <= 0 keeps every feature.
func RankFeatures(names []string, scores []float64, k int) []FeatureImportance {
	n := min(len(names), len(scores))
	out := make([]FeatureImportance, n)
	for i := 0; i < n; i++ {
		out[i] = FeatureImportance{Name: names[i], Score: scores[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
