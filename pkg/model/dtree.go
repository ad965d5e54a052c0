package model

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => use all features, >0 => number of features to sample when looking for split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for randomness (feature subsampling)

	// internals
	root        *dtNode
	classes     []int     // sorted unique class labels (order used by probas)
	importances []float64 // raw weighted impurity decrease per feature
	depth       int
}

// dtNode holds a node in the tree.
type dtNode struct {
	// internal node fields
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	left      *dtNode
	right     *dtNode

	// leaf data
	n         int
	probas    []float64 // probability distribution across classes (aligned with tree.classes)
	predIndex int       // index into classes for predicted class (majority, lowest index on ties)
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MaxDepth:            0, // 0 => no explicit max (stopping by other criteria)
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		Criterion:           CriterionGini,
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API: Fit / FitIndices / Predict / PredictProba
// ---------------------------

// Fit trains the decision tree on X (n x p) and y (n labels as ints).
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.FitIndices(X, y, idx)
}

// FitIndices trains the tree on the rows of X selected by idx. Indices may
// repeat, which is how bootstrap samples are passed without copying rows.
func (t *DecisionTreeClassifier) FitIndices(X [][]float64, y []int, idx []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	t.classes = uniqueSorted(y)
	return t.fitIndices(X, y, idx, p)
}

// fitIndices expects t.classes to be set already. The forest sets it to the
// classes of the full training set so every tree's probas share one layout.
func (t *DecisionTreeClassifier) fitIndices(X [][]float64, y []int, idx []int, p int) error {
	if err := t.validate(p); err != nil {
		return err
	}
	if len(idx) == 0 {
		return errors.Wrap(ErrTraining, "dtree: empty sample")
	}
	for _, i := range idx {
		if i < 0 || i >= len(X) {
			return errors.Wrapf(ErrTraining, "dtree: sample index %d out of range", i)
		}
	}

	// class index per row, so the builders work with dense counts
	yIdx := make([]int, len(y))
	for i, lab := range y {
		yIdx[i] = classIndex(lab, t.classes)
	}

	rnd := rand.New(rand.NewSource(t.RandomState))
	impurity := giniFromCounts
	if t.Criterion == CriterionEntropy {
		impurity = entropyFromCounts
	}

	b := &builder{
		tree:     t,
		X:        X,
		y:        yIdx,
		p:        p,
		nClasses: len(t.classes),
		impurity: impurity,
		rnd:      rnd,
		imp:      make([]float64, p),
	}
	t.depth = 0
	t.root = b.buildNode(append([]int(nil), idx...), 0)
	t.importances = b.imp
	return nil
}

// Predict returns predicted class labels aligned with the labels the tree was trained on.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		out[i] = t.classes[t.leaf(X[i]).predIndex]
	}
	return out
}

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = append([]float64(nil), t.leaf(X[i]).probas...)
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (t *DecisionTreeClassifier) Classes() []int { return append([]int(nil), t.classes...) }

// Depth returns the depth of the deepest leaf (root only => 0).
func (t *DecisionTreeClassifier) Depth() int { return t.depth }

// FeatureImportances returns the impurity decrease attributed to each feature,
// normalized to sum to 1. A tree without splits reports all zeros.
func (t *DecisionTreeClassifier) FeatureImportances() []float64 {
	out := append([]float64(nil), t.importances...)
	if s := floats.Sum(out); s > 0 {
		floats.Scale(1/s, out)
	}
	return out
}

func (t *DecisionTreeClassifier) validate(p int) error {
	switch {
	case t.MaxDepth < 0:
		return errors.Wrapf(ErrTraining, "dtree: max depth %d < 0", t.MaxDepth)
	case t.MinSamplesSplit < 2:
		return errors.Wrapf(ErrTraining, "dtree: min samples split %d < 2", t.MinSamplesSplit)
	case t.MinSamplesLeaf < 1:
		return errors.Wrapf(ErrTraining, "dtree: min samples leaf %d < 1", t.MinSamplesLeaf)
	case t.MaxFeatures < 0 || t.MaxFeatures > p:
		return errors.Wrapf(ErrTraining, "dtree: max features %d outside [0, %d]", t.MaxFeatures, p)
	case t.MinImpurityDecrease < 0:
		return errors.Wrapf(ErrTraining, "dtree: min impurity decrease %v < 0", t.MinImpurityDecrease)
	case t.Criterion != CriterionGini && t.Criterion != CriterionEntropy:
		return errors.Wrapf(ErrTraining, "dtree: unknown criterion %q", t.Criterion)
	}
	return nil
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// builder carries the state of one Fit call.
type builder struct {
	tree     *DecisionTreeClassifier
	X        [][]float64
	y        []int
	p        int
	nClasses int
	impurity func([]int) float64
	rnd      *rand.Rand
	imp      []float64
}

// A struct to hold the results of a single feature's best split search.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

// pair is a named type for a feature value and the class index of its row.
type pair struct {
	v float64
	c int
}

func (b *builder) buildNode(idx []int, depth int) *dtNode {
	t := b.tree
	node := &dtNode{n: len(idx)}
	if depth > t.depth {
		t.depth = depth
	}

	// compute class counts
	counts := make([]int, b.nClasses)
	for _, ii := range idx {
		counts[b.y[ii]]++
	}
	leaf := func() *dtNode {
		node.isLeaf = true
		node.probas = countsToProbas(counts)
		node.predIndex = argmax(counts)
		return node
	}

	// make leaf if pure or too few samples or depth reached
	if isPure(counts) || len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf {
		return leaf()
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return leaf()
	}

	// determine features to try
	featIndices := make([]int, b.p)
	for j := 0; j < b.p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < b.p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := b.impurity(counts)
	best := splitResult{feature: -1}
	for _, f := range featIndices {
		r := b.findBestSplitForFeature(idx, f, parentImpurity)
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}

	// Decide whether to split
	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		return leaf()
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, ii := range idx {
		if b.X[ii][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, ii)
		} else {
			rightIdx = append(rightIdx, ii)
		}
	}

	b.imp[best.feature] += float64(len(idx)) * best.gain

	node.feature = best.feature
	node.threshold = best.threshold
	node.left = b.buildNode(leftIdx, depth+1)
	node.right = b.buildNode(rightIdx, depth+1)
	return node
}

// findBestSplitForFeature scans the sorted values of feature f once, moving
// samples from right to left and keeping class counts incrementally.
func (b *builder) findBestSplitForFeature(idx []int, f int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	minLeaf := b.tree.MinSamplesLeaf

	vals := make([]pair, len(idx))
	for k, ii := range idx {
		vals[k] = pair{b.X[ii][f], b.y[ii]}
	}
	sort.Slice(vals, func(a, c int) bool { return vals[a].v < vals[c].v })
	if vals[0].v == vals[len(vals)-1].v {
		return result
	}

	n := float64(len(vals))
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)
	for _, pv := range vals {
		right[pv.c]++
	}

	for s := 1; s < len(vals); s++ {
		left[vals[s-1].c]++
		right[vals[s-1].c]--

		// only split between distinct values
		if vals[s].v == vals[s-1].v {
			continue
		}
		if s < minLeaf || len(vals)-s < minLeaf {
			continue
		}

		weighted := (float64(s)/n)*b.impurity(left) + (float64(len(vals)-s)/n)*b.impurity(right)
		gain := parentImpurity - weighted
		if gain > result.gain {
			thr := (vals[s-1].v + vals[s].v) / 2.0
			if thr == vals[s].v {
				thr = vals[s-1].v
			}
			result = splitResult{gain: gain, feature: f, threshold: thr}
		}
	}
	return result
}

// ---------------------------
// Prediction helper
// ---------------------------

func (t *DecisionTreeClassifier) leaf(x []float64) *dtNode {
	node := t.root
	for !node.isLeaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

// argmax returns the first index holding the maximum count.
func argmax(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

// classIndex returns index of label in the sorted classes slice.
func classIndex(label int, classes []int) int {
	i := sort.SearchInts(classes, label)
	if i < len(classes) && classes[i] == label {
		return i
	}
	return 0
}

func uniqueSorted(y []int) []int {
	seen := map[int]struct{}{}
	out := make([]int, 0, 4)
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// checkXY validates shapes and returns the number of features.
func checkXY(X [][]float64, y []int) (int, error) {
	if len(X) == 0 {
		return 0, errors.Wrap(ErrTraining, "empty X")
	}
	if len(y) != len(X) {
		return 0, errors.Wrapf(ErrTraining, "X has %d rows, y has %d labels", len(X), len(y))
	}
	p := len(X[0])
	if p == 0 {
		return 0, errors.Wrap(ErrTraining, "X has no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return 0, errors.Wrapf(ErrTraining, "inconsistent number of features in row %d", i)
		}
	}
	return p, nil
}
