package model

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => floor(sqrt(p))
	Criterion       string
	Bootstrap       bool
	RandomState     int64
	NJobs           int // 0 => GOMAXPROCS

	// Internal state
	Trees   []*DecisionTreeClassifier
	classes []int
	nFeat   int
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithSeed(seed int64) RandomForestOption   { return func(rf *RandomForest) { rf.RandomState = seed } }
func WithNJobs(n int) RandomForestOption       { return func(rf *RandomForest) { rf.NJobs = n } }
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesLeaf = n }
}
func WithForestCriterion(c string) RandomForestOption {
	return func(rf *RandomForest) { rf.Criterion = c }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Criterion:       CriterionGini,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the random forest.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	return rf.FitContext(context.Background(), X, y)
}

// FitContext trains NEstimators trees concurrently. Every tree gets its own
// seed, drawn up front from RandomState, so the fitted forest does not depend
// on goroutine scheduling. Cancelling ctx stops before the next tree starts.
func (rf *RandomForest) FitContext(ctx context.Context, X [][]float64, y []int) error {
	p, err := checkXY(X, y)
	if err != nil {
		return errors.Wrap(err, "randomforest")
	}
	if rf.NEstimators < 1 {
		return errors.Wrapf(ErrTraining, "randomforest: n estimators %d < 1", rf.NEstimators)
	}
	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}

	n := len(X)
	classes := uniqueSorted(y)

	seeder := rand.New(rand.NewSource(rf.RandomState))
	seeds := make([]int64, rf.NEstimators)
	for i := range seeds {
		seeds[i] = seeder.Int63()
	}

	trees := make([]*DecisionTreeClassifier, rf.NEstimators)
	for i := range trees {
		trees[i] = NewDecisionTreeClassifier(
			WithMaxDepth(rf.MaxDepth),
			WithMinSamplesSplit(rf.MinSamplesSplit),
			WithMinSamplesLeaf(rf.MinSamplesLeaf),
			WithMaxFeatures(maxFeatures),
			WithCriterion(rf.Criterion),
			WithRandomState(seeds[i]),
		)
		trees[i].classes = classes
		// reject bad hyperparameters before any worker starts
		if i == 0 {
			if err := trees[0].validate(p); err != nil {
				return errors.Wrap(err, "randomforest")
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rf.jobs())
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree := trees[i]

			// Bootstrap sampling: an index slice, not a copy of the data.
			// The sample draws come from the tree's own generator.
			sampleIndices := make([]int, n)
			treeRand := rand.New(rand.NewSource(tree.RandomState))
			for j := 0; j < n; j++ {
				if rf.Bootstrap {
					sampleIndices[j] = treeRand.Intn(n)
				} else {
					sampleIndices[j] = j
				}
			}
			// split-time feature sampling must not replay the bootstrap draws
			tree.RandomState = treeRand.Int63()

			if err := tree.fitIndices(X, y, sampleIndices, p); err != nil {
				return errors.Wrapf(err, "randomforest: tree %d", i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rf.Trees = trees
	rf.classes = classes
	rf.nFeat = p
	return nil
}

// Predict returns the plurality vote of all trees. Ties go to the lowest class.
func (rf *RandomForest) Predict(X [][]float64) []int {
	if len(rf.Trees) == 0 {
		return nil
	}
	allPreds := rf.treePredictions(X)

	finalPred := make([]int, len(X))
	counts := make([]int, len(rf.classes))
	for i := range X {
		clear(counts)
		for t := range allPreds {
			counts[classIndex(allPreds[t][i], rf.classes)]++
		}
		finalPred[i] = rf.classes[argmax(counts)]
	}
	return finalPred
}

// PredictProba averages the trees' leaf distributions, aligned with Classes.
func (rf *RandomForest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(rf.classes))
	}
	for _, t := range rf.Trees {
		for i, pr := range t.PredictProba(X) {
			floats.Add(out[i], pr)
		}
	}
	if len(rf.Trees) > 0 {
		for i := range out {
			floats.Scale(1/float64(len(rf.Trees)), out[i])
		}
	}
	return out
}

// Classes returns the sorted class labels seen during Fit.
func (rf *RandomForest) Classes() []int { return append([]int(nil), rf.classes...) }

// FeatureImportances returns the mean decrease in impurity per feature,
// averaged over the trees that split at least once and normalized to sum to 1.
func (rf *RandomForest) FeatureImportances() []float64 {
	out := make([]float64, rf.nFeat)
	used := 0
	for _, t := range rf.Trees {
		imp := t.FeatureImportances()
		if floats.Sum(imp) == 0 {
			continue
		}
		floats.Add(out, imp)
		used++
	}
	if used == 0 {
		return out
	}
	if s := floats.Sum(out); s > 0 {
		floats.Scale(1/s, out)
	}
	return out
}

// treePredictions fans out prediction over the trees; each worker fills only
// its own slot.
func (rf *RandomForest) treePredictions(X [][]float64) [][]int {
	allPreds := make([][]int, len(rf.Trees))
	var g errgroup.Group
	g.SetLimit(rf.jobs())
	for t, tree := range rf.Trees {
		g.Go(func() error {
			allPreds[t] = tree.Predict(X)
			return nil
		})
	}
	_ = g.Wait()
	return allPreds
}

func (rf *RandomForest) jobs() int {
	if rf.NJobs > 0 {
		return rf.NJobs
	}
	return runtime.GOMAXPROCS(0)
}
