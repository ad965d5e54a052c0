package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"fetalhealth/pkg/config"
	"fetalhealth/pkg/data"
	"fetalhealth/pkg/loader"
	"fetalhealth/pkg/model"
	"fetalhealth/pkg/report"
	"fetalhealth/pkg/stats"
)

// Stage names one step of a run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageSplit    Stage = "split"
	StageScale    Stage = "scale"
	StageTrain    Stage = "train"
	StageEvaluate Stage = "evaluate"
	StageRender   Stage = "render"
)

// StageError reports which stage aborted the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

var _ model.Transformer = (*stats.StandardScaler)(nil)

// Result holds everything a run produced.
type Result struct {
	RunID       string
	Dataset     *data.Dataset
	Split       loader.Split
	Scaler      *stats.StandardScaler
	Forest      *model.RandomForest
	TestLabels  []int
	Predictions []int
	Confidence  float64
	Report      model.ClassificationReport
	Ranking     []model.FeatureImportance
	Artifacts   []string
}

// Run executes load, split, scale, train, evaluate and render in order and
// stops at the first failure. Images and the console summary are only written
// once every stage before them succeeded.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) (*Result, error) {
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	log.WithGroup(string(StageLoad)).Info("reading dataset", "path", cfg.Input)
	ds, err := data.LoadCSV(cfg.Input, Schema(cfg.LabelColumn))
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}

	res, err := Evaluate(ctx, cfg, ds, log)
	if err != nil {
		return nil, err
	}
	res.RunID = runID

	rlog := log.WithGroup(string(StageRender))
	artifacts, err := renderArtifacts(cfg, ds, res)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	paths, err := report.WriteArtifacts(cfg.Output.Dir, artifacts)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	res.Artifacts = paths
	rlog.Info("images written", "files", paths)

	rows, cols := ds.Shape()
	summary := report.Summary{
		Rows:        rows,
		Cols:        cols,
		Classes:     ds.Classes,
		ClassCounts: ds.ClassCounts(),
		Missing:     ds.Missing(),
		TrainRows:   len(res.Split.Train),
		TestRows:    len(res.Split.Test),
		Report:      res.Report,
		Top:         res.Ranking,
		Artifacts:   names,
	}
	if err := report.WriteSummary(out, summary); err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}
	return res, nil
}

// Evaluate runs every in-memory stage on an already loaded dataset: split,
// scale, train, predict and score.
func Evaluate(ctx context.Context, cfg *config.Config, ds *data.Dataset, log *slog.Logger) (*Result, error) {
	res := &Result{Dataset: ds}

	split, err := loader.StratifiedSplit(ds.Y, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, &StageError{Stage: StageSplit, Err: err}
	}
	res.Split = split
	train, test := ds.Subset(split.Train), ds.Subset(split.Test)
	log.WithGroup(string(StageSplit)).Info("stratified split", "train", len(split.Train), "test", len(split.Test))

	scaleLog := log.WithGroup(string(StageScale))
	scaler := stats.NewStandardScaler()
	trainX, err := scaler.FitTransform(train.X)
	if err != nil {
		return nil, &StageError{Stage: StageScale, Err: err}
	}
	testX, err := scaler.Transform(test.X)
	if err != nil {
		return nil, &StageError{Stage: StageScale, Err: err}
	}
	if derr := scaler.DegenerateError(ds.FeatureNames); derr != nil {
		scaleLog.Warn("columns left unscaled", "reason", derr)
	}
	res.Scaler = scaler

	tlog := log.WithGroup(string(StageTrain))
	forest := NewForest(cfg)
	tlog.Info("training random forest",
		"trees", forest.NEstimators,
		"max_depth", forest.MaxDepth,
		"criterion", forest.Criterion,
	)
	if err := forest.FitContext(ctx, trainX, train.Y); err != nil {
		return nil, &StageError{Stage: StageTrain, Err: err}
	}
	res.Forest = forest

	res.TestLabels = test.Y
	res.Predictions = forest.Predict(testX)
	res.Confidence = model.MeanConfidence(forest.PredictProba(testX))
	codes := make([]int, len(ds.Classes))
	for i, c := range ds.Classes {
		codes[i] = c.Code
	}
	res.Report = model.NewClassificationReport(test.Y, res.Predictions, codes)
	res.Ranking = model.RankFeatures(ds.FeatureNames, forest.FeatureImportances(), cfg.Output.TopFeatures)
	log.WithGroup(string(StageEvaluate)).Info("test set scored",
		"accuracy", fmt.Sprintf("%.4f", res.Report.Accuracy),
		"mean_confidence", fmt.Sprintf("%.4f", res.Confidence),
	)
	return res, nil
}

// NewForest builds an unfitted forest from the config hyperparameters.
func NewForest(cfg *config.Config) *model.RandomForest {
	return model.NewRandomForest(
		model.WithNEstimators(cfg.Forest.Trees),
		model.WithForestMaxDepth(cfg.TreeDepth()),
		model.WithForestMaxFeatures(cfg.Forest.MaxFeatures),
		model.WithForestMinSamplesSplit(cfg.Forest.MinSamplesSplit),
		model.WithForestMinSamplesLeaf(cfg.Forest.MinSamplesLeaf),
		model.WithForestCriterion(cfg.Forest.Criterion),
		model.WithBootstrap(cfg.UseBootstrap()),
		model.WithSeed(cfg.Seed),
		model.WithNJobs(cfg.Forest.Jobs),
	)
}

// renderArtifacts encodes both charts in memory so a failure leaves no files.
func renderArtifacts(cfg *config.Config, ds *data.Dataset, res *Result) ([]report.Artifact, error) {
	names := make([]string, len(ds.Classes))
	for i, c := range ds.Classes {
		names[i] = c.Name
	}
	heat, err := report.ConfusionHeatmap(res.Report.Confusion, names)
	if err != nil {
		return nil, err
	}
	bars, err := report.ImportanceChart(res.Ranking)
	if err != nil {
		return nil, err
	}

	o := cfg.Output
	heatPNG, err := report.Render(heat, o.Width, o.Height, o.DPI)
	if err != nil {
		return nil, err
	}
	// the importance chart gets extra width for long feature names
	barsPNG, err := report.Render(bars, o.Width*1.25, o.Height, o.DPI)
	if err != nil {
		return nil, err
	}
	return []report.Artifact{
		{Name: o.ConfusionMatrix, Data: heatPNG},
		{Name: o.FeatureImportance, Data: barsPNG},
	}, nil
}
