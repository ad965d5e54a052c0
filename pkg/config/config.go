package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"fetalhealth/pkg/model"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultInput             = "fetal_health.csv"
	DefaultLabelColumn       = "fetal_health"
	DefaultTestFraction      = 0.2
	DefaultSeed              = 42
	DefaultTrees             = 100
	DefaultMaxDepth          = 20
	DefaultConfusionMatrix   = "confusion_matrix.png"
	DefaultFeatureImportance = "feature_importance.png"
	DefaultTopFeatures       = 10
	DefaultDPI               = 300
)

// ErrInvalidConfig is returned when a loaded or overridden config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every tunable of a pipeline run. Fields map 1:1 to the YAML keys.
type Config struct {
	// Input is the path of the CSV dataset.
	Input string `yaml:"input"`

	// LabelColumn is the header name of the class column.
	LabelColumn string `yaml:"label_column"`

	// TestFraction is the share of rows held out for evaluation.
	TestFraction float64 `yaml:"test_fraction"`

	// Seed drives the split and the forest.
	Seed int64 `yaml:"seed"`

	Forest ForestConfig `yaml:"forest"`
	Output OutputConfig `yaml:"output"`
}

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	Trees           int    `yaml:"trees"`
	MaxDepth        *int   `yaml:"max_depth"`    // 0 => no limit
	MaxFeatures     int    `yaml:"max_features"` // 0 => sqrt of the feature count
	MinSamplesSplit int    `yaml:"min_samples_split"`
	MinSamplesLeaf  int    `yaml:"min_samples_leaf"`
	Criterion       string `yaml:"criterion"` // gini | entropy
	Bootstrap       *bool  `yaml:"bootstrap"`
	Jobs            int    `yaml:"jobs"` // 0 => GOMAXPROCS
}

// OutputConfig controls the rendered artifacts.
type OutputConfig struct {
	Dir               string  `yaml:"dir"`
	ConfusionMatrix   string  `yaml:"confusion_matrix"`
	FeatureImportance string  `yaml:"feature_importance"`
	TopFeatures       int     `yaml:"top_features"`
	Width             float64 `yaml:"width"`  // inches
	Height            float64 `yaml:"height"` // inches
	DPI               int     `yaml:"dpi"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads the YAML file at path and applies defaults for absent fields.
// It does not validate; call Validate after flag overrides.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "parse %s: %v", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// UseBootstrap reports whether trees are fitted on bootstrap samples.
func (c *Config) UseBootstrap() bool {
	return c.Forest.Bootstrap == nil || *c.Forest.Bootstrap
}

// TreeDepth returns the maximum tree depth; an explicit 0 means unlimited.
func (c *Config) TreeDepth() int {
	if c.Forest.MaxDepth == nil {
		return DefaultMaxDepth
	}
	return *c.Forest.MaxDepth
}

func (c *Config) applyDefaults() {
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.LabelColumn == "" {
		c.LabelColumn = DefaultLabelColumn
	}
	if c.TestFraction == 0 {
		c.TestFraction = DefaultTestFraction
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.Forest.Trees == 0 {
		c.Forest.Trees = DefaultTrees
	}
	if c.Forest.MaxDepth == nil {
		depth := DefaultMaxDepth
		c.Forest.MaxDepth = &depth
	}
	if c.Forest.MinSamplesSplit == 0 {
		c.Forest.MinSamplesSplit = 2
	}
	if c.Forest.MinSamplesLeaf == 0 {
		c.Forest.MinSamplesLeaf = 1
	}
	if c.Forest.Criterion == "" {
		c.Forest.Criterion = model.CriterionGini
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Output.ConfusionMatrix == "" {
		c.Output.ConfusionMatrix = DefaultConfusionMatrix
	}
	if c.Output.FeatureImportance == "" {
		c.Output.FeatureImportance = DefaultFeatureImportance
	}
	if c.Output.TopFeatures == 0 {
		c.Output.TopFeatures = DefaultTopFeatures
	}
	if c.Output.Width == 0 {
		c.Output.Width = 8
	}
	if c.Output.Height == 0 {
		c.Output.Height = 6
	}
	if c.Output.DPI == 0 {
		c.Output.DPI = DefaultDPI
	}
}

// Validate checks ranges and enums.
func (c *Config) Validate() error {
	switch {
	case c.Input == "":
		return errors.Wrap(ErrInvalidConfig, "input is required")
	case c.LabelColumn == "":
		return errors.Wrap(ErrInvalidConfig, "label_column is required")
	case c.TestFraction <= 0 || c.TestFraction >= 1:
		return errors.Wrapf(ErrInvalidConfig, "test_fraction %v outside (0, 1)", c.TestFraction)
	case c.Forest.Trees < 1:
		return errors.Wrapf(ErrInvalidConfig, "forest.trees %d < 1", c.Forest.Trees)
	case c.TreeDepth() < 0:
		return errors.Wrapf(ErrInvalidConfig, "forest.max_depth %d < 0", c.TreeDepth())
	case c.Forest.MaxFeatures < 0:
		return errors.Wrapf(ErrInvalidConfig, "forest.max_features %d < 0", c.Forest.MaxFeatures)
	case c.Forest.Criterion != model.CriterionGini && c.Forest.Criterion != model.CriterionEntropy:
		return errors.Wrapf(ErrInvalidConfig, "forest.criterion %q not one of gini|entropy", c.Forest.Criterion)
	case c.Forest.Jobs < 0:
		return errors.Wrapf(ErrInvalidConfig, "forest.jobs %d < 0", c.Forest.Jobs)
	case c.Output.TopFeatures < 1:
		return errors.Wrapf(ErrInvalidConfig, "output.top_features %d < 1", c.Output.TopFeatures)
	case c.Output.Width <= 0 || c.Output.Height <= 0:
		return errors.Wrap(ErrInvalidConfig, "output width and height must be positive")
	case c.Output.DPI < 1:
		return errors.Wrapf(ErrInvalidConfig, "output.dpi %d < 1", c.Output.DPI)
	}
	return nil
}
