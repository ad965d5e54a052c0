package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"fetalhealth/pkg/config"
	"fetalhealth/pkg/data"
)

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	r := rand.New(rand.NewSource(1))
	var b strings.Builder
	for j := 1; j <= 21; j++ {
		fmt.Fprintf(&b, "f%d,", j)
	}
	b.WriteString("fetal_health\n")
	for i := 0; i < 90; i++ {
		label := i%3 + 1
		for j := 0; j < 21; j++ {
			v := r.NormFloat64()
			if j == 0 {
				v += 3 * float64(label)
			}
			b.WriteString(strconv.FormatFloat(v, 'f', 3, 64) + ",")
		}
		fmt.Fprintf(&b, "%d\n", label)
	}
	path := filepath.Join(dir, "ctg.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestApp_Run(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	dir := t.TempDir()
	input := writeDataset(t, dir)
	outDir := filepath.Join(dir, "images")
	cfgPath := writeConfig(t, dir, `
forest:
  trees: 10
  max_depth: 8
output:
  dpi: 25
`)

	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), []string{
		"fetalhealth", "--config", cfgPath, "--output-dir", outDir, "--seed", "7", "--jobs", "2", input,
	})
	require.NoError(t, err, stderr.String())

	assert.Contains(t, stdout.String(), "Model Accuracy:")
	assert.Contains(t, stdout.String(), "MODEL TRAINING COMPLETE")
	assert.FileExists(t, filepath.Join(outDir, config.DefaultConfusionMatrix))
	assert.FileExists(t, filepath.Join(outDir, config.DefaultFeatureImportance))
	assert.Contains(t, stderr.String(), "run_id=")
}

func TestApp_MissingInput(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), []string{
		"fetalhealth", "--input", filepath.Join(dir, "missing.csv"), "--output-dir", dir,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrDataLoad))
	assert.Contains(t, stderr.String(), "stage failed")
	assert.Empty(t, stdout.String())
}

func TestApp_InvalidConfig(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "forest:\n  criterion: log_loss\n")

	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), []string{"fetalhealth", "-c", cfgPath})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
	assert.Contains(t, stderr.String(), "invalid configuration")
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	input := writeDataset(t, dir)
	cfgPath := writeConfig(t, dir, "seed: 3\ninput: elsewhere.csv\nforest:\n  jobs: 1\n")

	var got *config.Config
	app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Action = func(_ context.Context, cmd *cli.Command) error {
		c, err := loadConfig(cmd)
		got = c
		return err
	}
	require.NoError(t, app.Run(context.Background(), []string{
		"fetalhealth", "--config", cfgPath, "--input", input, "--jobs", "3",
	}))
	require.NotNil(t, got)
	assert.Equal(t, input, got.Input)
	assert.Equal(t, int64(3), got.Seed)
	assert.Equal(t, 3, got.Forest.Jobs)
	assert.Equal(t, ".", got.Output.Dir)
}

func TestNewApp_FlagStateNotShared(t *testing.T) {
	dir := t.TempDir()
	input := writeDataset(t, dir)
	cfgPath := writeConfig(t, dir, "seed: 3\n")

	seeds := make([]int64, 0, 2)
	run := func(args ...string) {
		app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
		app.Action = func(_ context.Context, cmd *cli.Command) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			seeds = append(seeds, c.Seed)
			return nil
		}
		require.NoError(t, app.Run(context.Background(), append([]string{"fetalhealth"}, args...)))
	}

	run("--config", cfgPath, "--seed", "7", input)
	run("--config", cfgPath, input)
	assert.Equal(t, []int64{7, 3}, seeds)
}
