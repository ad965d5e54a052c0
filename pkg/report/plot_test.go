package report

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fetalhealth/pkg/model"
)

var classNames = []string{"Normal", "Suspect", "Pathological"}

func TestConfusionHeatmap(t *testing.T) {
	cm := [][]int{{30, 2, 1}, {3, 10, 1}, {0, 1, 12}}

	p, err := ConfusionHeatmap(cm, classNames)
	require.NoError(t, err)

	b, err := Render(p, 4, 3, 72)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 4*72, img.Bounds().Dx())
	assert.Equal(t, 3*72, img.Bounds().Dy())
}

func TestConfusionHeatmap_AllZero(t *testing.T) {
	p, err := ConfusionHeatmap([][]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}, classNames)
	require.NoError(t, err)
	_, err = Render(p, 2, 2, 50)
	assert.NoError(t, err)
}

func TestConfusionHeatmap_Errors(t *testing.T) {
	_, err := ConfusionHeatmap(nil, classNames)
	assert.True(t, errors.Is(err, ErrRender))

	_, err = ConfusionHeatmap([][]int{{1, 2}, {3, 4}}, classNames)
	assert.True(t, errors.Is(err, ErrRender))

	_, err = ConfusionHeatmap([][]int{{1, 2, 3}, {3, 4}, {5, 6, 7}}, classNames)
	assert.True(t, errors.Is(err, ErrRender))
}

func TestConfusionGrid_FlipsRows(t *testing.T) {
	g := confusionGrid{cm: [][]int{{1, 2}, {3, 4}}}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// grid row 0 is the bottom of the plot: the last true class
	assert.Equal(t, 3.0, g.Z(0, 0))
	assert.Equal(t, 2.0, g.Z(1, 1))
}

func TestImportanceChart(t *testing.T) {
	ranking := []model.FeatureImportance{
		{Name: "abnormal_short_term_variability", Score: 0.14},
		{Name: "percentage_of_time_with_abnormal_long_term_variability", Score: 0.12},
		{Name: "histogram_mean", Score: 0.08},
	}
	p, err := ImportanceChart(ranking)
	require.NoError(t, err)
	assert.Equal(t, "Top 3 Most Important Features", p.Title.Text)

	b, err := Render(p, 5, 3, 60)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(b))
	assert.NoError(t, err)

	_, err = ImportanceChart(nil)
	assert.True(t, errors.Is(err, ErrRender))
}

func TestRender_InvalidCanvas(t *testing.T) {
	p, err := ImportanceChart([]model.FeatureImportance{{Name: "a", Score: 1}})
	require.NoError(t, err)
	_, err = Render(p, 0, 3, 72)
	assert.True(t, errors.Is(err, ErrRender))
	_, err = Render(p, 3, 3, 0)
	assert.True(t, errors.Is(err, ErrRender))
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteArtifacts(dir, []Artifact{
		{Name: "a.png", Data: []byte("first")},
		{Name: "b.png", Data: []byte("second")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, paths)

	// existing files are overwritten
	_, err = WriteArtifacts(dir, []Artifact{{Name: "a.png", Data: []byte("again")}})
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))
}

func TestBlues(t *testing.T) {
	p := blues(3)
	require.Len(t, p.Colors(), 3)
	r0, _, _, _ := p[0].RGBA()
	r2, _, _, _ := p[2].RGBA()
	assert.Greater(t, r0, r2)
}
