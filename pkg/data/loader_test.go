package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Label:    "fetal_health",
	Features: 2,
	Classes: []Class{
		{Code: 1, Name: "Normal"},
		{Code: 2, Name: "Suspect"},
		{Code: 3, Name: "Pathological"},
	},
}

func TestRead(t *testing.T) {
	in := "baseline value,accelerations,fetal_health\n" +
		"120,0.0,1.0\n" +
		"132, 0.006,2\n" +
		"133,0.003,3.0\n" +
		"134,0.001,1\n"

	ds, err := Read(strings.NewReader(in), testSchema)
	require.NoError(t, err)

	assert.Equal(t, []string{"baseline value", "accelerations"}, ds.FeatureNames)
	assert.Equal(t, "fetal_health", ds.LabelName)
	assert.Equal(t, []int{1, 2, 3, 1}, ds.Y)
	assert.Equal(t, []float64{132, 0.006}, ds.X[1])
	assert.Equal(t, 4, ds.Len())

	rows, cols := ds.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []int{2, 1, 1}, ds.ClassCounts())
	assert.Equal(t, 0, ds.Missing())
}

func TestRead_LabelColumnAnywhere(t *testing.T) {
	in := "fetal_health,a,b\n2,1,2\n3,3,4\n"
	ds, err := Read(strings.NewReader(in), testSchema)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.FeatureNames)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, ds.X)
	assert.Equal(t, []int{2, 3}, ds.Y)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"header only", "a,b,fetal_health\n"},
		{"no label column", "a,b,c\n1,2,1\n"},
		{"wrong feature count", "a,b,c,fetal_health\n1,2,3,1\n"},
		{"non numeric feature", "a,b,fetal_health\n1,x,1\n"},
		{"empty feature", "a,b,fetal_health\n1,,1\n"},
		{"nan feature", "a,b,fetal_health\n1,NaN,1\n"},
		{"inf feature", "a,b,fetal_health\n1,Inf,1\n"},
		{"unknown label", "a,b,fetal_health\n1,2,4\n"},
		{"fractional label", "a,b,fetal_health\n1,2,1.5\n"},
		{"ragged row", "a,b,fetal_health\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in), testSchema)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDataLoad), "got %v", err)
		})
	}
}

func TestRead_AnyFeatureCount(t *testing.T) {
	s := testSchema
	s.Features = 0
	ds, err := Read(strings.NewReader("a,b,c,fetal_health\n1,2,3,1\n"), s)
	require.NoError(t, err)
	assert.Len(t, ds.FeatureNames, 3)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetal_health.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,fetal_health\n1,2,1\n3,4,2\n"), 0600))

	ds, err := LoadCSV(path, testSchema)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), testSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataLoad))
}

func TestSubset(t *testing.T) {
	ds := &Dataset{
		FeatureNames: []string{"a"},
		Classes:      testSchema.Classes,
		X:            [][]float64{{0}, {1}, {2}, {3}},
		Y:            []int{1, 2, 3, 1},
	}
	sub := ds.Subset([]int{3, 1})
	assert.Equal(t, [][]float64{{3}, {1}}, sub.X)
	assert.Equal(t, []int{1, 2}, sub.Y)
	assert.Equal(t, ds.FeatureNames, sub.FeatureNames)
	assert.Equal(t, []int{1, 1, 0}, sub.ClassCounts())
}

func TestSchema(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, testSchema.Codes())
	assert.Equal(t, []string{"Normal", "Suspect", "Pathological"}, testSchema.Names())
}
