package loader

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelsWithCounts returns shuffled labels with counts[i] rows of class i+1.
func labelsWithCounts(seed int64, counts ...int) []int {
	var y []int
	for i, c := range counts {
		for j := 0; j < c; j++ {
			y = append(y, i+1)
		}
	}
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(y), func(a, b int) { y[a], y[b] = y[b], y[a] })
	return y
}

func TestStratifiedSplit_Completeness(t *testing.T) {
	y := labelsWithCounts(1, 1655, 295, 176)

	s, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, len(y), len(s.Train)+len(s.Test))
	assert.Equal(t, int(math.Ceil(0.2*float64(len(y)))), len(s.Test))

	seen := make(map[int]bool, len(y))
	for _, i := range append(append([]int(nil), s.Train...), s.Test...) {
		require.False(t, seen[i], "row %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, len(y))
	assert.True(t, sort.IntsAreSorted(s.Train))
	assert.True(t, sort.IntsAreSorted(s.Test))
}

func TestStratifiedSplit_ClassProportions(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{"balanced", []int{100, 100, 100}},
		{"fetal health", []int{1655, 295, 176}},
		{"minimum per class", []int{50, 51, 77}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := labelsWithCounts(7, tt.counts...)
			s, err := StratifiedSplit(y, 0.2, 42)
			require.NoError(t, err)

			inTest := map[int]int{}
			for _, i := range s.Test {
				inTest[y[i]]++
			}
			for k, c := range tt.counts {
				frac := float64(inTest[k+1]) / float64(c)
				assert.InDelta(t, 0.2, frac, 0.02, "class %d", k+1)
			}
		})
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	y := labelsWithCounts(3, 120, 60, 40)

	a, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	b, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := StratifiedSplit(y, 0.2, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a.Test, c.Test)
}

func TestStratifiedSplit_Insufficient(t *testing.T) {
	tests := []struct {
		name  string
		y     []int
		ratio float64
	}{
		{"no rows", nil, 0.2},
		{"singleton class", []int{1, 1, 1, 1, 2, 2, 2, 3}, 0.5},
		{"test smaller than classes", labelsWithCounts(1, 5, 5, 5), 0.1},
		{"train smaller than classes", labelsWithCounts(1, 5, 5, 5), 0.9},
		{"ratio zero", labelsWithCounts(1, 5, 5, 5), 0},
		{"ratio one", labelsWithCounts(1, 5, 5, 5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StratifiedSplit(tt.y, tt.ratio, 42)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientData), "got %v", err)
		})
	}
}

func TestApproximateMode(t *testing.T) {
	tests := []struct {
		counts []int
		draws  int
		want   []int
	}{
		{[]int{100, 100, 100}, 60, []int{20, 20, 20}},
		{[]int{1655, 295, 176}, 426, []int{332, 59, 35}},
		{[]int{2, 2, 2}, 4, []int{2, 1, 1}},
		{[]int{3, 1}, 4, []int{3, 1}},
	}
	for _, tt := range tests {
		got := approximateMode(tt.counts, tt.draws)
		assert.Equal(t, tt.want, got, "counts %v draws %d", tt.counts, tt.draws)

		sum := 0
		for i, g := range got {
			sum += g
			assert.LessOrEqual(t, g, tt.counts[i])
		}
		assert.Equal(t, tt.draws, sum)
	}
}
