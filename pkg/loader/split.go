package loader

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// ErrInsufficientData is returned when a class is too small to appear in both
// partitions.
var ErrInsufficientData = errors.New("insufficient data to stratify")

// Split holds the row indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions row indices so that each class keeps its share
// of rows in both train and test. The shuffle is driven by seed only.
func StratifiedSplit(labels []int, testRatio float64, seed int64) (Split, error) {
	n := len(labels)
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, errors.Wrapf(ErrInsufficientData, "test ratio %v outside (0, 1)", testRatio)
	}
	if n == 0 {
		return Split{}, errors.Wrap(ErrInsufficientData, "no rows")
	}

	// group row indices by class, classes ascending
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	counts := make([]int, len(classes))
	for i, c := range classes {
		counts[i] = len(byClass[c])
		if counts[i] < 2 {
			return Split{}, errors.Wrapf(ErrInsufficientData, "class %d has %d row(s), need at least 2", c, counts[i])
		}
	}

	nTest := int(math.Ceil(testRatio * float64(n)))
	nTrain := n - nTest
	if nTest < len(classes) || nTrain < len(classes) {
		return Split{}, errors.Wrapf(ErrInsufficientData, "%d train / %d test rows for %d classes", nTrain, nTest, len(classes))
	}

	alloc := approximateMode(counts, nTest)
	rnd := rand.New(rand.NewSource(seed))

	var s Split
	for i, c := range classes {
		rows := byClass[c]
		perm := rnd.Perm(len(rows))
		for k, p := range perm {
			if k < alloc[i] {
				s.Test = append(s.Test, rows[p])
			} else {
				s.Train = append(s.Train, rows[p])
			}
		}
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s, nil
}

// approximateMode distributes draws among classes proportionally to counts.
// Each class gets the floor of its exact share; leftover draws go to the
// classes with the largest fractional remainder, lower class first on ties.
func approximateMode(counts []int, draws int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	alloc := make([]int, len(counts))
	rem := make([]float64, len(counts))
	assigned := 0
	for i, c := range counts {
		exact := float64(draws) * float64(c) / float64(total)
		alloc[i] = int(math.Floor(exact))
		rem[i] = exact - float64(alloc[i])
		assigned += alloc[i]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })

	for left := draws - assigned; left > 0; {
		progressed := false
		for _, i := range order {
			if left == 0 {
				break
			}
			if alloc[i] < counts[i] {
				alloc[i]++
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}
