package forecast

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Split holds the row indices of the two partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainPercent is the realized share of training rows.
func (s Split) TrainPercent() float64 {
	total := len(s.Train) + len(s.Test)
	if total == 0 {
		return 0
	}
	return 100 * float64(len(s.Train)) / float64(total)
}

// TrainTestSplit shuffles 0..n-1 and holds out ceil((1-ratio)*n) rows for
// testing. With two or more rows both partitions keep at least one row.
func TrainTestSplit(n int, ratio float64, rng *rand.Rand) Split {
	if n <= 0 {
		return Split{}
	}
	nTest := int(math.Ceil((1-ratio)*float64(n) - 1e-9))
	if n >= 2 {
		nTest = min(max(nTest, 1), n-1)
	} else {
		nTest = 0
	}

	perm := rng.Perm(n)
	s := Split{
		Test:  append([]int(nil), perm[:nTest]...),
		Train: append([]int(nil), perm[nTest:]...),
	}
	sort.Ints(s.Test)
	sort.Ints(s.Train)
	return s
}

// KFold partitions a shuffled 0..n-1 into k nearly equal folds. The first
// n%k folds get one extra row.
func KFold(n, k int, rng *rand.Rand) [][]int {
	if n <= 0 || k <= 0 {
		return nil
	}
	k = min(k, n)
	perm := rng.Perm(n)
	folds := make([][]int, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		fold := append([]int(nil), perm[start:start+size]...)
		sort.Ints(fold)
		folds = append(folds, fold)
		start += size
	}
	return folds
}
