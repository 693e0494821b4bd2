package forecast

import (
	"context"
	"math/rand/v2"
	"sort"

	"github.com/rotisserie/eris"
)

// DefaultTrees is the forest size used when none is configured.
const DefaultTrees = 100

// Forest is a bagged ensemble of regression trees. Each tree is grown to
// purity on a bootstrap sample, considering every feature at each split
// and minimizing squared error.
type Forest struct {
	Trees int

	rng   *rand.Rand
	roots []*treeNode
	width int
}

// NewForest creates an untrained forest drawing its bootstrap samples
// from rng.
func NewForest(trees int, rng *rand.Rand) *Forest {
	if trees <= 0 {
		trees = DefaultTrees
	}
	return &Forest{Trees: trees, rng: rng}
}

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) leaf() bool {
	return n.left == nil
}

// Fit grows Trees trees. Cancelling ctx stops between trees.
func (f *Forest) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if err := checkMatrix(x, y); err != nil {
		return err
	}
	if f.rng == nil {
		return eris.New("forecast: forest has no random source")
	}

	n := len(x)
	f.width = len(x[0])
	f.roots = make([]*treeNode, 0, f.Trees)
	for t := 0; t < f.Trees; t++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "forecast: forest fit stopped after %d trees", t)
		}
		sample := make([]int, n)
		for i := range sample {
			sample[i] = f.rng.IntN(n)
		}
		f.roots = append(f.roots, growTree(x, y, sample))
	}
	return nil
}

// Predict averages the trees.
func (f *Forest) Predict(x [][]float64) ([]float64, error) {
	if len(f.roots) == 0 {
		return nil, eris.New("forecast: forest not fitted")
	}
	if err := checkMatrix(x, nil); err != nil {
		return nil, err
	}
	if len(x[0]) != f.width {
		return nil, eris.Errorf("forecast: got %d features, forest has %d", len(x[0]), f.width)
	}
	out := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, root := range f.roots {
			node := root
			for !node.leaf() {
				if row[node.feature] <= node.threshold {
					node = node.left
				} else {
					node = node.right
				}
			}
			sum += node.value
		}
		out[i] = sum / float64(len(f.roots))
	}
	return out, nil
}

func growTree(x [][]float64, y []float64, idx []int) *treeNode {
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	count := float64(len(idx))
	node := &treeNode{value: sum / count}

	sse := sumSq - sum*sum/count
	if len(idx) < 2 || sse <= 1e-12 {
		return node
	}

	feature, threshold, ok := bestSplit(x, y, idx, sse)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}
	node.feature = feature
	node.threshold = threshold
	node.left = growTree(x, y, left)
	node.right = growTree(x, y, right)
	return node
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children. Ties keep the first candidate found.
func bestSplit(x [][]float64, y []float64, idx []int, parentSSE float64) (int, float64, bool) {
	n := len(idx)
	sorted := make([]int, n)
	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE

	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}

	for j := range x[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return x[sorted[a]][j] < x[sorted[b]][j]
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yi := y[sorted[k]]
			leftSum += yi
			leftSq += yi * yi

			lo, hi := x[sorted[k]][j], x[sorted[k+1]][j]
			if lo == hi {
				continue
			}
			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = j
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
