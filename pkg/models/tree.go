package models

import (
	"fmt"
	"math/rand"
	"sort"
)

// TreeNode is one node of a fitted regression tree. Fields are exported so the
// tree survives gob encoding.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Left      *TreeNode
	Right     *TreeNode
	Value     float64 // mean target of the training rows that reached the node
	N         int
}

// RegressionTree is a CART regression tree that splits on the threshold
// minimising the summed squared error of the two children.
type RegressionTree struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => consider every feature at each split
	Seed            int64

	Root     *TreeNode
	Features int
}

// NewRegressionTree returns an unbounded tree that splits any node with two or more rows.
func NewRegressionTree() *RegressionTree {
	return &RegressionTree{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Name implements Regressor.
func (t *RegressionTree) Name() string { return "regression_tree" }

// Fit implements Regressor.
func (t *RegressionTree) Fit(X [][]float64, y []float64) error {
	p, err := validateXY(X, y)
	if err != nil {
		return fmt.Errorf("regression tree: %w", err)
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.fitIndices(X, y, idx, p, rand.New(rand.NewSource(t.Seed)))
	return nil
}

// fitIndices grows the tree on the rows selected by idx. idx may contain
// repeats (bootstrap samples).
func (t *RegressionTree) fitIndices(X [][]float64, y []float64, idx []int, p int, rnd *rand.Rand) {
	t.Features = p
	t.Root = t.grow(X, y, idx, 0, rnd)
}

// Predict implements Regressor.
func (t *RegressionTree) Predict(X [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, x := range X {
		if len(x) != t.Features {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(x), t.Features)
		}
		out[i] = t.predictOne(x)
	}
	return out, nil
}

func (t *RegressionTree) predictOne(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type split struct {
	feature   int
	threshold float64
	sse       float64
	left      []int
	right     []int
}

func (t *RegressionTree) grow(X [][]float64, y []float64, idx []int, depth int, rnd *rand.Rand) *TreeNode {
	mean, sse := meanSSE(y, idx)
	node := &TreeNode{Leaf: true, Value: mean, N: len(idx)}

	minSplit := max(t.MinSamplesSplit, 2)
	if len(idx) < minSplit || sse <= 1e-12 {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}

	best, ok := t.bestSplit(X, y, idx, rnd)
	if !ok || best.sse >= sse {
		return node
	}

	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.grow(X, y, best.left, depth+1, rnd)
	node.Right = t.grow(X, y, best.right, depth+1, rnd)
	return node
}

func (t *RegressionTree) bestSplit(X [][]float64, y []float64, idx []int, rnd *rand.Rand) (split, bool) {
	p := t.Features
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		rnd.Shuffle(p, func(a, b int) { features[a], features[b] = features[b], features[a] })
		features = features[:t.MaxFeatures]
		sort.Ints(features)
	}

	minLeaf := max(t.MinSamplesLeaf, 1)
	n := len(idx)
	best := split{feature: -1}
	found := false

	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		var leftSum, leftSq float64
		for s := 1; s < n; s++ {
			prev := sorted[s-1]
			leftSum += y[prev]
			leftSq += y[prev] * y[prev]

			lo, hi := X[prev][f], X[sorted[s]][f]
			if lo == hi || s < minLeaf || n-s < minLeaf {
				continue
			}

			nl, nr := float64(s), float64(n-s)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)

			if !found || sse < best.sse {
				found = true
				best = split{feature: f, threshold: (lo + hi) / 2, sse: sse}
			}
		}
	}
	if !found {
		return best, false
	}

	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			best.left = append(best.left, i)
		} else {
			best.right = append(best.right, i)
		}
	}
	if len(best.left) == 0 || len(best.right) == 0 {
		return best, false
	}
	return best, true
}

func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	mean := sum / float64(len(idx))
	var sse float64
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}
