package models

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
)

var errEmptyForest = errors.New("forest has no trees")

// RandomForestRegressor averages bagged CART trees.
//
// Each tree i draws its bootstrap sample and feature subsets from a source
// seeded with Seed+i, so a fit is reproducible regardless of how many trees
// are grown concurrently.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	Seed            int64

	Trees    []*RegressionTree
	Features int

	workers int
}

// ForestOption configures a RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

// WithEstimators sets the number of trees.
func WithEstimators(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithMaxDepth caps tree depth. 0 means unlimited.
func WithMaxDepth(d int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxDepth = d }
}

// WithSeed sets the base random seed.
func WithSeed(seed int64) ForestOption {
	return func(f *RandomForestRegressor) { f.Seed = seed }
}

// WithMaxFeatures sets how many features are considered per split.
func WithMaxFeatures(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxFeatures = n }
}

// WithWorkers bounds the number of trees fitted concurrently.
func WithWorkers(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.workers = n }
}

// NewRandomForestRegressor returns a forest of 100 fully grown bootstrapped
// trees unless overridden by opts.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	f := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements Regressor.
func (f *RandomForestRegressor) Name() string { return "random_forest" }

// Fit implements Regressor.
func (f *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	p, err := validateXY(X, y)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	if f.NEstimators <= 0 {
		return fmt.Errorf("random forest: n_estimators must be positive, got %d", f.NEstimators)
	}

	trees := make([]*RegressionTree, f.NEstimators)
	workers := f.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			trees[i] = f.fitTree(X, y, p, f.Seed+int64(i))
		}(i)
	}
	wg.Wait()

	f.Trees = trees
	f.Features = p
	return nil
}

func (f *RandomForestRegressor) fitTree(X [][]float64, y []float64, p int, seed int64) *RegressionTree {
	rnd := rand.New(rand.NewSource(seed))
	n := len(X)

	idx := make([]int, n)
	for i := range idx {
		if f.Bootstrap {
			idx[i] = rnd.Intn(n)
		} else {
			idx[i] = i
		}
	}

	tree := &RegressionTree{
		MaxDepth:        f.MaxDepth,
		MinSamplesSplit: f.MinSamplesSplit,
		MinSamplesLeaf:  f.MinSamplesLeaf,
		MaxFeatures:     f.MaxFeatures,
		Seed:            seed,
	}
	tree.fitIndices(X, y, idx, p, rnd)
	return tree
}

// Predict implements Regressor.
func (f *RandomForestRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		if f.Features == 0 {
			return nil, ErrNotFitted
		}
		return nil, errEmptyForest
	}
	out := make([]float64, len(X))
	for _, tree := range f.Trees {
		preds, err := tree.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, v := range preds {
			out[i] += v
		}
	}
	k := float64(len(f.Trees))
	for i := range out {
		out[i] /= k
	}
	return out, nil
}
