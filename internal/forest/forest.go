// Package forest is a small random forest for binary classification on dense float features.
package forest

import (
	"errors"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrNoData is returned when Train is given no rows.
var ErrNoData = errors.New("forest: no training rows")

// Config controls forest growth.
type Config struct {
	Trees    int
	MaxDepth int // 0 means unlimited
	MinLeaf  int
	// MTry is the number of features considered per split; 0 means sqrt(features).
	MTry int
}

func (c Config) mtry(nf int) int {
	m := c.MTry
	if m <= 0 {
		m = int(math.Sqrt(float64(nf)))
	}
	return min(max(m, 1), nf)
}

// Forest is an ensemble of CART trees. ProbPositive averages the positive fraction of the
// leaf each tree reaches. A trained Forest is immutable and safe for concurrent use.
type Forest struct {
	trees     []*tree
	nFeatures int
}

// Train grows cfg.Trees trees, each on a bootstrap resample of the rows. Trees grow in
// parallel; each gets its own generator seeded from rng so results are reproducible.
func Train(x [][]float64, y []bool, cfg Config, rng *rand.Rand) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, ErrNoData
	}
	nTrees := max(cfg.Trees, 1)
	seeds := make([]int64, nTrees)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	f := &Forest{trees: make([]*tree, nTrees), nFeatures: len(x[0])}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range f.trees {
		g.Go(func() error {
			r := rand.New(rand.NewSource(seeds[i]))
			rows := make([]int, len(x))
			for j := range rows {
				rows[j] = r.Intn(len(x))
			}
			f.trees[i] = growTree(x, y, rows, cfg, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// ProbPositive returns the ensemble's probability that x is positive.
func (f *Forest) ProbPositive(x []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// NumTrees returns the ensemble size.
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// NumFeatures returns the feature vector length the forest was trained on.
func (f *Forest) NumFeatures() int {
	return f.nFeatures
}
