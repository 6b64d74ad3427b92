package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func twoBlobs(n int, rng *rand.Rand) ([][]float64, []bool) {
	var x [][]float64
	var y []bool
	for i := 0; i < n; i++ {
		pos := i%2 == 0
		c := 0.2
		if pos {
			c = 0.8
		}
		x = append(x, []float64{c + rng.NormFloat64()*0.05, rng.Float64(), c + rng.NormFloat64()*0.05})
		y = append(y, pos)
	}
	return x, y
}

func TestForestSeparatesBlobs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x, y := twoBlobs(400, rng)
	f, err := Train(x, y, Config{Trees: 15, MaxDepth: 12, MinLeaf: 1, MTry: 2}, rng)
	require.NoError(t, err)
	require.Equal(t, 15, f.NumTrees())
	require.Equal(t, 3, f.NumFeatures())

	require.Greater(t, f.ProbPositive([]float64{0.8, 0.5, 0.8}), 0.9)
	require.Less(t, f.ProbPositive([]float64{0.2, 0.5, 0.2}), 0.1)
}

func TestForestDeterministicForSeed(t *testing.T) {
	x, y := twoBlobs(200, rand.New(rand.NewSource(3)))
	a, err := Train(x, y, Config{Trees: 5}, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := Train(x, y, Config{Trees: 5}, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	probe := []float64{0.5, 0.5, 0.5}
	require.Equal(t, a.ProbPositive(probe), b.ProbPositive(probe))
}

func TestForestSingleClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []bool{true, true, true}
	f, err := Train(x, y, Config{Trees: 3}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 1.0, f.ProbPositive([]float64{10}))
}

func TestForestNoData(t *testing.T) {
	_, err := Train(nil, nil, Config{Trees: 3}, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrNoData)
}

func TestGini(t *testing.T) {
	require.Equal(t, 0.0, gini(0, 10))
	require.Equal(t, 0.0, gini(10, 10))
	require.InDelta(t, 0.5, gini(5, 10), 1e-12)
}
