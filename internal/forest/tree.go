package forest

import (
	"math/rand"
	"sort"
)

// node is one entry of a flattened binary tree. Leaves have feature < 0.
type node struct {
	feature   int
	threshold float64
	left      int32
	right     int32
	prob      float64 // fraction of positive training rows reaching this node
}

// tree is a CART classification tree grown on Gini impurity.
type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := int32(0)
	for {
		n := &t.nodes[i]
		if n.feature < 0 {
			return n.prob
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// grower holds the scratch state for growing one tree.
type grower struct {
	x       [][]float64
	y       []bool
	mtry    int
	maxDep  int
	minLeaf int
	rng     *rand.Rand
	t       *tree
	order   []int
	feats   []int
}

func growTree(x [][]float64, y []bool, rows []int, cfg Config, rng *rand.Rand) *tree {
	nf := len(x[rows[0]])
	g := &grower{
		x:       x,
		y:       y,
		mtry:    cfg.mtry(nf),
		maxDep:  cfg.MaxDepth,
		minLeaf: max(cfg.MinLeaf, 1),
		rng:     rng,
		t:       &tree{},
		order:   make([]int, len(rows)),
		feats:   make([]int, nf),
	}
	for i := range g.feats {
		g.feats[i] = i
	}
	g.split(rows, 0)
	return g.t
}

func (g *grower) leaf(pos, n int) int32 {
	g.t.nodes = append(g.t.nodes, node{feature: -1, prob: float64(pos) / float64(n)})
	return int32(len(g.t.nodes) - 1)
}

// split grows the subtree for rows and returns its node index.
func (g *grower) split(rows []int, depth int) int32 {
	n := len(rows)
	pos := 0
	for _, r := range rows {
		if g.y[r] {
			pos++
		}
	}
	if pos == 0 || pos == n || n < 2*g.minLeaf || (g.maxDep > 0 && depth >= g.maxDep) {
		return g.leaf(pos, n)
	}

	bestFeat, bestThr, bestScore := -1, 0.0, gini(pos, n)*float64(n)
	g.rng.Shuffle(len(g.feats), func(i, j int) { g.feats[i], g.feats[j] = g.feats[j], g.feats[i] })
	order := g.order[:n]
	for _, f := range g.feats[:g.mtry] {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool { return g.x[order[i]][f] < g.x[order[j]][f] })

		leftPos := 0
		for i := 0; i < n-1; i++ {
			if g.y[order[i]] {
				leftPos++
			}
			nl := i + 1
			if nl < g.minLeaf || n-nl < g.minLeaf {
				continue
			}
			a, b := g.x[order[i]][f], g.x[order[i+1]][f]
			if a == b {
				continue
			}
			score := gini(leftPos, nl)*float64(nl) + gini(pos-leftPos, n-nl)*float64(n-nl)
			if score < bestScore {
				bestFeat, bestThr, bestScore = f, (a+b)/2, score
			}
		}
	}
	if bestFeat < 0 {
		return g.leaf(pos, n)
	}

	// Partition rows in place around the threshold.
	lo, hi := 0, n-1
	for lo <= hi {
		if g.x[rows[lo]][bestFeat] <= bestThr {
			lo++
		} else {
			rows[lo], rows[hi] = rows[hi], rows[lo]
			hi--
		}
	}

	idx := len(g.t.nodes)
	g.t.nodes = append(g.t.nodes, node{feature: bestFeat, threshold: bestThr, prob: float64(pos) / float64(n)})
	left := g.split(rows[:lo], depth+1)
	right := g.split(rows[lo:], depth+1)
	g.t.nodes[idx].left = left
	g.t.nodes[idx].right = right
	return int32(idx)
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	q := 1 - p
	return 1 - p*p - q*q
}
