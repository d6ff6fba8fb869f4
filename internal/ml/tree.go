package ml

import (
	"math/rand/v2"
	"sort"
)

// treeNode is one node of a fitted decision tree. Leaves have feature -1.
type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64 // fraction of accepted samples that reached the node
	samples   int
}

// Tree is a binary classification tree grown with Gini impurity.
type Tree struct {
	nodes       []treeNode
	numFeatures int
}

type treeConfig struct {
	maxDepth       int // 0 means unlimited
	minSamplesLeaf int
	maxFeatures    int
}

type treeBuilder struct {
	cols       [][]float64 // column-major training matrix
	y          []float64
	cfg        treeConfig
	rng        *rand.Rand
	tree       *Tree
	importance []float64
}

// growTree fits a tree on the rows listed in sample. Rows may repeat, as they
// do in a bootstrap sample.
func growTree(cols [][]float64, y []float64, sample []int, cfg treeConfig, rng *rand.Rand) (*Tree, []float64) {
	b := &treeBuilder{
		cols:       cols,
		y:          y,
		cfg:        cfg,
		rng:        rng,
		tree:       &Tree{numFeatures: len(cols)},
		importance: make([]float64, len(cols)),
	}
	b.build(sample, 0)
	return b.tree, b.importance
}

func (b *treeBuilder) build(idx []int, depth int) int {
	n := len(idx)
	pos := 0
	for _, i := range idx {
		if b.y[i] == 1 {
			pos++
		}
	}

	id := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, treeNode{
		feature: -1,
		value:   float64(pos) / float64(n),
		samples: n,
	})

	if pos == 0 || pos == n ||
		n < 2*b.cfg.minSamplesLeaf ||
		(b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) {
		return id
	}

	split, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.cols[split.feature][i] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importance[split.feature] += float64(n)*gini(pos, n) - split.weightedImpurity

	b.tree.nodes[id].feature = split.feature
	b.tree.nodes[id].threshold = split.threshold
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.nodes[id].left = l
	b.tree.nodes[id].right = r
	return id
}

type split struct {
	feature          int
	threshold        float64
	weightedImpurity float64 // n_left*gini(left) + n_right*gini(right)
}

// bestSplit inspects features in random order until maxFeatures non-constant
// features have been evaluated.
func (b *treeBuilder) bestSplit(idx []int, pos int) (split, bool) {
	n := len(idx)
	best := split{feature: -1}
	sorted := make([]int, n)
	evaluated := 0

	for _, f := range b.rng.Perm(len(b.cols)) {
		if evaluated >= b.cfg.maxFeatures {
			break
		}
		col := b.cols[f]
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return col[sorted[a]] < col[sorted[c]] })
		if col[sorted[0]] == col[sorted[n-1]] {
			continue
		}
		evaluated++

		leftPos := 0
		for i := 1; i < n; i++ {
			if b.y[sorted[i-1]] == 1 {
				leftPos++
			}
			lo, hi := col[sorted[i-1]], col[sorted[i]]
			if lo == hi {
				continue
			}
			if i < b.cfg.minSamplesLeaf || n-i < b.cfg.minSamplesLeaf {
				continue
			}
			w := float64(i)*gini(leftPos, i) + float64(n-i)*gini(pos-leftPos, n-i)
			if best.feature < 0 || w < best.weightedImpurity {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, weightedImpurity: w}
			}
		}
	}

	return best, best.feature >= 0
}

// gini is the Gini impurity of a node with pos accepted samples out of n.
func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// predict returns the accepted fraction of the leaf x falls into.
func (t *Tree) predict(x []float64) float64 {
	node := &t.nodes[0]
	for node.feature >= 0 {
		if x[node.feature] <= node.threshold {
			node = &t.nodes[node.left]
		} else {
			node = &t.nodes[node.right]
		}
	}
	return node.value
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.feature < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	count := 0
	for _, n := range t.nodes {
		if n.feature < 0 {
			count++
		}
	}
	return count
}
