package textclf

import (
	"math"
	"math/rand"
	"sort"
)

// ForestConfig controls random forest training.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

// DefaultForestConfig mirrors the trainer defaults: 100 estimators with a
// fixed seed so repeated runs on the same corpus produce the same forest.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 32, MinSamplesSplit: 2, Seed: 42}
}

// RandomForest is an ensemble of CART trees trained on bootstrap samples
// with per-node feature subsampling.
type RandomForest struct {
	Trees       []*TreeNode
	NumFeatures int
}

// TreeNode is a decision tree node. Leaf nodes carry the class distribution
// of the training samples that reached them.
type TreeNode struct {
	Leaf      bool
	Probs     []float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// TrainRandomForest fits the forest. Labels must be 0 or 1. Trees are built
// sequentially from per-tree seeded generators, so training is deterministic
// for a given config and corpus.
func TrainRandomForest(x []Vector, y []int, numFeatures int, cfg ForestConfig) *RandomForest {
	if cfg.Trees <= 0 {
		cfg = DefaultForestConfig()
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}

	mtry := int(math.Sqrt(float64(numFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	forest := &RandomForest{NumFeatures: numFeatures, Trees: make([]*TreeNode, cfg.Trees)}
	if numFeatures == 0 {
		counts := classCounts(y, allIndices(len(y)))
		for t := range forest.Trees {
			forest.Trees[t] = leafNode(counts, len(y))
		}
		return forest
	}
	for t := 0; t < cfg.Trees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		forest.Trees[t] = buildTree(x, y, sample, numFeatures, mtry, 0, cfg, rng)
	}
	return forest
}

// PredictProba averages the leaf distributions over all trees.
func (f *RandomForest) PredictProba(x Vector) []float64 {
	probs := make([]float64, numClasses)
	if len(f.Trees) == 0 {
		probs[0] = 1
		return probs
	}
	for _, tree := range f.Trees {
		leaf := tree.descend(x)
		for c, p := range leaf.Probs {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

func (n *TreeNode) descend(x Vector) *TreeNode {
	node := n
	for !node.Leaf {
		if x.At(node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func buildTree(x []Vector, y []int, sample []int, numFeatures, mtry, depth int, cfg ForestConfig, rng *rand.Rand) *TreeNode {
	counts := classCounts(y, sample)
	if depth >= cfg.MaxDepth || len(sample) < cfg.MinSamplesSplit || isPure(counts) {
		return leafNode(counts, len(sample))
	}

	feature, threshold, ok := bestSplit(x, y, sample, numFeatures, mtry, rng)
	if !ok {
		return leafNode(counts, len(sample))
	}

	var left, right []int
	for _, i := range sample {
		if x[i].At(feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(counts, len(sample))
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(x, y, left, numFeatures, mtry, depth+1, cfg, rng),
		Right:     buildTree(x, y, right, numFeatures, mtry, depth+1, cfg, rng),
	}
}

// bestSplit scans mtry random features for the threshold with the lowest
// weighted Gini impurity.
func bestSplit(x []Vector, y []int, sample []int, numFeatures, mtry int, rng *rand.Rand) (int, float64, bool) {
	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	parentGini := giniOf(classCounts(y, sample), len(sample))

	for k := 0; k < mtry; k++ {
		feature := rng.Intn(numFeatures)

		type pair struct {
			value float64
			label int
		}
		pairs := make([]pair, len(sample))
		for i, idx := range sample {
			pairs[i] = pair{x[idx].At(feature), y[idx]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })
		if pairs[0].value == pairs[len(pairs)-1].value {
			continue
		}

		var leftCounts [numClasses]int
		rightCounts := classCounts(y, sample)
		total := len(pairs)
		for i := 0; i < total-1; i++ {
			leftCounts[pairs[i].label]++
			rightCounts[pairs[i].label]--
			if pairs[i].value == pairs[i+1].value {
				continue
			}
			nLeft := i + 1
			nRight := total - nLeft
			gini := (float64(nLeft)*giniOf(leftCounts, nLeft) +
				float64(nRight)*giniOf(rightCounts, nRight)) / float64(total)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if bestFeature < 0 || bestGini >= parentGini {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func allIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func classCounts(y []int, sample []int) [numClasses]int {
	var counts [numClasses]int
	for _, i := range sample {
		counts[y[i]]++
	}
	return counts
}

func isPure(counts [numClasses]int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func giniOf(counts [numClasses]int, total int) float64 {
	if total == 0 {
		return 0
	}
	gini := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		gini -= p * p
	}
	return gini
}

func leafNode(counts [numClasses]int, total int) *TreeNode {
	probs := make([]float64, numClasses)
	if total > 0 {
		for c, n := range counts {
			probs[c] = float64(n) / float64(total)
		}
	} else {
		probs[0] = 1
	}
	return &TreeNode{Leaf: true, Probs: probs}
}
