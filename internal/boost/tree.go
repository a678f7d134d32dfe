package boost

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// node is a regression tree node. Rows with x[feature] < threshold go left.
type node struct {
	leaf      bool
	weight    float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.weight
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	ok        bool
}

// builder grows one tree per round over shared gradient buffers.
type builder struct {
	cfg   Config
	cols  [][]float64 // column-major copy of X
	grad  []float64
	hess  []float64
	gains []float64 // accumulated split gain per feature
}

func newBuilder(cfg Config, X [][]float64, p int) *builder {
	cols := make([][]float64, p)
	for j := range cols {
		col := make([]float64, len(X))
		for i, row := range X {
			col[i] = row[j]
		}
		cols[j] = col
	}
	return &builder{
		cfg:   cfg,
		cols:  cols,
		grad:  make([]float64, len(X)),
		hess:  make([]float64, len(X)),
		gains: make([]float64, p),
	}
}

func (b *builder) grow(ctx context.Context) (*node, error) {
	idx := make([]int, len(b.grad))
	for i := range idx {
		idx[i] = i
	}
	return b.build(ctx, idx, 0)
}

func (b *builder) build(ctx context.Context, idx []int, depth int) (*node, error) {
	g, h := b.sums(idx)
	if depth >= b.cfg.MaxDepth || len(idx) < 2 {
		return b.leaf(g, h), nil
	}

	best, err := b.bestSplit(ctx, idx, g, h)
	if err != nil {
		return nil, err
	}
	if !best.ok {
		return b.leaf(g, h), nil
	}

	col := b.cols[best.feature]
	var left, right []int
	for _, i := range idx {
		if col[i] < best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.gains[best.feature] += best.gain

	l, err := b.build(ctx, left, depth+1)
	if err != nil {
		return nil, err
	}
	r, err := b.build(ctx, right, depth+1)
	if err != nil {
		return nil, err
	}
	return &node{feature: best.feature, threshold: best.threshold, left: l, right: r}, nil
}

func (b *builder) leaf(g, h float64) *node {
	return &node{leaf: true, weight: -g / (h + b.cfg.Lambda) * b.cfg.LearningRate}
}

func (b *builder) sums(idx []int) (float64, float64) {
	gs := make([]float64, len(idx))
	hs := make([]float64, len(idx))
	for k, i := range idx {
		gs[k] = b.grad[i]
		hs[k] = b.hess[i]
	}
	return floats.Sum(gs), floats.Sum(hs)
}

// bestSplit scans every feature concurrently. Results are reduced in feature
// order with a strict comparison so ties resolve to the lowest feature index.
func (b *builder) bestSplit(ctx context.Context, idx []int, g, h float64) (split, error) {
	results := make([]split, len(b.cols))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for j := range b.cols {
		j := j
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[j] = b.scanFeature(j, idx, g, h)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return split{}, err
	}

	var best split
	for _, s := range results {
		if s.ok && (!best.ok || s.gain > best.gain) {
			best = s
		}
	}
	return best, nil
}

// scanFeature runs the exact greedy search over sorted distinct values of one feature.
func (b *builder) scanFeature(j int, idx []int, g, h float64) split {
	col := b.cols[j]
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })

	lambda := b.cfg.Lambda
	parent := g * g / (h + lambda)
	best := split{feature: j}

	var gl, hl float64
	for k := 0; k < len(order)-1; k++ {
		i := order[k]
		gl += b.grad[i]
		hl += b.hess[i]

		cur, next := col[i], col[order[k+1]]
		if cur == next {
			continue
		}
		gr, hr := g-gl, h-hl
		if hl < b.cfg.MinChildWeight || hr < b.cfg.MinChildWeight {
			continue
		}

		gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
		if gain > minSplitGain && gain > best.gain {
			best.gain = gain
			best.threshold = cur + (next-cur)/2
			if best.threshold <= cur {
				best.threshold = next
			}
			best.ok = true
		}
	}
	return best
}
