package query

import (
	"context"
	"runtime"
	"strings"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas/gonum"
)

// Metric is a centrality measure.
type Metric string

const (
	MetricDegree      Metric = "degree"
	MetricBetweenness Metric = "betweenness"
	MetricCloseness   Metric = "closeness"
	MetricEigenvector Metric = "eigenvector"
)

// ParseMetric parses a centrality metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(s)); m {
	case MetricDegree, MetricBetweenness, MetricCloseness, MetricEigenvector:
		return m, nil
	}
	return "", gfx.NewValidationError("metric", "unknown centrality metric %q (supported: degree, betweenness, closeness, eigenvector)", s)
}

// Eigenvector centrality configuration.
const (
	// DefaultMaxIterations is the maximum number of power iterations.
	DefaultMaxIterations = 100
	// DefaultTolerance is the per-node convergence threshold.
	DefaultTolerance = 1e-6
)

// betweennessChunk is the number of sources each betweenness task processes. It is
// fixed so that partial sums are merged in the same order for any worker count.
const betweennessChunk = 32

// CentralityOptions configure centrality computations.
type CentralityOptions struct {
	// Workers is the betweenness worker pool size. Zero uses GOMAXPROCS.
	Workers int
	// MaxIterations bounds eigenvector power iteration. Zero uses DefaultMaxIterations.
	MaxIterations int
	// Tolerance is the eigenvector convergence threshold. Zero uses DefaultTolerance.
	Tolerance float64
}

func (o *CentralityOptions) setDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
}

// Score is the centrality of one node.
type Score struct {
	Node  *graph.Node
	Value float64
}

// Centrality computes the metric for every node, returning scores in insertion order.
func Centrality(ctx context.Context, g *graph.Graph, metric Metric, opts CentralityOptions) ([]Score, error) {
	opts.setDefaults()
	var (
		values []float64
		err    error
	)
	switch metric {
	case MetricDegree:
		values = degreeCentrality(g)
	case MetricBetweenness:
		values, err = betweenness(ctx, g, opts.Workers)
	case MetricCloseness:
		values, err = closeness(ctx, g)
	case MetricEigenvector:
		values, err = eigenvector(ctx, g, opts.MaxIterations, opts.Tolerance)
	default:
		_, err = ParseMetric(string(metric))
	}
	if err != nil {
		return nil, err
	}
	scores := make([]Score, len(values))
	for i, v := range values {
		scores[i] = Score{Node: g.NodeAt(i), Value: v}
	}
	return scores, nil
}

func degreeCentrality(g *graph.Graph) []float64 {
	n := g.NodeCount()
	values := make([]float64, n)
	if n == 1 {
		values[0] = 1
		return values
	}
	for i := range n {
		values[i] = float64(g.Degree(i, graph.Both)) / float64(n-1)
	}
	return values
}

// brandesState holds the per-source buffers of Brandes' algorithm.
type brandesState struct {
	stack []int
	queue []int
	pred  [][]int
	sigma []float64
	dist  []int
	delta []float64
}

func newBrandesState(n int) *brandesState {
	return &brandesState{
		pred:  make([][]int, n),
		sigma: make([]float64, n),
		dist:  make([]int, n),
		delta: make([]float64, n),
	}
}

// accumulate adds the dependencies of source s to cb.
func (st *brandesState) accumulate(g *graph.Graph, s int, cb []float64) {
	st.stack = st.stack[:0]
	for i := range st.dist {
		st.pred[i] = st.pred[i][:0]
		st.sigma[i] = 0
		st.dist[i] = -1
		st.delta[i] = 0
	}
	st.sigma[s] = 1
	st.dist[s] = 0
	st.queue = append(st.queue[:0], s)
	for head := 0; head < len(st.queue); head++ {
		v := st.queue[head]
		st.stack = append(st.stack, v)
		for _, w := range g.Adjacent(v, graph.Out) {
			if st.dist[w] < 0 {
				st.dist[w] = st.dist[v] + 1
				st.queue = append(st.queue, w)
			}
			if st.dist[w] == st.dist[v]+1 {
				st.sigma[w] += st.sigma[v]
				st.pred[w] = append(st.pred[w], v)
			}
		}
	}
	for i := len(st.stack) - 1; i >= 0; i-- {
		w := st.stack[i]
		for _, v := range st.pred[w] {
			st.delta[v] += st.sigma[v] / st.sigma[w] * (1 + st.delta[w])
		}
		if w != s {
			cb[w] += st.delta[w]
		}
	}
}

// betweenness computes normalized betweenness centrality with Brandes' algorithm,
// spreading sources over a worker pool.
func betweenness(ctx context.Context, g *graph.Graph, workers int) ([]float64, error) {
	n := g.NodeCount()
	chunks := (n + betweennessChunk - 1) / betweennessChunk
	partials := make([][]float64, chunks)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for c := range chunks {
		eg.Go(func() error {
			st := newBrandesState(n)
			partial := make([]float64, n)
			end := min((c+1)*betweennessChunk, n)
			for s := c * betweennessChunk; s < end; s++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				st.accumulate(g, s, partial)
			}
			partials[c] = partial
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	cb := make([]float64, n)
	for _, partial := range partials {
		for i, v := range partial {
			cb[i] += v
		}
	}
	if n > 2 {
		scale := 1 / (float64(n-1) * float64(n-2))
		for i := range cb {
			cb[i] *= scale
		}
	}
	return cb, nil
}

// closeness scores each node by (r-1)/Σd over the r-1 nodes reachable from it.
func closeness(ctx context.Context, g *graph.Graph) ([]float64, error) {
	n := g.NodeCount()
	values := make([]float64, n)
	for s := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var reached, total int
		bfs(g, s, graph.Out, -1, func(_, _, depth int) bool {
			reached++
			total += depth
			return true
		})
		if total > 0 {
			values[s] = float64(reached) / float64(total)
		}
	}
	return values, nil
}

var blasEngine = gonum.Implementation{}

// eigenvector runs power iteration on x ← x + Aᵀx, which shares eigenvectors with A
// and converges on bipartite graphs where plain iteration oscillates.
func eigenvector(ctx context.Context, g *graph.Graph, maxIterations int, tolerance float64) ([]float64, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, nil
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	var residual float64
	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := make([]float64, n)
		copy(next, x)
		for v := range n {
			for _, u := range g.Adjacent(v, graph.In) {
				next[v] += x[u]
			}
		}
		norm := blasEngine.Dnrm2(n, next, 1)
		if norm == 0 {
			norm = 1
		}
		blasEngine.Dscal(n, 1/norm, next, 1)

		// x becomes x - next so that its 1-norm is the change in this iteration.
		blasEngine.Daxpy(n, -1, next, 1, x, 1)
		residual = blasEngine.Dasum(n, x, 1)
		if residual < float64(n)*tolerance {
			return next, nil
		}
		x = next
	}
	return nil, &gfx.ConvergenceError{Iterations: maxIterations, Tolerance: tolerance, Residual: residual}
}
