package annealing

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/orbitplan/internal/optimization"
)

// RestartConfig controls independent multi-start annealing.
type RestartConfig struct {
	// Restarts is the number of independent runs. Values below 1 mean 1.
	Restarts int
	// Workers bounds how many runs execute at once. Values below 1 mean
	// one worker per restart.
	Workers int
	// Seed is the base seed; restart i uses Seed+i. Zero picks a
	// time-based seed.
	Seed int64
}

// RestartResult combines the outcome of every restart.
type RestartResult[S any] struct {
	// Best is the run with the lowest score. Ties go to the lowest index.
	Best      *optimization.Result[S]
	BestIndex int
	Seed      int64
	Scores    []float64
	Mean      float64
	StdDev    float64
	// Iterations is the total across all runs.
	Iterations int
	Stopped    bool
}

// RunRestarts runs cfg.Restarts independent searches with the annealer,
// each with its own random source and state, and combines them after all
// have finished. The annealer's observer, if any, is called from several
// goroutines.
func RunRestarts[S any, M any](ctx context.Context, a *Annealer[S, M], cfg RestartConfig) *RestartResult[S] {
	restarts := cfg.Restarts
	if restarts < 1 {
		restarts = 1
	}
	workers := cfg.Workers
	if workers < 1 || workers > restarts {
		workers = restarts
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runs := make([]*optimization.Result[S], restarts)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < restarts; i++ {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(i)))
			runs[i] = a.Optimize(ctx, rng)
			return nil
		})
	}
	// Runs never return errors; Wait is only a barrier.
	_ = g.Wait()

	scores := make([]float64, restarts)
	out := &RestartResult[S]{Seed: seed, Scores: scores}
	for i, r := range runs {
		scores[i] = r.BestScore
		out.Iterations += r.Iterations
		out.Stopped = out.Stopped || r.Stopped
	}

	out.BestIndex = floats.MinIdx(scores)
	out.Best = runs[out.BestIndex]
	if restarts > 1 {
		out.Mean, out.StdDev = stat.MeanStdDev(scores, nil)
	} else {
		out.Mean = scores[0]
	}
	return out
}
