package opt

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"binroute/internal/config"
	"binroute/internal/fleet"
	"binroute/internal/metrics"
	"binroute/internal/model"
)

// Reward tiers for the adaptive weights: a new global best, an accepted
// candidate, a rejected one.
const (
	rewardBest     = 10.0
	rewardAccepted = 2.0
	rewardRejected = 0.0
)

// Progress receives a snapshot after each iteration. Implementations must be
// cheap or throttle themselves; the engine calls them inline.
type Progress func(iteration int, current, best float64, routes int)

// Metrics summarizes one search run.
type Metrics struct {
	Iterations      int
	Improvements    int
	AcceptedWorse   int
	Rejected        int
	BestCost        float64
	FinalCost       float64
	DestroySelects  [numDestroyKinds]int
	RepairSelects   [numRepairKinds]int
	DestroyWeights  [numDestroyKinds]float64
	RepairWeights   [numRepairKinds]float64
	Snapshots       []WeightSnapshot
	DurationSeconds float64
}

// WeightSnapshot records the adaptive weights at one segment boundary.
type WeightSnapshot struct {
	Iteration int
	Destroy   [numDestroyKinds]float64
	Repair    [numRepairKinds]float64
}

// Engine runs the adaptive search: destroy, repair, simulated-annealing
// acceptance, segment-wise operator weight updates. The loop is sequential;
// parallelism lives inside the repair operators.
type Engine struct {
	prob     *model.Problem
	pl       planner
	cfg      config.Config
	progress Progress
}

// New validates the configuration and instance shape. Returns a
// ConfigurationError-class failure before any search work happens.
func New(prob *model.Problem, sel *fleet.Selector, cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(prob.Vehicles) == 0 {
		return nil, fmt.Errorf("%w: empty vehicle catalog", config.ErrInvalid)
	}
	if len(prob.Nodes) < 3 {
		return nil, fmt.Errorf("%w: instance has no customers", config.ErrInvalid)
	}
	return &Engine{
		prob: prob,
		pl: planner{
			prob:    prob,
			sel:     sel,
			alpha:   cfg.Alpha,
			beta:    cfg.Beta,
			workers: cfg.Workers,
		},
		cfg: cfg,
	}, nil
}

// SetProgress installs a progress callback.
func (e *Engine) SetProgress(fn Progress) { e.progress = fn }

// Solve builds an initial solution and runs the annealing chain until the
// iteration or time budget is exhausted, returning the best solution found.
// A zero seed picks one from the clock.
func (e *Engine) Solve(seed int64) (*Solution, Metrics, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	start := time.Now()

	// Preflight: every customer must fit some vehicle on its own, or the
	// instance as given has no answer.
	for _, id := range e.prob.Customers() {
		seq := []int{e.prob.Start(), id, e.prob.End()}
		if _, ok := e.pl.buildRoute(seq); !ok {
			return nil, Metrics{}, &InfeasibleNodeError{Node: id, Platform: e.prob.Nodes[id].PlatformCode}
		}
	}

	curr := &Solution{}
	if err := e.pl.greedyInsertion(curr, e.prob.Customers(), rng); err != nil {
		return nil, Metrics{}, err
	}
	if err := e.pl.validate(curr); err != nil {
		return nil, Metrics{}, fmt.Errorf("initial solution invalid: %w", err)
	}
	best := curr

	destW := [numDestroyKinds]float64{1, 1, 1}
	repW := [numRepairKinds]float64{1, 1}
	var destScore [numDestroyKinds]float64
	var repScore [numRepairKinds]float64
	var destUses [numDestroyKinds]int
	var repUses [numRepairKinds]int

	m := Metrics{BestCost: best.Cost}
	metrics.BestCost.Set(best.Cost)
	temp := e.cfg.StartTemp
	var deadline time.Time
	if e.cfg.MaxRuntimeSec > 0 {
		deadline = start.Add(time.Duration(e.cfg.MaxRuntimeSec) * time.Second)
	}

	n := len(e.prob.Customers())
	kMin := int(e.cfg.RemovalMin * float64(n))
	if kMin < 1 {
		kMin = 1
	}
	kMax := int(e.cfg.RemovalMax * float64(n))
	if kMax < kMin {
		kMax = kMin
	}

	for {
		if e.cfg.MaxIterations > 0 && m.Iterations >= e.cfg.MaxIterations {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		m.Iterations++

		dk := DestroyKind(rouletteSelect(destW[:], rng))
		rk := RepairKind(rouletteSelect(repW[:], rng))
		m.DestroySelects[dk]++
		m.RepairSelects[rk]++
		destUses[dk]++
		repUses[rk]++

		k := kMin
		if kMax > kMin {
			k += rng.Intn(kMax - kMin + 1)
		}

		cand, removed := e.pl.destroy(dk, curr, k, rng)
		outcome := "rejected"
		reward := rewardRejected
		if err := e.pl.repair(rk, cand, removed, rng); err != nil {
			// a node fit nowhere this iteration: candidate dies, current
			// and best stand
			m.Rejected++
		} else {
			if err := e.pl.validate(cand); err != nil {
				return nil, m, fmt.Errorf("iteration %d produced an invalid solution: %w", m.Iterations, err)
			}
			delta := cand.Cost - curr.Cost
			accepted := delta <= 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9))
			if accepted {
				curr = cand
				if cand.Cost < best.Cost {
					best = cand
					reward = rewardBest
					outcome = "best"
					m.Improvements++
					m.BestCost = best.Cost
					metrics.BestCost.Set(best.Cost)
				} else {
					reward = rewardAccepted
					outcome = "accepted"
					if delta > 0 {
						m.AcceptedWorse++
					}
				}
			} else {
				m.Rejected++
			}
		}
		destScore[dk] += reward
		repScore[rk] += reward
		metrics.Iterations.WithLabelValues(outcome).Inc()

		temp *= e.cfg.CoolingRate

		if m.Iterations%e.cfg.SegmentSize == 0 {
			blendWeights(destW[:], destScore[:], destUses[:], e.cfg.WeightDecay)
			blendWeights(repW[:], repScore[:], repUses[:], e.cfg.WeightDecay)
			m.Snapshots = append(m.Snapshots, WeightSnapshot{Iteration: m.Iterations, Destroy: destW, Repair: repW})
		}
		if e.progress != nil {
			e.progress(m.Iterations, curr.Cost, best.Cost, len(best.Routes))
		}
	}

	m.FinalCost = best.Cost
	m.DestroyWeights = destW
	m.RepairWeights = repW
	m.DurationSeconds = time.Since(start).Seconds()
	return best, m, nil
}

// blendWeights moves each weight toward its segment's average reward by the
// reaction factor, then resets the segment accumulators. Recent performance
// dominates stale performance.
func blendWeights(weights, scores []float64, uses []int, reaction float64) {
	for i := range weights {
		if uses[i] > 0 {
			avg := scores[i] / float64(uses[i])
			weights[i] = (1-reaction)*weights[i] + reaction*avg
			if weights[i] < 0.01 {
				weights[i] = 0.01
			}
		}
		scores[i] = 0
		uses[i] = 0
	}
}

// rouletteSelect draws an index proportionally to its weight.
func rouletteSelect(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
