package opt

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Destroy and repair operators form a closed set of variants; the engine
// dispatches on the kind in a single switch. Adding an operator means adding
// a kind and its weight slot.

type DestroyKind int

const (
	RandomRemoval DestroyKind = iota
	WorstRemoval
	ShawRemoval
	numDestroyKinds
)

func (k DestroyKind) String() string {
	switch k {
	case RandomRemoval:
		return "random"
	case WorstRemoval:
		return "worst"
	case ShawRemoval:
		return "shaw"
	}
	return "unknown"
}

type RepairKind int

const (
	GreedyInsertion RepairKind = iota
	Regret2Insertion
	numRepairKinds
)

func (k RepairKind) String() string {
	switch k {
	case GreedyInsertion:
		return "greedy"
	case Regret2Insertion:
		return "regret2"
	}
	return "unknown"
}

// destroy removes k customers from a copy of sol and returns the copy plus
// the removed ids. Shrunk routes are re-priced (their vehicle may downsize).
func (pl *planner) destroy(kind DestroyKind, sol *Solution, k int, rng *rand.Rand) (*Solution, []int) {
	assigned := assignedCustomers(sol)
	if len(assigned) == 0 {
		return sol.Clone(), nil
	}
	if k > len(assigned) {
		k = len(assigned)
	}
	var removed []int
	switch kind {
	case RandomRemoval:
		perm := rng.Perm(len(assigned))
		for _, i := range perm[:k] {
			removed = append(removed, assigned[i])
		}
	case WorstRemoval:
		removed = pl.worstRemoval(sol, k, rng)
	case ShawRemoval:
		removed = pl.shawRemoval(sol, assigned, k, rng)
	}
	return pl.rebuild(sol, removed)
}

// assignedCustomers lists every customer in the solution in deterministic
// order.
func assignedCustomers(sol *Solution) []int {
	var out []int
	for _, r := range sol.Routes {
		out = append(out, r.Customers()...)
	}
	sort.Ints(out)
	return out
}

// worstRemoval ranks customers by the weighted-cost saving their removal
// yields on their own route, then samples k from the top 2k so the operator
// keeps some diversity. Ties break by node id for reproducibility.
func (pl *planner) worstRemoval(sol *Solution, k int, rng *rand.Rand) []int {
	type saving struct {
		node int
		gain float64
	}
	var savings []saving
	for _, r := range sol.Routes {
		for _, node := range r.Customers() {
			gain := r.Cost
			if len(r.Customers()) > 1 {
				if cand, ok := pl.buildRoute(seqWithout(r.Seq, node)); ok {
					gain = r.Cost - cand.Cost
				} else {
					// shrinking a feasible route should stay feasible;
					// treat a refusal as nothing to gain
					gain = 0
				}
			}
			savings = append(savings, saving{node: node, gain: gain})
		}
	}
	sort.Slice(savings, func(i, j int) bool {
		if savings[i].gain != savings[j].gain {
			return savings[i].gain > savings[j].gain
		}
		return savings[i].node < savings[j].node
	})
	pool := len(savings)
	if pool > 2*k {
		pool = 2 * k
	}
	perm := rng.Perm(pool)
	removed := make([]int, 0, k)
	for _, i := range perm {
		removed = append(removed, savings[i].node)
		if len(removed) == k {
			break
		}
	}
	return removed
}

// shawRemoval grows a removed set around a random seed by relatedness
// R(i,j) = dist(i,j)/maxDist + |vol_i - vol_j|/maxVolDiff. The normalizers
// are recomputed from the current solution on every call so the two terms
// stay comparable as the solution evolves.
func (pl *planner) shawRemoval(sol *Solution, assigned []int, k int, rng *rand.Rand) []int {
	maxDist, maxVolDiff := 0.0, 0.0
	vol := make(map[int]float64, len(assigned))
	for _, id := range assigned {
		vol[id] = float64(pl.prob.Nodes[id].DemandVolume())
	}
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			if d := pl.sel.Distance(assigned[i], assigned[j]); d > maxDist {
				maxDist = d
			}
			if dv := math.Abs(vol[assigned[i]] - vol[assigned[j]]); dv > maxVolDiff {
				maxVolDiff = dv
			}
		}
	}
	relatedness := func(a, b int) float64 {
		r := 0.0
		if maxDist > 0 {
			r += pl.sel.Distance(a, b) / maxDist
		}
		if maxVolDiff > 0 {
			r += math.Abs(vol[a]-vol[b]) / maxVolDiff
		}
		return r
	}

	removed := []int{assigned[rng.Intn(len(assigned))]}
	pool := make([]int, 0, len(assigned)-1)
	for _, id := range assigned {
		if id != removed[0] {
			pool = append(pool, id)
		}
	}
	for len(removed) < k && len(pool) > 0 {
		ref := removed[rng.Intn(len(removed))]
		sort.Slice(pool, func(i, j int) bool {
			ri, rj := relatedness(ref, pool[i]), relatedness(ref, pool[j])
			if ri != rj {
				return ri < rj
			}
			return pool[i] < pool[j]
		})
		// power-law pick biased towards the most related
		idx := int(math.Pow(rng.Float64(), 3) * float64(len(pool)))
		if idx >= len(pool) {
			idx = len(pool) - 1
		}
		removed = append(removed, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return removed
}

// rebuild drops the removed customers from a copy of sol and re-prices every
// route whose sequence changed. Routes left without customers disappear. If
// a shrunk route were ever rejected by the fleet its remaining customers join
// the removed set instead of being dropped.
func (pl *planner) rebuild(sol *Solution, removed []int) (*Solution, []int) {
	rm := make(map[int]bool, len(removed))
	for _, id := range removed {
		rm[id] = true
	}
	out := &Solution{}
	for _, r := range sol.Routes {
		kept := make([]int, 0, len(r.Seq))
		kept = append(kept, pl.prob.Start())
		changed := false
		for _, id := range r.Customers() {
			if rm[id] {
				changed = true
				continue
			}
			kept = append(kept, id)
		}
		if !changed {
			out.Routes = append(out.Routes, r)
			continue
		}
		if len(kept) == 1 {
			continue
		}
		kept = append(kept, pl.prob.End())
		nr, ok := pl.buildRoute(kept)
		if !ok {
			removed = append(removed, kept[1:len(kept)-1]...)
			continue
		}
		out.Routes = append(out.Routes, nr)
	}
	out.recompute()
	return out, removed
}

// move is one candidate insertion slot. routeIdx == -1 opens a new route.
type move struct {
	routeIdx int
	pos      int
}

type moveResult struct {
	move
	route *Route
	delta float64
	ok    bool
}

// insertionMoves enumerates the valid slots for node across the solution,
// honoring the bonded-at-position-1 rule inside the enumeration itself, and
// always including the new-route option.
func (pl *planner) insertionMoves(sol *Solution, node int) []move {
	bonded := pl.prob.Nodes[node].Bonded
	var moves []move
	for ri, r := range sol.Routes {
		if bonded {
			if r.hasBondedFirst(pl.prob) {
				continue // position 1 is taken by another bonded node
			}
			moves = append(moves, move{routeIdx: ri, pos: 1})
			continue
		}
		start := 1
		if r.hasBondedFirst(pl.prob) {
			start = 2
		}
		for pos := start; pos <= len(r.Seq)-1; pos++ {
			moves = append(moves, move{routeIdx: ri, pos: pos})
		}
	}
	moves = append(moves, move{routeIdx: -1, pos: 1})
	return moves
}

// evalMoves prices every candidate slot. Candidates are independent
// read-only evaluations, so they fan out across workers; each packing
// attempt builds its own height map and the pack cache takes its own lock.
func (pl *planner) evalMoves(sol *Solution, node int, moves []move) []moveResult {
	results := make([]moveResult, len(moves))
	eval := func(i int) {
		m := moves[i]
		var seq []int
		var base float64
		if m.routeIdx == -1 {
			seq = []int{pl.prob.Start(), node, pl.prob.End()}
		} else {
			r := sol.Routes[m.routeIdx]
			seq = seqInsert(r.Seq, node, m.pos)
			base = r.Cost
		}
		nr, ok := pl.buildRoute(seq)
		if !ok {
			results[i] = moveResult{move: m}
			return
		}
		results[i] = moveResult{move: m, route: nr, delta: nr.Cost - base, ok: true}
	}

	workers := pl.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(moves) {
		workers = len(moves)
	}
	if workers <= 1 {
		for i := range moves {
			eval(i)
		}
		return results
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(moves); i += workers {
				eval(i)
			}
		}(w)
	}
	wg.Wait()
	return results
}

// bestMove reduces evaluated candidates to the cheapest feasible one, with a
// deterministic tie-break: existing routes before a fresh one, then lower
// route index, then lower position.
func bestMove(results []moveResult) (moveResult, bool) {
	best := moveResult{}
	found := false
	better := func(a, b moveResult) bool {
		if a.delta != b.delta {
			return a.delta < b.delta
		}
		ai, bi := a.routeIdx, b.routeIdx
		if ai == -1 {
			ai = math.MaxInt32
		}
		if bi == -1 {
			bi = math.MaxInt32
		}
		if ai != bi {
			return ai < bi
		}
		return a.pos < b.pos
	}
	for _, res := range results {
		if !res.ok {
			continue
		}
		if !found || better(res, best) {
			best = res
			found = true
		}
	}
	return best, found
}

func (pl *planner) apply(sol *Solution, res moveResult) {
	if res.routeIdx == -1 {
		sol.Routes = append(sol.Routes, res.route)
	} else {
		sol.Routes[res.routeIdx] = res.route
	}
	sol.recompute()
}

// repair reinserts the removed customers into sol. It mutates sol (already a
// working copy) and returns an InfeasibleNodeError when some node fits
// nowhere, including a route of its own.
func (pl *planner) repair(kind RepairKind, sol *Solution, removed []int, rng *rand.Rand) error {
	switch kind {
	case GreedyInsertion:
		return pl.greedyInsertion(sol, removed, rng)
	case Regret2Insertion:
		return pl.regret2Insertion(sol, removed)
	}
	return nil
}

// greedyInsertion reinserts nodes one by one, each into its cheapest
// feasible slot. Insertion order is shuffled to diversify repairs.
func (pl *planner) greedyInsertion(sol *Solution, removed []int, rng *rand.Rand) error {
	nodes := append([]int(nil), removed...)
	sort.Ints(nodes)
	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	for _, node := range nodes {
		results := pl.evalMoves(sol, node, pl.insertionMoves(sol, node))
		best, ok := bestMove(results)
		if !ok {
			return &InfeasibleNodeError{Node: node, Platform: pl.prob.Nodes[node].PlatformCode}
		}
		pl.apply(sol, best)
	}
	return nil
}

// regret2Insertion repeatedly inserts the node with the highest regret (gap
// between its best and second-best slot) into its best slot. A node with a
// single feasible slot has maximal regret and goes first.
func (pl *planner) regret2Insertion(sol *Solution, removed []int) error {
	remaining := append([]int(nil), removed...)
	sort.Ints(remaining)
	for len(remaining) > 0 {
		bestNode := -1
		bestIdx := -1
		bestRegret := math.Inf(-1)
		var bestRes moveResult
		for idx, node := range remaining {
			results := pl.evalMoves(sol, node, pl.insertionMoves(sol, node))
			first, ok := bestMove(results)
			if !ok {
				return &InfeasibleNodeError{Node: node, Platform: pl.prob.Nodes[node].PlatformCode}
			}
			second := math.Inf(1)
			for _, res := range results {
				if !res.ok || res.move == first.move {
					continue
				}
				if res.delta < second {
					second = res.delta
				}
			}
			regret := second - first.delta // +Inf when only one slot exists
			if regret > bestRegret || (regret == bestRegret && bestNode != -1 && node < bestNode) {
				bestRegret = regret
				bestNode = node
				bestIdx = idx
				bestRes = first
			}
		}
		pl.apply(sol, bestRes)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return nil
}

func seqWithout(seq []int, node int) []int {
	out := make([]int, 0, len(seq)-1)
	for _, id := range seq {
		if id != node {
			out = append(out, id)
		}
	}
	return out
}

func seqInsert(seq []int, node, pos int) []int {
	out := make([]int, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, node)
	out = append(out, seq[pos:]...)
	return out
}
