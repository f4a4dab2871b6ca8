package opt

import (
	"errors"
	"fmt"

	"binroute/internal/fleet"
	"binroute/internal/model"
)

// ErrStructuralInfeasible marks a node whose demand cannot be carried by any
// vehicle in the catalog on its own. At initialization this is fatal for the
// whole instance; mid-search it only kills the candidate solution.
var ErrStructuralInfeasible = errors.New("structurally infeasible")

// InfeasibleNodeError names the offending node.
type InfeasibleNodeError struct {
	Node     int
	Platform string
}

func (e *InfeasibleNodeError) Error() string {
	return fmt.Sprintf("structurally infeasible: node %d (%s) fits no vehicle type", e.Node, e.Platform)
}

func (e *InfeasibleNodeError) Unwrap() error { return ErrStructuralInfeasible }

// Route is one vehicle's visit sequence plus cached derived metrics. Routes
// are built once by the planner and never mutated afterwards; operators
// replace whole routes instead of editing them, so cached metrics can never
// go stale.
type Route struct {
	Vehicle  model.VehicleType
	Seq      []int // [start depot, customers..., end depot]
	Distance float64
	LoadRate float64
	Packing  []model.PlacedItem
	Cost     float64 // alpha*(1-loadRate) + beta*distance
}

// Customers returns the route's customer ids (depots excluded).
func (r *Route) Customers() []int { return r.Seq[1 : len(r.Seq)-1] }

// HasBonded reports whether position 1 holds a bonded node.
func (r *Route) hasBondedFirst(prob *model.Problem) bool {
	return len(r.Seq) > 2 && prob.Nodes[r.Seq[1]].Bonded
}

// Solution is a set of routes partitioning all customers. Cost is the sum of
// per-route weighted costs.
type Solution struct {
	Routes []*Route
	Cost   float64
}

// Clone copies the route list. Route objects are shared: they are immutable,
// so replacing entries in the copy never disturbs the original.
func (s *Solution) Clone() *Solution {
	return &Solution{Routes: append([]*Route(nil), s.Routes...), Cost: s.Cost}
}

func (s *Solution) recompute() {
	total := 0.0
	for _, r := range s.Routes {
		total += r.Cost
	}
	s.Cost = total
}

// TotalDistance sums route distances.
func (s *Solution) TotalDistance() float64 {
	total := 0.0
	for _, r := range s.Routes {
		total += r.Distance
	}
	return total
}

// AvgLoadRate averages route load rates; 0 for an empty solution.
func (s *Solution) AvgLoadRate() float64 {
	if len(s.Routes) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range s.Routes {
		total += r.LoadRate
	}
	return total / float64(len(s.Routes))
}

// planner builds priced routes and applies destroy/repair moves. It holds
// only read-only state and is safe to share across evaluation goroutines.
type planner struct {
	prob    *model.Problem
	sel     *fleet.Selector
	alpha   float64
	beta    float64
	workers int
}

// buildRoute prices a visit sequence: cheapest feasible vehicle, leg
// distances, weighted cost. ok is false when the fleet rejects the sequence.
func (pl *planner) buildRoute(seq []int) (*Route, bool) {
	v, res, err := pl.sel.FindBestVehicle(seq)
	if err != nil {
		return nil, false
	}
	dist := pl.sel.SequenceDistance(seq)
	r := &Route{
		Vehicle:  v,
		Seq:      append([]int(nil), seq...),
		Distance: dist,
		LoadRate: res.LoadRate,
		Packing:  res.Placements,
	}
	r.Cost = pl.alpha*(1-r.LoadRate) + pl.beta*dist
	return r, true
}

// validate checks the solution invariants: depots pinned at both ends,
// bonded nodes only at position 1, and every customer present exactly once.
func (pl *planner) validate(s *Solution) error {
	seen := make(map[int]int, len(pl.prob.Nodes))
	for _, r := range s.Routes {
		if len(r.Seq) < 3 {
			return fmt.Errorf("route with no customers")
		}
		if r.Seq[0] != pl.prob.Start() || r.Seq[len(r.Seq)-1] != pl.prob.End() {
			return fmt.Errorf("route does not start/end at the depots: %v", r.Seq)
		}
		for i, id := range r.Customers() {
			if pl.prob.Nodes[id].Bonded && i != 0 {
				return fmt.Errorf("bonded node %d at position %d", id, i+1)
			}
			seen[id]++
		}
	}
	for _, id := range pl.prob.Customers() {
		if seen[id] != 1 {
			return fmt.Errorf("customer %d appears %d times", id, seen[id])
		}
	}
	return nil
}
