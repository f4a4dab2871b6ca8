package fleet

import (
	"errors"
	"math"
	"sort"

	"binroute/internal/model"
	"binroute/internal/pack"
)

// ErrInfeasible means no vehicle type in the catalog admits the item set.
// Callers treat it as "this move is not viable", never as a fatal condition.
var ErrInfeasible = errors.New("fleet: no vehicle type admits item set")

// Selector picks the cheapest vehicle type able to carry an ordered visit
// sequence. The catalog is kept sorted by ascending cargo volume so the first
// feasible type is the cheapest. Safe for concurrent use.
type Selector struct {
	problem  *model.Problem
	vehicles []model.VehicleType
	packer   *pack.Packer
}

// NewSelector builds a Selector over the problem's catalog.
func NewSelector(p *model.Problem, packer *pack.Packer) *Selector {
	vs := append([]model.VehicleType(nil), p.Vehicles...)
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Volume() != vs[j].Volume() {
			return vs[i].Volume() < vs[j].Volume()
		}
		return vs[i].Code < vs[j].Code
	})
	return &Selector{problem: p, vehicles: vs, packer: packer}
}

// Vehicles returns the catalog in ascending cost order.
func (s *Selector) Vehicles() []model.VehicleType { return s.vehicles }

// Distance returns the matrix distance between two nodes, falling back to
// Euclidean coordinates when the pair is missing from the matrix.
func (s *Selector) Distance(i, j int) float64 {
	if i == j {
		return 0
	}
	m := s.problem.Matrix
	if i < len(m) && j < len(m[i]) {
		if d := m[i][j]; !math.IsInf(d, 1) {
			return d
		}
	}
	a, b := s.problem.Nodes[i], s.problem.Nodes[j]
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// SequenceDistance sums leg distances along a visit sequence.
func (s *Selector) SequenceDistance(seq []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(seq); i++ {
		total += s.Distance(seq[i], seq[i+1])
	}
	return total
}

// Groups collects each customer's items in visit order, skipping depots.
func (s *Selector) Groups(seq []int) [][]model.Item {
	groups := make([][]model.Item, 0, len(seq))
	for _, id := range seq {
		if id == s.problem.Start() || id == s.problem.End() {
			continue
		}
		groups = append(groups, s.problem.Nodes[id].Items)
	}
	return groups
}

// FindBestVehicle walks the catalog from cheapest to largest, running the 1-D
// weight/volume pre-check before each packing attempt, and returns the first
// type whose pack is feasible. Returns ErrInfeasible when the catalog is
// exhausted.
func (s *Selector) FindBestVehicle(seq []int) (model.VehicleType, model.PackResult, error) {
	groups := s.Groups(seq)
	var weight float64
	var volume int64
	for _, g := range groups {
		for _, it := range g {
			weight += it.Weight
			volume += it.Volume()
		}
	}
	for _, v := range s.vehicles {
		if weight > v.MaxWeight || volume > v.Volume() {
			continue
		}
		if res := s.packer.Pack(v, groups); res.Feasible {
			return v, res, nil
		}
	}
	return model.VehicleType{}, model.PackResult{}, ErrInfeasible
}
