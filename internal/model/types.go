package model

// Core domain types shared by the loader, packer, fleet selector and solver.
// All linear dimensions are integer millimeters; weights are kilograms.

// Item is a rigid cuboid belonging to one customer node. Immutable once loaded.
type Item struct {
	ID     string
	L      int64
	W      int64
	H      int64
	Weight float64
	NodeID int
}

// Volume returns the item volume in cubic millimeters.
func (it Item) Volume() int64 { return it.L * it.W * it.H }

// Orientations returns the distinct axis-aligned rotations of the item as
// (l, w, h) triples, in a deterministic order.
func (it Item) Orientations() [][3]int64 {
	perms := [6][3]int64{
		{it.L, it.W, it.H}, {it.L, it.H, it.W},
		{it.W, it.L, it.H}, {it.W, it.H, it.L},
		{it.H, it.L, it.W}, {it.H, it.W, it.L},
	}
	out := make([][3]int64, 0, 6)
	for _, p := range perms {
		dup := false
		for _, q := range out {
			if p == q {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, [3]int64{p[0], p[1], p[2]})
		}
	}
	return out
}

// Node is a depot or customer stop. Index 0 is the start depot and index N+1
// the end depot in Problem.Nodes. Immutable once loaded.
type Node struct {
	ID           int
	PlatformCode string
	Bonded       bool // must be the first customer visited on its route
	X, Y         float64
	Items        []Item
}

// DemandVolume is the total volume of the node's items.
func (n Node) DemandVolume() int64 {
	var v int64
	for _, it := range n.Items {
		v += it.Volume()
	}
	return v
}

// DemandWeight is the total weight of the node's items.
func (n Node) DemandWeight() float64 {
	var w float64
	for _, it := range n.Items {
		w += it.Weight
	}
	return w
}

// VehicleType is one catalog entry, shared by reference across routes.
type VehicleType struct {
	ID        string // catalog id (truckTypeId)
	Code      string // truckTypeCode, unique within a catalog
	L         int64
	W         int64
	H         int64
	MaxWeight float64
}

// Volume returns the cargo volume in cubic millimeters.
func (v VehicleType) Volume() int64 { return v.L * v.W * v.H }

// PlacedItem is an item bound to a position and orientation inside one
// packing attempt. Never persisted beyond the attempt that produced it.
type PlacedItem struct {
	Item Item
	X    int64
	Y    int64
	Z    int64
	LX   int64
	LY   int64
	LZ   int64
}

// PackResult reports the outcome of a packing attempt. LoadRate is 0 when
// infeasible.
type PackResult struct {
	Feasible   bool
	LoadRate   float64
	Placements []PlacedItem
}

// Problem is a fully loaded instance: nodes (start depot, customers, end
// depot), the vehicle catalog and the distance matrix. Read-only for the
// duration of a run.
type Problem struct {
	Code     string // instance identifier (estimateCode)
	Nodes    []Node
	Vehicles []VehicleType
	Matrix   [][]float64 // indexed by node id; +Inf marks a missing pair
}

// Start returns the start-depot node index.
func (p *Problem) Start() int { return 0 }

// End returns the end-depot node index.
func (p *Problem) End() int { return len(p.Nodes) - 1 }

// Customers returns the ids of all customer nodes.
func (p *Problem) Customers() []int {
	out := make([]int, 0, len(p.Nodes)-2)
	for i := 1; i < len(p.Nodes)-1; i++ {
		out = append(out, i)
	}
	return out
}
