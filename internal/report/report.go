package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"binroute/internal/model"
	"binroute/internal/opt"
)

// Result is the downstream estimate schema: one solution, one vehicle entry
// per route, placements in loading order.
type Result struct {
	EstimateCode  string      `json:"estimateCode"`
	SolutionArray [][]Vehicle `json:"solutionArray"`
}

type Vehicle struct {
	TruckTypeID   string   `json:"truckTypeId"`
	TruckTypeCode string   `json:"truckTypeCode"`
	Piece         int      `json:"piece"`
	Volume        float64  `json:"volume"`
	Weight        float64  `json:"weight"`
	InnerLength   float64  `json:"innerLength"`
	InnerWidth    float64  `json:"innerWidth"`
	InnerHeight   float64  `json:"innerHeight"`
	MaxLoadWeight float64  `json:"maxLoadWeight"`
	PlatformArray []string `json:"platformArray"`
	SpuArray      []Spu    `json:"spuArray"`
}

// Spu is one placed box. Coordinates are center-origin with the consumer's
// axis convention: its x runs along the vehicle width, y along the height and
// z along the length.
type Spu struct {
	SpuID        string  `json:"spuId"`
	PlatformCode string  `json:"platformCode"`
	Direction    int     `json:"direction"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Order        int     `json:"order"`
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
}

// Build converts a solved instance into the wire schema.
func Build(prob *model.Problem, sol *opt.Solution) Result {
	routes := make([]Vehicle, 0, len(sol.Routes))
	for _, r := range sol.Routes {
		routes = append(routes, buildVehicle(prob, r))
	}
	return Result{EstimateCode: prob.Code, SolutionArray: [][]Vehicle{routes}}
}

func buildVehicle(prob *model.Problem, r *opt.Route) Vehicle {
	var weight float64
	var itemVolume int64
	spus := make([]Spu, 0, len(r.Packing))
	for idx, pi := range r.Packing {
		weight += pi.Item.Weight
		itemVolume += pi.Item.Volume()
		spus = append(spus, buildSpu(prob, r.Vehicle, pi, idx+1))
	}

	platforms := make([]string, 0, len(r.Customers()))
	for _, id := range r.Customers() {
		platforms = append(platforms, prob.Nodes[id].PlatformCode)
	}

	return Vehicle{
		TruckTypeID:   r.Vehicle.ID,
		TruckTypeCode: r.Vehicle.Code,
		Piece:         len(spus),
		Volume:        float64(itemVolume),
		Weight:        weight,
		InnerLength:   float64(r.Vehicle.L),
		InnerWidth:    float64(r.Vehicle.W),
		InnerHeight:   float64(r.Vehicle.H),
		MaxLoadWeight: r.Vehicle.MaxWeight,
		PlatformArray: platforms,
		SpuArray:      spus,
	}
}

func buildSpu(prob *model.Problem, v model.VehicleType, pi model.PlacedItem, order int) Spu {
	// center of the placement, shifted so the cargo-space center is the origin
	cx := float64(pi.X) + float64(pi.LX)/2 - float64(v.L)/2
	cy := float64(pi.Y) + float64(pi.LY)/2 - float64(v.W)/2
	cz := float64(pi.Z) + float64(pi.LZ)/2 - float64(v.H)/2
	return Spu{
		SpuID:        pi.Item.ID,
		PlatformCode: prob.Nodes[pi.Item.NodeID].PlatformCode,
		Direction:    direction(pi),
		X:            cy,
		Y:            cz,
		Z:            cx,
		Order:        order,
		Length:       float64(pi.LX),
		Width:        float64(pi.LY),
		Height:       float64(pi.LZ),
		Weight:       pi.Item.Weight,
	}
}

// direction encodes the placed orientation against the item's nominal dims:
// 100 l,w 200 w,l 300 l,h 400 h,l 500 w,h 600 h,w along the length and
// width axes.
func direction(pi model.PlacedItem) int {
	l, w, h := pi.Item.L, pi.Item.W, pi.Item.H
	switch {
	case pi.LX == l && pi.LY == w:
		return 100
	case pi.LX == w && pi.LY == l:
		return 200
	case pi.LX == l && pi.LY == h:
		return 300
	case pi.LX == h && pi.LY == l:
		return 400
	case pi.LX == w && pi.LY == h:
		return 500
	case pi.LX == h && pi.LY == w:
		return 600
	}
	return 100
}

// WriteJSON writes the result with the consumer's 4-space indentation.
func (res Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(res)
}

// WriteText writes the human-readable run report.
func WriteText(w io.Writer, prob *model.Problem, sol *opt.Solution) error {
	var b strings.Builder
	rule := strings.Repeat("=", 50) + "\n"

	var weightUtil float64
	for _, r := range sol.Routes {
		var loaded float64
		for _, pi := range r.Packing {
			loaded += pi.Item.Weight
		}
		if r.Vehicle.MaxWeight > 0 {
			weightUtil += loaded / r.Vehicle.MaxWeight
		}
	}
	if len(sol.Routes) > 0 {
		weightUtil /= float64(len(sol.Routes))
	}

	b.WriteString(rule)
	fmt.Fprintf(&b, "       SOLUTION REPORT: %s\n", prob.Code)
	b.WriteString(rule)
	b.WriteString("\nGlobal Metrics:\n")
	fmt.Fprintf(&b, "  - Total Vehicles Used:   %d\n", len(sol.Routes))
	fmt.Fprintf(&b, "  - Objective Cost:        %.2f\n", sol.Cost)
	fmt.Fprintf(&b, "  - Total Distance:        %.2f m\n", sol.TotalDistance())
	fmt.Fprintf(&b, "  - Avg Volume Util:       %.2f%%\n", sol.AvgLoadRate()*100)
	fmt.Fprintf(&b, "  - Avg Weight Util:       %.2f%%\n\n", weightUtil*100)
	b.WriteString(rule)
	b.WriteString("       VEHICLE DETAILS\n")
	b.WriteString(rule)
	b.WriteString("\n")

	for idx, r := range sol.Routes {
		var loadedVol int64
		var loadedWeight float64
		for _, pi := range r.Packing {
			loadedVol += pi.Item.Volume()
			loadedWeight += pi.Item.Weight
		}
		stops := make([]string, 0, len(r.Customers()))
		for _, id := range r.Customers() {
			stops = append(stops, prob.Nodes[id].PlatformCode)
		}
		fmt.Fprintf(&b, "Vehicle #%d (Type: %s)\n", idx+1, r.Vehicle.Code)
		b.WriteString(strings.Repeat("-", 50) + "\n")
		fmt.Fprintf(&b, "  Route:      %s\n", strings.Join(stops, " -> "))
		fmt.Fprintf(&b, "  Distance:   %.2f\n", r.Distance)
		fmt.Fprintf(&b, "  Load:       %d items\n", len(r.Packing))
		fmt.Fprintf(&b, "  Volume:     %.2f m^3 / %.2f m^3 (%.2f%%)\n",
			float64(loadedVol)/1e9, float64(r.Vehicle.Volume())/1e9, r.LoadRate*100)
		fmt.Fprintf(&b, "  Weight:     %.2f kg / %.2f kg (%.2f%%)\n\n",
			loadedWeight, r.Vehicle.MaxWeight, safePct(loadedWeight, r.Vehicle.MaxWeight))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func safePct(loaded, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return loaded / max * 100
}
