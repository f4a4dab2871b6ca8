package report

import (
	"bytes"
	"strings"
	"testing"

	"binroute/internal/model"
	"binroute/internal/opt"
)

func reportFixture() (*model.Problem, *opt.Solution) {
	itemA := model.Item{ID: "b1", L: 400, W: 300, H: 200, Weight: 12.5, NodeID: 1}
	itemB := model.Item{ID: "b2", L: 100, W: 100, H: 100, Weight: 4, NodeID: 2}
	prob := &model.Problem{
		Code: "E100",
		Nodes: []model.Node{
			{ID: 0},
			{ID: 1, PlatformCode: "PA", Items: []model.Item{itemA}},
			{ID: 2, PlatformCode: "PB", Items: []model.Item{itemB}},
			{ID: 3},
		},
	}
	v := model.VehicleType{ID: "40001", Code: "CT10", L: 1000, W: 800, H: 600, MaxWeight: 100}
	route := &opt.Route{
		Vehicle:  v,
		Seq:      []int{0, 2, 1, 3},
		Distance: 215.5,
		LoadRate: 0.5,
		Packing: []model.PlacedItem{
			// visit order: PB's box loads first (innermost)
			{Item: itemB, X: 0, Y: 0, Z: 0, LX: 100, LY: 100, LZ: 100},
			// rotated 90 degrees: width along the length axis
			{Item: itemA, X: 100, Y: 0, Z: 0, LX: 300, LY: 400, LZ: 200},
		},
		Cost: 42,
	}
	sol := &opt.Solution{Routes: []*opt.Route{route}, Cost: 42}
	return prob, sol
}

func TestBuildSchema(t *testing.T) {
	prob, sol := reportFixture()
	res := Build(prob, sol)
	if res.EstimateCode != "E100" {
		t.Fatalf("estimateCode: %s", res.EstimateCode)
	}
	if len(res.SolutionArray) != 1 || len(res.SolutionArray[0]) != 1 {
		t.Fatalf("solutionArray must nest one solution with one vehicle")
	}
	v := res.SolutionArray[0][0]
	if v.TruckTypeID != "40001" || v.TruckTypeCode != "CT10" {
		t.Fatalf("vehicle identity: %+v", v)
	}
	if v.Piece != 2 || len(v.SpuArray) != 2 {
		t.Fatalf("piece count: %+v", v)
	}
	// volume reports the boxes' nominal volume, not the vehicle's
	wantVol := float64(400*300*200 + 100*100*100)
	if v.Volume != wantVol {
		t.Fatalf("volume: got %v, want %v", v.Volume, wantVol)
	}
	if v.Weight != 16.5 || v.MaxLoadWeight != 100 {
		t.Fatalf("weights: %+v", v)
	}
	if v.InnerLength != 1000 || v.InnerWidth != 800 || v.InnerHeight != 600 {
		t.Fatalf("inner dims: %+v", v)
	}
	// platforms in visit order, not loading order
	if len(v.PlatformArray) != 2 || v.PlatformArray[0] != "PB" || v.PlatformArray[1] != "PA" {
		t.Fatalf("platformArray: %v", v.PlatformArray)
	}
}

func TestSpuTransform(t *testing.T) {
	prob, sol := reportFixture()
	v := Build(prob, sol).SolutionArray[0][0]

	first := v.SpuArray[0]
	if first.SpuID != "b2" || first.PlatformCode != "PB" || first.Order != 1 {
		t.Fatalf("first spu: %+v", first)
	}
	if first.Direction != 100 {
		t.Fatalf("cube keeps direction 100, got %d", first.Direction)
	}
	// cube center (50,50,50) against the vehicle center (500,400,300),
	// remapped so output z runs along the vehicle length
	if first.X != -350 || first.Y != -250 || first.Z != -450 {
		t.Fatalf("first coords: %+v", first)
	}

	second := v.SpuArray[1]
	if second.Order != 2 || second.Direction != 200 {
		t.Fatalf("rotated spu: %+v", second)
	}
	if second.X != -200 || second.Y != -200 || second.Z != -250 {
		t.Fatalf("rotated coords: %+v", second)
	}
	// dimensions are the placed ones, axis-tagged for the consumer
	if second.Length != 300 || second.Width != 400 || second.Height != 200 {
		t.Fatalf("rotated dims: %+v", second)
	}
}

func TestDirectionCodes(t *testing.T) {
	it := model.Item{L: 3, W: 2, H: 1}
	cases := []struct {
		lx, ly int64
		want   int
	}{
		{3, 2, 100}, {2, 3, 200}, {3, 1, 300}, {1, 3, 400}, {2, 1, 500}, {1, 2, 600},
	}
	for _, c := range cases {
		got := direction(model.PlacedItem{Item: it, LX: c.lx, LY: c.ly})
		if got != c.want {
			t.Errorf("direction(%d,%d): got %d, want %d", c.lx, c.ly, got, c.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	prob, sol := reportFixture()
	var buf bytes.Buffer
	if err := Build(prob, sol).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"estimateCode": "E100"`, `"solutionArray"`, `"spuId": "b2"`, `    "`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText(t *testing.T) {
	prob, sol := reportFixture()
	var buf bytes.Buffer
	if err := WriteText(&buf, prob, sol); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"SOLUTION REPORT: E100",
		"Total Vehicles Used:   1",
		"Objective Cost:        42.00",
		"Route:      PB -> PA",
		"Vehicle #1 (Type: CT10)",
		"2 items",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTextEmptySolution(t *testing.T) {
	prob, _ := reportFixture()
	var buf bytes.Buffer
	if err := WriteText(&buf, prob, &opt.Solution{}); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Vehicles Used:   0") {
		t.Fatalf("empty solution report wrong:\n%s", buf.String())
	}
}
