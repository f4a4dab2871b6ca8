package pack

import (
	"testing"

	"binroute/internal/model"
)

func testVehicle(l, w, h int64, maxW float64) model.VehicleType {
	return model.VehicleType{ID: "vt1", Code: "CT1", L: l, W: w, H: h, MaxWeight: maxW}
}

func TestPackSingleItemExactFit(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(100, 100, 100, 1000)
	it := model.Item{ID: "b1", L: 100, W: 100, H: 100, Weight: 10, NodeID: 1}
	res := p.Pack(v, [][]model.Item{{it}})
	if !res.Feasible {
		t.Fatalf("exact-fit item must pack")
	}
	if res.LoadRate != 1.0 {
		t.Fatalf("load rate: got %v, want 1.0", res.LoadRate)
	}
	if len(res.Placements) != 1 || res.Placements[0].X != 0 || res.Placements[0].Z != 0 {
		t.Fatalf("unexpected placement: %+v", res.Placements)
	}
}

func TestPackOversizedItemInfeasible(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(100, 100, 100, 1000)
	it := model.Item{ID: "big", L: 150, W: 150, H: 150, Weight: 1}
	res := p.Pack(v, [][]model.Item{{it}})
	if res.Feasible {
		t.Fatalf("oversized item must fail")
	}
	if res.LoadRate != 0 {
		t.Fatalf("load rate on failure must be 0, got %v", res.LoadRate)
	}
}

func TestPackWeightPrecheck(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(1000, 1000, 1000, 5)
	it := model.Item{ID: "heavy", L: 10, W: 10, H: 10, Weight: 6}
	if res := p.Pack(v, [][]model.Item{{it}}); res.Feasible {
		t.Fatalf("overweight demand must fail the 1-D pre-check")
	}
}

func TestPackVisitOrderLoadsInnermostFirst(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(200, 100, 100, 1000)
	first := model.Item{ID: "stop1", L: 100, W: 100, H: 100, Weight: 1, NodeID: 1}
	second := model.Item{ID: "stop2", L: 100, W: 100, H: 100, Weight: 1, NodeID: 2}
	res := p.Pack(v, [][]model.Item{{first}, {second}})
	if !res.Feasible || len(res.Placements) != 2 {
		t.Fatalf("pack failed: %+v", res)
	}
	if res.Placements[0].Item.ID != "stop1" {
		t.Fatalf("first visit's item must be placed first")
	}
	if res.Placements[0].X >= res.Placements[1].X {
		t.Fatalf("earlier stop must sit deeper: first.X=%d second.X=%d",
			res.Placements[0].X, res.Placements[1].X)
	}
}

func TestPackStackingRequiresSupport(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(300, 100, 200, 1000)
	base := model.Item{ID: "base", L: 100, W: 100, H: 50, Weight: 1, NodeID: 1}
	// wider than the base: all four corners cannot rest on it
	wide := model.Item{ID: "wide", L: 200, W: 100, H: 50, Weight: 1, NodeID: 1}
	res := p.Pack(v, [][]model.Item{{base}, {wide}})
	if !res.Feasible {
		t.Fatalf("pack failed: %+v", res)
	}
	for _, pi := range res.Placements {
		if pi.Item.ID == "wide" && pi.Z != 0 {
			t.Fatalf("unsupported overhang must not float: placed at z=%d", pi.Z)
		}
	}
}

func TestPackStackOnFullSupport(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(100, 100, 200, 1000)
	base := model.Item{ID: "base", L: 100, W: 100, H: 100, Weight: 1, NodeID: 1}
	top := model.Item{ID: "top", L: 50, W: 50, H: 100, Weight: 1, NodeID: 2}
	res := p.Pack(v, [][]model.Item{{base}, {top}})
	if !res.Feasible {
		t.Fatalf("pack failed")
	}
	for _, pi := range res.Placements {
		if pi.Item.ID == "top" && pi.Z != 100 {
			t.Fatalf("fully supported item should stack at z=100, got %d", pi.Z)
		}
	}
}

func TestPackFailFast(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(100, 100, 100, 1000)
	a := model.Item{ID: "a", L: 100, W: 100, H: 100, Weight: 1, NodeID: 1}
	b := model.Item{ID: "b", L: 100, W: 100, H: 100, Weight: 1, NodeID: 2}
	if res := p.Pack(v, [][]model.Item{{a}, {b}}); res.Feasible {
		t.Fatalf("second item has no space, pack must fail")
	}
}

func TestPackDeterministic(t *testing.T) {
	v := testVehicle(200, 150, 120, 1000)
	groups := [][]model.Item{
		{{ID: "a", L: 80, W: 60, H: 40, Weight: 1, NodeID: 1}, {ID: "b", L: 60, W: 60, H: 60, Weight: 1, NodeID: 1}},
		{{ID: "c", L: 100, W: 50, H: 50, Weight: 1, NodeID: 2}},
	}
	p1 := New(10, 1.0, false)
	p2 := New(10, 1.0, false)
	r1 := p1.Pack(v, groups)
	r2 := p2.Pack(v, groups)
	if r1.Feasible != r2.Feasible || r1.LoadRate != r2.LoadRate {
		t.Fatalf("pack is not deterministic: %+v vs %+v", r1, r2)
	}
	for i := range r1.Placements {
		if r1.Placements[i] != r2.Placements[i] {
			t.Fatalf("placement %d differs: %+v vs %+v", i, r1.Placements[i], r2.Placements[i])
		}
	}
}

func TestPackCacheReturnsSameResult(t *testing.T) {
	p := New(10, 1.0, true)
	v := testVehicle(200, 100, 100, 1000)
	groups := [][]model.Item{{{ID: "x", L: 90, W: 90, H: 90, Weight: 1, NodeID: 1}}}
	r1 := p.Pack(v, groups)
	r2 := p.Pack(v, groups)
	if r1.Feasible != r2.Feasible || r1.LoadRate != r2.LoadRate {
		t.Fatalf("cached result differs")
	}
}

func TestPackShrinkingDemandStaysFeasible(t *testing.T) {
	p := New(10, 1.0, false)
	v := testVehicle(300, 100, 100, 1000)
	a := model.Item{ID: "a", L: 100, W: 100, H: 100, Weight: 1, NodeID: 1}
	b := model.Item{ID: "b", L: 100, W: 100, H: 100, Weight: 1, NodeID: 1}
	c := model.Item{ID: "c", L: 100, W: 100, H: 100, Weight: 1, NodeID: 2}
	full := p.Pack(v, [][]model.Item{{a, b}, {c}})
	if !full.Feasible {
		t.Fatalf("full demand must pack: %+v", full)
	}
	// dropping an item from a feasible set must never break it
	smaller := p.Pack(v, [][]model.Item{{a}, {c}})
	if !smaller.Feasible {
		t.Fatalf("reduced demand must stay feasible")
	}
	if smaller.LoadRate >= full.LoadRate {
		t.Fatalf("load rate must shrink with demand: %v vs %v", smaller.LoadRate, full.LoadRate)
	}
}

func TestSignatureDependsOnVehicleAndOrder(t *testing.T) {
	a := model.Item{ID: "a"}
	b := model.Item{ID: "b"}
	v1 := model.VehicleType{Code: "CT1"}
	v2 := model.VehicleType{Code: "CT2"}
	s1 := Signature(v1, [][]model.Item{{a, b}})
	s2 := Signature(v1, [][]model.Item{{b, a}})
	s3 := Signature(v2, [][]model.Item{{a, b}})
	if s1 == s2 {
		t.Fatalf("item order must change the signature")
	}
	if s1 == s3 {
		t.Fatalf("vehicle type must change the signature")
	}
}
