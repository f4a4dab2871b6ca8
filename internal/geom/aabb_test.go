package geom

import "testing"

func TestOverlapsBasic(t *testing.T) {
	a := Box{X: 0, Y: 0, Z: 0, LX: 100, LY: 100, LZ: 100}
	b := Box{X: 50, Y: 50, Z: 50, LX: 100, LY: 100, LZ: 100}
	if !Overlaps(a, b) {
		t.Fatalf("expected overlap")
	}
	c := Box{X: 200, Y: 0, Z: 0, LX: 10, LY: 10, LZ: 10}
	if Overlaps(a, c) {
		t.Fatalf("disjoint boxes must not overlap")
	}
}

func TestOverlapsSymmetric(t *testing.T) {
	a := Box{X: 0, Y: 0, Z: 0, LX: 30, LY: 30, LZ: 30}
	b := Box{X: 10, Y: 10, Z: 10, LX: 30, LY: 30, LZ: 30}
	if Overlaps(a, b) != Overlaps(b, a) {
		t.Fatalf("overlap must be symmetric")
	}
}

func TestOverlapsFaceTouchExcluded(t *testing.T) {
	a := Box{X: 0, Y: 0, Z: 0, LX: 100, LY: 100, LZ: 100}
	// shares exactly the x=100 plane
	b := Box{X: 100, Y: 0, Z: 0, LX: 100, LY: 100, LZ: 100}
	if Overlaps(a, b) || Overlaps(b, a) {
		t.Fatalf("face-touching boxes must not overlap")
	}
	// stacked: shares the z=100 plane
	c := Box{X: 0, Y: 0, Z: 100, LX: 100, LY: 100, LZ: 100}
	if Overlaps(a, c) {
		t.Fatalf("stacked boxes touching on a face must not overlap")
	}
}
