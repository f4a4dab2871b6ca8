package geom

// Box is an axis-aligned cuboid anchored at its minimum corner.
type Box struct {
	X, Y, Z    int64
	LX, LY, LZ int64
}

// MaxX returns the exclusive upper bound on the X axis.
func (b Box) MaxX() int64 { return b.X + b.LX }

// MaxY returns the exclusive upper bound on the Y axis.
func (b Box) MaxY() int64 { return b.Y + b.LY }

// MaxZ returns the exclusive upper bound on the Z axis.
func (b Box) MaxZ() int64 { return b.Z + b.LZ }

// Overlaps reports whether two boxes intersect in all three axes. Boxes that
// merely share a boundary plane do not overlap.
func Overlaps(a, b Box) bool {
	if a.MaxX() <= b.X || a.X >= b.MaxX() {
		return false
	}
	if a.MaxY() <= b.Y || a.Y >= b.MaxY() {
		return false
	}
	if a.MaxZ() <= b.Z || a.Z >= b.MaxZ() {
		return false
	}
	return true
}
