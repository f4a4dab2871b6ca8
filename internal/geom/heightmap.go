package geom

// HeightMap discretizes a cargo floor into a grid of cells, each holding the
// highest occupied elevation at that spot and which placement terminates
// there. It answers O(1) corner probes and O(cells) area-support queries.
// A map is created fresh per packing attempt and never shared across
// attempts.
type HeightMap struct {
	precision int64
	gx, gy    int
	heights   []int64
	owners    []int
}

// NewHeightMap creates a map over an l x w floor (millimeters) with the given
// grid precision. Partial cells at the far edges are included.
func NewHeightMap(l, w, precision int64) *HeightMap {
	if precision <= 0 {
		precision = 1
	}
	gx := int((l + precision - 1) / precision)
	gy := int((w + precision - 1) / precision)
	m := &HeightMap{precision: precision, gx: gx, gy: gy}
	m.heights = make([]int64, gx*gy)
	m.owners = make([]int, gx*gy)
	for i := range m.owners {
		m.owners[i] = -1
	}
	return m
}

// cellRange maps a footprint to inclusive-start, exclusive-end cell indices.
// floor(start) and ceil(end) so every touched cell is covered.
func (m *HeightMap) cellRange(x, y, l, w int64) (ix, iy, ixEnd, iyEnd int) {
	p := m.precision
	ix = int(x / p)
	iy = int(y / p)
	ixEnd = int((x + l + p - 1) / p)
	iyEnd = int((y + w + p - 1) / p)
	return
}

func (m *HeightMap) at(ix, iy int) int64 { return m.heights[ix*m.gy+iy] }

// Support reports how well a base footprint at elevation z rests on the
// current surface. cornersOK is the O(1) four-corner probe and is evaluated
// first: when any corner is unsupported the full area ratio is not computed
// and 0 is returned. A cell supports the base iff its height has reached z.
// Anything on the floor (z == 0) is fully supported.
func (m *HeightMap) Support(x, y, l, w, z int64) (ratio float64, cornersOK bool) {
	ix, iy, ixEnd, iyEnd := m.cellRange(x, y, l, w)
	if ix < 0 || iy < 0 || ixEnd > m.gx || iyEnd > m.gy {
		return 0, false
	}
	if z <= 0 {
		return 1, true
	}
	if m.at(ix, iy) < z || m.at(ixEnd-1, iy) < z ||
		m.at(ix, iyEnd-1) < z || m.at(ixEnd-1, iyEnd-1) < z {
		return 0, false
	}
	total := (ixEnd - ix) * (iyEnd - iy)
	if total == 0 {
		return 0, false
	}
	supported := 0
	for cx := ix; cx < ixEnd; cx++ {
		for cy := iy; cy < iyEnd; cy++ {
			if m.at(cx, cy) >= z {
				supported++
			}
		}
	}
	return float64(supported) / float64(total), true
}

// MaxHeight returns the highest elevation under the footprint, used as a
// broad-phase cull before exact overlap tests. Out-of-bounds footprints
// report an impossibly large height.
func (m *HeightMap) MaxHeight(x, y, l, w int64) int64 {
	ix, iy, ixEnd, iyEnd := m.cellRange(x, y, l, w)
	if ix < 0 || iy < 0 || ixEnd > m.gx || iyEnd > m.gy {
		return int64(1) << 62
	}
	var max int64
	for cx := ix; cx < ixEnd; cx++ {
		for cy := iy; cy < iyEnd; cy++ {
			if h := m.at(cx, cy); h > max {
				max = h
			}
		}
	}
	return max
}

// Commit raises the cells under the footprint to zTop and records owner as
// the placement terminating there. Cells already above zTop are left alone.
func (m *HeightMap) Commit(x, y, l, w, zTop int64, owner int) {
	ix, iy, ixEnd, iyEnd := m.cellRange(x, y, l, w)
	if ix < 0 {
		ix = 0
	}
	if iy < 0 {
		iy = 0
	}
	if ixEnd > m.gx {
		ixEnd = m.gx
	}
	if iyEnd > m.gy {
		iyEnd = m.gy
	}
	for cx := ix; cx < ixEnd; cx++ {
		for cy := iy; cy < iyEnd; cy++ {
			idx := cx*m.gy + cy
			if m.heights[idx] < zTop {
				m.heights[idx] = zTop
				m.owners[idx] = owner
			}
		}
	}
}

// OwnerAt returns the placement index terminating at the cell covering
// (x, y), or -1 for bare floor.
func (m *HeightMap) OwnerAt(x, y int64) int {
	ix := int(x / m.precision)
	iy := int(y / m.precision)
	if ix < 0 || iy < 0 || ix >= m.gx || iy >= m.gy {
		return -1
	}
	return m.owners[ix*m.gy+iy]
}
