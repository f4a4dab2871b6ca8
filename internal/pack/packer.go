package pack

import (
	"sort"
	"time"

	"binroute/internal/geom"
	"binroute/internal/metrics"
	"binroute/internal/model"
)

// Packer is the sequence-dependent loading oracle. Items are placed strictly
// in visit order so later-loaded cargo never blocks earlier deliveries; a
// failed placement fails the whole attempt because later items cannot
// rearrange earlier ones.
//
// A Packer is safe for concurrent use: every attempt owns its own transient
// height map, and the memo cache takes its own lock.
type Packer struct {
	grid         int64
	supportRatio float64
	cache        *resultCache
}

// New creates a Packer with the given grid precision (millimeters) and
// minimum base support ratio. cacheEnabled turns on memoization of results
// keyed by (vehicle code, ordered item ids).
func New(grid int64, supportRatio float64, cacheEnabled bool) *Packer {
	p := &Packer{grid: grid, supportRatio: supportRatio}
	if cacheEnabled {
		p.cache = newResultCache()
	}
	return p
}

// Pack attempts to load groups (one slice of items per visited node, in
// visit order) into the vehicle's cargo volume.
func (p *Packer) Pack(v model.VehicleType, groups [][]model.Item) model.PackResult {
	var key string
	if p.cache != nil {
		key = Signature(v, groups)
		if res, ok := p.cache.get(key); ok {
			metrics.PackCache.WithLabelValues("hit").Inc()
			return res
		}
		metrics.PackCache.WithLabelValues("miss").Inc()
	}
	start := time.Now()
	res := p.pack(v, groups)
	metrics.PackDuration.Observe(time.Since(start).Seconds())
	if res.Feasible {
		metrics.PackAttempts.WithLabelValues("feasible").Inc()
	} else {
		metrics.PackAttempts.WithLabelValues("infeasible").Inc()
	}
	if p.cache != nil {
		p.cache.put(key, res)
	}
	return res
}

func (p *Packer) pack(v model.VehicleType, groups [][]model.Item) model.PackResult {
	// 1-D pre-check: aggregate weight and volume before any geometry.
	var weight float64
	var volume int64
	for _, g := range groups {
		for _, it := range g {
			weight += it.Weight
			volume += it.Volume()
		}
	}
	if weight > v.MaxWeight || volume > v.Volume() {
		return model.PackResult{}
	}

	hm := geom.NewHeightMap(v.L, v.W, p.grid)
	eps := [][3]int64{{0, 0, 0}}
	var placed []model.PlacedItem
	var boxes []geom.Box

	for _, g := range groups {
		// within a stop, biggest items first
		items := append([]model.Item(nil), g...)
		sort.Slice(items, func(i, j int) bool {
			vi, vj := items[i].Volume(), items[j].Volume()
			if vi != vj {
				return vi > vj
			}
			return items[i].ID < items[j].ID
		})
		for _, it := range items {
			pos, dims, ok := p.findPlacement(v, hm, eps, boxes, it)
			if !ok {
				return model.PackResult{}
			}
			box := geom.Box{X: pos[0], Y: pos[1], Z: pos[2], LX: dims[0], LY: dims[1], LZ: dims[2]}
			placed = append(placed, model.PlacedItem{
				Item: it,
				X:    box.X, Y: box.Y, Z: box.Z,
				LX: box.LX, LY: box.LY, LZ: box.LZ,
			})
			boxes = append(boxes, box)
			hm.Commit(box.X, box.Y, box.LX, box.LY, box.Z+box.LZ, len(placed)-1)
			eps = updateExtremePoints(eps, box, v)
		}
	}

	var placedVol int64
	for _, pi := range placed {
		placedVol += pi.Item.Volume()
	}
	rate := 0.0
	if vol := v.Volume(); vol > 0 {
		rate = float64(placedVol) / float64(vol)
	}
	return model.PackResult{Feasible: true, LoadRate: rate, Placements: placed}
}

// findPlacement scans every extreme point and orientation, keeping the
// feasible candidate with the lowest score. The score prefers minimal X
// (innermost), then minimal Z (lowest), with Y as a tie-break, which is what
// makes the loading LIFO-consistent with the visit order.
func (p *Packer) findPlacement(v model.VehicleType, hm *geom.HeightMap, eps [][3]int64, boxes []geom.Box, it model.Item) ([3]int64, [3]int64, bool) {
	const eps9 = 1e-9
	bestScore := int64(-1)
	var bestPos, bestDims [3]int64
	for _, ep := range eps {
		x, y, z := ep[0], ep[1], ep[2]
		for _, rot := range it.Orientations() {
			l, w, h := rot[0], rot[1], rot[2]
			if x+l > v.L || y+w > v.W || z+h > v.H {
				continue
			}
			// broad phase: nothing committed protrudes above z under the
			// footprint, so no exact test is needed
			if hm.MaxHeight(x, y, l, w) > z {
				cand := geom.Box{X: x, Y: y, Z: z, LX: l, LY: w, LZ: h}
				collides := false
				for _, b := range boxes {
					if geom.Overlaps(cand, b) {
						collides = true
						break
					}
				}
				if collides {
					continue
				}
			}
			if z > 0 {
				ratio, ok := hm.Support(x, y, l, w, z)
				if !ok || ratio+eps9 < p.supportRatio {
					continue
				}
			}
			score := x*1000 + z*100 + y
			if bestScore < 0 || score < bestScore {
				bestScore = score
				bestPos = [3]int64{x, y, z}
				bestDims = [3]int64{l, w, h}
			}
		}
	}
	if bestScore < 0 {
		return [3]int64{}, [3]int64{}, false
	}
	return bestPos, bestDims, true
}

// updateExtremePoints drops points swallowed by the new box, exposes the
// three corners it opens up, dedupes, and keeps the list deterministically
// ordered.
func updateExtremePoints(eps [][3]int64, box geom.Box, v model.VehicleType) [][3]int64 {
	out := eps[:0:0]
	for _, ep := range eps {
		inside := ep[0] >= box.X && ep[0] < box.MaxX() &&
			ep[1] >= box.Y && ep[1] < box.MaxY() &&
			ep[2] >= box.Z && ep[2] < box.MaxZ()
		if !inside {
			out = append(out, ep)
		}
	}
	for _, c := range [][3]int64{
		{box.MaxX(), box.Y, box.Z},
		{box.X, box.MaxY(), box.Z},
		{box.X, box.Y, box.MaxZ()},
	} {
		if c[0] >= v.L || c[1] >= v.W || c[2] >= v.H {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		if out[i][2] != out[j][2] {
			return out[i][2] < out[j][2]
		}
		return out[i][1] < out[j][1]
	})
	dedup := out[:0]
	for i, ep := range out {
		if i == 0 || ep != out[i-1] {
			dedup = append(dedup, ep)
		}
	}
	return dedup
}
